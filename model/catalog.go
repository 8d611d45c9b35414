package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// QuestType categorizes what a quest asks the explorer to do.
type QuestType string

const (
	QuestTypeDiscovery   QuestType = "discovery"
	QuestTypeExploration QuestType = "exploration"
	QuestTypeChallenge   QuestType = "challenge"
)

// Difficulty is the quest difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Quest is one entry in a location's catalog. Quests are value types
// stored as a JSON array on the catalog row; they are addressed by
// their position in that array.
type Quest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Type               QuestType  `json:"quest_type"`
	Difficulty         Difficulty `json:"difficulty"`
	TimeToLiveHours    int        `json:"time_to_live_hours"`
	VerifiableLandmark string     `json:"verifiable_landmark"`
	LandmarkName       string     `json:"landmark_name"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	CreatedAt          int64      `json:"created_at"` // unix seconds, immutable once set
}

// QuestCatalog holds the ordered quest list for one location.
// The unique index on Location gives catalog creation its
// at-most-one-per-location semantics.
type QuestCatalog struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Location    string         `gorm:"uniqueIndex;size:64;not null" json:"location"`
	Quests      datatypes.JSON `json:"quests"`
	Initialized bool           `gorm:"default:false" json:"initialized"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DecodeQuests unmarshals the catalog's quest list.
func (c *QuestCatalog) DecodeQuests() ([]Quest, error) {
	if len(c.Quests) == 0 {
		return nil, nil
	}
	var quests []Quest
	if err := json.Unmarshal(c.Quests, &quests); err != nil {
		return nil, err
	}
	return quests, nil
}

// EncodeQuests marshals the quest list back onto the catalog row.
func (c *QuestCatalog) EncodeQuests(quests []Quest) error {
	raw, err := json.Marshal(quests)
	if err != nil {
		return err
	}
	c.Quests = datatypes.JSON(raw)
	return nil
}
