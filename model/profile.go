package model

import "time"

// RankTier is the coarse progression bracket derived from level.
type RankTier string

const (
	RankBronze   RankTier = "bronze"
	RankSilver   RankTier = "silver"
	RankGold     RankTier = "gold"
	RankPlatinum RankTier = "platinum"
)

// UserProfile is the per-user progression record. One profile exists
// per account (unique index on user_id); it is only ever mutated by
// the submission and approval flows.
type UserProfile struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Username          string    `gorm:"size:32;not null" json:"username"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastActive        time.Time `json:"last_active"`
	QuestsCompleted   int64     `gorm:"default:0" json:"quests_completed"`
	QuestsAttempted   int64     `gorm:"default:0" json:"quests_attempted"`
	ExperiencePoints  int64     `gorm:"default:0" json:"experience_points"`
	Level             int       `gorm:"default:0" json:"level"`
	TotalTokensEarned int64     `gorm:"default:0" json:"total_tokens_earned"`
	UniqueLocations   int64     `gorm:"default:0" json:"unique_locations"`
	CurrentStreak     int64     `gorm:"default:0" json:"current_streak"`
	LongestStreak     int64     `gorm:"default:0" json:"longest_streak"`
	LastQuestDate     int64     `gorm:"default:0" json:"last_quest_date"` // unix seconds
	Achievements      int64     `gorm:"default:0" json:"achievements"`   // bitmap
	RankTier          RankTier  `gorm:"size:16;default:bronze" json:"rank_tier"`
}
