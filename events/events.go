// Package events publishes domain events to the quest_events pub/sub
// channel. Publishing is fire and forget: a delivery failure is logged
// and never rolls back the operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/model"
)

// Channel is the pub/sub channel all domain events go out on.
const Channel = "quest_events"

// Event types.
const (
	TypeRegistryInitialized = "registry_initialized"
	TypeCatalogCreated      = "catalog_created"
	TypeQuestAdded          = "quest_added"
	TypeQuestUpdated        = "quest_updated"
	TypeQuestDeleted        = "quest_deleted"
	TypeProfileCreated      = "profile_created"
	TypeSubmissionCreated   = "submission_created"
	TypeSubmissionRejected  = "submission_rejected"
	TypeRewardGranted       = "reward_granted"
)

// Envelope wraps every published event.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// CatalogEvent covers registry and catalog lifecycle events.
type CatalogEvent struct {
	AuthorityID int64  `json:"authority_id"`
	Location    string `json:"location,omitempty"`
	QuestIndex  *int   `json:"quest_index,omitempty"`
	QuestCount  int    `json:"quest_count,omitempty"`
}

// ProfileEvent announces a newly initialized profile.
type ProfileEvent struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// SubmissionEvent covers submission creation and rejection.
type SubmissionEvent struct {
	SubmissionID int64  `json:"submission_id"`
	UserID       int64  `json:"user_id"`
	Location     string `json:"location"`
	QuestIndex   int    `json:"quest_index"`
	Reason       string `json:"reason,omitempty"`
}

// RewardEvent announces an approval payout.
type RewardEvent struct {
	SubmissionID int64          `json:"submission_id"`
	UserID       int64          `json:"user_id"`
	Location     string         `json:"location"`
	QuestIndex   int            `json:"quest_index"`
	XPGained     int64          `json:"xp_gained"`
	TokensEarned int64          `json:"tokens_earned"`
	NewLevel     int            `json:"new_level"`
	RankTier     model.RankTier `json:"rank_tier"`
	Streak       int64          `json:"streak"`
}

// Publisher serializes events onto the pub/sub channel.
type Publisher struct {
	ps     cache.PubSub
	logger *zap.Logger
}

func NewPublisher(ps cache.PubSub, logger *zap.Logger) *Publisher {
	return &Publisher{ps: ps, logger: logger}
}

// Publish marshals the payload into an envelope and sends it. Errors
// are logged, not returned.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	if p == nil || p.ps == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal event payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	env, err := json.Marshal(Envelope{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	if err != nil {
		p.logger.Error("marshal event envelope", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := p.ps.Publish(ctx, Channel, string(env)); err != nil {
		p.logger.Warn("publish event", zap.String("type", eventType), zap.Error(err))
	}
}
