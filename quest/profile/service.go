// Package profile manages per-user progression records.
package profile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/db"
	"github.com/xploralabs/xplora/server/events"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/policy"
)

type Service struct {
	db     *gorm.DB
	pub    *events.Publisher
	logger *zap.Logger
}

func NewService(gdb *gorm.DB, pub *events.Publisher, logger *zap.Logger) *Service {
	return &Service{db: gdb, pub: pub, logger: logger}
}

// Initialize creates the progression record for a user. Each user gets
// exactly one; a second call fails.
func (s *Service) Initialize(ctx context.Context, userID int64, username string) (*model.UserProfile, error) {
	if err := policy.ValidateUsername(username); err != nil {
		return nil, err
	}
	p := &model.UserProfile{
		UserID:     userID,
		Username:   username,
		LastActive: time.Now(),
		RankTier:   model.RankBronze,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, policy.ErrProfileExists
		}
		return nil, err
	}
	s.logger.Info("profile initialized", zap.Int64("user_id", userID), zap.String("username", username))
	s.pub.Publish(ctx, events.TypeProfileCreated, events.ProfileEvent{UserID: userID, Username: username})
	return p, nil
}

// Get returns the progression record for a user.
func (s *Service) Get(ctx context.Context, userID int64) (*model.UserProfile, error) {
	var p model.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, policy.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save persists profile mutations.
func (s *Service) Save(ctx context.Context, p *model.UserProfile) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// Top returns the highest-XP profiles, for the ranking fallback path
// and the periodic cache refresh.
func (s *Service) Top(ctx context.Context, limit int) ([]model.UserProfile, error) {
	if limit <= 0 {
		limit = 10
	}
	var profiles []model.UserProfile
	err := s.db.WithContext(ctx).
		Order("experience_points DESC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
