// Package ranking maintains the XP leaderboard in a cache sorted set
// and serves ranked reads from it, falling back to the database when
// the set has not been populated yet.
package ranking

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/profile"
)

// Key is the sorted-set key holding user_id members scored by XP.
const Key = "ranking:xp"

// Entry is one leaderboard row.
type Entry struct {
	Rank             int            `json:"rank"`
	UserID           int64          `json:"user_id"`
	Username         string         `json:"username"`
	ExperiencePoints int64          `json:"experience_points"`
	Level            int            `json:"level"`
	RankTier         model.RankTier `json:"rank_tier"`
}

type Service struct {
	cache    cache.Cache
	profiles *profile.Service
	logger   *zap.Logger
}

func NewService(c cache.Cache, profiles *profile.Service, logger *zap.Logger) *Service {
	return &Service{cache: c, profiles: profiles, logger: logger}
}

// Record updates a user's score after an approval.
func (s *Service) Record(ctx context.Context, p *model.UserProfile) {
	err := s.cache.ZAdd(ctx, Key, float64(p.ExperiencePoints), strconv.FormatInt(p.UserID, 10))
	if err != nil {
		s.logger.Warn("update ranking", zap.Int64("user_id", p.UserID), zap.Error(err))
	}
}

// Refresh rebuilds the sorted set from the top database rows. Run
// periodically so the set converges even if individual updates were
// lost.
func (s *Service) Refresh(ctx context.Context, limit int) error {
	profiles, err := s.profiles.Top(ctx, limit)
	if err != nil {
		return err
	}
	for i := range profiles {
		p := &profiles[i]
		if err := s.cache.ZAdd(ctx, Key, float64(p.ExperiencePoints), strconv.FormatInt(p.UserID, 10)); err != nil {
			return err
		}
	}
	return nil
}

// Top returns the leaderboard. The cache holds only user IDs, so rows
// are hydrated from the database; users whose profile disappeared are
// skipped. An empty set falls back to the database ordering directly.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	members, err := s.cache.ZRevRange(ctx, Key, 0, int64(limit-1))
	if err != nil || len(members) == 0 {
		if err != nil {
			s.logger.Warn("ranking cache read", zap.Error(err))
		}
		return s.topFromDB(ctx, limit)
	}

	entries := make([]Entry, 0, len(members))
	for _, member := range members {
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		p, err := s.profiles.Get(ctx, userID)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Rank:             len(entries) + 1,
			UserID:           p.UserID,
			Username:         p.Username,
			ExperiencePoints: p.ExperiencePoints,
			Level:            p.Level,
			RankTier:         p.RankTier,
		})
	}
	return entries, nil
}

func (s *Service) topFromDB(ctx context.Context, limit int) ([]Entry, error) {
	profiles, err := s.profiles.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		entries[i] = Entry{
			Rank:             i + 1,
			UserID:           p.UserID,
			Username:         p.Username,
			ExperiencePoints: p.ExperiencePoints,
			Level:            p.Level,
			RankTier:         p.RankTier,
		}
	}
	return entries, nil
}
