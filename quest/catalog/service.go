// Package catalog manages the registry singleton and the per-location
// quest catalogs. All mutations require the caller to be the registry
// authority and run inside a transaction.
package catalog

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

// InitializeRegistry creates the singleton registry with the given
// authority. A second call fails regardless of caller.
func (s *Service) InitializeRegistry(ctx context.Context, authorityID int64) (*model.Registry, error) {
	reg := &model.Registry{
		ID:          model.RegistryID,
		AuthorityID: authorityID,
		Version:     model.RegistryVersion,
	}
	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, policy.ErrAlreadyInitialized
		}
		return nil, err
	}
	s.logger.Info("registry initialized", zap.Int64("authority_id", authorityID))
	s.pub.Publish(ctx, events.TypeRegistryInitialized, events.CatalogEvent{AuthorityID: authorityID})
	return reg, nil
}

// Registry fetches the singleton registry.
func (s *Service) Registry(ctx context.Context) (*model.Registry, error) {
	var reg model.Registry
	err := s.db.WithContext(ctx).First(&reg, model.RegistryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, policy.ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// requireAuthority loads the registry inside tx and checks the caller
// against its authority.
func requireAuthority(tx *gorm.DB, callerID int64) (*model.Registry, error) {
	var reg model.Registry
	err := tx.First(&reg, model.RegistryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, policy.ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	if reg.AuthorityID != callerID {
		return nil, policy.ErrUnauthorized
	}
	return &reg, nil
}

// Create publishes a new catalog for a location. The quest list must
// have 1 to 10 valid quests; the registry location counter is bumped
// in the same transaction.
func (s *Service) Create(ctx context.Context, callerID int64, location string, quests []model.Quest) (*model.QuestCatalog, error) {
	if err := policy.ValidateLocation(location); err != nil {
		return nil, err
	}
	if len(quests) == 0 {
		return nil, policy.ErrEmptyQuests
	}
	if len(quests) > policy.MaxQuestsPerLocation {
		return nil, policy.ErrTooManyQuests
	}
	for i := range quests {
		if err := policy.ValidateQuest(quests[i]); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	cat := &model.QuestCatalog{
		Location:    location,
		Initialized: true,
		UpdatedAt:   now,
	}
	for i := range quests {
		quests[i].CreatedAt = now.Unix()
	}
	if err := cat.EncodeQuests(quests); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg, err := requireAuthority(tx, callerID)
		if err != nil {
			return err
		}
		if err := tx.Create(cat).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return policy.ErrLocationExists
			}
			return err
		}
		total, err := policy.CheckedAdd(reg.TotalLocations, 1)
		if err != nil {
			return err
		}
		return tx.Model(reg).Update("total_locations", total).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("catalog created",
		zap.String("location", location),
		zap.Int("quests", len(quests)))
	s.pub.Publish(ctx, events.TypeCatalogCreated, events.CatalogEvent{
		AuthorityID: callerID,
		Location:    location,
		QuestCount:  len(quests),
	})
	return cat, nil
}

// Get returns the catalog for a location with its decoded quest list.
func (s *Service) Get(ctx context.Context, location string) (*model.QuestCatalog, []model.Quest, error) {
	if err := policy.ValidateLocation(location); err != nil {
		return nil, nil, err
	}
	var cat model.QuestCatalog
	err := s.db.WithContext(ctx).Where("location = ?", location).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, policy.ErrLocationNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	quests, err := cat.DecodeQuests()
	if err != nil {
		return nil, nil, err
	}
	return &cat, quests, nil
}

// mutate runs fn against a location's decoded quest list under the
// authority check and writes the result back.
func (s *Service) mutate(ctx context.Context, callerID int64, location string, fn func([]model.Quest) ([]model.Quest, error)) (*model.QuestCatalog, error) {
	if err := policy.ValidateLocation(location); err != nil {
		return nil, err
	}
	var cat model.QuestCatalog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireAuthority(tx, callerID); err != nil {
			return err
		}
		err := tx.Where("location = ?", location).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrLocationNotFound
		}
		if err != nil {
			return err
		}
		if !cat.Initialized {
			return policy.ErrNotInitialized
		}
		quests, err := cat.DecodeQuests()
		if err != nil {
			return err
		}
		quests, err = fn(quests)
		if err != nil {
			return err
		}
		if err := cat.EncodeQuests(quests); err != nil {
			return err
		}
		cat.UpdatedAt = time.Now()
		return tx.Save(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// AddQuest appends a quest to a location's catalog.
func (s *Service) AddQuest(ctx context.Context, callerID int64, location string, q model.Quest) (*model.QuestCatalog, error) {
	if err := policy.ValidateQuest(q); err != nil {
		return nil, err
	}
	cat, err := s.mutate(ctx, callerID, location, func(quests []model.Quest) ([]model.Quest, error) {
		if len(quests) >= policy.MaxQuestsPerLocation {
			return nil, policy.ErrTooManyQuests
		}
		q.CreatedAt = time.Now().Unix()
		return append(quests, q), nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, events.TypeQuestAdded, events.CatalogEvent{
		AuthorityID: callerID,
		Location:    location,
	})
	return cat, nil
}

// UpdateQuest replaces the quest at index, keeping its original
// creation time.
func (s *Service) UpdateQuest(ctx context.Context, callerID int64, location string, index int, q model.Quest) (*model.QuestCatalog, error) {
	if err := policy.ValidateQuest(q); err != nil {
		return nil, err
	}
	cat, err := s.mutate(ctx, callerID, location, func(quests []model.Quest) ([]model.Quest, error) {
		if index < 0 || index >= len(quests) {
			return nil, policy.ErrInvalidQuestIndex
		}
		q.CreatedAt = quests[index].CreatedAt
		quests[index] = q
		return quests, nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, events.TypeQuestUpdated, events.CatalogEvent{
		AuthorityID: callerID,
		Location:    location,
		QuestIndex:  &index,
	})
	return cat, nil
}

// DeleteQuest removes the quest at index. Later quests shift down, so
// outstanding submissions against this location may point at a
// different quest afterwards; approval re-resolves the index.
func (s *Service) DeleteQuest(ctx context.Context, callerID int64, location string, index int) (*model.QuestCatalog, error) {
	cat, err := s.mutate(ctx, callerID, location, func(quests []model.Quest) ([]model.Quest, error) {
		if index < 0 || index >= len(quests) {
			return nil, policy.ErrInvalidQuestIndex
		}
		return append(quests[:index], quests[index+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, events.TypeQuestDeleted, events.CatalogEvent{
		AuthorityID: callerID,
		Location:    location,
		QuestIndex:  &index,
	})
	return cat, nil
}
