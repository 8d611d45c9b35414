// Package submission handles proof-of-completion claims and their
// validation. Approval is the only path that grants rewards; it runs
// the whole payout inside one transaction so a failed counter update
// leaves both the submission and the profile untouched.
package submission

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
	"github.com/xploralabs/xplora/server/quest/progression"
)

type Service struct {
	db     *gorm.DB
	pub    *events.Publisher
	logger *zap.Logger
}

func NewService(gdb *gorm.DB, pub *events.Publisher, logger *zap.Logger) *Service {
	return &Service{db: gdb, pub: pub, logger: logger}
}

// SubmitInput carries a new proof claim.
type SubmitInput struct {
	UserID      int64
	Location    string
	QuestIndex  int
	ProofHash   string
	Description string
}

// Submit records a pending claim against an existing quest. The
// submitter must already hold a profile; the attempt counter is bumped
// in the same transaction.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.Submission, error) {
	if err := policy.ValidateLocation(in.Location); err != nil {
		return nil, err
	}
	if err := policy.ValidateProofHash(in.ProofHash); err != nil {
		return nil, err
	}
	if err := policy.ValidateSubmissionNote(in.Description); err != nil {
		return nil, err
	}

	sub := &model.Submission{
		UserID:        in.UserID,
		Location:      in.Location,
		QuestIndex:    in.QuestIndex,
		ProofHash:     in.ProofHash,
		Description:   in.Description,
		Status:        model.SubmissionPending,
		AttemptNumber: 1,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat model.QuestCatalog
		err := tx.Where("location = ?", in.Location).First(&cat).Error
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
		if in.QuestIndex < 0 || in.QuestIndex >= len(quests) {
			return policy.ErrInvalidQuestIndex
		}

		var prof model.UserProfile
		err = tx.Where("user_id = ?", in.UserID).First(&prof).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Create(sub).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return policy.ErrSubmissionExists
			}
			return err
		}

		attempted, err := policy.CheckedAdd(prof.QuestsAttempted, 1)
		if err != nil {
			return err
		}
		return tx.Model(&prof).Updates(map[string]any{
			"quests_attempted": attempted,
			"last_active":      time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission created",
		zap.Int64("submission_id", sub.ID),
		zap.Int64("user_id", in.UserID),
		zap.String("location", in.Location),
		zap.Int("quest_index", in.QuestIndex))
	s.pub.Publish(ctx, events.TypeSubmissionCreated, events.SubmissionEvent{
		SubmissionID: sub.ID,
		UserID:       in.UserID,
		Location:     in.Location,
		QuestIndex:   in.QuestIndex,
	})
	return sub, nil
}

// Approve validates a pending claim and pays out its reward. Only the
// registry authority may approve. The quest index is re-resolved at
// approval time because the catalog may have shrunk since submission.
func (s *Service) Approve(ctx context.Context, validatorID, submissionID int64) (*model.Submission, *model.UserProfile, error) {
	var (
		sub    model.Submission
		prof   model.UserProfile
		reward events.RewardEvent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg model.Registry
		err := tx.First(&reg, model.RegistryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrNotInitialized
		}
		if err != nil {
			return err
		}
		if reg.AuthorityID != validatorID {
			return policy.ErrUnauthorized
		}

		err = tx.First(&sub, submissionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrSubmissionNotFound
		}
		if err != nil {
			return err
		}
		if sub.Status != model.SubmissionPending {
			return policy.ErrSubmissionNotPending
		}

		var cat model.QuestCatalog
		err = tx.Where("location = ?", sub.Location).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrLocationNotFound
		}
		if err != nil {
			return err
		}
		quests, err := cat.DecodeQuests()
		if err != nil {
			return err
		}
		if sub.QuestIndex < 0 || sub.QuestIndex >= len(quests) {
			return policy.ErrInvalidQuestIndex
		}
		quest := quests[sub.QuestIndex]

		err = tx.Where("user_id = ?", sub.UserID).First(&prof).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now()
		xpBefore := prof.ExperiencePoints
		tokens, err := progression.ApplyApproval(&prof, quest.Difficulty, now)
		if err != nil {
			return err
		}
		if prof.QuestsCompleted == 1 || sub.QuestIndex == 0 {
			unique, err := policy.CheckedAdd(prof.UniqueLocations, 1)
			if err != nil {
				return err
			}
			prof.UniqueLocations = unique
		}
		if err := tx.Save(&prof).Error; err != nil {
			return err
		}

		sub.Status = model.SubmissionApproved
		sub.ValidatorID = &validatorID
		sub.ValidatedAt = &now
		sub.RewardAmount = tokens
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		reward = events.RewardEvent{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			Location:     sub.Location,
			QuestIndex:   sub.QuestIndex,
			XPGained:     prof.ExperiencePoints - xpBefore,
			TokensEarned: tokens,
			NewLevel:     prof.Level,
			RankTier:     prof.RankTier,
			Streak:       prof.CurrentStreak,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("submission approved",
		zap.Int64("submission_id", sub.ID),
		zap.Int64("user_id", sub.UserID),
		zap.Int64("tokens", reward.TokensEarned),
		zap.Int("level", reward.NewLevel))
	s.pub.Publish(ctx, events.TypeRewardGranted, reward)
	return &sub, &prof, nil
}

// Reject marks a pending claim rejected with a reason. The reason goes
// out on the event stream but is not stored on the record.
func (s *Service) Reject(ctx context.Context, validatorID, submissionID int64, reason string) (*model.Submission, error) {
	if err := policy.ValidateRejectionReason(reason); err != nil {
		return nil, err
	}
	var sub model.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg model.Registry
		err := tx.First(&reg, model.RegistryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrNotInitialized
		}
		if err != nil {
			return err
		}
		if reg.AuthorityID != validatorID {
			return policy.ErrUnauthorized
		}

		err = tx.First(&sub, submissionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ErrSubmissionNotFound
		}
		if err != nil {
			return err
		}
		if sub.Status != model.SubmissionPending {
			return policy.ErrSubmissionNotPending
		}

		now := time.Now()
		sub.Status = model.SubmissionRejected
		sub.ValidatorID = &validatorID
		sub.ValidatedAt = &now
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission rejected",
		zap.Int64("submission_id", sub.ID),
		zap.Int64("user_id", sub.UserID))
	s.pub.Publish(ctx, events.TypeSubmissionRejected, events.SubmissionEvent{
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		Location:     sub.Location,
		QuestIndex:   sub.QuestIndex,
		Reason:       reason,
	})
	return &sub, nil
}

// ListFilter narrows List results. Zero values mean no filter.
type ListFilter struct {
	UserID   int64
	Location string
	Status   *model.SubmissionStatus
}

// List returns submissions matching the filter, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]model.Submission, error) {
	q := s.db.WithContext(ctx).Model(&model.Submission{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Location != "" {
		q = q.Where("location = ?", f.Location)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	var subs []model.Submission
	if err := q.Order("id DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Get returns one submission by ID.
func (s *Service) Get(ctx context.Context, id int64) (*model.Submission, error) {
	var sub model.Submission
	err := s.db.WithContext(ctx).First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, policy.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
