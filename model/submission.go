package model

import "time"

// SubmissionStatus is the lifecycle state of a proof submission.
type SubmissionStatus = int

const (
	SubmissionPending  SubmissionStatus = 0
	SubmissionApproved SubmissionStatus = 1
	SubmissionRejected SubmissionStatus = 2
)

// Submission is one proof-of-completion claim. The composite unique
// index on (user_id, location, quest_index) allows a single outstanding
// claim per user and quest; a second submit for the same triple
// collides instead of creating a new record.
type Submission struct {
	ID            int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64            `gorm:"uniqueIndex:idx_sub_triple;not null" json:"user_id"`
	Location      string           `gorm:"uniqueIndex:idx_sub_triple;size:64;not null" json:"location"`
	QuestIndex    int              `gorm:"uniqueIndex:idx_sub_triple;not null" json:"quest_index"`
	ProofHash     string           `gorm:"size:128;not null" json:"proof_hash"`
	Description   string           `gorm:"size:200" json:"description"`
	SubmittedAt   time.Time        `gorm:"autoCreateTime" json:"submitted_at"`
	Status        SubmissionStatus `gorm:"default:0;index:idx_sub_status" json:"status"`
	ValidatorID   *int64           `json:"validator_id"`
	ValidatedAt   *time.Time       `json:"validated_at"`
	RewardAmount  int64            `gorm:"default:0" json:"reward_amount"`
	AttemptNumber int              `gorm:"default:1" json:"attempt_number"`
}
