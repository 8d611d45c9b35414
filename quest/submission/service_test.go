package submission

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/events"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/catalog"
	"github.com/xploralabs/xplora/server/quest/policy"
	"github.com/xploralabs/xplora/server/quest/profile"
	"github.com/xploralabs/xplora/server/testutil"
)

const (
	validatorID int64 = 1
	explorerID  int64 = 2
	strangerID  int64 = 3

	proofHash = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

type fixture struct {
	db          *gorm.DB
	catalogs    *catalog.Service
	profiles    *profile.Service
	submissions *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.SetupTestDB(t)
	pub := events.NewPublisher(testutil.SetupTestPubSub(t), testutil.Logger())
	f := &fixture{
		db:          gdb,
		catalogs:    catalog.NewService(gdb, pub, testutil.Logger()),
		profiles:    profile.NewService(gdb, pub, testutil.Logger()),
		submissions: NewService(gdb, pub, testutil.Logger()),
	}
	ctx := context.Background()
	_, err := f.catalogs.InitializeRegistry(ctx, validatorID)
	require.NoError(t, err)
	_, err = f.catalogs.Create(ctx, validatorID, "pokhara", []model.Quest{
		questWithDifficulty(model.DifficultyEasy),
		questWithDifficulty(model.DifficultyMedium),
		questWithDifficulty(model.DifficultyHard),
	})
	require.NoError(t, err)
	_, err = f.profiles.Initialize(ctx, explorerID, "trekker")
	require.NoError(t, err)
	return f
}

func questWithDifficulty(d model.Difficulty) model.Quest {
	return model.Quest{
		Title:              "Lakeside walk",
		Description:        "Walk the lakeside trail and photograph the stupa",
		Type:               model.QuestTypeExploration,
		Difficulty:         d,
		TimeToLiveHours:    24,
		VerifiableLandmark: "World Peace Pagoda",
		LandmarkName:       "Pagoda",
		Latitude:           28.2,
		Longitude:          83.9,
	}
}

func (f *fixture) submit(t *testing.T, index int) *model.Submission {
	t.Helper()
	sub, err := f.submissions.Submit(context.Background(), SubmitInput{
		UserID:     explorerID,
		Location:   "pokhara",
		QuestIndex: index,
		ProofHash:  proofHash,
	})
	require.NoError(t, err)
	return sub
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 1)
	assert.Equal(t, model.SubmissionPending, sub.Status)
	assert.Equal(t, 1, sub.AttemptNumber)

	prof, err := f.profiles.Get(ctx, explorerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prof.QuestsAttempted)
	assert.Equal(t, int64(0), prof.QuestsCompleted)
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.submissions.Submit(ctx, SubmitInput{
		UserID: explorerID, Location: "pokhara", QuestIndex: 0, ProofHash: "not-a-hash",
	})
	assert.ErrorIs(t, err, policy.ErrInvalidProofHash)

	_, err = f.submissions.Submit(ctx, SubmitInput{
		UserID: explorerID, Location: "pokhara", QuestIndex: 9, ProofHash: proofHash,
	})
	assert.ErrorIs(t, err, policy.ErrInvalidQuestIndex)

	_, err = f.submissions.Submit(ctx, SubmitInput{
		UserID: explorerID, Location: "nowhere", QuestIndex: 0, ProofHash: proofHash,
	})
	assert.ErrorIs(t, err, policy.ErrLocationNotFound)

	_, err = f.submissions.Submit(ctx, SubmitInput{
		UserID: strangerID, Location: "pokhara", QuestIndex: 0, ProofHash: proofHash,
	})
	assert.ErrorIs(t, err, policy.ErrProfileNotFound)

	_, err = f.submissions.Submit(ctx, SubmitInput{
		UserID: explorerID, Location: "pokhara", QuestIndex: 0,
		ProofHash: proofHash, Description: strings.Repeat("n", 201),
	})
	assert.ErrorIs(t, err, policy.ErrInvalidDescription)

	// nothing above should have counted as an attempt
	prof, err := f.profiles.Get(ctx, explorerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prof.QuestsAttempted)
}

func TestSubmit_OncePerQuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.submit(t, 0)
	_, err := f.submissions.Submit(ctx, SubmitInput{
		UserID: explorerID, Location: "pokhara", QuestIndex: 0, ProofHash: proofHash,
	})
	assert.ErrorIs(t, err, policy.ErrSubmissionExists)

	// a different quest in the same location is fine
	f.submit(t, 1)

	prof, err := f.profiles.Get(ctx, explorerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), prof.QuestsAttempted)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 1) // medium difficulty

	got, prof, err := f.submissions.Approve(ctx, validatorID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionApproved, got.Status)
	require.NotNil(t, got.ValidatorID)
	assert.Equal(t, validatorID, *got.ValidatorID)
	assert.NotNil(t, got.ValidatedAt)
	assert.Equal(t, int64(150_000_000), got.RewardAmount)

	assert.Equal(t, int64(1), prof.QuestsCompleted)
	assert.Equal(t, int64(150), prof.ExperiencePoints)
	assert.Equal(t, int64(150_000_000), prof.TotalTokensEarned)
	assert.Equal(t, int64(1), prof.CurrentStreak)
	// first completion counts as a new location
	assert.Equal(t, int64(1), prof.UniqueLocations)
}

func TestApprove_Idempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 0)
	_, _, err := f.submissions.Approve(ctx, validatorID, sub.ID)
	require.NoError(t, err)

	_, _, err = f.submissions.Approve(ctx, validatorID, sub.ID)
	assert.ErrorIs(t, err, policy.ErrSubmissionNotPending)
	_, err = f.submissions.Reject(ctx, validatorID, sub.ID, "too late")
	assert.ErrorIs(t, err, policy.ErrSubmissionNotPending)

	// rewards were granted exactly once
	prof, err := f.profiles.Get(ctx, explorerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prof.QuestsCompleted)
	assert.Equal(t, int64(100), prof.ExperiencePoints)
}

func TestApprove_OnlyAuthority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 0)
	_, _, err := f.submissions.Approve(ctx, strangerID, sub.ID)
	assert.ErrorIs(t, err, policy.ErrUnauthorized)
	_, _, err = f.submissions.Approve(ctx, explorerID, sub.ID)
	assert.ErrorIs(t, err, policy.ErrUnauthorized)

	got, err := f.submissions.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, got.Status)
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.submissions.Approve(context.Background(), validatorID, 404)
	assert.ErrorIs(t, err, policy.ErrSubmissionNotFound)
}

// Deleting quests after submission can leave the claimed index past the
// end of the catalog; approval must refuse it.
func TestApprove_StaleIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 2)
	_, err := f.catalogs.DeleteQuest(ctx, validatorID, "pokhara", 2)
	require.NoError(t, err)

	_, _, err = f.submissions.Approve(ctx, validatorID, sub.ID)
	assert.ErrorIs(t, err, policy.ErrInvalidQuestIndex)

	got, err := f.submissions.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, got.Status)
}

// An overflow during payout must roll back the whole approval.
func TestApprove_OverflowRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 0)
	require.NoError(t, f.db.Model(&model.UserProfile{}).
		Where("user_id = ?", explorerID).
		Update("experience_points", int64(math.MaxInt64-10)).Error)

	_, _, err := f.submissions.Approve(ctx, validatorID, sub.ID)
	assert.ErrorIs(t, err, policy.ErrOverflow)

	got, err := f.submissions.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, got.Status)
	assert.Zero(t, got.RewardAmount)

	prof, err := f.profiles.Get(ctx, explorerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prof.QuestsCompleted)
	assert.Equal(t, int64(math.MaxInt64-10), prof.ExperiencePoints)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.submit(t, 0)
	got, err := f.submissions.Reject(ctx, validatorID, sub.ID, "photo does not show the landmark")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionRejected, got.Status)
	require.NotNil(t, got.ValidatorID)
	assert.Equal(t, validatorID, *got.ValidatorID)
	assert.NotNil(t, got.ValidatedAt)
	assert.Zero(t, got.RewardAmount)

	// rejection grants nothing
	prof, err := f.profiles.Get(ctx, explorerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prof.QuestsCompleted)
	assert.Equal(t, int64(0), prof.ExperiencePoints)

	// and locks the record too
	_, _, err = f.submissions.Approve(ctx, validatorID, sub.ID)
	assert.ErrorIs(t, err, policy.ErrSubmissionNotPending)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 0)
	_, err := f.submissions.Reject(context.Background(), validatorID, sub.ID, "")
	assert.ErrorIs(t, err, policy.ErrInvalidDescription)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.submit(t, 0)
	b := f.submit(t, 1)
	_, _, err := f.submissions.Approve(ctx, validatorID, b.ID)
	require.NoError(t, err)

	all, err := f.submissions.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// newest first
	assert.Equal(t, b.ID, all[0].ID)

	pending := model.SubmissionPending
	got, err := f.submissions.List(ctx, ListFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = f.submissions.List(ctx, ListFilter{UserID: explorerID, Location: "pokhara"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
