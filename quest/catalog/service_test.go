package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xploralabs/xplora/server/events"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/policy"
	"github.com/xploralabs/xplora/server/testutil"
)

const (
	authorityID int64 = 1
	strangerID  int64 = 2
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gdb := testutil.SetupTestDB(t)
	pub := events.NewPublisher(testutil.SetupTestPubSub(t), testutil.Logger())
	return NewService(gdb, pub, testutil.Logger())
}

func initializedService(t *testing.T) *Service {
	t.Helper()
	s := newTestService(t)
	_, err := s.InitializeRegistry(context.Background(), authorityID)
	require.NoError(t, err)
	return s
}

func sampleQuest(title string) model.Quest {
	return model.Quest{
		Title:              title,
		Description:        "Visit the site and photograph the marker",
		Type:               model.QuestTypeDiscovery,
		Difficulty:         model.DifficultyEasy,
		TimeToLiveHours:    24,
		VerifiableLandmark: "Stone marker at the entrance",
		LandmarkName:       "Entrance",
		Latitude:           27.7,
		Longitude:          85.3,
	}
}

func TestInitializeRegistry_Once(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	reg, err := s.InitializeRegistry(ctx, authorityID)
	require.NoError(t, err)
	assert.Equal(t, authorityID, reg.AuthorityID)
	assert.Equal(t, model.RegistryVersion, reg.Version)
	assert.Equal(t, int64(0), reg.TotalLocations)

	_, err = s.InitializeRegistry(ctx, strangerID)
	assert.ErrorIs(t, err, policy.ErrAlreadyInitialized)

	got, err := s.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, authorityID, got.AuthorityID)
}

func TestRegistry_NotInitialized(t *testing.T) {
	s := newTestService(t)
	_, err := s.Registry(context.Background())
	assert.ErrorIs(t, err, policy.ErrNotInitialized)
}

func TestCreate(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	cat, err := s.Create(ctx, authorityID, "pokhara", []model.Quest{sampleQuest("Lakeside walk")})
	require.NoError(t, err)
	assert.True(t, cat.Initialized)

	_, quests, err := s.Get(ctx, "pokhara")
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, "Lakeside walk", quests[0].Title)
	assert.NotZero(t, quests[0].CreatedAt)

	reg, err := s.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reg.TotalLocations)
}

func TestCreate_Rejections(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, strangerID, "pokhara", []model.Quest{sampleQuest("q")})
	assert.ErrorIs(t, err, policy.ErrUnauthorized)

	_, err = s.Create(ctx, authorityID, "pokhara", nil)
	assert.ErrorIs(t, err, policy.ErrEmptyQuests)

	var many []model.Quest
	for i := 0; i < 11; i++ {
		many = append(many, sampleQuest("q"))
	}
	_, err = s.Create(ctx, authorityID, "pokhara", many)
	assert.ErrorIs(t, err, policy.ErrTooManyQuests)

	bad := sampleQuest("q")
	bad.Latitude = 10.0
	_, err = s.Create(ctx, authorityID, "pokhara", []model.Quest{sampleQuest("ok"), bad})
	assert.ErrorIs(t, err, policy.ErrInvalidLatitude)

	_, err = s.Create(ctx, authorityID, strings.Repeat("x", 65), []model.Quest{sampleQuest("q")})
	assert.ErrorIs(t, err, policy.ErrInvalidLocation)

	// rejected creates must not bump the counter
	reg, err := s.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reg.TotalLocations)
}

func TestCreate_DuplicateLocation(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, authorityID, "pokhara", []model.Quest{sampleQuest("a")})
	require.NoError(t, err)
	_, err = s.Create(ctx, authorityID, "pokhara", []model.Quest{sampleQuest("b")})
	assert.ErrorIs(t, err, policy.ErrLocationExists)

	reg, err := s.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reg.TotalLocations)
}

func TestAddQuest(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, authorityID, "pokhara", []model.Quest{sampleQuest("a")})
	require.NoError(t, err)

	_, err = s.AddQuest(ctx, authorityID, "pokhara", sampleQuest("b"))
	require.NoError(t, err)

	_, quests, err := s.Get(ctx, "pokhara")
	require.NoError(t, err)
	require.Len(t, quests, 2)
	assert.Equal(t, "b", quests[1].Title)

	_, err = s.AddQuest(ctx, strangerID, "pokhara", sampleQuest("c"))
	assert.ErrorIs(t, err, policy.ErrUnauthorized)

	_, err = s.AddQuest(ctx, authorityID, "nowhere", sampleQuest("c"))
	assert.ErrorIs(t, err, policy.ErrLocationNotFound)
}

func TestAddQuest_Capacity(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	var quests []model.Quest
	for i := 0; i < policy.MaxQuestsPerLocation; i++ {
		quests = append(quests, sampleQuest("q"))
	}
	_, err := s.Create(ctx, authorityID, "pokhara", quests)
	require.NoError(t, err)

	_, err = s.AddQuest(ctx, authorityID, "pokhara", sampleQuest("overflow"))
	assert.ErrorIs(t, err, policy.ErrTooManyQuests)
}

func TestUpdateQuest(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, authorityID, "pokhara", []model.Quest{sampleQuest("a")})
	require.NoError(t, err)

	_, orig, err := s.Get(ctx, "pokhara")
	require.NoError(t, err)

	repl := sampleQuest("renamed")
	repl.Difficulty = model.DifficultyHard
	_, err = s.UpdateQuest(ctx, authorityID, "pokhara", 0, repl)
	require.NoError(t, err)

	_, quests, err := s.Get(ctx, "pokhara")
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, "renamed", quests[0].Title)
	assert.Equal(t, model.DifficultyHard, quests[0].Difficulty)
	// creation time survives the edit
	assert.Equal(t, orig[0].CreatedAt, quests[0].CreatedAt)

	_, err = s.UpdateQuest(ctx, authorityID, "pokhara", 3, repl)
	assert.ErrorIs(t, err, policy.ErrInvalidQuestIndex)
}

func TestDeleteQuest(t *testing.T) {
	s := initializedService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, authorityID, "pokhara", []model.Quest{
		sampleQuest("a"), sampleQuest("b"), sampleQuest("c"),
	})
	require.NoError(t, err)

	_, err = s.DeleteQuest(ctx, authorityID, "pokhara", 1)
	require.NoError(t, err)

	_, quests, err := s.Get(ctx, "pokhara")
	require.NoError(t, err)
	require.Len(t, quests, 2)
	assert.Equal(t, "a", quests[0].Title)
	assert.Equal(t, "c", quests[1].Title)

	_, err = s.DeleteQuest(ctx, authorityID, "pokhara", 2)
	assert.ErrorIs(t, err, policy.ErrInvalidQuestIndex)

	_, err = s.DeleteQuest(ctx, strangerID, "pokhara", 0)
	assert.ErrorIs(t, err, policy.ErrUnauthorized)
}
