package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/testutil"
)

func TestPublishRoundTrip(t *testing.T) {
	ps, err := cache.NewPubSub(cache.CacheConfig{})
	require.NoError(t, err)
	pub := NewPublisher(ps, testutil.Logger())

	ctx := context.Background()
	msgs, cancel, err := ps.Subscribe(ctx, Channel)
	require.NoError(t, err)
	defer cancel()

	pub.Publish(ctx, TypeRewardGranted, RewardEvent{
		SubmissionID: 1,
		UserID:       2,
		Location:     "pokhara",
		XPGained:     150,
		TokensEarned: 150_000_000,
	})

	select {
	case msg := <-msgs:
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, TypeRewardGranted, env.Type)
		assert.NotZero(t, env.Timestamp)

		var reward RewardEvent
		require.NoError(t, json.Unmarshal(env.Data, &reward))
		assert.Equal(t, int64(150_000_000), reward.TokensEarned)
		assert.Equal(t, "pokhara", reward.Location)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublishNilPublisherIsSafe(t *testing.T) {
	var pub *Publisher
	pub.Publish(context.Background(), TypeProfileCreated, ProfileEvent{UserID: 1})
}
