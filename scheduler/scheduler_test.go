package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xploralabs/xplora/server/testutil"
)

func TestEvery(t *testing.T) {
	s := New(testutil.Logger())
	defer s.Stop()

	var runs atomic.Int64
	s.Every("tick", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	assert.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAfter(t *testing.T) {
	s := New(testutil.Logger())
	defer s.Stop()

	var runs atomic.Int64
	s.After("once", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	assert.Eventually(t, func() bool {
		return runs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), runs.Load())
}

func TestStopHaltsJobs(t *testing.T) {
	s := New(testutil.Logger())

	var runs atomic.Int64
	s.Every("tick", 5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})
	assert.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestPanicRecovered(t *testing.T) {
	s := New(testutil.Logger())
	defer s.Stop()

	var runs atomic.Int64
	s.Every("panicky", 5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	})

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}
