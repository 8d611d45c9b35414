// Package scheduler runs named periodic jobs, one goroutine per job.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{logger: logger, ctx: ctx, cancel: cancel}
}

// Every runs fn at the given interval until the scheduler stops. A
// panic in fn is logged and the job keeps its schedule.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.invoke(name, fn)
			}
		}
	}()
}

// After runs fn once after the given delay unless the scheduler stops
// first.
func (s *Scheduler) After(name string, delay time.Duration, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-timer.C:
			s.invoke(name, fn)
		}
	}()
}

func (s *Scheduler) invoke(name string, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()
	fn(s.ctx)
}

// Stop cancels all jobs and waits for running invocations to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
