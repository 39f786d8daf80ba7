// Package scheduler periodically re-fetches the last viewed calendar range so
// the next page load is served from a warm cache.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
	"trainingcal/internal/viewstate"
)

// Warmer fetches the range of a navigation state into a cache.
type Warmer interface {
	Warm(ctx context.Context, st model.NavigationState) error
}

// Scheduler runs Warm on a cron schedule for the state held in a store.
type Scheduler struct {
	cron    *cron.Cron
	store   viewstate.Store
	warmer  Warmer
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// New parses spec (standard five-field cron or descriptors such as
// "@every 5m") and prepares the job. Call Start to begin.
func New(spec string, store viewstate.Store, warmer Warmer) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		store:   store,
		warmer:  warmer,
		timeout: 30 * time.Second,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	appLog.Info("scheduler started", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job, or until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	appLog.Info("scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		appLog.Warn("scheduled refresh failed", "err", err)
	}
}

// RunOnce warms the currently stored state. Overlapping runs are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		appLog.Debug("scheduled refresh still running, skipping")
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	st, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load navigation state: %w", err)
	}
	return s.warmer.Warm(ctx, st)
}
