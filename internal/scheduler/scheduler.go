// Package scheduler drives the periodic background refresh of the agenda
// cache.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "simacca/internal/log"
)

// DefaultSpec refreshes once a minute.
const DefaultSpec = "@every 60s"

// Refresher is satisfied by *agenda.Store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs Refresh on a cron schedule. A tick that fires while the
// previous refresh is still running is skipped.
type Scheduler struct {
	spec      string
	refresher Refresher
	// Timeout bounds each scheduled refresh.
	Timeout time.Duration
}

func New(spec string, r Refresher) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{spec: spec, refresher: r, Timeout: 30 * time.Second}
}

// Run refreshes once immediately, then on every tick until ctx is done. It
// returns nil on cancellation and an error only for an invalid spec.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("scheduler: invalid refresh spec %q: %w", s.spec, err)
	}

	s.tick(ctx)

	appLog.Info("scheduler started", "spec", s.spec)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.Timeout)
	defer cancel()
	// The store logs failures and keeps its cache; nothing more to do here.
	_ = s.refresher.Refresh(ctx)
}
