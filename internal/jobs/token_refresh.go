// Package jobs holds scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/sakif/social-sync/internal/model"
)

const (
	// RefreshWindow is how far ahead of expiry a token gets refreshed.
	RefreshWindow = 30 * time.Minute

	// MaxConcurrentRefreshes bounds the calls in flight per run.
	MaxConcurrentRefreshes = 10
)

// ExpiringLister finds connected rows whose token expires before a deadline.
type ExpiringLister interface {
	ListExpiring(ctx context.Context, before time.Time) ([]model.PlatformConnection, error)
}

// Refresher renews one connection's tokens.
type Refresher interface {
	RefreshToken(ctx context.Context, conn model.PlatformConnection) error
}

// TokenRefreshJob renews access tokens shortly before they expire.
type TokenRefreshJob struct {
	connections ExpiringLister
	refresher   Refresher
	logger      *slog.Logger
	now         func() time.Time

	cron *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	// cron.Stop does not wait for a job already running; runs does.
	runsMu  sync.Mutex
	stopped bool
	runs    conc.WaitGroup
}

func NewTokenRefreshJob(connections ExpiringLister, refresher Refresher, logger *slog.Logger) *TokenRefreshJob {
	ctx, cancel := context.WithCancel(context.Background())
	return &TokenRefreshJob{
		connections: connections,
		refresher:   refresher,
		logger:      logger,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Result summarises one run.
type Result struct {
	Due       int
	Refreshed int
	Failed    int
}

// RunOnce refreshes every token expiring within RefreshWindow. A failed
// refresh is logged and counted; it does not stop the others.
func (j *TokenRefreshJob) RunOnce(ctx context.Context) (Result, error) {
	due, err := j.connections.ListExpiring(ctx, j.now().Add(RefreshWindow))
	if err != nil {
		return Result{}, fmt.Errorf("jobs: listing expiring tokens: %w", err)
	}

	var refreshed, failed atomic.Int64
	p := pool.New().WithMaxGoroutines(MaxConcurrentRefreshes)
	for _, conn := range due {
		p.Go(func() {
			if err := j.refresher.RefreshToken(ctx, conn); err != nil {
				failed.Add(1)
				j.logger.Warn("token refresh failed",
					slog.Int64("connectionID", conn.ID),
					slog.Int64("userID", conn.UserID),
					slog.String("error", err.Error()),
				)
				return
			}
			refreshed.Add(1)
		})
	}
	p.Wait()

	res := Result{Due: len(due), Refreshed: int(refreshed.Load()), Failed: int(failed.Load())}
	if res.Due > 0 {
		j.logger.Info("token refresh run finished",
			slog.Int("due", res.Due),
			slog.Int("refreshed", res.Refreshed),
			slog.Int("failed", res.Failed),
		)
	}
	return res, nil
}

// Start schedules RunOnce on the cron spec, e.g. "@every 10m".
func (j *TokenRefreshJob) Start(spec string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return nil
	}

	c := cron.New()
	if err := c.AddFunc(spec, j.tick); err != nil {
		return fmt.Errorf("jobs: invalid schedule %q: %w", spec, err)
	}
	c.Start()
	j.cron = c

	j.logger.Info("token refresh scheduled", slog.String("schedule", spec))
	return nil
}

// Stop halts the schedule, cancels a run in progress and waits for it to
// return. A stopped job cannot be started again.
func (j *TokenRefreshJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cancel()
	j.runsMu.Lock()
	j.stopped = true
	j.runsMu.Unlock()

	if j.cron != nil {
		j.cron.Stop()
		j.cron = nil
	}
	if r := j.runs.WaitAndRecover(); r != nil {
		j.logger.Error("token refresh run panicked", slog.Any("panic", r.Value))
	}
}

func (j *TokenRefreshJob) tick() {
	j.runsMu.Lock()
	if j.stopped {
		j.runsMu.Unlock()
		return
	}
	done := make(chan struct{})
	j.runs.Go(func() {
		defer close(done)
		if _, err := j.RunOnce(j.ctx); err != nil {
			j.logger.Error("token refresh run failed", slog.String("error", err.Error()))
		}
	})
	j.runsMu.Unlock()

	<-done
}
