package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/oauth2"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/provider"
	"github.com/sakif/social-sync/internal/repository"
)

// SyncOptions are the simulated delays of a sync run. Tests use zero.
type SyncOptions struct {
	// Latency is waited once per platform before fetching its list.
	Latency time.Duration
	// ItemDelay is waited after each stored following row.
	ItemDelay time.Duration
}

// SyncService orchestrates sync runs.
//
// LIFECYCLE OF ONE RUN:
//
//	Start (request goroutine)          background goroutine
//	  ├─ lock user                       for each connection, in order:
//	  ├─ reject if in_progress exists      ├─ sleep Latency
//	  ├─ create in_progress rows  ──────►  ├─ fetch list, set totalItems
//	  ├─ unlock user                       ├─ replace following rows
//	  └─ return rows                       └─ completed | failed
//
// Background work runs on the service's own context, never the request's:
// the HTTP response is sent long before the run finishes. Close cancels that
// context and waits; a cancelled run marks its remaining rows failed.
type SyncService struct {
	platforms   repository.PlatformRepository
	connections repository.ConnectionRepository
	following   repository.FollowingRepository
	history     repository.SyncHistoryRepository
	providers   *provider.Registry
	opts        SyncOptions
	logger      *slog.Logger
	now         func() time.Time

	locksMu sync.Mutex
	locks   map[int64]*userLock

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

func NewSyncService(
	platforms repository.PlatformRepository,
	connections repository.ConnectionRepository,
	following repository.FollowingRepository,
	history repository.SyncHistoryRepository,
	providers *provider.Registry,
	opts SyncOptions,
	logger *slog.Logger,
) *SyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncService{
		platforms:   platforms,
		connections: connections,
		following:   following,
		history:     history,
		providers:   providers,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		locks:       make(map[int64]*userLock),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// interruptedMsg is recorded on runs a previous process left in_progress.
const interruptedMsg = "interrupted by restart"

// userLock serialises Start per user. refs counts holders and waiters so the
// entry can leave the map once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// syncJob pairs a connection with the history row created for it.
type syncJob struct {
	conn     model.PlatformConnection
	platform *model.Platform
	history  *model.SyncHistory
}

// Start creates one in_progress row per connected platform and processes
// them in the background, one after another. It returns the rows without
// waiting.
//
// Errors: ErrValidation when nothing is connected, ErrConflict when a run for
// any of those platforms is still in progress.
func (s *SyncService) Start(ctx context.Context, userID int64) ([]model.SyncHistory, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/sync: listing connections for user %d: %w", userID, err)
	}

	connected := make([]model.PlatformConnection, 0, len(conns))
	for _, c := range conns {
		if c.Connected {
			connected = append(connected, c)
		}
	}
	if len(connected) == 0 {
		return nil, apperror.ValidationFailed("", "No connected platforms to sync")
	}

	if err := s.ensureIdle(ctx, userID, connected); err != nil {
		return nil, err
	}

	idx, err := platformIndex(ctx, s.platforms)
	if err != nil {
		return nil, fmt.Errorf("service/sync: %w", err)
	}

	jobs := make([]syncJob, 0, len(connected))
	started := make([]model.SyncHistory, 0, len(connected))
	for _, c := range connected {
		h := &model.SyncHistory{
			UserID:     userID,
			PlatformID: c.PlatformID,
			Status:     model.SyncInProgress,
			StartTime:  s.now().UTC(),
		}
		if err := s.history.Create(ctx, h); err != nil {
			// Rows created so far would stay in_progress forever; close them.
			for _, j := range jobs {
				s.finish(j, fmt.Errorf("sync aborted: %w", err))
			}
			return nil, fmt.Errorf("service/sync: creating history row: %w", err)
		}
		h.Platform = idx[c.PlatformID]

		jobs = append(jobs, syncJob{conn: c, platform: h.Platform, history: h})
		started = append(started, *h)
	}

	s.logger.Info("sync started", slog.Int64("userID", userID), slog.Int("platforms", len(jobs)))

	s.wg.Go(func() { s.run(userID, jobs) })
	return started, nil
}

// ensureIdle rejects a start while any of the platforms has a run in progress.
func (s *SyncService) ensureIdle(ctx context.Context, userID int64, conns []model.PlatformConnection) error {
	rows, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/sync: listing history for user %d: %w", userID, err)
	}

	wanted := make(map[int64]bool, len(conns))
	for _, c := range conns {
		wanted[c.PlatformID] = true
	}
	for _, h := range rows {
		if h.Status == model.SyncInProgress && wanted[h.PlatformID] {
			return apperror.Conflict("A sync is already in progress")
		}
	}
	return nil
}

// RecoverInterrupted fails the runs a previous process left in_progress,
// which would otherwise block Start for their users forever. Call it once at
// startup, before any request can reach Start.
func (s *SyncService) RecoverInterrupted(ctx context.Context) (int64, error) {
	n, err := s.history.FailInProgress(ctx, interruptedMsg, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("service/sync: %w", err)
	}
	if n > 0 {
		s.logger.Warn("failed interrupted sync runs", slog.Int64("count", n))
	}
	return n, nil
}

// Status returns every sync attempt of the user, newest first, with the
// platform embedded.
func (s *SyncService) Status(ctx context.Context, userID int64) ([]model.SyncHistory, error) {
	rows, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/sync: listing history for user %d: %w", userID, err)
	}

	idx, err := platformIndex(ctx, s.platforms)
	if err != nil {
		return nil, fmt.Errorf("service/sync: %w", err)
	}
	for i := range rows {
		rows[i].Platform = idx[rows[i].PlatformID]
	}
	return rows, nil
}

// Wait blocks until every background run has finished. A panic in a run is
// logged here rather than crashing the server.
func (s *SyncService) Wait() {
	if r := s.wg.WaitAndRecover(); r != nil {
		s.logger.Error("sync run panicked", slog.Any("panic", r.Value), slog.String("stack", string(r.Stack)))
	}
}

// Close cancels background runs and waits for them to record their outcome.
func (s *SyncService) Close() {
	s.cancel()
	s.Wait()
}

func (s *SyncService) lockUser(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.locksMu.Unlock()
	}
}

func (s *SyncService) run(userID int64, jobs []syncJob) {
	for _, j := range jobs {
		err := s.syncOne(s.ctx, userID, j)
		s.finish(j, err)
	}
}

// syncOne fetches one platform's list and replaces the user's following rows
// for it, keeping the history row's counters current.
func (s *SyncService) syncOne(ctx context.Context, userID int64, j syncJob) error {
	if err := sleep(ctx, s.opts.Latency); err != nil {
		return err
	}

	accounts, err := s.fetch(ctx, j)
	if err != nil {
		return err
	}

	j.history.TotalItems = len(accounts)
	j.history.ItemsProcessed = 0
	if err := s.history.Update(ctx, j.history); err != nil {
		return fmt.Errorf("recording total: %w", err)
	}

	if _, err := s.following.DeleteByUserAndPlatform(ctx, userID, j.conn.PlatformID); err != nil {
		return fmt.Errorf("clearing previous following: %w", err)
	}

	for i, a := range accounts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding platform data for %q: %w", a.Username, err)
		}

		f := &model.Following{
			UserID:            userID,
			PlatformID:        j.conn.PlatformID,
			Username:          a.Username,
			DisplayName:       optional(a.DisplayName),
			ProfilePictureURL: optional(a.ProfilePictureURL),
			PlatformUserID:    optional(a.Username + "_id"),
			PlatformData:      data,
		}
		if err := s.following.Create(ctx, f); err != nil {
			return fmt.Errorf("storing %q: %w", a.Username, err)
		}

		j.history.ItemsProcessed = i + 1
		if err := s.history.Update(ctx, j.history); err != nil {
			return fmt.Errorf("recording progress: %w", err)
		}

		if err := sleep(ctx, s.opts.ItemDelay); err != nil {
			return err
		}
	}
	return nil
}

// fetch asks the platform's provider for the followed accounts. A platform
// without a provider follows nobody.
func (s *SyncService) fetch(ctx context.Context, j syncJob) ([]provider.Account, error) {
	code := "unknown"
	if j.platform != nil {
		code = j.platform.Code
	}

	p, err := s.providers.Get(code)
	if err != nil {
		return nil, nil
	}

	accounts, err := p.Following(ctx, connectionToken(j.conn))
	if err != nil {
		return nil, fmt.Errorf("fetching %s following: %w", code, err)
	}
	return accounts, nil
}

// finish records the outcome of one job on its history row and connection.
// It runs even after cancellation, so it detaches from the service context.
func (s *SyncService) finish(j syncJob, syncErr error) {
	ctx := context.WithoutCancel(s.ctx)
	end := s.now().UTC()

	log := s.logger.With(
		slog.Int64("userID", j.conn.UserID),
		slog.Int64("platformID", j.conn.PlatformID),
		slog.Int64("syncID", j.history.ID),
	)

	// Only the columns a sync owns are written: a disconnect during the run
	// wins, and a token refresh that landed meanwhile is kept.
	if syncErr == nil {
		if err := s.connections.MarkSynced(ctx, j.conn.ID, end); err != nil {
			log.Error("failed to update connection after sync", slog.String("error", err.Error()))
		}
		j.history.Status = model.SyncCompleted
	} else {
		msg := syncErr.Error()
		if _, err := s.connections.MarkError(ctx, j.conn.ID); err != nil {
			log.Error("failed to update connection after sync", slog.String("error", err.Error()))
		}
		j.history.Status = model.SyncFailed
		j.history.Error = &msg
	}
	j.history.EndTime = &end

	if err := s.history.Update(ctx, j.history); err != nil {
		log.Error("failed to record sync outcome", slog.String("error", err.Error()))
		return
	}

	if syncErr != nil {
		log.Warn("sync failed", slog.String("error", syncErr.Error()))
		return
	}
	log.Info("sync completed", slog.Int("items", j.history.ItemsProcessed))
}

// connectionToken rebuilds the provider token from the stored columns.
func connectionToken(c model.PlatformConnection) *oauth2.Token {
	t := &oauth2.Token{TokenType: "Bearer"}
	if c.AccessToken != nil {
		t.AccessToken = *c.AccessToken
	}
	if c.RefreshToken != nil {
		t.RefreshToken = *c.RefreshToken
	}
	if c.TokenExpiry != nil {
		t.Expiry = *c.TokenExpiry
	}
	return t
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
