package auth

import (
	"log/slog"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/xid"
)

// Session is one logged-in browser.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

// SessionStore keeps sessions in process memory, in a sharded concurrent map.
//
// Sessions do not survive a restart; every user has to log in again. A
// janitor goroutine prunes expired entries every checkPeriod so the map does
// not grow without bound. Get also treats an expired entry as missing, so
// correctness never depends on the janitor having run.
type SessionStore struct {
	sessions cmap.ConcurrentMap[string, Session]

	ttl         time.Duration
	checkPeriod time.Duration
	now         func() time.Time
	logger      *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewSessionStore creates an empty store. Call Start to run the janitor.
func NewSessionStore(ttl, checkPeriod time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		sessions:    cmap.New[Session](),
		ttl:         ttl,
		checkPeriod: checkPeriod,
		now:         time.Now,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// TTL is the lifetime of a new session.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create starts a session for userID.
//
// xid IDs are 12 bytes (timestamp, machine, pid, counter) rendered as 20
// base32 chars. They are unique, not secret; the signed cookie is what stops
// a client from presenting someone else's session ID.
func (s *SessionStore) Create(userID int64) Session {
	sess := Session{
		ID:        xid.New().String(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.sessions.Set(sess.ID, sess)
	return sess
}

// Get returns the live session with the given ID.
func (s *SessionStore) Get(id string) (Session, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok || !s.now().Before(sess.ExpiresAt) {
		return Session{}, false
	}
	return sess, true
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (s *SessionStore) Delete(id string) {
	s.sessions.Remove(id)
}

// Len reports how many sessions are stored, expired or not.
func (s *SessionStore) Len() int {
	return s.sessions.Count()
}

// Prune deletes expired sessions and returns how many were removed.
//
// The iteration works on a snapshot, so the expiry is checked again under the
// shard lock in RemoveCb before deleting.
func (s *SessionStore) Prune() int {
	now := s.now()
	expired := func(_ string, sess Session, exists bool) bool {
		return exists && !now.Before(sess.ExpiresAt)
	}

	removed := 0
	for item := range s.sessions.IterBuffered() {
		if !now.Before(item.Val.ExpiresAt) && s.sessions.RemoveCb(item.Key, expired) {
			removed++
		}
	}
	return removed
}

// Start runs the janitor in the background. Calling it twice is harmless.
func (s *SessionStore) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting session janitor", slog.Duration("checkPeriod", s.checkPeriod))
		s.wg.Add(1)
		go s.janitor()
	})
}

// Stop ends the janitor and waits for it to exit.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *SessionStore) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				s.logger.Debug("pruned expired sessions", slog.Int("count", n))
			}
		}
	}
}
