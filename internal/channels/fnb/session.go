package fnb

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SessionCache memoizes the authenticated session for the channel. It is the
// only shared mutable state in the system: many request workers read it, one
// of them refreshes it when it expires.
//
// Reads go through an atomic pointer so the fast path takes no lock; refresh
// uses a mutex with a double-checked re-validation so concurrent callers that
// all see an expired entry trigger exactly one login.
type SessionCache struct {
	auth   Authenticator
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	entry atomic.Pointer[sessionEntry]
}

// sessionEntry pairs a session with its issue time. Entries are replaced
// whole, never mutated in place.
type sessionEntry struct {
	session  Session
	issuedAt time.Time
}

func (e *sessionEntry) valid(ttl time.Duration) bool {
	return time.Since(e.issuedAt) < ttl
}

// NewSessionCache builds a cache over the given login provider.
func NewSessionCache(auth Authenticator, ttl time.Duration, logger *slog.Logger) *SessionCache {
	if ttl == 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCache{auth: auth, ttl: ttl, logger: logger}
}

// Acquire returns a valid session, logging in when the cached one is absent,
// expired, or a refresh is forced. Login failure propagates; a poisoned entry
// is never cached.
func (s *SessionCache) Acquire(ctx context.Context, forceRefresh bool) (Session, error) {
	if !forceRefresh {
		if e := s.entry.Load(); e != nil && e.valid(s.ttl) {
			return e.session, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if !forceRefresh {
		if e := s.entry.Load(); e != nil && e.valid(s.ttl) {
			return e.session, nil
		}
	}

	session, err := s.auth.Login(ctx)
	if err != nil {
		return Session{}, err
	}

	s.entry.Store(&sessionEntry{session: session, issuedAt: time.Now()})
	s.logger.InfoContext(ctx, "channel session refreshed", "ttl", s.ttl)
	return session, nil
}

// Invalidate expires the cached entry by backdating its timestamp to the
// epoch. The handle itself is kept so readers mid-flight stay consistent; the
// next Acquire performs a fresh login regardless of TTL.
func (s *SessionCache) Invalidate() {
	if e := s.entry.Load(); e != nil {
		s.entry.Store(&sessionEntry{session: e.session})
	}
}
