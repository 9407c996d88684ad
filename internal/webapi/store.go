package webapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/levelup-project/levelup/internal/chat"
)

// SessionCookie names the cookie that binds a browser to its session.
const SessionCookie = "levelup_session"

type sessionEntry struct {
	mu       sync.Mutex
	session  *chat.Session
	lastUsed time.Time
}

// SessionStore keeps one chat session per browser in memory. Sessions idle
// for longer than the TTL are dropped by Sweep.
type SessionStore struct {
	ttl        time.Duration
	newSession func() *chat.Session
	now        func() time.Time
	onChange   func(n int)

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionStore creates a store. newSession builds the state for a browser
// seen for the first time.
func NewSessionStore(ttl time.Duration, newSession func() *chat.Session) *SessionStore {
	return &SessionStore{
		ttl:        ttl,
		newSession: newSession,
		now:        time.Now,
		sessions:   make(map[string]*sessionEntry),
	}
}

// OnChange registers a callback invoked with the session count whenever it
// changes.
func (s *SessionStore) OnChange(fn func(n int)) {
	s.onChange = fn
}

// Acquire returns the caller's session, creating it and setting the cookie
// when needed. The session is locked until release is called, so a browser
// has at most one request in flight against it.
func (s *SessionStore) Acquire(w http.ResponseWriter, r *http.Request) (sess *chat.Session, release func()) {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok && s.expired(e) {
		delete(s.sessions, id)
		ok = false
	}
	if !ok {
		id = uuid.NewString()
		e = &sessionEntry{session: s.newSession()}
		s.sessions[id] = e
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		slog.Debug("session created", "session", id)
	}
	e.lastUsed = s.now()
	n := len(s.sessions)
	s.mu.Unlock()
	s.notify(n, !ok)

	e.mu.Lock()
	return e.session, func() {
		s.mu.Lock()
		e.lastUsed = s.now()
		s.mu.Unlock()
		e.mu.Unlock()
	}
}

func (s *SessionStore) expired(e *sessionEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastUsed) > s.ttl
}

// Sweep drops idle sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		slog.Debug("idle sessions dropped", "count", removed)
	}
	s.notify(n, removed > 0)
	return removed
}

// Len returns the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Sweep()
		}
	}
}

func (s *SessionStore) notify(n int, changed bool) {
	if changed && s.onChange != nil {
		s.onChange(n)
	}
}
