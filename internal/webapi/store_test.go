package webapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/levelup-project/levelup/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newStore(ttl time.Duration) *SessionStore {
	return NewSessionStore(ttl, func() *chat.Session {
		return chat.NewSession(&fakeCompleter{reply: "ok"}, chat.Options{})
	})
}

func acquire(s *SessionStore, cookie *http.Cookie) (*chat.Session, *http.Cookie) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	sess, release := s.Acquire(rec, req)
	release()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return sess, c
		}
	}
	return sess, cookie
}

func TestSessionStore_ReusesSessionByCookie(t *testing.T) {
	s := newStore(time.Hour)

	first, cookie := acquire(s, nil)
	require.NotNil(t, cookie)
	again, _ := acquire(s, cookie)

	assert.Same(t, first, again)
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_ExpiresIdleSessions(t *testing.T) {
	s := newStore(time.Minute)
	now := time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	var counts []int
	s.OnChange(func(n int) { counts = append(counts, n) })

	first, cookie := acquire(s, nil)
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())

	second, newCookie := acquire(s, cookie)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, cookie.Value, newCookie.Value)
	assert.Equal(t, []int{1, 0, 1}, counts)
}

func TestSessionStore_UnknownCookieGetsNewSession(t *testing.T) {
	s := newStore(time.Hour)
	_, cookie := acquire(s, &http.Cookie{Name: SessionCookie, Value: "forged"})
	assert.NotEqual(t, "forged", cookie.Value)
}

func TestSessionStore_SerialisesRequestsPerSession(t *testing.T) {
	s := newStore(time.Hour)
	_, cookie := acquire(s, nil)

	active := 0
	maxActive := 0
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(cookie)
			_, release := s.Acquire(httptest.NewRecorder(), req)
			defer release()
			active++
			if active > maxActive {
				maxActive = active
			}
			time.Sleep(time.Millisecond)
			active--
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, maxActive)
}

func TestSessionStore_RunStopsOnCancel(t *testing.T) {
	s := newStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
