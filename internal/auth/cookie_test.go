package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *SessionStore) {
	t.Helper()
	store := NewSessionStore(24*time.Hour, time.Hour, discardLogger())
	return NewManager(store, newTestTokenService(t), false), store
}

// loginCookie logs userID in and returns the cookie the browser would keep.
func loginCookie(t *testing.T, m *Manager, userID int64) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, userID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestManager_LoginSetsCookie(t *testing.T) {
	m, store := newTestManager(t)

	c := loginCookie(t, m, 5)

	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
	assert.False(t, c.Secure)
	assert.Equal(t, 1, store.Len())
}

func TestManager_SecureFlag(t *testing.T) {
	store := NewSessionStore(time.Hour, time.Hour, discardLogger())
	m := NewManager(store, newTestTokenService(t), true)

	assert.True(t, loginCookie(t, m, 1).Secure)
}

func TestManager_UserIDRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	c := loginCookie(t, m, 99)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	id, err := m.UserID(req)
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
}

func TestManager_UserIDFailures(t *testing.T) {
	m, store := newTestManager(t)
	other, _ := NewTokenService("another-secret-of-decent-length")

	// A correctly signed token for a session ID the store never issued.
	orphan, err := m.tokens.Sign("cv37rs3pp9olc6atsptg", time.Now().Add(time.Hour))
	require.NoError(t, err)

	// A live session, but the cookie is signed with a different key.
	live := store.Create(1)
	forged, err := other.Sign(live.ID, live.ExpiresAt)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage", &http.Cookie{Name: CookieName, Value: "garbage"}},
		{"unknown session", &http.Cookie{Name: CookieName, Value: orphan}},
		{"forged signature", &http.Cookie{Name: CookieName, Value: forged}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			_, err := m.UserID(req)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestManager_LogoutInvalidatesCookie(t *testing.T) {
	m, store := newTestManager(t)
	c := loginCookie(t, m, 3)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(c)
	rec := httptest.NewRecorder()
	m.Logout(rec, req)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, CookieName, cleared[0].Name)
	assert.Negative(t, cleared[0].MaxAge)
	assert.Equal(t, 0, store.Len())

	// Replaying the old cookie no longer works.
	replay := httptest.NewRequest(http.MethodGet, "/", nil)
	replay.AddCookie(c)
	_, err := m.UserID(replay)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_LogoutWithoutSession(t *testing.T) {
	m, _ := newTestManager(t)

	rec := httptest.NewRecorder()
	m.Logout(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Len(t, rec.Result().Cookies(), 1, "cookie is cleared even when anonymous")
}
