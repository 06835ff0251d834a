package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// CookieName is the session cookie's name.
const CookieName = "sid"

// ErrNoSession means the request carries no live session.
var ErrNoSession = errors.New("auth: no valid session")

// Manager ties the session store to the signed cookie.
type Manager struct {
	store  *SessionStore
	tokens *TokenService
	secure bool
}

// NewManager creates a Manager. secure sets the cookie's Secure flag and
// should be true whenever the site is served over HTTPS.
func NewManager(store *SessionStore, tokens *TokenService, secure bool) *Manager {
	return &Manager{store: store, tokens: tokens, secure: secure}
}

// Login starts a session for userID and writes the cookie.
func (m *Manager) Login(w http.ResponseWriter, userID int64) error {
	sess := m.store.Create(userID)

	value, err := m.tokens.Sign(sess.ID, sess.ExpiresAt)
	if err != nil {
		m.store.Delete(sess.ID)
		return fmt.Errorf("auth: issuing session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout deletes the request's session, if any, and expires the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := m.session(r); err == nil {
		m.store.Delete(sess.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID returns the user behind the request's session cookie.
// It fails with ErrNoSession when the cookie is missing, forged, expired, or
// points at a session that no longer exists.
func (m *Manager) UserID(r *http.Request) (int64, error) {
	sess, err := m.session(r)
	if err != nil {
		return 0, err
	}
	return sess.UserID, nil
}

func (m *Manager) session(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, ErrNoSession
	}

	id, err := m.tokens.Validate(cookie.Value)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	sess, ok := m.store.Get(id)
	if !ok {
		return Session{}, ErrNoSession
	}
	return sess, nil
}
