package auth

import (
	"context"
	"net/http"
	"sync/atomic"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be
// read or shadowed by any package that knows the string. Only this package
// can create a contextKey, so only this package can read or write the value.
type contextKey string

const (
	userIDKey   contextKey = "userID"
	userSlotKey contextKey = "userSlot"
)

// RequireAuth rejects requests without a live session with 401 and stores
// the user ID in the context of the ones it lets through.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new one that wraps it.
// Chi applies them in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := m.UserID(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"Not authenticated"}`)) //nolint:errcheck
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth resolves the session when there is one but never blocks.
// GET /api/auth/status uses it to answer {authenticated:false} instead of 401.
func OptionalAuth(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := m.UserID(r); err == nil {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying userID. It also fills the slot
// installed by TrackUser, if any.
func WithUserID(ctx context.Context, userID int64) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(*atomic.Int64); ok {
		slot.Store(userID)
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// TrackUser installs an empty slot that a later WithUserID fills in.
// Request logging runs outside the auth middleware and reads the slot back
// with TrackedUser once the handler has returned.
func TrackUser(ctx context.Context) context.Context {
	return context.WithValue(ctx, userSlotKey, new(atomic.Int64))
}

// TrackedUser reports the user recorded in the slot from TrackUser.
func TrackedUser(ctx context.Context) (int64, bool) {
	slot, ok := ctx.Value(userSlotKey).(*atomic.Int64)
	if !ok {
		return 0, false
	}
	id := slot.Load()
	return id, id != 0
}

// UserIDFromContext retrieves the authenticated user's ID.
// ok is false for anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id != 0
}
