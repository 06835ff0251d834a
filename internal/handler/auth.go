package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/auth"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/service"
)

// AuthHandler serves registration, login and the session status.
//
//   - HandleRegister → create the user and log them in
//   - HandleLogin    → check credentials, start a session
//   - HandleLogout   → drop the session and expire the cookie
//   - HandleStatus   → who is logged in, if anyone
type AuthHandler struct {
	users    *service.AuthService
	sessions *auth.Manager
	logger   *slog.Logger
}

func NewAuthHandler(users *service.AuthService, sessions *auth.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, logger: logger}
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StatusResponse is the body of GET /api/auth/status.
type StatusResponse struct {
	Authenticated bool            `json:"authenticated"`
	User          *model.UserView `json:"user,omitempty"`
}

// HandleRegister creates an account and starts a session for it.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "...", "email": "...", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.sessions.Login(w, user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user.View())
}

// HandleLogin checks credentials and starts a session.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.sessions.Login(w, user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user.View())
}

// HandleLogout always succeeds, with or without a session.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w, r)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// HandleStatus reports the session's user. Mounted behind auth.OptionalAuth.
//
// HTTP: GET /api/auth/status
func (h *AuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, StatusResponse{})
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		// The session outlived its user.
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, StatusResponse{})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	view := user.View()
	writeJSON(w, http.StatusOK, StatusResponse{Authenticated: true, User: &view})
}
