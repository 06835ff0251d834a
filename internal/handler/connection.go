package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-sync/internal/service"
)

// ConnectionHandler serves /api/connections. Every route requires a session.
type ConnectionHandler struct {
	connections *service.ConnectionService
	logger      *slog.Logger
}

func NewConnectionHandler(connections *service.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, logger: logger}
}

// AuthorizeURLResponse is the body of GET /api/connections/{platformId}/authorize-url.
type AuthorizeURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// HandleList returns the user's connections.
//
// HTTP: GET /api/connections
func (h *ConnectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conns, err := h.connections.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

// HandleConnect links the platform with fresh mock tokens.
//
// HTTP: POST /api/connections/{platformId}/connect
func (h *ConnectionHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	userID, platformID, err := h.params(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.connections.Connect(r.Context(), userID, platformID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// HandleDisconnect clears the platform's tokens.
//
// HTTP: POST /api/connections/{platformId}/disconnect
func (h *ConnectionHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, platformID, err := h.params(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.connections.Disconnect(r.Context(), userID, platformID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// HandleAuthorizeURL returns where a real OAuth flow would send the browser.
//
// HTTP: GET /api/connections/{platformId}/authorize-url
func (h *ConnectionHandler) HandleAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	_, platformID, err := h.params(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	url, state, err := h.connections.AuthorizeURL(r.Context(), platformID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthorizeURLResponse{URL: url, State: state})
}

func (h *ConnectionHandler) params(r *http.Request) (userID, platformID int64, err error) {
	if userID, err = currentUser(r); err != nil {
		return 0, 0, err
	}
	if platformID, err = platformIDParam(r); err != nil {
		return 0, 0, err
	}
	return userID, platformID, nil
}
