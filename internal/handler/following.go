package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/service"
)

// FollowingHandler serves the aggregated following list.
type FollowingHandler struct {
	following *service.FollowingService
	logger    *slog.Logger
}

func NewFollowingHandler(following *service.FollowingService, logger *slog.Logger) *FollowingHandler {
	return &FollowingHandler{following: following, logger: logger}
}

// HandleList returns the user's following rows.
//
// HTTP: GET /api/following?platform=twitter&q=elon
// Both query parameters are optional.
func (h *FollowingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	rows, err := h.following.List(r.Context(), userID, model.FollowingFilter{
		PlatformCode: q.Get("platform"),
		Query:        q.Get("q"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
