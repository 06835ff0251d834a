package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-sync/internal/repository"
)

// PlatformHandler serves the static platform catalog.
type PlatformHandler struct {
	platforms repository.PlatformRepository
	logger    *slog.Logger
}

func NewPlatformHandler(platforms repository.PlatformRepository, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{platforms: platforms, logger: logger}
}

// HandleList returns every platform, enabled or not.
//
// HTTP: GET /api/platforms
func (h *PlatformHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.platforms.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}
