package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-sync/internal/service"
)

// SyncHandler starts sync runs and reports their progress.
type SyncHandler struct {
	sync   *service.SyncService
	logger *slog.Logger
}

func NewSyncHandler(sync *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger}
}

// HandleStart kicks off a sync of every connected platform and returns the
// in_progress rows without waiting for the run.
//
// HTTP: POST /api/sync
// 400 when nothing is connected, 409 while a run is still going.
func (h *SyncHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows, err := h.sync.Start(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleStatus returns the sync history, newest first.
//
// HTTP: GET /api/sync/status
func (h *SyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows, err := h.sync.Status(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
