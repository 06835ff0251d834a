package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/service"
)

// ExportFilename is the attachment name of the CSV download.
const ExportFilename = "social-sync-export.csv"

// ExportHandler serves the following list as a download.
type ExportHandler struct {
	export *service.ExportService
	logger *slog.Logger
}

func NewExportHandler(export *service.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{export: export, logger: logger}
}

// ExportResponse is the JSON export body.
type ExportResponse struct {
	Data []model.ExportRow `json:"data"`
}

// HandleExport returns {data: [...]} or, with ?format=csv, a CSV attachment.
//
// HTTP: GET /api/export[?format=csv]
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows, err := h.export.Rows(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		writeJSON(w, http.StatusOK, ExportResponse{Data: rows})
		return
	}

	// Render fully before sending headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := service.WriteCSV(&buf, rows); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("csv export interrupted", slog.String("error", err.Error()))
	}
}
