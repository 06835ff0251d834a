package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

// CSVHeader is the first line of every CSV export.
var CSVHeader = []string{"Username", "Display Name", "Platform", "Platform Code"}

// ExportService flattens the following table for download.
type ExportService struct {
	platforms repository.PlatformRepository
	following repository.FollowingRepository
	logger    *slog.Logger
}

func NewExportService(
	platforms repository.PlatformRepository,
	following repository.FollowingRepository,
	logger *slog.Logger,
) *ExportService {
	return &ExportService{platforms: platforms, following: following, logger: logger}
}

// Rows returns one ExportRow per following row of the user. A row whose
// platform is missing from the catalog is labelled Unknown/unknown, and a
// null display name becomes "".
func (s *ExportService) Rows(ctx context.Context, userID int64) ([]model.ExportRow, error) {
	following, err := s.following.ListByUser(ctx, userID, model.FollowingFilter{})
	if err != nil {
		return nil, fmt.Errorf("service/export: listing following for user %d: %w", userID, err)
	}

	idx, err := platformIndex(ctx, s.platforms)
	if err != nil {
		return nil, fmt.Errorf("service/export: %w", err)
	}

	rows := make([]model.ExportRow, 0, len(following))
	for _, f := range following {
		row := model.ExportRow{
			Username:     f.Username,
			Platform:     "Unknown",
			PlatformCode: "unknown",
		}
		if f.DisplayName != nil {
			row.DisplayName = *f.DisplayName
		}
		if p, ok := idx[f.PlatformID]; ok {
			row.Platform = p.Name
			row.PlatformCode = p.Code
		}
		rows = append(rows, row)
	}

	s.logger.Debug("export prepared", slog.Int64("userID", userID), slog.Int("rows", len(rows)))
	return rows, nil
}

// WriteCSV writes rows as CSV with a header line. encoding/csv quotes any
// field containing a comma, quote or newline.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("service/export: writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Username, r.DisplayName, r.Platform, r.PlatformCode}); err != nil {
			return fmt.Errorf("service/export: writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service/export: flushing csv: %w", err)
	}
	return nil
}
