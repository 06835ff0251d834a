package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

var _ repository.SyncHistoryRepository = (*SyncHistoryStore)(nil)

// SyncHistoryStore reads and writes sync_history.
type SyncHistoryStore struct {
	conn *sql.DB
}

const syncColumns = `id, user_id, platform_id, status, total_items, items_processed,
	start_time, end_time, error`

// Create inserts a sync attempt. StartTime defaults to now.
func (s *SyncHistoryStore) Create(ctx context.Context, h *model.SyncHistory) error {
	if h.StartTime.IsZero() {
		h.StartTime = time.Now().UTC()
	}
	if h.Status == "" {
		h.Status = model.SyncInProgress
	}

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO sync_history
			(user_id, platform_id, status, total_items, items_processed, start_time, end_time, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.UserID,
		h.PlatformID,
		h.Status,
		h.TotalItems,
		h.ItemsProcessed,
		h.StartTime.UTC(),
		timeArg(h.EndTime),
		nullString(h.Error),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting sync history (user=%d, platform=%d): %w", h.UserID, h.PlatformID, err)
	}

	h.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading sync history id: %w", err)
	}
	return nil
}

// Update writes the progress columns of h.
func (s *SyncHistoryStore) Update(ctx context.Context, h *model.SyncHistory) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE sync_history SET
			status = ?, total_items = ?, items_processed = ?, end_time = ?, error = ?
		 WHERE id = ?`,
		h.Status,
		h.TotalItems,
		h.ItemsProcessed,
		timeArg(h.EndTime),
		nullString(h.Error),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating sync history %d: %w", h.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("sync history", h.ID)
	}
	return nil
}

// FailInProgress closes rows left in_progress by a process that died
// mid-run and returns how many there were.
func (s *SyncHistoryStore) FailInProgress(ctx context.Context, msg string, at time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE sync_history SET status = ?, end_time = ?, error = ? WHERE status = ?`,
		model.SyncFailed, at.UTC(), msg, model.SyncInProgress,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failing interrupted syncs: %w", err)
	}
	return res.RowsAffected()
}

func (s *SyncHistoryStore) GetByID(ctx context.Context, id int64) (*model.SyncHistory, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+syncColumns+` FROM sync_history WHERE id = ?`, id)

	h, err := scanSyncHistory(row)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("sync history", id), "getting sync history %d", id)
	}
	return h, nil
}

// ListByUser returns the user's attempts, newest first. Rows started in the
// same instant are ordered by ID so the result is deterministic.
func (s *SyncHistoryStore) ListByUser(ctx context.Context, userID int64) ([]model.SyncHistory, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+syncColumns+` FROM sync_history
		 WHERE user_id = ?
		 ORDER BY start_time DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sync history for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := []model.SyncHistory{}
	for rows.Next() {
		h, err := scanSyncHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning sync history: %w", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sync history: %w", err)
	}
	return out, nil
}

func scanSyncHistory(sc scanner) (*model.SyncHistory, error) {
	var (
		h       model.SyncHistory
		endTime sql.NullTime
		errMsg  sql.NullString
	)
	err := sc.Scan(
		&h.ID,
		&h.UserID,
		&h.PlatformID,
		&h.Status,
		&h.TotalItems,
		&h.ItemsProcessed,
		&h.StartTime,
		&endTime,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}
	h.EndTime = timePtr(endTime)
	h.Error = stringPtr(errMsg)
	return &h, nil
}
