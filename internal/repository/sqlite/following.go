package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

var _ repository.FollowingRepository = (*FollowingStore)(nil)

// FollowingStore reads and writes the following table.
type FollowingStore struct {
	conn *sql.DB
}

// Create inserts one followed account. PlatformData is stored as JSON text.
func (s *FollowingStore) Create(ctx context.Context, f *model.Following) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	var data sql.NullString
	if len(f.PlatformData) > 0 {
		data = sql.NullString{String: string(f.PlatformData), Valid: true}
	}

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO following
			(user_id, platform_id, username, display_name, profile_picture_url,
			 platform_user_id, platform_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.UserID,
		f.PlatformID,
		f.Username,
		nullString(f.DisplayName),
		nullString(f.ProfilePictureURL),
		nullString(f.PlatformUserID),
		data,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting following %q: %w", f.Username, err)
	}

	f.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading following id: %w", err)
	}
	return nil
}

// ListByUser returns the user's following rows in insertion order. Rows whose
// platform has left the catalog are kept; only a platform filter drops them.
//
// DYNAMIC WHERE CLAUSE:
// The filters are optional, so the query is assembled from fixed fragments.
// Only the fragments are concatenated; every user-supplied value still goes
// through a ? placeholder.
func (s *FollowingStore) ListByUser(ctx context.Context, userID int64, filter model.FollowingFilter) ([]model.Following, error) {
	var (
		where = []string{"f.user_id = ?"}
		args  = []any{userID}
	)

	if code := strings.TrimSpace(filter.PlatformCode); code != "" {
		where = append(where, "p.code = ?")
		args = append(args, code)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(f.username LIKE ? ESCAPE '\\' OR COALESCE(f.display_name, '') LIKE ? ESCAPE '\\')")
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern)
	}

	query := `SELECT f.id, f.user_id, f.platform_id, f.username, f.display_name,
			f.profile_picture_url, f.platform_user_id, f.platform_data,
			f.created_at, f.updated_at
		FROM following f
		LEFT JOIN platforms p ON p.id = f.platform_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY f.id`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing following for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := []model.Following{}
	for rows.Next() {
		var (
			f                      model.Following
			display, picture, puid sql.NullString
			data                   sql.NullString
		)
		err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.PlatformID,
			&f.Username,
			&display,
			&picture,
			&puid,
			&data,
			&f.CreatedAt,
			&f.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning following: %w", err)
		}
		f.DisplayName = stringPtr(display)
		f.ProfilePictureURL = stringPtr(picture)
		f.PlatformUserID = stringPtr(puid)
		if data.Valid {
			f.PlatformData = json.RawMessage(data.String)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating following: %w", err)
	}
	return out, nil
}

// DeleteByUserAndPlatform removes every following row for (user, platform)
// and reports how many were deleted.
func (s *FollowingStore) DeleteByUserAndPlatform(ctx context.Context, userID, platformID int64) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM following WHERE user_id = ? AND platform_id = ?`, userID, platformID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting following (user=%d, platform=%d): %w", userID, platformID, err)
	}
	return res.RowsAffected()
}

// escapeLike escapes LIKE wildcards so a search for "a_b" matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
