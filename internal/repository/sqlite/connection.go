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

var _ repository.ConnectionRepository = (*ConnectionStore)(nil)

// ConnectionStore reads and writes platform_connections.
type ConnectionStore struct {
	conn *sql.DB
}

const connectionColumns = `id, user_id, platform_id, connected, access_token, refresh_token,
	token_expiry, platform_username, last_synced, status`

// Create inserts a connection. A second row for the same (user, platform)
// violates idx_connections_user_platform and is reported as a validation error.
func (s *ConnectionStore) Create(ctx context.Context, c *model.PlatformConnection) error {
	if c.Status == "" {
		c.Status = model.ConnectionNotConnected
	}

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO platform_connections
			(user_id, platform_id, connected, access_token, refresh_token,
			 token_expiry, platform_username, last_synced, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID,
		c.PlatformID,
		c.Connected,
		nullString(c.AccessToken),
		nullString(c.RefreshToken),
		timeArg(c.TokenExpiry),
		nullString(c.PlatformUsername),
		timeArg(c.LastSynced),
		c.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ValidationFailed("platformId", "connection already exists for this platform")
		}
		return fmt.Errorf("sqlite: inserting connection (user=%d, platform=%d): %w", c.UserID, c.PlatformID, err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading connection id: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of the row with c's values.
func (s *ConnectionStore) Update(ctx context.Context, c *model.PlatformConnection) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE platform_connections SET
			connected = ?, access_token = ?, refresh_token = ?, token_expiry = ?,
			platform_username = ?, last_synced = ?, status = ?
		 WHERE id = ?`,
		c.Connected,
		nullString(c.AccessToken),
		nullString(c.RefreshToken),
		timeArg(c.TokenExpiry),
		nullString(c.PlatformUsername),
		timeArg(c.LastSynced),
		c.Status,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating connection %d: %w", c.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("connection", c.ID)
	}
	return nil
}

// UpdateTokens stores a refreshed token pair on a still-connected row.
func (s *ConnectionStore) UpdateTokens(ctx context.Context, id int64, access, refresh string, expiry time.Time) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE platform_connections SET access_token = ?, refresh_token = ?, token_expiry = ?
		 WHERE id = ? AND connected = 1`,
		access, refresh, expiry.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: updating tokens of connection %d: %w", id, err)
	}
	return changed(res)
}

// MarkSynced records a finished sync. The status goes back to connected only
// while the row is still connected.
func (s *ConnectionStore) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE platform_connections SET
			last_synced = ?,
			status = CASE WHEN connected = 1 THEN ? ELSE status END
		 WHERE id = ?`,
		at.UTC(), model.ConnectionConnected, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking connection %d synced: %w", id, err)
	}

	ok, err := changed(res)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("connection", id)
	}
	return nil
}

// MarkError sets status=error on a still-connected row.
func (s *ConnectionStore) MarkError(ctx context.Context, id int64) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE platform_connections SET status = ? WHERE id = ? AND connected = 1`,
		model.ConnectionError, id,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking connection %d errored: %w", id, err)
	}
	return changed(res)
}

func changed(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *ConnectionStore) GetByUserAndPlatform(ctx context.Context, userID, platformID int64) (*model.PlatformConnection, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM platform_connections
		 WHERE user_id = ? AND platform_id = ?`,
		userID, platformID,
	)

	c, err := scanConnection(row)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("connection", platformID),
			"getting connection (user=%d, platform=%d)", userID, platformID)
	}
	return c, nil
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID int64) ([]model.PlatformConnection, error) {
	return s.list(ctx,
		`SELECT `+connectionColumns+` FROM platform_connections WHERE user_id = ? ORDER BY platform_id`,
		userID,
	)
}

func (s *ConnectionStore) ListExpiring(ctx context.Context, before time.Time) ([]model.PlatformConnection, error) {
	return s.list(ctx,
		`SELECT `+connectionColumns+` FROM platform_connections
		 WHERE connected = 1 AND token_expiry IS NOT NULL AND token_expiry < ?
		 ORDER BY id`,
		before.UTC(),
	)
}

func (s *ConnectionStore) list(ctx context.Context, query string, args ...any) ([]model.PlatformConnection, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing connections: %w", err)
	}
	defer rows.Close()

	conns := []model.PlatformConnection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning connection: %w", err)
		}
		conns = append(conns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating connections: %w", err)
	}
	return conns, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(sc scanner) (*model.PlatformConnection, error) {
	var (
		c                         model.PlatformConnection
		access, refresh, username sql.NullString
		expiry, lastSynced        sql.NullTime
	)
	err := sc.Scan(
		&c.ID,
		&c.UserID,
		&c.PlatformID,
		&c.Connected,
		&access,
		&refresh,
		&expiry,
		&username,
		&lastSynced,
		&c.Status,
	)
	if err != nil {
		return nil, err
	}

	c.AccessToken = stringPtr(access)
	c.RefreshToken = stringPtr(refresh)
	c.TokenExpiry = timePtr(expiry)
	c.PlatformUsername = stringPtr(username)
	c.LastSynced = timePtr(lastSynced)
	return &c, nil
}
