// Package repository declares the storage contracts used by the service layer.
//
// Services depend on these interfaces, never on the sqlite package. Tests can
// hand a service either the real in-memory SQLite store or a small fake.
package repository

import (
	"context"
	"time"

	"github.com/sakif/social-sync/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername and GetByEmail match case-insensitively.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type PlatformRepository interface {
	List(ctx context.Context) ([]model.Platform, error)
	GetByID(ctx context.Context, id int64) (*model.Platform, error)
	GetByCode(ctx context.Context, code string) (*model.Platform, error)
	// Seed inserts the given platforms only when the table is empty.
	Seed(ctx context.Context, platforms []model.Platform) error
}

type ConnectionRepository interface {
	Create(ctx context.Context, conn *model.PlatformConnection) error
	Update(ctx context.Context, conn *model.PlatformConnection) error
	GetByUserAndPlatform(ctx context.Context, userID, platformID int64) (*model.PlatformConnection, error)
	ListByUser(ctx context.Context, userID int64) ([]model.PlatformConnection, error)
	// ListExpiring returns connected rows whose token expires before the given time.
	ListExpiring(ctx context.Context, before time.Time) ([]model.PlatformConnection, error)

	// UpdateTokens, MarkSynced and MarkError write only their own columns, so
	// they never undo a concurrent disconnect or token refresh. UpdateTokens
	// and MarkError skip a disconnected row and report whether one was changed.
	UpdateTokens(ctx context.Context, id int64, access, refresh string, expiry time.Time) (bool, error)
	MarkSynced(ctx context.Context, id int64, at time.Time) error
	MarkError(ctx context.Context, id int64) (bool, error)
}

type FollowingRepository interface {
	Create(ctx context.Context, f *model.Following) error
	ListByUser(ctx context.Context, userID int64, filter model.FollowingFilter) ([]model.Following, error)
	DeleteByUserAndPlatform(ctx context.Context, userID, platformID int64) (int64, error)
}

type SyncHistoryRepository interface {
	Create(ctx context.Context, h *model.SyncHistory) error
	Update(ctx context.Context, h *model.SyncHistory) error
	GetByID(ctx context.Context, id int64) (*model.SyncHistory, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.SyncHistory, error)
	// FailInProgress closes every in_progress row as failed with msg.
	FailInProgress(ctx context.Context, msg string, at time.Time) (int64, error)
}
