package model

import "time"

// Connection status values.
const (
	ConnectionNotConnected = "not_connected"
	ConnectionConnected    = "connected"
	ConnectionDisconnected = "disconnected"
	ConnectionError        = "error"
)

// PlatformConnection links a user to a platform, with mock credentials.
//
// Nullable columns are pointers: a disconnected row has nil tokens and a nil
// expiry, which serialise as JSON null.
type PlatformConnection struct {
	ID               int64      `json:"id"               db:"id"`
	UserID           int64      `json:"userId"           db:"user_id"`
	PlatformID       int64      `json:"platformId"       db:"platform_id"`
	Connected        bool       `json:"connected"        db:"connected"`
	AccessToken      *string    `json:"accessToken"      db:"access_token"`
	RefreshToken     *string    `json:"refreshToken"     db:"refresh_token"`
	TokenExpiry      *time.Time `json:"tokenExpiry"      db:"token_expiry"`
	PlatformUsername *string    `json:"platformUsername" db:"platform_username"`
	LastSynced       *time.Time `json:"lastSynced"       db:"last_synced"`
	Status           string     `json:"status"           db:"status"`

	Platform *Platform `json:"platform,omitempty" db:"-"`
}
