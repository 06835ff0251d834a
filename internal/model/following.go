package model

import (
	"encoding/json"
	"time"
)

// Following is one followed account, scoped to a user and platform.
type Following struct {
	ID                int64           `json:"id"                db:"id"`
	UserID            int64           `json:"userId"            db:"user_id"`
	PlatformID        int64           `json:"platformId"        db:"platform_id"`
	Username          string          `json:"username"          db:"username"`
	DisplayName       *string         `json:"displayName"       db:"display_name"`
	ProfilePictureURL *string         `json:"profilePictureUrl" db:"profile_picture_url"`
	PlatformUserID    *string         `json:"platformUserId"    db:"platform_user_id"`
	PlatformData      json.RawMessage `json:"platformData"      db:"platform_data"`
	CreatedAt         time.Time       `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt"         db:"updated_at"`

	Platform *Platform `json:"platform,omitempty" db:"-"`
}

// FollowingFilter narrows a following listing. Zero values mean "no filter".
type FollowingFilter struct {
	PlatformCode string // exact platform code, e.g. "twitter"
	Query        string // case-insensitive substring of username or display name
}

// ExportRow is one line of the following export.
type ExportRow struct {
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	Platform     string `json:"platform"`
	PlatformCode string `json:"platformCode"`
}
