package model

import "time"

// Sync attempt states. in_progress is the only non-terminal one.
const (
	SyncInProgress = "in_progress"
	SyncCompleted  = "completed"
	SyncFailed     = "failed"
)

// SyncHistory records one sync attempt for one platform.
type SyncHistory struct {
	ID             int64      `json:"id"             db:"id"`
	UserID         int64      `json:"userId"         db:"user_id"`
	PlatformID     int64      `json:"platformId"     db:"platform_id"`
	Status         string     `json:"status"         db:"status"`
	TotalItems     int        `json:"totalItems"     db:"total_items"`
	ItemsProcessed int        `json:"itemsProcessed" db:"items_processed"`
	StartTime      time.Time  `json:"startTime"      db:"start_time"`
	EndTime        *time.Time `json:"endTime"        db:"end_time"`
	Error          *string    `json:"error"          db:"error"`

	Platform *Platform `json:"platform,omitempty" db:"-"`
}

// Terminal reports whether the attempt has finished, successfully or not.
func (s *SyncHistory) Terminal() bool {
	return s.Status == SyncCompleted || s.Status == SyncFailed
}
