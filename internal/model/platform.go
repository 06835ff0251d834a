package model

// Platform is one social network in the static catalog.
type Platform struct {
	ID      int64  `json:"id"      db:"id"`
	Name    string `json:"name"    db:"name"`
	Code    string `json:"code"    db:"code"`
	Icon    string `json:"icon"    db:"icon"`
	Color   string `json:"color"   db:"color"`
	Enabled bool   `json:"enabled" db:"enabled"`
}

// DefaultPlatforms is the catalog seeded into an empty database.
var DefaultPlatforms = []Platform{
	{Name: "Twitter/X", Code: "twitter", Icon: "alternate_email", Color: "#1DA1F2", Enabled: true},
	{Name: "Instagram", Code: "instagram", Icon: "photo_camera", Color: "#E1306C", Enabled: true},
	{Name: "Facebook", Code: "facebook", Icon: "thumb_up", Color: "#1877F2", Enabled: true},
	{Name: "LinkedIn", Code: "linkedin", Icon: "business_center", Color: "#0A66C2", Enabled: true},
	{Name: "TikTok", Code: "tiktok", Icon: "music_note", Color: "#000000", Enabled: true},
	{Name: "YouTube", Code: "youtube", Icon: "play_arrow", Color: "#FF0000", Enabled: true},
}
