package models

import "time"

// Preview is the ephemeral result of an intersection run, awaiting user
// confirmation. It lives in a server-side cache for a single confirm or
// cancel round-trip and is never persisted durably.
type Preview struct {
	ID        string    `json:"preview_id"`
	GroupID   string    `json:"group_id"`
	SongIDs   []string  `json:"intersection_ids"`
	Count     int       `json:"intersection_count"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the preview has passed its expiry time.
func (p *Preview) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
