// package services defines interface Service for interacting with the source platform API
package services

import (
	"context"
	"fmt"

	"github.com/bradcj/intersect/internal/models"
)

// Service defines the operations the playlist workflows need from the
// source platform (YouTube). Implementations own credential handling,
// including the single refresh-and-retry on an expired token.
type Service interface {
	// Authenticate installs a credential for subsequent requests.
	// Returns an error if the credential material is missing or invalid.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Profile retrieves the authenticated user's identity.
	Profile(ctx context.Context) (*Profile, error)

	// LikedSongs retrieves the complete ordered list of songs the user has
	// liked, following pagination until exhausted. An auth failure after
	// one refresh attempt aborts the whole collection with no partial results.
	LikedSongs(ctx context.Context) ([]models.Song, error)

	// CreatePlaylist creates an empty playlist and returns its external ID.
	CreatePlaylist(ctx context.Context, meta models.PlaylistMeta) (string, error)

	// AddPlaylistItem adds a single song to a playlist. Success or failure
	// is per call; callers decide how to aggregate failures.
	AddPlaylistItem(ctx context.Context, playlistID, videoID string) error

	// Name returns the name of the service (e.g., "YouTube")
	Name() string
}

// Profile represents the authenticated user's identity on the source platform.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// StatusError represents a non-2xx response from the upstream API.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream API error (status %d): %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("upstream API error: status %d", e.Code)
}
