package models

import (
	"fmt"
	"time"
)

// User represents an account linked to a YouTube identity.
//
// Stores the OAuth credential issued for the user plus liked-song sync state.
type User struct {
	base
	email        string
	name         string
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
	likedCount   int
	lastSyncedAt *time.Time
}

// NewUser creates a User with the given sequence, email, and display name.
func NewUser(sequence int, email, name string) *User {
	return &User{
		base:  newBase(sequence),
		email: email,
		name:  name,
	}
}

func (u *User) Email() string { return u.email }
func (u *User) Name() string  { return u.name }

func (u *User) SetEmail(email string) { u.email = email }
func (u *User) SetName(name string)   { u.name = name }

// AccessToken returns the current OAuth access token (may be stale).
func (u *User) AccessToken() string { return u.accessToken }

// RefreshToken returns the long-lived OAuth refresh token.
func (u *User) RefreshToken() string { return u.refreshToken }

// TokenExpiry returns when the access token expires.
func (u *User) TokenExpiry() time.Time { return u.tokenExpiry }

// SetTokens replaces the stored OAuth credential.
func (u *User) SetTokens(access, refresh string, expiry time.Time) {
	u.accessToken = access
	if refresh != "" {
		u.refreshToken = refresh
	}
	u.tokenExpiry = expiry
}

// Authenticated reports whether the user has linked a YouTube credential.
func (u *User) Authenticated() bool {
	return u.refreshToken != "" || u.accessToken != ""
}

// LikedCount returns the number of liked songs recorded at the last sync.
func (u *User) LikedCount() int { return u.likedCount }

// LastSyncedAt returns when liked songs were last collected, or nil if never.
func (u *User) LastSyncedAt() *time.Time { return u.lastSyncedAt }

// SetSyncState records the result of a liked-song sync.
func (u *User) SetSyncState(count int, at time.Time) {
	u.likedCount = count
	u.lastSyncedAt = &at
}

// Validate checks that required user fields are present.
func (u *User) Validate() error {
	if u.email == "" {
		return fmt.Errorf("user email is required")
	}
	return nil
}
