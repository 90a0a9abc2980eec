package models

import (
	"fmt"
	"time"
)

// Group represents a set of users generating a shared playlist together.
//
// The playlist fields are only set after a successful materialization.
// The version column guards concurrent playlist updates: writers must
// present the version they read, and a mismatch means another member
// materialized in the meantime.
type Group struct {
	base
	name              string
	hostUserID        string
	members           []string
	playlistID        string
	playlistSongCount int
	version           int
	lastUpdated       *time.Time
}

// NewGroup creates a Group hosted by the given user, who becomes its first member.
func NewGroup(sequence int, name, hostUserID string) *Group {
	return &Group{
		base:       newBase(sequence),
		name:       name,
		hostUserID: hostUserID,
		members:    []string{hostUserID},
	}
}

func (g *Group) Name() string       { return g.name }
func (g *Group) HostUserID() string { return g.hostUserID }

func (g *Group) SetName(name string) { g.name = name }

// Members returns member user IDs in join order. The host is always first.
func (g *Group) Members() []string { return g.members }

// SetMembers replaces the member list (used when loading from the store).
func (g *Group) SetMembers(members []string) { g.members = members }

// HasMember reports whether the given user belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddMember appends a user to the group if not already present.
func (g *Group) AddMember(userID string) {
	if !g.HasMember(userID) {
		g.members = append(g.members, userID)
	}
}

// PlaylistID returns the materialized playlist's external ID, or "" if none.
func (g *Group) PlaylistID() string { return g.playlistID }

// PlaylistSongCount returns how many songs were added to the materialized playlist.
func (g *Group) PlaylistSongCount() int { return g.playlistSongCount }

// Version returns the optimistic-concurrency version of the playlist fields.
func (g *Group) Version() int { return g.version }

// SetVersion sets the version (used when loading from the store).
func (g *Group) SetVersion(v int) { g.version = v }

// LastUpdated returns when the playlist fields last changed, or nil if never.
func (g *Group) LastUpdated() *time.Time { return g.lastUpdated }

// SetPlaylist records a successful materialization.
func (g *Group) SetPlaylist(playlistID string, songCount int, at time.Time) {
	g.playlistID = playlistID
	g.playlistSongCount = songCount
	g.lastUpdated = &at
}

// SetLastUpdated sets the playlist timestamp (used when loading from the store).
func (g *Group) SetLastUpdated(t *time.Time) { g.lastUpdated = t }

// Validate checks that required group fields are present.
func (g *Group) Validate() error {
	if g.name == "" {
		return fmt.Errorf("group name is required")
	}
	if g.hostUserID == "" {
		return fmt.Errorf("group host is required")
	}
	return nil
}
