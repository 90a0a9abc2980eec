// package tasks implements the liked-song sync, intersection, and playlist
// materialization operations behind the CLI, HTTP API, and TUI.
//
// The core abstraction is GroupEngine, which orchestrates collection of each
// member's liked songs, exact intersection across the group, and creation of
// the shared playlist. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/services"
	"github.com/bradcj/intersect/internal/shared"
	"golang.org/x/time/rate"
)

// SyncResult contains the outcome of collecting one user's liked songs.
type SyncResult struct {
	UserID   string    // User whose likes were collected
	Count    int       // Songs stored after the music filter
	SyncedAt time.Time // When the sync completed
}

// PreviewResult pairs a preview handle with the songs it covers.
type PreviewResult struct {
	Preview *models.Preview // Cached handle for a later materialization
	Songs   []models.Song   // Intersection in the host's like order
	Empty   []string        // Emails of members with no stored likes
}

// ItemFailure records a single song that could not be added to the playlist.
type ItemFailure struct {
	Song  models.Song
	Error error
}

// MaterializeResult contains the outcome of creating the shared playlist.
//
// Per-item add failures are tolerated: the playlist still exists with the
// songs that went through, and the failures are listed here for reporting.
type MaterializeResult struct {
	PlaylistID string        // Created playlist's external ID
	Title      string        // Playlist title
	Added      int           // Songs successfully added
	Failed     []ItemFailure // Songs that could not be added
	Total      int           // Songs attempted
}

// UserStore is the slice of user persistence the engine needs.
type UserStore interface {
	Get(id string) (*models.User, error)
	Update(user *models.User) error
}

// GroupStore is the slice of group persistence the engine needs.
type GroupStore interface {
	Get(id string) (*models.Group, error)
	UpdatePlaylistFields(groupID, playlistID string, songCount, expectedVersion int) error
}

// LikeStore is the slice of liked-song persistence the engine needs.
type LikeStore interface {
	ReplaceForUser(userID string, songs []models.Song) error
	GetSet(userID string) ([]models.Song, error)
}

// ServiceFactory builds an authenticated music service for the given user.
//
// The factory owns credential wiring, including persisting refreshed tokens,
// so the engine never touches OAuth directly.
type ServiceFactory func(user *models.User) (services.Service, error)

// Engine defines the group playlist operations.
type Engine interface {
	// SyncLikes collects the user's liked songs from the upstream service and
	// replaces their stored set.
	SyncLikes(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*SyncResult, error)

	// PreviewGroup computes the intersection of all members' stored sets and
	// caches it for a later Materialize call.
	PreviewGroup(ctx context.Context, groupID string, progress chan<- ProgressUpdate) (*PreviewResult, error)

	// Materialize creates the shared playlist from a cached preview using the
	// acting user's credential.
	Materialize(ctx context.Context, groupID, previewID, actorID string, progress chan<- ProgressUpdate) (*MaterializeResult, error)
}

// PlaylistOptions controls how materialized playlists are created.
type PlaylistOptions struct {
	TitleTemplate string  // fmt template receiving the group name
	Description   string  // Playlist description
	Privacy       string  // private, public, or unlisted
	RateLimit     float64 // Playlist item inserts per second
}

// GroupEngine implements Engine on top of the persistence stores and an
// authenticated service factory.
type GroupEngine struct {
	users    UserStore
	groups   GroupStore
	likes    LikeStore
	previews *PreviewCache
	factory  ServiceFactory
	options  PlaylistOptions
}

// NewGroupEngine creates a GroupEngine with the provided stores and factory.
func NewGroupEngine(users UserStore, groups GroupStore, likes LikeStore, previews *PreviewCache, factory ServiceFactory, options PlaylistOptions) *GroupEngine {
	if options.TitleTemplate == "" {
		options.TitleTemplate = "%s"
	}
	if options.Privacy == "" {
		options.Privacy = "private"
	}
	return &GroupEngine{
		users:    users,
		groups:   groups,
		likes:    likes,
		previews: previews,
		factory:  factory,
		options:  options,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *GroupEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// SyncLikes collects the user's liked songs and atomically replaces their stored set.
//
// An auth failure leaves the previous set untouched.
func (e *GroupEngine) SyncLikes(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	user, err := e.users.Get(userID)
	if err != nil {
		return nil, err
	}
	if !user.Authenticated() {
		return nil, fmt.Errorf("%w: %s has no linked credential", shared.ErrNotAuthenticated, user.Email())
	}

	svc, err := e.factory(user)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchLikesUpdate(1, 2))

	songs, err := svc.LikedSongs(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, storeLikesUpdate(2, 2, len(songs)))

	if err := e.likes.ReplaceForUser(userID, songs); err != nil {
		return nil, err
	}

	now := time.Now()
	user.SetSyncState(len(songs), now)
	if err := e.users.Update(user); err != nil {
		return nil, err
	}

	return &SyncResult{UserID: userID, Count: len(songs), SyncedAt: now}, nil
}

// PreviewGroup computes the members' intersection and caches it.
//
// The host's stored set is the reference, so output order is the host's like
// order and repeated previews over unchanged sets are identical. Members who
// never synced contribute an empty set, which makes the intersection empty;
// their emails are reported so the caller can prompt them to sync. An empty
// intersection is a successful result with a count of zero.
func (e *GroupEngine) PreviewGroup(ctx context.Context, groupID string, progress chan<- ProgressUpdate) (*PreviewResult, error) {
	group, err := e.groups.Get(groupID)
	if err != nil {
		return nil, err
	}

	members := group.Members()
	sets := make([][]models.Song, 0, len(members))
	empty := []string{}

	for i, memberID := range members {
		user, err := e.users.Get(memberID)
		if err != nil {
			return nil, err
		}

		e.sendProgress(progress, gatherSetsUpdate(i+1, len(members), user.Email()))

		set, err := e.likes.GetSet(memberID)
		if err != nil {
			return nil, err
		}
		if len(set) == 0 {
			empty = append(empty, user.Email())
		}
		sets = append(sets, set)
	}

	songs := IntersectSongs(sets)
	e.sendProgress(progress, intersectUpdate(len(members), len(members), len(songs)))

	preview := e.previews.Put(groupID, songs)
	return &PreviewResult{Preview: preview, Songs: songs, Empty: empty}, nil
}

// Materialize creates the shared playlist from a cached preview.
//
// Playlist creation is a hard failure. Individual song adds are not: each add
// is attempted in preview order, failures are recorded, and the run still
// succeeds with whatever made it in. The group's playlist fields are written
// with the version read here, so a concurrent materialization by another
// member surfaces as ErrGroupConflict.
func (e *GroupEngine) Materialize(ctx context.Context, groupID, previewID, actorID string, progress chan<- ProgressUpdate) (*MaterializeResult, error) {
	group, err := e.groups.Get(groupID)
	if err != nil {
		return nil, err
	}
	version := group.Version()

	preview, songs, err := e.previews.Get(previewID)
	if err != nil {
		return nil, err
	}
	if preview.GroupID != groupID {
		return nil, fmt.Errorf("%w: preview %s does not belong to group %s", shared.ErrInvalidInput, previewID, groupID)
	}
	if preview.Count == 0 {
		return nil, fmt.Errorf("%w: no songs in common, nothing to materialize", shared.ErrInvalidInput)
	}

	actor, err := e.users.Get(actorID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(actorID) {
		return nil, fmt.Errorf("%w: %s is not in group %s", shared.ErrNotGroupMember, actor.Email(), group.Name())
	}
	if !actor.Authenticated() {
		return nil, fmt.Errorf("%w: %s has no linked credential", shared.ErrNotAuthenticated, actor.Email())
	}

	svc, err := e.factory(actor)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf(e.options.TitleTemplate, group.Name())
	e.sendProgress(progress, createPlaylistUpdate(0, len(songs), title))

	playlistID, err := svc.CreatePlaylist(ctx, models.PlaylistMeta{
		Title:       title,
		Description: e.options.Description,
		Privacy:     e.options.Privacy,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrUpstream, err)
	}

	result := &MaterializeResult{
		PlaylistID: playlistID,
		Title:      title,
		Total:      len(songs),
	}

	limiter := e.limiter()
	for i, song := range songs {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		e.sendProgress(progress, addItemUpdate(i+1, len(songs), song))

		if err := svc.AddPlaylistItem(ctx, playlistID, song.VideoID); err != nil {
			e.sendProgress(progress, addItemFailedUpdate(i+1, len(songs), song, err))
			result.Failed = append(result.Failed, ItemFailure{Song: song, Error: err})
			continue
		}
		result.Added++
	}

	if err := e.groups.UpdatePlaylistFields(groupID, playlistID, result.Added, version); err != nil {
		return result, err
	}

	e.previews.Delete(previewID)
	e.sendProgress(progress, saveGroupUpdate(len(songs), len(songs), playlistID))
	return result, nil
}

func (e *GroupEngine) limiter() *rate.Limiter {
	if e.options.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(e.options.RateLimit), 1)
}
