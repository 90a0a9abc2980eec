package tasks

import (
	"fmt"

	"github.com/bradcj/intersect/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLikes Phase = iota
	StoreLikes
	GatherSets
	Intersect
	CreatePlaylist
	AddItems
	SaveGroup
)

func (p Phase) String() string {
	switch p {
	case FetchLikes:
		return "fetch_likes"
	case StoreLikes:
		return "store_likes"
	case GatherSets:
		return "gather_sets"
	case Intersect:
		return "intersect"
	case CreatePlaylist:
		return "create_playlist"
	case AddItems:
		return "add_items"
	case SaveGroup:
		return "save_group"
	default:
		return ""
	}
}

func fetchLikesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLikes,
		Step:    step,
		Total:   total,
		Message: "Collecting liked songs from YouTube...",
	}
}

func storeLikesUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StoreLikes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Storing %d liked songs...", count),
	}
}

func gatherSetsUpdate(step, total int, email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GatherSets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loading liked songs for %s...", step, total, email),
	}
}

func intersectUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Intersect,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %d songs in common", count),
	}
}

func createPlaylistUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist: %s...", title),
	}
}

func addItemUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, song.Channel, song.Title),
	}
}

func addItemFailedUpdate(step, total int, song models.Song, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, song.Title, err),
	}
}

func saveGroupUpdate(step, total int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveGroup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist ready (ID: %s)", playlistID),
	}
}
