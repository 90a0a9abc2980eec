package ui

import (
	"fmt"

	"github.com/bradcj/intersect/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = groupItem{}
	_ list.Item = songItem{}
)

// groupItem wraps [models.Group] to implement [list.Item].
type groupItem struct {
	group *models.Group
}

func (i groupItem) FilterValue() string { return i.group.Name() }
func (i groupItem) Title() string       { return i.group.Name() }
func (i groupItem) Description() string {
	desc := fmt.Sprintf("%d members", len(i.group.Members()))
	if i.group.PlaylistID() != "" {
		desc = fmt.Sprintf("%s • playlist with %d songs", desc, i.group.PlaylistSongCount())
	}
	return desc
}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string { return i.song.Channel }
