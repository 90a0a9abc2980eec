package tasks

import (
	"sync"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
)

// PreviewCache holds intersection previews in memory until they expire or are
// consumed by a materialization.
//
// Previews are cheap to recompute, so they live in process rather than in the
// database. Expired entries are dropped lazily on access.
type PreviewCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	previews map[string]*models.Preview
	songs    map[string][]models.Song
}

// NewPreviewCache creates a cache whose entries expire after ttl.
func NewPreviewCache(ttl time.Duration) *PreviewCache {
	return &PreviewCache{
		ttl:      ttl,
		now:      time.Now,
		previews: map[string]*models.Preview{},
		songs:    map[string][]models.Song{},
	}
}

// Put stores an intersection result and returns the preview handle for it.
func (c *PreviewCache) Put(groupID string, songs []models.Song) *models.Preview {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ids := make([]string, len(songs))
	for i, song := range songs {
		ids[i] = song.VideoID
	}

	preview := &models.Preview{
		ID:        shared.GenerateID(),
		GroupID:   groupID,
		SongIDs:   ids,
		Count:     len(ids),
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.previews[preview.ID] = preview
	c.songs[preview.ID] = songs
	return preview
}

// Get returns the preview and its songs, or ErrPreviewNotFound if the ID is
// unknown or the entry has expired.
func (c *PreviewCache) Get(id string) (*models.Preview, []models.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	preview, ok := c.previews[id]
	if !ok {
		return nil, nil, shared.ErrPreviewNotFound
	}
	if preview.Expired(c.now()) {
		delete(c.previews, id)
		delete(c.songs, id)
		return nil, nil, shared.ErrPreviewNotFound
	}

	return preview, c.songs[id], nil
}

// Delete removes a preview, typically after it has been materialized.
func (c *PreviewCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.previews, id)
	delete(c.songs, id)
}
