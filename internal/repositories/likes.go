package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bradcj/intersect/internal/models"
)

// LikeRepository persists each user's liked-song set.
//
// A sync replaces the whole set in one transaction so readers never observe a
// half-written collection. Position preserves the like order reported by the
// upstream API (most recent first), which downstream intersection relies on
// for stable output.
type LikeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new [LikeRepository] with the given database connection
func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// ReplaceForUser atomically swaps the user's liked-song set for the given songs.
func (r *LikeRepository) ReplaceForUser(userID string, songs []models.Song) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM liked_songs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear liked songs: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO liked_songs (user_id, video_id, title, channel, position, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	seen := make(map[string]bool, len(songs))
	position := 0
	for _, song := range songs {
		// The upstream API can repeat a video id; first occurrence wins
		// so stored positions keep the like order.
		if seen[song.VideoID] {
			continue
		}
		seen[song.VideoID] = true

		if _, err := stmt.Exec(userID, song.VideoID, song.Title, song.Channel, position, now); err != nil {
			return fmt.Errorf("failed to insert liked song %s: %w", song.VideoID, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit liked songs: %w", err)
	}

	return nil
}

// GetSet returns the user's liked songs in stored like order.
func (r *LikeRepository) GetSet(userID string) ([]models.Song, error) {
	rows, err := r.db.Query(`
		SELECT video_id, title, channel
		FROM liked_songs
		WHERE user_id = ?
		ORDER BY position ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.VideoID, &song.Title, &song.Channel); err != nil {
			return nil, fmt.Errorf("failed to scan liked song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate liked songs: %w", err)
	}

	return songs, nil
}

// Count returns the size of the user's stored liked-song set.
func (r *LikeRepository) Count(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM liked_songs WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count liked songs: %w", err)
	}
	return count, nil
}
