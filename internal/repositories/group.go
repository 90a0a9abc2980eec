package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
)

// GroupRepository implements [models.Repository] for [models.Group] persistence.
//
// Membership lives in the group_members junction table and is loaded with the
// group. Playlist fields are guarded by an optimistic version column so two
// members cannot clobber each other's materialization.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new [GroupRepository] with the given database connection
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group and its host membership row in one transaction
func (r *GroupRepository) Create(group *models.Group) error {
	sequence, err := NextSequence(r.db, "groups")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	group.SetID(id)

	if err := group.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (id, sequence, name, host_user_id, playlist_id, playlist_song_count, version, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', 0, 0, NULL, ?, ?)
	`

	_, err = tx.Exec(query, id, sequence, group.Name(), group.HostUserID(), group.CreatedAt(), group.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, member := range group.Members() {
		_, err = tx.Exec(`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			id, member, time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group transaction: %w", err)
	}

	return nil
}

// Get retrieves a group by ID with its member list, excluding soft-deleted groups
func (r *GroupRepository) Get(id string) (*models.Group, error) {
	query := `
		SELECT id, sequence, name, host_user_id, playlist_id, playlist_song_count, version, last_updated, created_at, updated_at, deleted_at
		FROM groups
		WHERE id = ? AND deleted_at IS NULL
	`

	group, err := r.scanGroup(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	members, err := r.members(group.ID())
	if err != nil {
		return nil, err
	}
	group.SetMembers(members)

	return group, nil
}

func (r *GroupRepository) scanGroup(row *sql.Row) (*models.Group, error) {
	var (
		groupID           string
		sequence          int
		name              string
		hostUserID        string
		playlistID        string
		playlistSongCount int
		version           int
		lastUpdated       sql.NullTime
		createdAt         time.Time
		updatedAt         time.Time
		deletedAt         sql.NullTime
	)

	err := row.Scan(&groupID, &sequence, &name, &hostUserID, &playlistID,
		&playlistSongCount, &version, &lastUpdated, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}

	group := models.NewGroup(sequence, name, hostUserID)
	group.SetID(groupID)
	group.SetCreatedAt(createdAt)
	group.SetUpdatedAt(updatedAt)
	group.SetVersion(version)
	if playlistID != "" {
		var at time.Time
		if lastUpdated.Valid {
			at = lastUpdated.Time
		}
		group.SetPlaylist(playlistID, playlistSongCount, at)
	}
	if deletedAt.Valid {
		group.SetDeletedAt(&deletedAt.Time)
	}

	return group, nil
}

// members returns the group's user IDs ordered by join time, host first.
func (r *GroupRepository) members(groupID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at ASC, user_id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return members, nil
}

// Update modifies a group's name in the database
func (r *GroupRepository) Update(group *models.Group) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	group.SetUpdatedAt(now)

	query := `
		UPDATE groups
		SET name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, group.Name(), now, group.ID())
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrGroupNotFound, group.ID())
	}

	return nil
}

// AddMember inserts a membership row for the user. Adding an existing member is a no-op.
func (r *GroupRepository) AddMember(groupID, userID string) error {
	_, err := r.db.Exec(`
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// UpdatePlaylistFields records a materialization result, bumping the version.
//
// The caller passes the version it read. A mismatch means another member
// materialized concurrently and the write is rejected with ErrGroupConflict.
func (r *GroupRepository) UpdatePlaylistFields(groupID, playlistID string, songCount, expectedVersion int) error {
	now := time.Now()

	query := `
		UPDATE groups
		SET playlist_id = ?, playlist_song_count = ?, version = version + 1, last_updated = ?, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, playlistID, songCount, now, now, groupID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update playlist fields: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		// Distinguish a stale version from a missing group.
		if _, err := r.Get(groupID); err != nil {
			return err
		}
		return fmt.Errorf("%w: group %s changed since version %d", shared.ErrGroupConflict, groupID, expectedVersion)
	}

	return nil
}

// Delete soft-deletes a group by ID
func (r *GroupRepository) Delete(id string) error {
	now := time.Now()

	result, err := r.db.Exec(`UPDATE groups SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrGroupNotFound, id)
	}

	return nil
}

// List retrieves all groups matching the given criteria, excluding soft-deleted groups.
//
// Supported criteria: "member" (user ID) restricts to groups the user belongs to,
// "host_user_id" restricts to groups the user hosts.
func (r *GroupRepository) List(criteria map[string]any) ([]*models.Group, error) {
	query := `
		SELECT g.id
		FROM groups g
		WHERE g.deleted_at IS NULL
	`

	args := []any{}

	if member, ok := criteria["member"].(string); ok && member != "" {
		query += " AND g.id IN (SELECT group_id FROM group_members WHERE user_id = ?)"
		args = append(args, member)
	}
	if host, ok := criteria["host_user_id"].(string); ok && host != "" {
		query += " AND g.host_user_id = ?"
		args = append(args, host)
	}

	query += " ORDER BY g.sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// ListByMember returns all groups the user belongs to.
func (r *GroupRepository) ListByMember(userID string) ([]*models.Group, error) {
	return r.List(map[string]any{"member": userID})
}
