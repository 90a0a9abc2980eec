package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
)

// UserRepository implements [models.Repository] for [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	user.SetID(id)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (id, sequence, email, name, access_token, refresh_token, token_expiry, liked_count, last_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, user.Email(), user.Name(),
		user.AccessToken(), user.RefreshToken(), nullableTime(user.TokenExpiry()),
		user.LikedCount(), nullableTimePtr(user.LastSyncedAt()),
		user.CreatedAt(), user.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.getWhere("id = ?", id)
}

// GetByEmail retrieves a user by email, excluding soft-deleted users.
//
// The OAuth callback uses this to upsert the account linked to a Google identity.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getWhere("email = ?", email)
}

func (r *UserRepository) getWhere(where string, arg any) (*models.User, error) {
	query := `
		SELECT id, sequence, email, name, access_token, refresh_token, token_expiry, liked_count, last_synced_at, created_at, updated_at, deleted_at
		FROM users
		WHERE ` + where + ` AND deleted_at IS NULL
	`

	var (
		userID       string
		sequence     int
		email        string
		name         string
		accessToken  string
		refreshToken string
		tokenExpiry  sql.NullTime
		likedCount   int
		lastSyncedAt sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := r.db.QueryRow(query, arg).Scan(&userID, &sequence, &email, &name,
		&accessToken, &refreshToken, &tokenExpiry, &likedCount, &lastSyncedAt,
		&createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %v", shared.ErrUserNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user := models.NewUser(sequence, email, name)
	user.SetID(userID)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if accessToken != "" || refreshToken != "" {
		user.SetTokens(accessToken, refreshToken, tokenExpiry.Time)
	}
	if lastSyncedAt.Valid {
		user.SetSyncState(likedCount, lastSyncedAt.Time)
	}
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}

// Update modifies an existing user in the database, including credential and sync state
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET email = ?, name = ?, access_token = ?, refresh_token = ?, token_expiry = ?, liked_count = ?, last_synced_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, user.Email(), user.Name(),
		user.AccessToken(), user.RefreshToken(), nullableTime(user.TokenExpiry()),
		user.LikedCount(), nullableTimePtr(user.LastSyncedAt()), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID())
	}

	return nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}

	return nil
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `
		SELECT id, sequence, email, name, access_token, refresh_token, token_expiry, liked_count, last_synced_at, created_at, updated_at
		FROM users
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		var (
			userID       string
			sequence     int
			email        string
			name         string
			accessToken  string
			refreshToken string
			tokenExpiry  sql.NullTime
			likedCount   int
			lastSyncedAt sql.NullTime
			createdAt    time.Time
			updatedAt    time.Time
		)

		if err := rows.Scan(&userID, &sequence, &email, &name, &accessToken,
			&refreshToken, &tokenExpiry, &likedCount, &lastSyncedAt,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user := models.NewUser(sequence, email, name)
		user.SetID(userID)
		user.SetCreatedAt(createdAt)
		user.SetUpdatedAt(updatedAt)
		if accessToken != "" || refreshToken != "" {
			user.SetTokens(accessToken, refreshToken, tokenExpiry.Time)
		}
		if lastSyncedAt.Valid {
			user.SetSyncState(likedCount, lastSyncedAt.Time)
		}

		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
