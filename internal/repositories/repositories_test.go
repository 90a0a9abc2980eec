package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	repo := NewUserRepository(db)
	user := models.NewUser(0, email, "Test User")
	if err := repo.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "users")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	second, err := NextSequence(db, "users")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected sequence to increment, got %d then %d", first, second)
	}
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "test@example.com")

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createTestUser(t, db, "test@example.com")

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.Email() != "test@example.com" {
			t.Errorf("expected email test@example.com, got %s", got.Email())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createTestUser(t, db, "host@example.com")

		got, err := repo.GetByEmail("host@example.com")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}
		if got.ID() != user.ID() {
			t.Errorf("expected id %s, got %s", user.ID(), got.ID())
		}

		if _, err := repo.GetByEmail("nobody@example.com"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Update Persists Credential And Sync State", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createTestUser(t, db, "test@example.com")

		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		user.SetTokens("access", "refresh", expiry)
		user.SetSyncState(42, time.Now())

		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.AccessToken() != "access" || got.RefreshToken() != "refresh" {
			t.Errorf("expected stored tokens, got access=%q refresh=%q", got.AccessToken(), got.RefreshToken())
		}
		if !got.Authenticated() {
			t.Error("expected user to be authenticated after storing tokens")
		}
		if got.LikedCount() != 42 {
			t.Errorf("expected liked count 42, got %d", got.LikedCount())
		}
		if got.LastSyncedAt() == nil {
			t.Error("expected last synced timestamp to be set")
		}
	})

	t.Run("Delete Excludes User From Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createTestUser(t, db, "test@example.com")

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after soft delete, got %v", err)
		}
	})

	t.Run("List Filters By Email", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		createTestUser(t, db, "a@example.com")
		createTestUser(t, db, "b@example.com")

		users, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}

		users, err = repo.List(map[string]any{"email": "b@example.com"})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 || users[0].Email() != "b@example.com" {
			t.Errorf("expected only b@example.com, got %d users", len(users))
		}
	})
}

func TestGroupRepository(t *testing.T) {
	t.Run("Create Seeds Host Membership", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		host := createTestUser(t, db, "host@example.com")
		repo := NewGroupRepository(db)

		group := models.NewGroup(0, "Road Trip", host.ID())
		if err := repo.Create(group); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}

		got, err := repo.Get(group.ID())
		if err != nil {
			t.Fatalf("failed to get group: %v", err)
		}
		if !got.HasMember(host.ID()) {
			t.Error("host should be a member of the created group")
		}
		if len(got.Members()) != 1 {
			t.Errorf("expected 1 member, got %d", len(got.Members()))
		}
		if got.Version() != 0 {
			t.Errorf("expected initial version 0, got %d", got.Version())
		}
	})

	t.Run("AddMember", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		host := createTestUser(t, db, "host@example.com")
		friend := createTestUser(t, db, "friend@example.com")

		repo := NewGroupRepository(db)
		group := models.NewGroup(0, "Road Trip", host.ID())
		if err := repo.Create(group); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}

		if err := repo.AddMember(group.ID(), friend.ID()); err != nil {
			t.Fatalf("failed to add member: %v", err)
		}

		// Re-adding is a no-op, not an error.
		if err := repo.AddMember(group.ID(), friend.ID()); err != nil {
			t.Fatalf("expected duplicate add to be a no-op, got %v", err)
		}

		got, err := repo.Get(group.ID())
		if err != nil {
			t.Fatalf("failed to get group: %v", err)
		}
		if len(got.Members()) != 2 {
			t.Errorf("expected 2 members, got %d", len(got.Members()))
		}
		if got.Members()[0] != host.ID() {
			t.Errorf("expected host first in member order, got %v", got.Members())
		}
	})

	t.Run("UpdatePlaylistFields", func(t *testing.T) {
		t.Run("Bumps Version On Match", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			host := createTestUser(t, db, "host@example.com")
			repo := NewGroupRepository(db)
			group := models.NewGroup(0, "Road Trip", host.ID())
			if err := repo.Create(group); err != nil {
				t.Fatalf("failed to create group: %v", err)
			}

			if err := repo.UpdatePlaylistFields(group.ID(), "PL123", 7, 0); err != nil {
				t.Fatalf("failed to update playlist fields: %v", err)
			}

			got, err := repo.Get(group.ID())
			if err != nil {
				t.Fatalf("failed to get group: %v", err)
			}
			if got.PlaylistID() != "PL123" {
				t.Errorf("expected playlist id PL123, got %s", got.PlaylistID())
			}
			if got.PlaylistSongCount() != 7 {
				t.Errorf("expected song count 7, got %d", got.PlaylistSongCount())
			}
			if got.Version() != 1 {
				t.Errorf("expected version 1 after update, got %d", got.Version())
			}
			if got.LastUpdated() == nil {
				t.Error("expected last updated timestamp to be set")
			}
		})

		t.Run("Rejects Stale Version", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			host := createTestUser(t, db, "host@example.com")
			repo := NewGroupRepository(db)
			group := models.NewGroup(0, "Road Trip", host.ID())
			if err := repo.Create(group); err != nil {
				t.Fatalf("failed to create group: %v", err)
			}

			if err := repo.UpdatePlaylistFields(group.ID(), "PL123", 7, 0); err != nil {
				t.Fatalf("first update should succeed: %v", err)
			}

			err := repo.UpdatePlaylistFields(group.ID(), "PL456", 3, 0)
			if !errors.Is(err, shared.ErrGroupConflict) {
				t.Errorf("expected ErrGroupConflict for stale version, got %v", err)
			}

			got, _ := repo.Get(group.ID())
			if got.PlaylistID() != "PL123" {
				t.Errorf("stale write should not apply, got playlist %s", got.PlaylistID())
			}
		})

		t.Run("Missing Group", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewGroupRepository(db)
			err := repo.UpdatePlaylistFields("nonexistent", "PL123", 1, 0)
			if !errors.Is(err, shared.ErrGroupNotFound) {
				t.Errorf("expected ErrGroupNotFound, got %v", err)
			}
		})
	})

	t.Run("ListByMember", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		host := createTestUser(t, db, "host@example.com")
		friend := createTestUser(t, db, "friend@example.com")

		repo := NewGroupRepository(db)

		mine := models.NewGroup(0, "Mine", host.ID())
		if err := repo.Create(mine); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
		theirs := models.NewGroup(0, "Theirs", friend.ID())
		if err := repo.Create(theirs); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
		if err := repo.AddMember(theirs.ID(), host.ID()); err != nil {
			t.Fatalf("failed to add member: %v", err)
		}

		groups, err := repo.ListByMember(host.ID())
		if err != nil {
			t.Fatalf("failed to list groups: %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("expected host in 2 groups, got %d", len(groups))
		}

		groups, err = repo.ListByMember(friend.ID())
		if err != nil {
			t.Fatalf("failed to list groups: %v", err)
		}
		if len(groups) != 1 || groups[0].Name() != "Theirs" {
			t.Errorf("expected friend only in Theirs, got %d groups", len(groups))
		}
	})
}

func TestLikeRepository(t *testing.T) {
	songs := []models.Song{
		{VideoID: "v1", Title: "First", Channel: "Ch A"},
		{VideoID: "v2", Title: "Second", Channel: "Ch B"},
		{VideoID: "v3", Title: "Third", Channel: "Ch C"},
	}

	t.Run("ReplaceForUser And GetSet Preserve Order", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "test@example.com")
		repo := NewLikeRepository(db)

		if err := repo.ReplaceForUser(user.ID(), songs); err != nil {
			t.Fatalf("failed to replace liked songs: %v", err)
		}

		got, err := repo.GetSet(user.ID())
		if err != nil {
			t.Fatalf("failed to get liked songs: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 songs, got %d", len(got))
		}
		for i, song := range songs {
			if got[i].VideoID != song.VideoID {
				t.Errorf("position %d: expected %s, got %s", i, song.VideoID, got[i].VideoID)
			}
		}
	})

	t.Run("Replace Swaps Whole Set", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "test@example.com")
		repo := NewLikeRepository(db)

		if err := repo.ReplaceForUser(user.ID(), songs); err != nil {
			t.Fatalf("failed to replace liked songs: %v", err)
		}
		if err := repo.ReplaceForUser(user.ID(), songs[:1]); err != nil {
			t.Fatalf("failed to replace liked songs: %v", err)
		}

		count, err := repo.Count(user.ID())
		if err != nil {
			t.Fatalf("failed to count liked songs: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 song after replace, got %d", count)
		}
	})

	t.Run("Duplicate Video IDs Keep First Occurrence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "test@example.com")
		repo := NewLikeRepository(db)

		repeated := []models.Song{
			{VideoID: "v1", Title: "First", Channel: "Ch A"},
			{VideoID: "v2", Title: "Second", Channel: "Ch B"},
			{VideoID: "v1", Title: "First Again", Channel: "Ch A"},
			{VideoID: "v3", Title: "Third", Channel: "Ch C"},
		}

		if err := repo.ReplaceForUser(user.ID(), repeated); err != nil {
			t.Fatalf("failed to replace liked songs with duplicates: %v", err)
		}

		got, err := repo.GetSet(user.ID())
		if err != nil {
			t.Fatalf("failed to get liked songs: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 songs after dedupe, got %d", len(got))
		}
		for i, want := range []string{"v1", "v2", "v3"} {
			if got[i].VideoID != want {
				t.Errorf("position %d: expected %s, got %s", i, want, got[i].VideoID)
			}
		}
		if got[0].Title != "First" {
			t.Errorf("expected first occurrence to win, got title %q", got[0].Title)
		}
	})

	t.Run("Empty Set", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "test@example.com")
		repo := NewLikeRepository(db)

		if err := repo.ReplaceForUser(user.ID(), nil); err != nil {
			t.Fatalf("failed to store empty set: %v", err)
		}

		got, err := repo.GetSet(user.ID())
		if err != nil {
			t.Fatalf("failed to get liked songs: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty set, got %d songs", len(got))
		}
	})
}
