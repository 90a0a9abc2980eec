package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/services"
	"github.com/bradcj/intersect/internal/shared"
)

// mockService implements services.Service with canned responses.
type mockService struct {
	likedSongs    []models.Song
	likedErr      error
	playlistID    string
	createErr     error
	addErrs       map[string]error
	addedVideoIDs []string
}

func (m *mockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *mockService) Profile(ctx context.Context) (*services.Profile, error) {
	return &services.Profile{ID: "mock", Email: "mock@example.com"}, nil
}

func (m *mockService) LikedSongs(ctx context.Context) ([]models.Song, error) {
	if m.likedErr != nil {
		return nil, m.likedErr
	}
	return m.likedSongs, nil
}

func (m *mockService) CreatePlaylist(ctx context.Context, meta models.PlaylistMeta) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.playlistID, nil
}

func (m *mockService) AddPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	if err, ok := m.addErrs[videoID]; ok {
		return err
	}
	m.addedVideoIDs = append(m.addedVideoIDs, videoID)
	return nil
}

func (m *mockService) Name() string { return "Mock" }

type mockUserStore struct {
	users   map[string]*models.User
	updated int
}

func (s *mockUserStore) Get(id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return user, nil
}

func (s *mockUserStore) Update(user *models.User) error {
	s.updated++
	s.users[user.ID()] = user
	return nil
}

type mockGroupStore struct {
	group       *models.Group
	updateErr   error
	playlistID  string
	songCount   int
	gotVersion  int
	updateCalls int
}

func (s *mockGroupStore) Get(id string) (*models.Group, error) {
	if s.group == nil || s.group.ID() != id {
		return nil, shared.ErrGroupNotFound
	}
	return s.group, nil
}

func (s *mockGroupStore) UpdatePlaylistFields(groupID, playlistID string, songCount, expectedVersion int) error {
	s.updateCalls++
	s.gotVersion = expectedVersion
	if s.updateErr != nil {
		return s.updateErr
	}
	s.playlistID = playlistID
	s.songCount = songCount
	return nil
}

type mockLikeStore struct {
	sets       map[string][]models.Song
	replaceErr error
}

func (s *mockLikeStore) ReplaceForUser(userID string, songs []models.Song) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	if s.sets == nil {
		s.sets = map[string][]models.Song{}
	}
	s.sets[userID] = songs
	return nil
}

func (s *mockLikeStore) GetSet(userID string) ([]models.Song, error) {
	return s.sets[userID], nil
}

func authedUser(id, email string) *models.User {
	user := models.NewUser(0, email, "Test")
	user.SetID(id)
	user.SetTokens("access", "refresh", time.Now().Add(time.Hour))
	return user
}

func testGroup(id, host string, members ...string) *models.Group {
	group := models.NewGroup(0, "Road Trip", host)
	group.SetID(id)
	for _, m := range members {
		group.AddMember(m)
	}
	return group
}

func newTestEngine(users *mockUserStore, groups *mockGroupStore, likes *mockLikeStore, svc services.Service) *GroupEngine {
	factory := func(user *models.User) (services.Service, error) { return svc, nil }
	return NewGroupEngine(users, groups, likes, NewPreviewCache(10*time.Minute), factory, PlaylistOptions{
		TitleTemplate: "%s Mix",
		Privacy:       "private",
	})
}

func TestGroupEngineSyncLikes(t *testing.T) {
	t.Run("stores collected songs and records sync state", func(t *testing.T) {
		users := &mockUserStore{users: map[string]*models.User{"u1": authedUser("u1", "a@example.com")}}
		likes := &mockLikeStore{}
		svc := &mockService{likedSongs: songSet("v1", "v2", "v3")}

		engine := newTestEngine(users, &mockGroupStore{}, likes, svc)

		result, err := engine.SyncLikes(context.Background(), "u1", nil)
		if err != nil {
			t.Fatalf("expected sync to succeed, got %v", err)
		}

		if result.Count != 3 {
			t.Errorf("expected 3 songs, got %d", result.Count)
		}
		if len(likes.sets["u1"]) != 3 {
			t.Errorf("expected stored set of 3, got %d", len(likes.sets["u1"]))
		}
		if users.users["u1"].LikedCount() != 3 {
			t.Errorf("expected liked count recorded on user, got %d", users.users["u1"].LikedCount())
		}
		if users.updated != 1 {
			t.Errorf("expected user persisted once, got %d", users.updated)
		}
	})

	t.Run("unauthenticated user is rejected", func(t *testing.T) {
		plain := models.NewUser(0, "a@example.com", "Test")
		plain.SetID("u1")
		users := &mockUserStore{users: map[string]*models.User{"u1": plain}}

		engine := newTestEngine(users, &mockGroupStore{}, &mockLikeStore{}, &mockService{})

		_, err := engine.SyncLikes(context.Background(), "u1", nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("auth expiry leaves previous set untouched", func(t *testing.T) {
		users := &mockUserStore{users: map[string]*models.User{"u1": authedUser("u1", "a@example.com")}}
		likes := &mockLikeStore{sets: map[string][]models.Song{"u1": songSet("old")}}
		svc := &mockService{likedErr: fmt.Errorf("%w: token revoked", shared.ErrAuthExpired)}

		engine := newTestEngine(users, &mockGroupStore{}, likes, svc)

		_, err := engine.SyncLikes(context.Background(), "u1", nil)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Fatalf("expected ErrAuthExpired, got %v", err)
		}

		if len(likes.sets["u1"]) != 1 || likes.sets["u1"][0].VideoID != "old" {
			t.Errorf("expected previous set preserved, got %v", likes.sets["u1"])
		}
		if users.updated != 0 {
			t.Error("sync state should not be recorded on failure")
		}
	})
}

func TestGroupEnginePreviewGroup(t *testing.T) {
	setupUsers := func() *mockUserStore {
		return &mockUserStore{users: map[string]*models.User{
			"host":   authedUser("host", "host@example.com"),
			"friend": authedUser("friend", "friend@example.com"),
		}}
	}

	t.Run("caches intersection in host order", func(t *testing.T) {
		groups := &mockGroupStore{group: testGroup("g1", "host", "friend")}
		likes := &mockLikeStore{sets: map[string][]models.Song{
			"host":   songSet("c", "a", "b"),
			"friend": songSet("a", "c", "z"),
		}}

		engine := newTestEngine(setupUsers(), groups, likes, &mockService{})

		result, err := engine.PreviewGroup(context.Background(), "g1", nil)
		if err != nil {
			t.Fatalf("expected preview to succeed, got %v", err)
		}

		if !equalIDs(videoIDs(result.Songs), []string{"c", "a"}) {
			t.Errorf("expected host-order c,a, got %v", videoIDs(result.Songs))
		}
		if result.Preview.Count != 2 {
			t.Errorf("expected preview count 2, got %d", result.Preview.Count)
		}

		// The cached handle must be reusable by a materialization.
		if _, _, err := engine.previews.Get(result.Preview.ID); err != nil {
			t.Errorf("expected preview retrievable from cache, got %v", err)
		}
	})

	t.Run("member with no synced likes yields empty preview", func(t *testing.T) {
		groups := &mockGroupStore{group: testGroup("g1", "host", "friend")}
		likes := &mockLikeStore{sets: map[string][]models.Song{
			"host": songSet("a", "b"),
		}}

		engine := newTestEngine(setupUsers(), groups, likes, &mockService{})

		result, err := engine.PreviewGroup(context.Background(), "g1", nil)
		if err != nil {
			t.Fatalf("empty intersection is a success, got %v", err)
		}

		if result.Preview.Count != 0 {
			t.Errorf("expected empty intersection, got %d", result.Preview.Count)
		}
		if len(result.Empty) != 1 || result.Empty[0] != "friend@example.com" {
			t.Errorf("expected friend reported as unsynced, got %v", result.Empty)
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		engine := newTestEngine(setupUsers(), &mockGroupStore{}, &mockLikeStore{}, &mockService{})

		_, err := engine.PreviewGroup(context.Background(), "missing", nil)
		if !errors.Is(err, shared.ErrGroupNotFound) {
			t.Errorf("expected ErrGroupNotFound, got %v", err)
		}
	})
}

func TestGroupEngineMaterialize(t *testing.T) {
	setup := func(svc services.Service) (*GroupEngine, *mockGroupStore, *models.Preview) {
		users := &mockUserStore{users: map[string]*models.User{
			"host":   authedUser("host", "host@example.com"),
			"friend": authedUser("friend", "friend@example.com"),
		}}
		groups := &mockGroupStore{group: testGroup("g1", "host", "friend")}

		engine := newTestEngine(users, groups, &mockLikeStore{}, svc)
		preview := engine.previews.Put("g1", songSet("v1", "v2", "v3", "v4"))
		return engine, groups, preview
	}

	t.Run("creates playlist and records result", func(t *testing.T) {
		svc := &mockService{playlistID: "PL123"}
		engine, groups, preview := setup(svc)

		result, err := engine.Materialize(context.Background(), "g1", preview.ID, "host", nil)
		if err != nil {
			t.Fatalf("expected materialization to succeed, got %v", err)
		}

		if result.PlaylistID != "PL123" {
			t.Errorf("expected playlist PL123, got %s", result.PlaylistID)
		}
		if result.Title != "Road Trip Mix" {
			t.Errorf("expected templated title, got %s", result.Title)
		}
		if result.Added != 4 || len(result.Failed) != 0 {
			t.Errorf("expected 4 added and 0 failed, got %d/%d", result.Added, len(result.Failed))
		}
		if groups.playlistID != "PL123" || groups.songCount != 4 {
			t.Errorf("expected group playlist fields written, got %s/%d", groups.playlistID, groups.songCount)
		}
		if groups.gotVersion != 0 {
			t.Errorf("expected version 0 passed through, got %d", groups.gotVersion)
		}

		// The consumed preview is gone.
		if _, _, err := engine.previews.Get(preview.ID); !errors.Is(err, shared.ErrPreviewNotFound) {
			t.Errorf("expected preview consumed, got %v", err)
		}
	})

	t.Run("per-item failures are tolerated", func(t *testing.T) {
		svc := &mockService{
			playlistID: "PL123",
			addErrs: map[string]error{
				"v2": &services.StatusError{Code: 404, Detail: "video unavailable"},
			},
		}
		engine, groups, preview := setup(svc)

		result, err := engine.Materialize(context.Background(), "g1", preview.ID, "host", nil)
		if err != nil {
			t.Fatalf("per-item failures must not fail the run, got %v", err)
		}

		if result.Added != 3 {
			t.Errorf("expected 3 added, got %d", result.Added)
		}
		if len(result.Failed) != 1 || result.Failed[0].Song.VideoID != "v2" {
			t.Errorf("expected v2 recorded as failed, got %v", result.Failed)
		}
		if groups.songCount != 3 {
			t.Errorf("group should record the songs that made it in, got %d", groups.songCount)
		}
	})

	t.Run("playlist creation failure is fatal", func(t *testing.T) {
		svc := &mockService{createErr: &services.StatusError{Code: 403, Detail: "quotaExceeded"}}
		engine, groups, preview := setup(svc)

		_, err := engine.Materialize(context.Background(), "g1", preview.ID, "host", nil)
		if !errors.Is(err, shared.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
		if groups.updateCalls != 0 {
			t.Error("group fields should not be written when creation fails")
		}
	})

	t.Run("concurrent materialization surfaces conflict", func(t *testing.T) {
		svc := &mockService{playlistID: "PL123"}
		engine, groups, preview := setup(svc)
		groups.updateErr = shared.ErrGroupConflict

		_, err := engine.Materialize(context.Background(), "g1", preview.ID, "host", nil)
		if !errors.Is(err, shared.ErrGroupConflict) {
			t.Errorf("expected ErrGroupConflict, got %v", err)
		}
	})

	t.Run("expired or unknown preview", func(t *testing.T) {
		engine, _, _ := setup(&mockService{playlistID: "PL123"})

		_, err := engine.Materialize(context.Background(), "g1", "missing", "host", nil)
		if !errors.Is(err, shared.ErrPreviewNotFound) {
			t.Errorf("expected ErrPreviewNotFound, got %v", err)
		}
	})

	t.Run("preview for another group is rejected", func(t *testing.T) {
		engine, _, _ := setup(&mockService{playlistID: "PL123"})
		other := engine.previews.Put("g2", songSet("x"))

		_, err := engine.Materialize(context.Background(), "g1", other.ID, "host", nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("empty preview cannot be materialized", func(t *testing.T) {
		engine, _, _ := setup(&mockService{playlistID: "PL123"})
		empty := engine.previews.Put("g1", nil)

		_, err := engine.Materialize(context.Background(), "g1", empty.ID, "host", nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("actor outside the group is rejected", func(t *testing.T) {
		users := &mockUserStore{users: map[string]*models.User{
			"host":     authedUser("host", "host@example.com"),
			"friend":   authedUser("friend", "friend@example.com"),
			"stranger": authedUser("stranger", "stranger@example.com"),
		}}
		groups := &mockGroupStore{group: testGroup("g1", "host", "friend")}
		engine := newTestEngine(users, groups, &mockLikeStore{}, &mockService{playlistID: "PL123"})
		preview := engine.previews.Put("g1", songSet("v1"))

		_, err := engine.Materialize(context.Background(), "g1", preview.ID, "stranger", nil)
		if !errors.Is(err, shared.ErrNotGroupMember) {
			t.Errorf("expected ErrNotGroupMember, got %v", err)
		}
	})
}
