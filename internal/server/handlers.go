package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/bradcj/intersect/internal/tasks"
	"github.com/charmbracelet/log"
)

// GroupDirectory is the slice of group persistence the API needs.
type GroupDirectory interface {
	Create(group *models.Group) error
	Get(id string) (*models.Group, error)
	AddMember(groupID, userID string) error
	ListByMember(userID string) ([]*models.Group, error)
}

// ProfileDirectory resolves user rows for response payloads.
type ProfileDirectory interface {
	Get(id string) (*models.User, error)
}

// APIHandler serves the authenticated JSON API for groups, liked-song sync,
// and playlist generation.
//
// Every route requires a valid session; the session's user is the actor for
// all operations.
type APIHandler struct {
	engine    tasks.Engine
	groups    GroupDirectory
	users     ProfileDirectory
	logger    *log.Logger
	protected http.Handler
}

// NewAPIHandler creates the API handler with session enforcement applied to
// every route.
func NewAPIHandler(engine tasks.Engine, groups GroupDirectory, users ProfileDirectory, sessions *SessionManager, logger *log.Logger) *APIHandler {
	h := &APIHandler{
		engine: engine,
		groups: groups,
		users:  users,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/me", h.me)
	mux.HandleFunc("POST /api/groups", h.createGroup)
	mux.HandleFunc("GET /api/groups", h.listGroups)
	mux.HandleFunc("POST /api/groups/{id}/join", h.joinGroup)
	mux.HandleFunc("POST /api/groups/{id}/preview", h.previewGroup)
	mux.HandleFunc("POST /api/groups/{id}/generate", h.generatePlaylist)
	mux.HandleFunc("POST /api/likes/sync", h.syncLikes)

	h.protected = sessions.Require(mux)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"/api/"}
}

// ServeHTTP implements [http.Handler].
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.protected.ServeHTTP(w, r)
}

func (h *APIHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload(user))
}

func (h *APIHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, fmt.Errorf("%w: group name is required", shared.ErrInvalidInput))
		return
	}

	group := models.NewGroup(0, body.Name, UserIDFrom(r.Context()))
	if err := h.groups.Create(group); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("group created", "group", group.Name(), "host", group.HostUserID())
	writeJSON(w, http.StatusCreated, groupPayload(group))
}

func (h *APIHandler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListByMember(UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		payload = append(payload, groupPayload(group))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": payload})
}

func (h *APIHandler) joinGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	group, err := h.groups.Get(groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	userID := UserIDFrom(r.Context())
	if err := h.groups.AddMember(groupID, userID); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("member joined", "group", group.Name(), "user", userID)

	// Re-read so the payload reflects the new membership.
	group, err = h.groups.Get(groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupPayload(group))
}

func (h *APIHandler) syncLikes(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.SyncLikes(r.Context(), UserIDFrom(r.Context()), nil)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"liked_count": result.Count,
		"synced_at":   result.SyncedAt.Format(time.RFC3339),
	})
}

func (h *APIHandler) previewGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	if err := h.requireMembership(groupID, UserIDFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.engine.PreviewGroup(r.Context(), groupID, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	songs := make([]map[string]string, 0, len(result.Songs))
	for _, song := range result.Songs {
		songs = append(songs, map[string]string{
			"video_id": song.VideoID,
			"title":    song.Title,
			"channel":  song.Channel,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"preview_id":         result.Preview.ID,
		"group_id":           result.Preview.GroupID,
		"intersection_count": result.Preview.Count,
		"expires_at":         result.Preview.ExpiresAt.Format(time.RFC3339),
		"songs":              songs,
		"unsynced_members":   result.Empty,
	})
}

func (h *APIHandler) generatePlaylist(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	var body struct {
		PreviewID string `json:"preview_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PreviewID == "" {
		writeError(w, fmt.Errorf("%w: preview_id is required", shared.ErrInvalidInput))
		return
	}

	result, err := h.engine.Materialize(r.Context(), groupID, body.PreviewID, UserIDFrom(r.Context()), nil)
	if err != nil {
		writeError(w, err)
		return
	}

	failed := make([]map[string]string, 0, len(result.Failed))
	for _, failure := range result.Failed {
		failed = append(failed, map[string]string{
			"video_id": failure.Song.VideoID,
			"title":    failure.Song.Title,
			"error":    failure.Error.Error(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playlist_id": result.PlaylistID,
		"title":       result.Title,
		"added":       result.Added,
		"failed":      failed,
		"total":       result.Total,
	})
}

// requireMembership rejects actors outside the group before engine work starts.
func (h *APIHandler) requireMembership(groupID, userID string) error {
	group, err := h.groups.Get(groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return fmt.Errorf("%w: not a member of %s", shared.ErrNotGroupMember, group.Name())
	}
	return nil
}

func userPayload(user *models.User) map[string]any {
	payload := map[string]any{
		"id":            user.ID(),
		"email":         user.Email(),
		"name":          user.Name(),
		"authenticated": user.Authenticated(),
		"liked_count":   user.LikedCount(),
	}
	if at := user.LastSyncedAt(); at != nil {
		payload["last_synced_at"] = at.Format(time.RFC3339)
	}
	return payload
}

func groupPayload(group *models.Group) map[string]any {
	payload := map[string]any{
		"id":           group.ID(),
		"name":         group.Name(),
		"host_user_id": group.HostUserID(),
		"members":      group.Members(),
	}
	if group.PlaylistID() != "" {
		payload["playlist_id"] = group.PlaylistID()
		payload["playlist_song_count"] = group.PlaylistSongCount()
		if at := group.LastUpdated(); at != nil {
			payload["last_updated"] = at.Format(time.RFC3339)
		}
	}
	return payload
}
