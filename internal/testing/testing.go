// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/services"
)

// MockService is a configurable test double for [services.Service].
//
// The zero value behaves as an authenticated service with no liked songs.
type MockService struct {
	Songs      []models.Song
	PlaylistID string
	Added      []string
	Err        error
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.Err
}

func (m *MockService) Profile(ctx context.Context) (*services.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.Profile{ID: "mock", Email: "mock@example.com", Name: "Mock"}, nil
}

func (m *MockService) LikedSongs(ctx context.Context) ([]models.Song, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Songs, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, meta models.PlaylistMeta) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.PlaylistID == "" {
		return "PLMOCK", nil
	}
	return m.PlaylistID, nil
}

func (m *MockService) AddPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Added = append(m.Added, videoID)
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
