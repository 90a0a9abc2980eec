package formatter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/tasks"
)

func samplePreview() *tasks.PreviewResult {
	return &tasks.PreviewResult{
		Preview: &models.Preview{
			ID:        "preview123",
			GroupID:   "group1",
			SongIDs:   []string{"v1", "v2"},
			Count:     2,
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(10 * time.Minute),
		},
		Songs: []models.Song{
			{VideoID: "v1", Title: "First Song", Channel: "Artist A"},
			{VideoID: "v2", Title: "Second, With Comma", Channel: "Artist B"},
		},
		Empty: []string{},
	}
}

func TestPreviewToCSV(t *testing.T) {
	data, err := PreviewToCSV(samplePreview().Songs)
	if err != nil {
		t.Fatalf("failed to export CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "VideoID" {
		t.Errorf("expected VideoID header, got %s", records[0][0])
	}
	if records[2][1] != "Second, With Comma" {
		t.Errorf("expected comma-containing title preserved, got %s", records[2][1])
	}
}

func TestPreviewToMarkdown(t *testing.T) {
	result := samplePreview()
	result.Empty = []string{"slacker@example.com"}

	data, err := PreviewToMarkdown("Road Trip", result)
	if err != nil {
		t.Fatalf("failed to export Markdown: %v", err)
	}

	output := string(data)
	for _, want := range []string{"# Road Trip", "**Songs in common**: 2", "1. Artist A - First Song", "slacker@example.com"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestPreviewToText(t *testing.T) {
	data, err := PreviewToText("Road Trip", samplePreview())
	if err != nil {
		t.Fatalf("failed to export text: %v", err)
	}

	output := string(data)
	if !strings.Contains(output, "Group: Road Trip") {
		t.Errorf("expected group header, got %s", output)
	}
	if !strings.Contains(output, "2. Artist B - Second, With Comma") {
		t.Errorf("expected numbered song lines, got %s", output)
	}
}

func TestReportToMarkdown(t *testing.T) {
	result := &tasks.MaterializeResult{
		PlaylistID: "PL123",
		Title:      "Road Trip Mix",
		Added:      1,
		Failed: []tasks.ItemFailure{
			{Song: models.Song{VideoID: "v2", Title: "Gone", Channel: "Artist B"}, Error: os.ErrNotExist},
		},
		Total: 2,
	}

	data, err := ReportToMarkdown("Road Trip", result)
	if err != nil {
		t.Fatalf("failed to export report: %v", err)
	}

	output := string(data)
	if !strings.Contains(output, "**Songs added**: 1/2") {
		t.Errorf("expected add summary, got %s", output)
	}
	if !strings.Contains(output, "## Failed") {
		t.Errorf("expected failed section, got %s", output)
	}
}

func TestWritePreviewExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "export")

	result, err := WritePreviewExport(samplePreview(), base)
	if err != nil {
		t.Fatalf("failed to write export: %v", err)
	}

	if _, err := os.Stat(result.SongsFile); err != nil {
		t.Errorf("expected songs file to exist: %v", err)
	}
	if _, err := os.Stat(result.MetadataFile); err != nil {
		t.Errorf("expected metadata file to exist: %v", err)
	}

	metadata, err := os.ReadFile(result.MetadataFile)
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	if !strings.Contains(string(metadata), "preview123") {
		t.Errorf("expected preview ID in metadata, got %s", metadata)
	}
}
