// package formatter provides functions to export preview and playlist results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/bradcj/intersect/internal/tasks"
)

// PreviewToCSV converts an intersection preview to CSV format with columns: VideoID, Title, Channel
func PreviewToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"VideoID", "Title", "Channel"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{song.VideoID, song.Title, song.Channel}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PreviewToMarkdown converts an intersection preview to Markdown format
func PreviewToMarkdown(groupName string, result *tasks.PreviewResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", groupName))
	buf.WriteString(fmt.Sprintf("**Songs in common**: %d\n", result.Preview.Count))
	buf.WriteString(fmt.Sprintf("**Preview expires**: %s\n\n", result.Preview.ExpiresAt.Format(time.RFC3339)))

	if len(result.Empty) > 0 {
		buf.WriteString(fmt.Sprintf("**Members without synced likes**: %s\n\n", strings.Join(result.Empty, ", ")))
	}

	buf.WriteString("## Songs\n\n")
	for i, song := range result.Songs {
		channelPart := ""
		if song.Channel != "" {
			channelPart = fmt.Sprintf("%s - ", song.Channel)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, channelPart, song.Title))
	}

	return buf.Bytes(), nil
}

// PreviewToText converts an intersection preview to plain text format
func PreviewToText(groupName string, result *tasks.PreviewResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Group: %s\n", groupName))
	buf.WriteString(fmt.Sprintf("Songs in common: %d\n\n", result.Preview.Count))

	for i, song := range result.Songs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Channel, song.Title))
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders a materialization result, including any songs that failed to add
func ReportToMarkdown(groupName string, result *tasks.MaterializeResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", groupName))
	buf.WriteString(fmt.Sprintf("**Playlist**: %s (ID: %s)\n", result.Title, result.PlaylistID))
	buf.WriteString(fmt.Sprintf("**Songs added**: %d/%d\n\n", result.Added, result.Total))

	if len(result.Failed) > 0 {
		buf.WriteString("## Failed\n\n")
		for _, failure := range result.Failed {
			buf.WriteString(fmt.Sprintf("- %s - %s: %v\n", failure.Song.Channel, failure.Song.Title, failure.Error))
		}
	}

	return buf.Bytes(), nil
}

// PreviewToJSON generates a JSON representation of the preview handle (without songs)
func PreviewToJSON(preview *models.Preview) ([]byte, error) {
	return shared.MarshalJSON(preview, true)
}

// ExportResult contains the paths of files created by WritePreviewExport
type ExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WritePreviewExport exports a preview to CSV with an accompanying metadata JSON file.
//
// Defaults to the preview ID as the base filename & creates {base}_songs.csv and {base}_metadata.json
func WritePreviewExport(result *tasks.PreviewResult, baseFilepath string) (*ExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = result.Preview.ID
	}
	baseFilepath = strings.TrimSuffix(baseFilepath, filepath.Ext(baseFilepath))

	csvData, err := PreviewToCSV(result.Songs)
	if err != nil {
		return nil, err
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write songs file: %w", err)
	}

	jsonData, err := PreviewToJSON(result.Preview)
	if err != nil {
		return nil, err
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, jsonData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &ExportResult{SongsFile: songsFile, MetadataFile: metadataFile}, nil
}
