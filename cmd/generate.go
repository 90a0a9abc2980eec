package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bradcj/intersect/internal/formatter"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/bradcj/intersect/internal/tasks"
	"github.com/urfave/cli/v3"
)

// GeneratePreview computes the intersection of every member's liked songs
// and prints it, optionally exporting to files.
//
// The preview ID it prints feeds 'generate run'.
func (r *Runner) GeneratePreview(ctx context.Context, cmd *cli.Command) error {
	groupID := cmd.String("group")
	useJSON := cmd.Bool("json")
	savePath := cmd.String("save")
	format := cmd.String("format")

	if err := r.ensureDB(); err != nil {
		return err
	}

	group, err := r.groups.Get(groupID)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := r.engine.PreviewGroup(ctx, groupID, progress)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	if savePath != "" {
		if err := r.savePreview(group.Name(), result, savePath, format); err != nil {
			return err
		}
	}

	if useJSON {
		return r.writeJSON(map[string]any{
			"preview_id":         result.Preview.ID,
			"group_id":           result.Preview.GroupID,
			"intersection_count": result.Preview.Count,
			"expires_at":         result.Preview.ExpiresAt,
			"songs":              result.Songs,
			"unsynced_members":   result.Empty,
		}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Preview for %q", group.Name()))
	r.writePlain("Preview ID: %s (expires %s)\n", result.Preview.ID,
		result.Preview.ExpiresAt.Format("15:04:05"))
	r.writePlain("%s in common\n\n",
		shared.Pluralize(result.Preview.Count, "song", "songs"))

	for i, song := range result.Songs {
		r.writePlain("%3d. %s (%s)\n", i+1, song.Title, song.Channel)
	}

	if len(result.Empty) > 0 {
		r.writePlainln("⚠ Members with no synced likes:")
		for _, email := range result.Empty {
			r.writePlain("  %s\n", email)
		}
		r.writePlain("Ask them to run: intersect likes sync\n")
	}

	if result.Preview.Count > 0 {
		r.writePlain("\nCreate the playlist with: intersect generate run --group %s --preview %s\n",
			groupID, result.Preview.ID)
	}

	return nil
}

// savePreview exports the preview in the requested format.
func (r *Runner) savePreview(groupName string, result *tasks.PreviewResult, basePath, format string) error {
	switch format {
	case "csv":
		export, err := formatter.WritePreviewExport(result, basePath)
		if err != nil {
			return fmt.Errorf("failed to export preview: %w", err)
		}
		r.writePlain("✓ Saved %s and %s\n", export.SongsFile, export.MetadataFile)
		return nil
	case "markdown":
		data, err := formatter.PreviewToMarkdown(groupName, result)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		path := basePath + ".md"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.writePlain("✓ Saved %s\n", path)
		return nil
	case "text":
		data, err := formatter.PreviewToText(groupName, result)
		if err != nil {
			return fmt.Errorf("failed to render text: %w", err)
		}
		path := basePath + ".txt"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.writePlain("✓ Saved %s\n", path)
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q (use csv, markdown, or text)", shared.ErrInvalidInput, format)
	}
}

// GenerateRun creates the shared playlist from a preview.
//
// When --preview is omitted a fresh preview runs first, so the playlist
// reflects the members' current sets.
func (r *Runner) GenerateRun(ctx context.Context, cmd *cli.Command) error {
	groupID := cmd.String("group")
	previewID := cmd.String("preview")

	if err := r.ensureDB(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("email"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	if previewID == "" {
		preview, err := r.engine.PreviewGroup(ctx, groupID, progress)
		if err != nil {
			close(progress)
			<-done
			return fmt.Errorf("preview failed: %w", err)
		}
		previewID = preview.Preview.ID
	}

	result, err := r.engine.Materialize(ctx, groupID, previewID, user.ID(), progress)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("playlist generation failed: %w", err)
	}

	r.writePlainln("✓ Playlist created")
	r.writePlain("Title:    %s\n", result.Title)
	r.writePlain("Privacy:  %s\n", shared.VisibilityString(r.config.Playlist.Privacy))
	r.writePlain("Playlist: https://www.youtube.com/playlist?list=%s\n", result.PlaylistID)
	r.writePlain("Added %d of %s\n", result.Added,
		shared.Pluralize(result.Total, "song", "songs"))

	if len(result.Failed) > 0 {
		r.writePlainln("⚠ Some songs could not be added:")
		for _, failure := range result.Failed {
			r.writePlain("  %s: %s\n", failure.Song.Title, failure.Error)
		}
	}

	return nil
}
