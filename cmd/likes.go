package main

import (
	"context"
	"fmt"

	"github.com/bradcj/intersect/internal/shared"
	"github.com/bradcj/intersect/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LikesSync collects the acting account's liked songs from YouTube and
// replaces the stored set.
func (r *Runner) LikesSync(ctx context.Context, cmd *cli.Command) error {
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

	result, err := r.engine.SyncLikes(ctx, user.ID(), progress)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	r.writePlainln("✓ Sync complete")
	r.writePlain("%s now has %s stored\n",
		user.Email(), shared.Pluralize(result.Count, "liked song", "liked songs"))

	return nil
}

// LikesShow prints the stored liked-song set for the acting account.
func (r *Runner) LikesShow(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	if err := r.ensureDB(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("email"))
	if err != nil {
		return err
	}

	songs, err := r.likes.GetSet(user.ID())
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(map[string]any{
			"email": user.Email(),
			"count": len(songs),
			"songs": songs,
		}, true)
	}

	if len(songs) == 0 {
		return r.writePlain("No liked songs stored for %s. Run: intersect likes sync\n", user.Email())
	}

	r.writePlainHeader(fmt.Sprintf("%s: %s", user.Email(),
		shared.Pluralize(len(songs), "liked song", "liked songs")))

	shown := len(songs)
	if limit > 0 && limit < shown {
		shown = limit
	}

	for i := 0; i < shown; i++ {
		r.writePlain("%3d. %s (%s)\n", i+1, songs[i].Title, songs[i].Channel)
	}

	if shown < len(songs) {
		r.writePlain("... and %d more (use --limit 0 to print all)\n", len(songs)-shown)
	}

	return nil
}
