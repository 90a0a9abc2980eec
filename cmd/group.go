package main

import (
	"context"
	"fmt"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/urfave/cli/v3"
)

// GroupCreate creates a new group hosted by the acting account.
func (r *Runner) GroupCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")

	if err := r.ensureDB(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("email"))
	if err != nil {
		return err
	}

	group := models.NewGroup(0, name, user.ID())
	if err := r.groups.Create(group); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	r.logger.Info("group created", "id", group.ID(), "name", name, "host", user.Email())

	r.writePlainln("✓ Group created")
	r.writePlain("Name: %s\n", group.Name())
	r.writePlain("ID:   %s\n\n", group.ID())
	r.writePlain("Share the ID so others can run: intersect group join %s\n", group.ID())

	return nil
}

// GroupJoin adds the acting account to an existing group.
func (r *Runner) GroupJoin(ctx context.Context, cmd *cli.Command) error {
	groupID := cmd.StringArg("id")
	if groupID == "" {
		return fmt.Errorf("%w: group ID is required", shared.ErrMissingArgument)
	}

	if err := r.ensureDB(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("email"))
	if err != nil {
		return err
	}

	group, err := r.groups.Get(groupID)
	if err != nil {
		return err
	}

	if group.HasMember(user.ID()) {
		r.writePlain("Already a member of %q\n", group.Name())
		return nil
	}

	if err := r.groups.AddMember(groupID, user.ID()); err != nil {
		return fmt.Errorf("failed to join group: %w", err)
	}

	r.writePlain("✓ Joined %q as %s\n", group.Name(), user.Email())
	return nil
}

// GroupList prints the groups the acting account belongs to.
func (r *Runner) GroupList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDB(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("email"))
	if err != nil {
		return err
	}

	groups, err := r.groups.ListByMember(user.ID())
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		return r.writePlain("No groups yet. Run: intersect group create --name <name>\n")
	}

	r.writePlainHeader(fmt.Sprintf("Groups for %s (%d)", user.Email(), len(groups)))

	for _, group := range groups {
		role := "member"
		if group.HostUserID() == user.ID() {
			role = "host"
		}

		r.writePlain("%s (%s)\n    ID: %s\n    %s\n",
			group.Name(), role, group.ID(),
			shared.Pluralize(len(group.Members()), "member", "members"))

		if group.PlaylistID() != "" {
			r.writePlain("    Playlist: %s (%d songs)\n", group.PlaylistID(), group.PlaylistSongCount())
		}
	}

	return nil
}
