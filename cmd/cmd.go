// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func emailFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "email",
		Aliases: []string{"e"},
		Usage:   "Acting account's email (optional when only one account is linked)",
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles account linking
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Link YouTube accounts via OAuth2",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Google and link a YouTube account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show linked accounts and their sync state",
				Action: r.AuthStatus,
			},
		},
	}
}

// groupCommand handles group membership operations
func groupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "group",
		Usage: "Manage playlist groups",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a group hosted by your account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Group name",
						Required: true,
					},
					emailFlag(),
				},
				Action: r.GroupCreate,
			},
			{
				Name:  "join",
				Usage: "Join an existing group by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{emailFlag()},
				Action: r.GroupJoin,
			},
			{
				Name:   "list",
				Usage:  "List groups your account belongs to",
				Flags:  []cli.Flag{emailFlag()},
				Action: r.GroupList,
			},
		},
	}
}

// likesCommand handles liked-song collection
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "likes",
		Usage: "Collect and inspect liked songs",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Collect liked songs from YouTube and store them",
				Flags:  []cli.Flag{emailFlag()},
				Action: r.LikesSync,
			},
			{
				Name:  "show",
				Usage: "Show the stored liked-song set",
				Flags: []cli.Flag{
					emailFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of songs to print (0 for all)",
						Value: 25,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LikesShow,
			},
		},
	}
}

// generateCommand handles intersection previews and playlist creation
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Preview and create the shared playlist",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "Compute the songs every group member likes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "group",
						Aliases:  []string{"g"},
						Usage:    "Group ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:    "save",
						Aliases: []string{"o"},
						Usage:   "Write the preview to files with this base path",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format for --save: csv, markdown, or text",
						Value: "csv",
					},
				},
				Action: r.GeneratePreview,
			},
			{
				Name:  "run",
				Usage: "Create the shared playlist from a preview",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "group",
						Aliases:  []string{"g"},
						Usage:    "Group ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "preview",
						Aliases: []string{"p"},
						Usage:   "Preview ID from 'generate preview' (computed fresh when omitted)",
					},
					emailFlag(),
				},
				Action: r.GenerateRun,
			},
		},
	}
}

// serveCommand starts the web service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API and OAuth web flow",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive preview and playlist generation",
		Flags:  []cli.Flag{emailFlag()},
		Action: r.TUI,
	}
}
