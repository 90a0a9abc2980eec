package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/services"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/bradcj/intersect/internal/tasks"
	tu "github.com/bradcj/intersect/internal/testing"
	"github.com/urfave/cli/v3"
)

func newDBRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(output),
		Output: output,
		DB:     db,
	})

	return runner, output
}

func addUser(t *testing.T, r *Runner, email, name string) *models.User {
	t.Helper()

	user := models.NewUser(0, email, name)
	user.SetTokens("access", "refresh", time.Now().Add(time.Hour))
	if err := r.users.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with database attaches repositories and engine", func(t *testing.T) {
			runner, _ := newDBRunner(t)

			if runner.users == nil || runner.groups == nil || runner.likes == nil {
				t.Error("expected repositories to be attached")
			}
			if runner.engine == nil {
				t.Error("expected engine to be attached")
			}
			if runner.previews == nil {
				t.Error("expected preview cache to be attached")
			}
		})

		t.Run("without database leaves repositories nil", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.db != nil || runner.users != nil || runner.engine != nil {
				t.Error("expected lazy database wiring")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 7 {
			t.Errorf("expected 7 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, command := range commands {
			names[command.Name] = true
		}
		for _, want := range []string{"setup", "auth", "group", "likes", "generate", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("resolveUser", func(t *testing.T) {
		t.Run("no accounts linked", func(t *testing.T) {
			runner, _ := newDBRunner(t)

			_, err := runner.resolveUser("")
			if !errors.Is(err, shared.ErrUserNotFound) {
				t.Errorf("expected ErrUserNotFound, got %v", err)
			}
		})

		t.Run("sole account resolves without email", func(t *testing.T) {
			runner, _ := newDBRunner(t)
			created := addUser(t, runner, "solo@example.com", "Solo")

			user, err := runner.resolveUser("")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID() != created.ID() {
				t.Errorf("expected user %s, got %s", created.ID(), user.ID())
			}
		})

		t.Run("multiple accounts require email", func(t *testing.T) {
			runner, _ := newDBRunner(t)
			addUser(t, runner, "one@example.com", "One")
			addUser(t, runner, "two@example.com", "Two")

			_, err := runner.resolveUser("")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}

			user, err := runner.resolveUser("two@example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Email() != "two@example.com" {
				t.Errorf("expected two@example.com, got %s", user.Email())
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]any{"count": 3}, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := output.String(); got != "{\"count\":3}\n" {
				t.Errorf("unexpected output: %q", got)
			}
		})

		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]any{"count": 3}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(output.String(), "  \"count\": 3") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})
	})

	t.Run("writePlain formats to output", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("%d songs\n", 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.String() != "4 songs\n" {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("writePlain propagates write failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := runner.writePlain("hello\n"); err == nil {
			t.Error("expected error from failing writer")
		}
		if err := runner.writeJSON(map[string]any{"a": 1}, false); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

// runCLI executes a full command line against the runner's registered commands.
func runCLI(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "intersect",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"intersect"}, args...))
}

func TestCommands(t *testing.T) {
	t.Run("group create and list", func(t *testing.T) {
		runner, output := newDBRunner(t)
		addUser(t, runner, "host@example.com", "Host")

		if err := runCLI(t, runner, "group", "create", "--name", "Road Trip"); err != nil {
			t.Fatalf("group create failed: %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") {
			t.Errorf("expected group name in output, got %q", output.String())
		}

		output.Reset()
		if err := runCLI(t, runner, "group", "list"); err != nil {
			t.Fatalf("group list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") || !strings.Contains(output.String(), "host") {
			t.Errorf("expected created group with host role, got %q", output.String())
		}
	})

	t.Run("group join requires ID", func(t *testing.T) {
		runner, _ := newDBRunner(t)
		addUser(t, runner, "host@example.com", "Host")

		err := runCLI(t, runner, "group", "join")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("likes sync stores the mock set", func(t *testing.T) {
		runner, output := newDBRunner(t)
		user := addUser(t, runner, "solo@example.com", "Solo")

		mock := &tu.MockService{Songs: []models.Song{
			{VideoID: "v1", Title: "First", Channel: "Ch"},
			{VideoID: "v2", Title: "Second", Channel: "Ch"},
		}}
		runner.engine = tasks.NewGroupEngine(runner.users, runner.groups, runner.likes, runner.previews,
			func(u *models.User) (services.Service, error) { return mock, nil }, tasks.PlaylistOptions{})

		if err := runCLI(t, runner, "likes", "sync"); err != nil {
			t.Fatalf("likes sync failed: %v", err)
		}
		if !strings.Contains(output.String(), "2 liked songs") {
			t.Errorf("expected sync summary, got %q", output.String())
		}

		songs, err := runner.likes.GetSet(user.ID())
		if err != nil {
			t.Fatalf("failed to read stored set: %v", err)
		}
		if len(songs) != 2 || songs[0].VideoID != "v1" {
			t.Errorf("expected stored mock set, got %+v", songs)
		}
	})

	t.Run("likes show prints stored songs", func(t *testing.T) {
		runner, output := newDBRunner(t)
		user := addUser(t, runner, "solo@example.com", "Solo")

		if err := runner.likes.ReplaceForUser(user.ID(), []models.Song{
			{VideoID: "v1", Title: "First", Channel: "Ch"},
		}); err != nil {
			t.Fatalf("failed to seed likes: %v", err)
		}

		if err := runCLI(t, runner, "likes", "show"); err != nil {
			t.Fatalf("likes show failed: %v", err)
		}
		if !strings.Contains(output.String(), "First") {
			t.Errorf("expected song title in output, got %q", output.String())
		}
	})
}
