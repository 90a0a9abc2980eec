package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/repositories"
	"github.com/bradcj/intersect/internal/services"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/bradcj/intersect/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and repositories open lazily so commands that never touch
// persistence (like printing help) work without a database file.
type Runner struct {
	config   *shared.Config
	logger   *log.Logger
	output   io.Writer
	db       *sql.DB
	users    *repositories.UserRepository
	groups   *repositories.GroupRepository
	likes    *repositories.LikeRepository
	previews *tasks.PreviewCache
	engine   *tasks.GroupEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	DB     *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}

	if opts.DB != nil {
		r.attach(opts.DB)
	}

	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, groupCommand, likesCommand, generateCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// attach wires the repositories and engine onto an open database.
func (r *Runner) attach(db *sql.DB) {
	r.db = db
	r.users = repositories.NewUserRepository(db)
	r.groups = repositories.NewGroupRepository(db)
	r.likes = repositories.NewLikeRepository(db)
	r.previews = tasks.NewPreviewCache(r.config.Preview.TTL())
	r.engine = tasks.NewGroupEngine(r.users, r.groups, r.likes, r.previews, r.serviceFor, tasks.PlaylistOptions{
		TitleTemplate: r.config.Playlist.TitleTemplate,
		Description:   r.config.Playlist.Description,
		Privacy:       r.config.Playlist.Privacy,
		RateLimit:     r.config.Playlist.RateLimit,
	})
}

// ensureDB opens the configured database on first use.
func (r *Runner) ensureDB() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'intersect setup database' first): %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.attach(db)
	return nil
}

// newService builds an unauthenticated YouTube service from config credentials.
func (r *Runner) newService() (*services.YouTubeService, error) {
	return services.NewYouTubeService(map[string]string{
		"client_id":     r.config.Credentials.Google.ClientID,
		"client_secret": r.config.Credentials.Google.ClientSecret,
		"redirect_uri":  r.config.Credentials.Google.RedirectURI,
	})
}

// serviceFor builds a YouTube service carrying the user's stored credential.
//
// Refreshed tokens are written back to the user row so the next run starts
// with a live access token.
func (r *Runner) serviceFor(user *models.User) (services.Service, error) {
	svc, err := r.newService()
	if err != nil {
		return nil, err
	}

	credentials := map[string]string{
		"access_token":  user.AccessToken(),
		"refresh_token": user.RefreshToken(),
	}
	if !user.TokenExpiry().IsZero() {
		credentials["token_expiry"] = user.TokenExpiry().Format(time.RFC3339)
	}
	if err := svc.Authenticate(context.Background(), credentials); err != nil {
		return nil, err
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		user.SetTokens(token.AccessToken, token.RefreshToken, token.Expiry)
		if err := r.users.Update(user); err != nil {
			r.logger.Warn("failed to persist refreshed token", "user", user.Email(), "error", err)
		}
	})

	return svc, nil
}

// resolveUser finds the acting user by email, or the sole user when email is empty.
func (r *Runner) resolveUser(email string) (*models.User, error) {
	if email != "" {
		return r.users.GetByEmail(email)
	}

	users, err := r.users.List(map[string]any{})
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, fmt.Errorf("%w: no accounts linked, run 'intersect auth login'", shared.ErrUserNotFound)
	case 1:
		return users[0], nil
	default:
		return nil, fmt.Errorf("%w: multiple accounts linked, pass --email", shared.ErrMissingArgument)
	}
}

// drainProgress logs progress updates until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		r.logger.Info(update.Message, "phase", update.Phase.String())
	}
	close(done)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
