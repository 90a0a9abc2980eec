package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/server"
	"github.com/bradcj/intersect/internal/services"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the OAuth2 authorization flow with a local HTTP server.
//
// Opens the browser for Google's consent screen, exchanges the authorization
// code, and stores the linked account with its credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDB(); err != nil {
		return err
	}

	svc, err := r.newService()
	if err != nil {
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	token, err := r.doOAuth(svc, cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	credentials := map[string]string{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"token_expiry":  token.Expiry.Format(time.RFC3339),
	}
	if err := svc.Authenticate(ctx, credentials); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	profile, err := svc.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch channel profile: %w", err)
	}

	user, err := r.users.GetByEmail(profile.Email)
	if errors.Is(err, shared.ErrUserNotFound) {
		user = models.NewUser(0, profile.Email, profile.Name)
		if err := r.users.Create(user); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
	} else if err != nil {
		return err
	}

	user.SetName(profile.Name)
	user.SetTokens(token.AccessToken, token.RefreshToken, token.Expiry)
	if err := r.users.Update(user); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Linked account: %s (%s)\n\n", profile.Name, profile.Email)
	r.writePlain("You can now use: intersect likes sync\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(svc *services.YouTubeService, noBrowser bool) (*oauth2.Token, error) {
	state := shared.GenerateID()
	authURL := svc.AuthURL(state)

	callbackHandler := server.NewCallbackHandler(svc.Exchange, state)
	router := server.NewBasicRouter()
	router.Handler(callbackHandler)

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Google authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// AuthStatus lists linked accounts and their credential and sync state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDB(); err != nil {
		return err
	}

	users, err := r.users.List(map[string]any{})
	if err != nil {
		return err
	}

	if len(users) == 0 {
		return r.writePlain("No accounts linked. Run: intersect auth login\n")
	}

	r.writePlainHeader(fmt.Sprintf("Linked accounts (%d)", len(users)))

	for _, user := range users {
		mark := "✗"
		if user.Authenticated() {
			mark = "✓"
		}

		synced := "never synced"
		if at := user.LastSyncedAt(); at != nil {
			synced = fmt.Sprintf("%s, synced %s",
				shared.Pluralize(user.LikedCount(), "liked song", "liked songs"),
				at.Format("2006-01-02 15:04"))
		}

		r.writePlain("%s %s (%s)\n    %s\n", mark, user.Name(), user.Email(), synced)
	}

	return nil
}
