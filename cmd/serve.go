package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/bradcj/intersect/internal/server"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API and browser OAuth flow.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if r.config == nil {
		if _, err := os.Stat(configPath); err == nil {
			config, err := shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
			r.config = config
		} else {
			r.config = shared.DefaultConfig()
		}
	}

	if err := r.ensureDB(); err != nil {
		return err
	}

	sessions, err := server.NewSessionManager(r.config.Server.SessionSecret, r.config.Server.SessionTTL())
	if err != nil {
		return fmt.Errorf("%w: set server.session_secret in config.toml", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(server.NewOAuthHandler(r.newService, r.users, sessions, r.logger))
	router.Handler(server.NewAPIHandler(r.engine, r.groups, r.users, sessions, r.logger))

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	r.logger.Info("starting server", "addr", httpServer.Addr)
	r.writePlain("Listening on http://%s\n", httpServer.Addr)
	r.writePlain("Sign in at http://%s/auth/login\n", httpServer.Addr)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
