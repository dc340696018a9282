package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotifie/internal/server"
	"github.com/desertthunder/spotifie/internal/services"
	"github.com/desertthunder/spotifie/internal/session"
	"github.com/desertthunder/spotifie/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve validates the configuration, wires the service and runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	spotify, err := services.NewSpotifyService(config.Credentials.Spotify, nil)
	if err != nil {
		return err
	}

	store, release := r.cacheStore(config)
	defer release()

	sessions := session.NewStore(config.Session.TTL, config.Session.StateTTL)
	defer sessions.Close()

	srv := server.New(server.Options{
		Config:   config,
		Spotify:  spotify,
		Store:    store,
		Sessions: sessions,
		Logger:   r.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := store.Ping(ctx); err != nil {
		r.logger.Warn("redis is not reachable, diagnostics will report failures", "addr", config.Redis.Addr(), "error", err)
	}

	if cmd.Bool("open") {
		loginURL := fmt.Sprintf("http://localhost:%d%s", config.Server.Port, server.LoginPath)
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "url", loginURL, "error", err)
		}
	}

	return srv.Run(ctx)
}
