package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotifie/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Logger: logger,
		Output: os.Stdout,
	})

	app := &cli.Command{
		Name:     "spotifie",
		Usage:    "Spotify OAuth2 relay with Redis diagnostics",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
