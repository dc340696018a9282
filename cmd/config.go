package main

import (
	"context"

	"github.com/desertthunder/spotifie/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to the --path flag.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config written", "path", path)
	return r.writePlain("✓ Configuration written to %s\n", path)
}

// ConfigShow prints the effective configuration as JSON with secrets masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	return r.writeJSON(config.Redacted(), true)
}
