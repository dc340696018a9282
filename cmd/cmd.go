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

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// serveCommand starts the HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the Spotify login page in the browser",
			},
		},
		Action: r.Serve,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the example configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets redacted",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigShow,
			},
		},
	}
}

// redisCommand runs cache diagnostics from the terminal
func redisCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "redis",
		Usage: "Redis diagnostics",
		Commands: []*cli.Command{
			{
				Name:   "ping",
				Usage:  "Check connectivity",
				Flags:  []cli.Flag{configFlag(), jsonFlag()},
				Action: r.RedisPing,
			},
			{
				Name:   "write-read",
				Usage:  "Write a test key and read it back",
				Flags:  []cli.Flag{configFlag(), jsonFlag()},
				Action: r.RedisWriteRead,
			},
			{
				Name:   "full-test",
				Usage:  "Run ping, write, read and delete in sequence",
				Flags:  []cli.Flag{configFlag(), jsonFlag()},
				Action: r.RedisFullTest,
			},
		},
	}
}
