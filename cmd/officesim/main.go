// Command officesim runs the office robot, either against the built-in
// simulator or a Reachy Mini daemon, and offers planning and move-library
// tools around it.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-reachy-office/internal/config"
	"github.com/teslashibe/go-reachy-office/internal/log"
)

const (
	flagConfig    = "config"
	flagMode      = "mode"
	flagGoto      = "goto"
	flagPlay      = "play"
	flagSpeed     = "speed"
	flagDuration  = "duration"
	flagTelemetry = "telemetry"
	flagFrom      = "from"
	flagPath      = "path"
	flagDir       = "dir"
	flagFormat    = "format"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "officesim:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "officesim",
		Usage: "drive an office robot around a grid map",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "config file (defaults to $REACHY_CONFIG or ./officesim.yaml)",
				EnvVars: []string{"REACHY_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadFile(c.String(flagConfig))
			if err != nil {
				return err
			}
			log.Init(cfg.LogLevel)
			c.App.Metadata = map[string]any{"config": cfg}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the control loop",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagMode,
						Usage: "backend: mock or real (overrides config)",
					},
					&cli.StringFlag{
						Name:  flagGoto,
						Usage: "navigate to this location after start",
					},
					&cli.StringFlag{
						Name:  flagPlay,
						Usage: "play this move from the library after start",
					},
					&cli.Float64Flag{
						Name:  flagSpeed,
						Value: 1,
						Usage: "playback speed for --play",
					},
					&cli.DurationFlag{
						Name:  flagDuration,
						Usage: "stop after this long (0 runs until interrupted)",
					},
					&cli.BoolFlag{
						Name:  flagTelemetry,
						Usage: "serve HTTP/websocket telemetry (overrides config)",
					},
				},
				Action: RunAction,
			},
			{
				Name:      "plan",
				Usage:     "plan a path on the office map",
				ArgsUsage: "<location|x,y>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagFrom,
						Usage: "start location or x,y (defaults to the configured start)",
					},
				},
				Action: PlanAction,
			},
			{
				Name:  "map",
				Usage: "print the office map",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagPath,
						Usage: "write the map to this .json or .yaml file instead",
					},
				},
				Action: MapAction,
			},
			{
				Name:   "patrol",
				Usage:  "show the daily patrol with the planned legs",
				Action: PatrolAction,
			},
			{
				Name:  "moves",
				Usage: "work with the recorded move library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagDir,
						Usage: "library directory (overrides config)",
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:      "list",
						Usage:     "list moves, optionally filtered",
						ArgsUsage: "[query]",
						Action:    MovesListAction,
					},
					{
						Name:      "show",
						Usage:     "print a move",
						ArgsUsage: "<name>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  flagFormat,
								Value: "yaml",
								Usage: "output format: json or yaml",
							},
						},
						Action: MovesShowAction,
					},
					{
						Name:      "convert",
						Usage:     "save a move in another format",
						ArgsUsage: "<name>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  flagFormat,
								Value: "yaml",
								Usage: "target format: json or yaml",
							},
						},
						Action: MovesConvertAction,
					},
				},
			},
		},
	}
}

// appConfig returns the configuration loaded in Before.
func appConfig(c *cli.Context) config.Config {
	cfg, _ := c.App.Metadata["config"].(config.Config)
	return cfg
}
