package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/pevans/cartalker"
	"github.com/pevans/cartalker/config"
)

func main() {
	app := &cli.App{
		Name:  "cartalker",
		Usage: "Generate a podcast RSS feed containing every Car Talk episode currently hosted by NPR.",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "existing feed `file`; only newer episodes are fetched and merged in",
			},
			&cli.PathFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output `file` name (defaults to cartalk_<timestamp>.xml)",
			},
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config `file` (defaults to ~/.cartalker/config.yaml)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	level := log.InfoLevel
	if c.Bool("verbose") {
		level = log.DebugLevel
	}
	logger := slog.New(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           level,
	}))

	cfg, err := config.Load(c.Path("config"))
	if err != nil {
		return err
	}

	output := c.Path("output")
	if output == "" {
		output = cartalker.DefaultOutputPath(time.Now())
	}

	return cartalker.Run(cartalker.Options{
		InputPath:  c.Path("input"),
		OutputPath: output,
		Config:     cfg,
		Logger:     logger,
	})
}
