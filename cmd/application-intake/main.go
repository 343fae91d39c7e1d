package main

import (
	"fmt"
	"os"

	"application-intake-go/internal/config"
	"application-intake-go/internal/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "application-intake",
		Usage: "Job and internship application intake service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "directory containing config.yaml",
				Value:   ".",
			},
		},
		Before: func(cCtx *cli.Context) error {
			if err := config.LoadConfig(cCtx.String("config")); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.InitFromConfig()
			return nil
		},
		Commands: []*cli.Command{
			serveCommand,
			rowsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("application failed", "err", err)
		os.Exit(1)
	}
}
