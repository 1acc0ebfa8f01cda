package main

import (
	"os"

	"github.com/urfave/cli/v2"

	appLog "maintcal/internal/log"
)

const version = "0.1.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		appLog.Error("maintcal failed", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "maintcal",
		Usage:   "annual preventive maintenance calendar generator",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "/etc/maintcal/config.yaml",
				Usage:   "path to config file",
				EnvVars: []string{"MAINTCAL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before MAINTCAL_* overrides",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			generateCommand(),
			normalizeCommand(),
		},
	}
}
