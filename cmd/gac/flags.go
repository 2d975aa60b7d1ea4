package main

import (
	cli "github.com/urfave/cli/v3"
)

// globalFlags returns the flags shared by every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "registry",
			Aliases: []string{"r"},
			Usage:   "Path to the registry file (default: per-user config location)",
		},
		&cli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
	}
}
