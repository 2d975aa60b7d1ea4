// Package main is the entry point for gac, the git auto-commit tool.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/finex/gac/internal/log"
	"github.com/finex/gac/internal/utils"
	cli "github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = log.Close()
		os.Exit(1)
	}
	_ = log.Close()
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "gac",
		Usage:   "Automatically commit and push local folders to a remote git repository",
		Version: buildVersion(),
		Flags:   globalFlags(),

		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			path := cmd.String("debug-log")
			if path == "" {
				_ = log.SetFile("")
				return ctx, nil
			}
			expanded, err := utils.ExpandPath(path)
			if err == nil {
				path = expanded
			}
			if err := log.SetFile(path); err != nil {
				fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", path, err)
			}
			return ctx, nil
		},

		Commands: []*cli.Command{
			addCommand(),
			listCommand(),
			removeCommand(),
			editCommand(),
			commitCommand(),
			watchCommand(),
			guiCommand(),
			serviceCommand(),
		},
	}
}

func buildVersion() string {
	v := version
	c := commit
	if c == "none" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					c = setting.Value
				}
			}
		}
	}
	if c == "none" || date == "unknown" {
		return v
	}
	return fmt.Sprintf("%s (%s, built %s)", v, c, date)
}
