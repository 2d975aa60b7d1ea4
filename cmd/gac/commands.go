package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/finex/gac/internal/gitops"
	"github.com/finex/gac/internal/log"
	"github.com/finex/gac/internal/registry"
	"github.com/finex/gac/internal/service"
	"github.com/finex/gac/internal/ui"
	"github.com/finex/gac/internal/utils"
	"github.com/finex/gac/internal/watcher"
	cli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func storeFromCmd(cmd *cli.Command) (*registry.Store, error) {
	path := cmd.String("registry")
	if path == "" {
		return registry.NewStore(""), nil
	}
	expanded, err := utils.AbsPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand registry path: %w", err)
	}
	return registry.NewStore(expanded), nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Register a folder for auto-commit",
		ArgsUsage: "<folder> <repo_url> <username> <token>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-init",
				Usage: "Fail instead of initializing when the folder is not a git repository",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 4 {
				return fmt.Errorf("usage: gac add <folder> <repo_url> <username> <token>")
			}
			folder, err := utils.AbsPath(cmd.Args().Get(0))
			if err != nil {
				return err
			}
			reg := registry.Registration{
				Path:       folder,
				RepoURL:    cmd.Args().Get(1),
				Username:   cmd.Args().Get(2),
				Token:      cmd.Args().Get(3),
				AutoCommit: true,
			}

			info, err := os.Stat(folder)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("%s: %w", folder, registry.ErrInvalidPath)
			}

			git := gitops.New(log.Printf)
			if !git.IsRepo(folder) {
				if cmd.Bool("no-init") {
					return fmt.Errorf("%s is not a git repository", folder)
				}
				fmt.Printf("%s is not a git repository, initializing...\n", folder)
				creds := gitops.Credentials{RepoURL: reg.RepoURL, Username: reg.Username, Token: reg.Token}
				if err := git.InitAndPush(ctx, folder, creds, ""); err != nil {
					return err
				}
			}

			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := store.Add(reg); err != nil {
				return err
			}
			fmt.Printf("Registered %s\n", folder)
			fmt.Println("Run 'gac service install' to start the background watcher at login.")
			return nil
		},
	}
}

// registrationJSON is the JSON output shape for list. The token is
// deliberately omitted.
type registrationJSON struct {
	Path       string `json:"path"`
	RepoURL    string `json:"repo_url"`
	Username   string `json:"username"`
	AutoCommit bool   `json:"auto_commit"`
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List registered folders",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			regs, err := store.List()
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				output := make([]registrationJSON, 0, len(regs))
				for _, reg := range regs {
					output = append(output, registrationJSON{
						Path:       reg.Path,
						RepoURL:    reg.RepoURL,
						Username:   reg.Username,
						AutoCommit: reg.AutoCommit,
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(output)
			}

			if len(regs) == 0 {
				fmt.Println("No folders registered for auto-commit")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FOLDER\tREPOSITORY\tUSERNAME\tAUTO\tTOKEN")
			for _, reg := range regs {
				auto := "on"
				if !reg.AutoCommit {
					auto = "off"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					reg.Path, reg.RepoURL, reg.Username, auto, strings.Repeat("*", 8))
			}
			return w.Flush()
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Unregister a folder",
		ArgsUsage: "<folder>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("usage: gac remove <folder>")
			}
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := store.Remove(cmd.Args().Get(0)); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", cmd.Args().Get(0))
			return nil
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Update fields of a registration",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo-url", Usage: "New repository URL"},
			&cli.StringFlag{Name: "username", Usage: "New username"},
			&cli.StringFlag{Name: "token", Usage: "New access token"},
			&cli.BoolFlag{Name: "auto-commit", Usage: "Enable or disable auto-commit"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("usage: gac edit <folder> [flags]")
			}

			var fields registry.Fields
			if cmd.IsSet("repo-url") {
				v := cmd.String("repo-url")
				fields.RepoURL = &v
			}
			if cmd.IsSet("username") {
				v := cmd.String("username")
				fields.Username = &v
			}
			if cmd.IsSet("token") {
				v := cmd.String("token")
				fields.Token = &v
			}
			if cmd.IsSet("auto-commit") {
				v := cmd.Bool("auto-commit")
				fields.AutoCommit = &v
			}
			if fields == (registry.Fields{}) {
				return fmt.Errorf("nothing to change: pass at least one of --repo-url, --username, --token, --auto-commit")
			}

			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := store.Edit(cmd.Args().Get(0), fields); err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", cmd.Args().Get(0))
			return nil
		},
	}
}

func commitCommand() *cli.Command {
	return &cli.Command{
		Name:      "commit",
		Usage:     "Commit and push a registered folder now (default: current directory)",
		ArgsUsage: "[folder]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Commit message",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			folder := cmd.Args().Get(0)
			if folder == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				folder = cwd
			}

			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			reg, err := store.Lookup(folder)
			if err != nil {
				return fmt.Errorf("%w (use 'gac add' to register it first)", err)
			}

			git := gitops.New(log.Printf)
			creds := gitops.Credentials{RepoURL: reg.RepoURL, Username: reg.Username, Token: reg.Token}
			if err := git.CommitAndPush(ctx, reg.Path, creds, cmd.String("message")); err != nil {
				return err
			}
			fmt.Printf("Committed and pushed %s\n", reg.Path)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch all registered folders and auto-commit changes (foreground)",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before committing (overrides the registry setting)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}

			run := func(ctx context.Context) error {
				// Under a service manager stderr is the journal.
				log.MirrorToStderr(true)

				opts := []watcher.Option{watcher.WithLogger(log.Printf)}
				if d := cmd.Duration("debounce"); d > 0 {
					opts = append(opts, watcher.WithDebounce(d))
				}
				w := watcher.New(store, gitops.New(log.Printf), opts...)
				log.Printf("gac watcher starting (registry: %s)", store.Path())
				return w.Run(ctx)
			}

			// Launched by the service manager: let it drive the lifecycle.
			if !service.Interactive() {
				m, err := service.New(run)
				if err != nil {
					return err
				}
				return m.Run()
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}
}

func guiCommand() *cli.Command {
	return &cli.Command{
		Name:  "gui",
		Usage: "Launch the interactive interface",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("gui requires a terminal")
			}
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			model := ui.New(store, gitops.New(log.Printf))
			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

func serviceCommand() *cli.Command {
	newManager := func(cmd *cli.Command) (*service.Manager, error) {
		store, err := storeFromCmd(cmd)
		if err != nil {
			return nil, err
		}
		return service.New(func(ctx context.Context) error {
			log.MirrorToStderr(true)
			w := watcher.New(store, gitops.New(log.Printf), watcher.WithLogger(log.Printf))
			return w.Run(ctx)
		})
	}

	return &cli.Command{
		Name:  "service",
		Usage: "Manage the background watcher service",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install the watcher service and start it (auto-starts at login)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, err := newManager(cmd)
					if err != nil {
						return err
					}
					if err := m.Install(); err != nil {
						return err
					}
					fmt.Println("Watcher service installed: runs in background and auto-starts on login.")
					return nil
				},
			},
			{
				Name:  "uninstall",
				Usage: "Stop and remove the watcher service",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, err := newManager(cmd)
					if err != nil {
						return err
					}
					if err := m.Uninstall(); err != nil {
						return err
					}
					fmt.Println("Watcher service removed.")
					return nil
				},
			},
			{
				Name:  "start",
				Usage: "Start the installed watcher service",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, err := newManager(cmd)
					if err != nil {
						return err
					}
					return m.Start()
				},
			},
			{
				Name:  "stop",
				Usage: "Stop the watcher service",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, err := newManager(cmd)
					if err != nil {
						return err
					}
					return m.Stop()
				},
			},
			{
				Name:  "status",
				Usage: "Show the watcher service status",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, err := newManager(cmd)
					if err != nil {
						return err
					}
					status, err := m.Status()
					if err != nil {
						return err
					}
					fmt.Println(status)
					return nil
				},
			},
		},
	}
}
