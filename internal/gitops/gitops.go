// Package gitops wraps the git command line for staging, committing, and
// pushing registered folders. All version-control work is delegated to the
// external git executable; this package only orchestrates invocations and
// reports failures.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultCommitMessage is used when no message is supplied.
const DefaultCommitMessage = "Auto-commit by gac"

// LookPath locates the git executable. Exposed as a package variable so
// tests can point it at a stub.
var LookPath = exec.LookPath

// Credentials carry the remote URL and the username/token pair used to
// authenticate a push. Values are passed through as-is.
type Credentials struct {
	RepoURL  string
	Username string
	Token    string
}

// GitError reports a non-zero exit from a git invocation.
type GitError struct {
	Op       string // git subcommand, e.g. "push"
	ExitCode int
	Output   string
}

func (e *GitError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s failed (exit %d)", e.Op, e.ExitCode)
	}
	return fmt.Sprintf("git %s failed (exit %d): %s", e.Op, e.ExitCode, out)
}

// Runner invokes git in a folder's working directory.
type Runner struct {
	logf func(string, ...any)
}

// New constructs a Runner. logf may be nil.
func New(logf func(string, ...any)) *Runner {
	return &Runner{logf: logf}
}

func (r *Runner) debugf(format string, args ...any) {
	if r.logf != nil {
		r.logf(format, args...)
	}
}

// run executes git with the given arguments in dir, returning the combined
// output. Non-zero exits come back as *GitError.
func (r *Runner) run(ctx context.Context, dir string, args ...string) (string, error) {
	gitPath, err := LookPath("git")
	if err != nil {
		return "", fmt.Errorf("git executable not found: %w", err)
	}

	r.debugf("run: git %s (cwd=%s)", strings.Join(args, " "), dir)

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			gerr := &GitError{
				Op:       args[0],
				ExitCode: exitError.ExitCode(),
				Output:   string(output),
			}
			r.debugf("error: %v", gerr)
			return string(output), gerr
		}
		return string(output), fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(output), nil
}

// IsRepo reports whether folder is a git repository.
func (r *Runner) IsRepo(folder string) bool {
	info, err := os.Stat(filepath.Join(folder, ".git"))
	return err == nil && info.IsDir()
}

// HasChanges reports whether folder has uncommitted changes.
func (r *Runner) HasChanges(ctx context.Context, folder string) (bool, error) {
	out, err := r.run(ctx, folder, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Log returns the n most recent commit subjects for folder.
func (r *Runner) Log(ctx context.Context, folder string, n int) (string, error) {
	out, err := r.run(ctx, folder,
		"log", "-n", fmt.Sprintf("%d", n), "--pretty=format:%h %ad %s", "--date=short")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CommitAndPush stages all changes in folder, commits them, and pushes to
// the configured remote. A clean tree is a successful no-op: nothing is
// committed and push is never invoked.
func (r *Runner) CommitAndPush(ctx context.Context, folder string, creds Credentials, message string) error {
	if message == "" {
		message = DefaultCommitMessage
	}

	changed, err := r.HasChanges(ctx, folder)
	if err != nil {
		return err
	}
	if !changed {
		r.debugf("no changes in %s, skipping commit", folder)
		return nil
	}

	if _, err := r.run(ctx, folder, "add", "-A"); err != nil {
		return err
	}
	if _, err := r.run(ctx, folder, "commit", "-m", message); err != nil {
		return err
	}
	return r.push(ctx, folder, creds)
}

// InitAndPush initializes a repository in folder, makes the first commit,
// wires the remote, and pushes with an upstream. Used when registering a
// folder that is not yet under version control.
func (r *Runner) InitAndPush(ctx context.Context, folder string, creds Credentials, message string) error {
	if message == "" {
		message = "Initial commit by gac"
	}

	if _, err := r.run(ctx, folder, "init"); err != nil {
		return err
	}
	if _, err := r.run(ctx, folder, "add", "-A"); err != nil {
		return err
	}
	if _, err := r.run(ctx, folder, "commit", "-m", message); err != nil {
		return err
	}
	if out, err := r.run(ctx, folder, "remote", "add", "origin", creds.RepoURL); err != nil {
		if !strings.Contains(out, "already exists") {
			return err
		}
	}

	branch, err := r.run(ctx, folder, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return err
	}
	return r.pushArgs(ctx, folder, creds, "push", "--set-upstream", "origin", strings.TrimSpace(branch))
}

func (r *Runner) push(ctx context.Context, folder string, creds Credentials) error {
	return r.pushArgs(ctx, folder, creds, "push")
}

// pushArgs pushes with the stored credentials injected into the remote URL
// for the duration of the push, then restores the clean URL. Non-HTTPS
// remotes (ssh) are pushed as-is.
func (r *Runner) pushArgs(ctx context.Context, folder string, creds Credentials, args ...string) error {
	authURL := authenticatedURL(creds)
	if authURL != "" {
		if _, err := r.run(ctx, folder, "remote", "set-url", "origin", authURL); err != nil {
			return err
		}
		defer func() {
			_, _ = r.run(ctx, folder, "remote", "set-url", "origin", creds.RepoURL)
		}()
	}

	_, err := r.run(ctx, folder, args...)
	return err
}

// authenticatedURL embeds the username and token into an https remote URL.
// Returns "" when credentials are incomplete or the URL is not https.
func authenticatedURL(creds Credentials) string {
	if creds.Username == "" || creds.Token == "" {
		return ""
	}
	rest, ok := strings.CutPrefix(creds.RepoURL, "https://")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://%s:%s@%s", creds.Username, creds.Token, rest)
}
