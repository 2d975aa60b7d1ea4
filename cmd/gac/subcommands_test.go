package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finex/gac/internal/gitops"
	"github.com/finex/gac/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

// stubGit installs a shell script in place of git that records every
// invocation and reports a dirty working tree.
func stubGit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "invocations.log")
	script := filepath.Join(dir, "git")

	content := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %q
case "$1" in
status) echo " M file.txt" ;;
rev-parse) echo "main" ;;
esac
exit 0
`, logPath)
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))

	prev := gitops.LookPath
	gitops.LookPath = func(string) (string, error) { return script, nil }
	t.Cleanup(func() { gitops.LookPath = prev })
	return logPath
}

func stubInvocations(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// gitFolder creates a directory that already looks like a git repository.
func gitFolder(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o750))
	return dir
}

func runGac(t *testing.T, registryPath string, args ...string) error {
	t.Helper()
	argv := append([]string{"gac", "--registry", registryPath}, args...)
	return rootCommand().Run(context.Background(), argv)
}

func TestAddThenListRoundTrip(t *testing.T) {
	stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	require.NoError(t, runGac(t, regPath, "add", folder, "https://example.com/u/proj.git", "u", "tkn123"))

	regs, err := registry.NewStore(regPath).List()
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, folder, regs[0].Path)
	assert.Equal(t, "https://example.com/u/proj.git", regs[0].RepoURL)
	assert.Equal(t, "u", regs[0].Username)
	assert.Equal(t, "tkn123", regs[0].Token)
	assert.True(t, regs[0].AutoCommit)
}

func TestAddDuplicateFails(t *testing.T) {
	stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	require.NoError(t, runGac(t, regPath, "add", folder, "url", "u", "tk"))
	err := runGac(t, regPath, "add", folder, "url", "u", "tk")
	require.ErrorIs(t, err, registry.ErrDuplicate)
}

func TestAddWrongArgCount(t *testing.T) {
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	err := runGac(t, regPath, "add", "/some/folder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestAddMissingFolder(t *testing.T) {
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	err := runGac(t, regPath, "add", filepath.Join(t.TempDir(), "nope"), "url", "u", "tk")
	require.ErrorIs(t, err, registry.ErrInvalidPath)
}

func TestAddInitializesNonRepo(t *testing.T) {
	logPath := stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, runGac(t, regPath, "add", folder, "https://example.com/u/p.git", "u", "tk"))

	calls := stubInvocations(t, logPath)
	require.NotEmpty(t, calls)
	assert.Equal(t, "init", calls[0])
	assert.Contains(t, calls, "remote add origin https://example.com/u/p.git")
	assert.Contains(t, calls, "push --set-upstream origin main")
}

func TestAddNoInitRefusesNonRepo(t *testing.T) {
	logPath := stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := t.TempDir()

	err := runGac(t, regPath, "add", "--no-init", folder, "url", "u", "tk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository")
	assert.Empty(t, stubInvocations(t, logPath))
}

func TestRemove(t *testing.T) {
	stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	require.NoError(t, runGac(t, regPath, "add", folder, "url", "u", "tk"))
	require.NoError(t, runGac(t, regPath, "remove", folder))

	regs, err := registry.NewStore(regPath).List()
	require.NoError(t, err)
	assert.Empty(t, regs)

	require.ErrorIs(t, runGac(t, regPath, "remove", folder), registry.ErrNotFound)
}

func TestEditUpdatesOnlyGivenFlags(t *testing.T) {
	stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	require.NoError(t, runGac(t, regPath, "add", folder, "old-url", "u", "tk"))
	require.NoError(t, runGac(t, regPath, "edit", "--repo-url", "new-url", "--auto-commit=false", folder))

	reg, err := registry.NewStore(regPath).Lookup(folder)
	require.NoError(t, err)
	assert.Equal(t, "new-url", reg.RepoURL)
	assert.Equal(t, "u", reg.Username)
	assert.Equal(t, "tk", reg.Token)
	assert.False(t, reg.AutoCommit)
}

func TestEditWithoutFlagsFails(t *testing.T) {
	stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	require.NoError(t, runGac(t, regPath, "add", folder, "url", "u", "tk"))
	err := runGac(t, regPath, "edit", folder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestCommitRegisteredFolder(t *testing.T) {
	logPath := stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	require.NoError(t, runGac(t, regPath, "add", folder, "https://example.com/u/p.git", "u", "tk"))
	require.NoError(t, runGac(t, regPath, "commit", "-m", "manual save", folder))

	calls := stubInvocations(t, logPath)
	assert.Contains(t, calls, "add -A")
	assert.Contains(t, calls, "commit -m manual save")
	assert.Contains(t, calls, "push")
}

func TestCommitUnregisteredFolderFails(t *testing.T) {
	stubGit(t)
	regPath := filepath.Join(t.TempDir(), "registry.yaml")
	folder := gitFolder(t)

	err := runGac(t, regPath, "commit", folder)
	require.ErrorIs(t, err, registry.ErrNotFound)
	assert.Contains(t, err.Error(), "gac add")
}

func TestEditFlagParsing(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantRepoURL *string
		wantAuto    *bool
	}{
		{
			name: "no flags",
			args: []string{"gac", "edit", "/p"},
		},
		{
			name:        "repo-url only",
			args:        []string{"gac", "edit", "--repo-url", "x", "/p"},
			wantRepoURL: strPtr("x"),
		},
		{
			name:     "auto-commit false",
			args:     []string{"gac", "edit", "--auto-commit=false", "/p"},
			wantAuto: boolPtr(false),
		},
		{
			name:     "auto-commit true",
			args:     []string{"gac", "edit", "--auto-commit", "/p"},
			wantAuto: boolPtr(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := editCommand()
			var captured registry.Fields
			cmd.Action = func(ctx context.Context, c *cli.Command) error {
				if c.IsSet("repo-url") {
					v := c.String("repo-url")
					captured.RepoURL = &v
				}
				if c.IsSet("auto-commit") {
					v := c.Bool("auto-commit")
					captured.AutoCommit = &v
				}
				return nil
			}
			root := &cli.Command{Name: "gac", Commands: []*cli.Command{cmd}}
			require.NoError(t, root.Run(context.Background(), tt.args))

			if tt.wantRepoURL == nil {
				assert.Nil(t, captured.RepoURL)
			} else {
				require.NotNil(t, captured.RepoURL)
				assert.Equal(t, *tt.wantRepoURL, *captured.RepoURL)
			}
			if tt.wantAuto == nil {
				assert.Nil(t, captured.AutoCommit)
			} else {
				require.NotNil(t, captured.AutoCommit)
				assert.Equal(t, *tt.wantAuto, *captured.AutoCommit)
			}
		})
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := rootCommand()
	names := make([]string, 0, len(root.Commands))
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	for _, want := range []string{"add", "list", "remove", "edit", "commit", "watch", "gui", "service"} {
		assert.Contains(t, names, want)
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
