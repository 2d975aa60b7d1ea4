package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "registry.yaml")), dir
}

func makeFolder(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(path, 0o750))
	return path
}

func TestAddAndList(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")

	err := store.Add(Registration{
		Path:       proj,
		RepoURL:    "git@example.com:u/proj.git",
		Username:   "u",
		Token:      "tkn123",
		AutoCommit: true,
	})
	require.NoError(t, err)

	regs, err := store.List()
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, proj, regs[0].Path)
	assert.Equal(t, "git@example.com:u/proj.git", regs[0].RepoURL)
	assert.Equal(t, "u", regs[0].Username)
	assert.Equal(t, "tkn123", regs[0].Token)
	assert.True(t, regs[0].AutoCommit)
}

func TestAddDuplicateLeavesRegistryUnchanged(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")

	require.NoError(t, store.Add(Registration{Path: proj, RepoURL: "url-a", AutoCommit: true}))

	err := store.Add(Registration{Path: proj, RepoURL: "url-b"})
	require.ErrorIs(t, err, ErrDuplicate)

	regs, err := store.List()
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "url-a", regs[0].RepoURL)
}

func TestAddRejectsMissingDirectory(t *testing.T) {
	store, dir := newTestStore(t)

	err := store.Add(Registration{Path: filepath.Join(dir, "nope")})
	assert.ErrorIs(t, err, ErrInvalidPath)

	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	err = store.Add(Registration{Path: file})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRemove(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")

	require.NoError(t, store.Add(Registration{Path: proj, AutoCommit: true}))
	require.NoError(t, store.Remove(proj))

	regs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, regs)

	err = store.Remove(proj)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveUnknownLeavesRegistryUnchanged(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")
	require.NoError(t, store.Add(Registration{Path: proj, AutoCommit: true}))

	err := store.Remove(filepath.Join(dir, "other"))
	require.ErrorIs(t, err, ErrNotFound)

	regs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestEdit(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")
	require.NoError(t, store.Add(Registration{
		Path:       proj,
		RepoURL:    "old-url",
		Username:   "old-user",
		Token:      "old-token",
		AutoCommit: true,
	}))

	newURL := "new-url"
	off := false
	require.NoError(t, store.Edit(proj, Fields{RepoURL: &newURL, AutoCommit: &off}))

	reg, err := store.Lookup(proj)
	require.NoError(t, err)
	assert.Equal(t, "new-url", reg.RepoURL)
	assert.Equal(t, "old-user", reg.Username)
	assert.Equal(t, "old-token", reg.Token)
	assert.False(t, reg.AutoCommit)
}

func TestEditUnknownFolder(t *testing.T) {
	store, dir := newTestStore(t)
	url := "url"
	err := store.Edit(filepath.Join(dir, "nope"), Fields{RepoURL: &url})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPreservesOrder(t *testing.T) {
	store, dir := newTestStore(t)
	names := []string{"charlie", "alpha", "bravo"}
	for _, name := range names {
		require.NoError(t, store.Add(Registration{Path: makeFolder(t, dir, name), AutoCommit: true}))
	}

	regs, err := store.List()
	require.NoError(t, err)
	require.Len(t, regs, 3)
	for i, name := range names {
		assert.Equal(t, filepath.Join(dir, name), regs[i].Path)
	}
}

func TestLoadMissingFileReturnsEmptyRegistry(t *testing.T) {
	store, _ := newTestStore(t)
	f, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, f.Folders)
	assert.Equal(t, DefaultDebounce, f.DebounceDuration())
}

func TestAutoCommitDefaultsTrueOnHandEditedFiles(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")

	raw := "folders:\n  - path: " + proj + "\n    repo_url: url\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(raw), 0o600))

	regs, err := store.List()
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.True(t, regs[0].AutoCommit)
}

func TestDebounceDuration(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected time.Duration
	}{
		{name: "empty", raw: "", expected: DefaultDebounce},
		{name: "valid", raw: "5s", expected: 5 * time.Second},
		{name: "garbage", raw: "soon", expected: DefaultDebounce},
		{name: "negative", raw: "-3s", expected: DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{Debounce: tt.raw}
			assert.Equal(t, tt.expected, f.DebounceDuration())
		})
	}
}

func TestSetThemeAndDebouncePersist(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.SetTheme("light"))
	require.NoError(t, store.SetDebounce(5*time.Second))

	f, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "light", f.Theme)
	assert.Equal(t, 5*time.Second, f.DebounceDuration())

	assert.Error(t, store.SetDebounce(0))
}

func TestAtomicSaveLeavesNoTempFiles(t *testing.T) {
	store, dir := newTestStore(t)
	proj := makeFolder(t, dir, "proj")
	require.NoError(t, store.Add(Registration{Path: proj, AutoCommit: true}))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 2) // registry.yaml + proj folder
}
