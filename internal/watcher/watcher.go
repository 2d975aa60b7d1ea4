// Package watcher runs the long-lived auto-commit loop. One fsnotify
// watcher covers every registered folder; change events arm a per-folder
// debounce timer, and when a folder stays quiet for the full window its
// changes are committed and pushed. Commit failures are logged and the
// folder returns to idle, to be retried on the next change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/finex/gac/internal/gitops"
	"github.com/finex/gac/internal/registry"
	"github.com/fsnotify/fsnotify"
)

// Committer performs the commit-and-push for a quiesced folder.
// *gitops.Runner satisfies this; tests substitute a recorder.
type Committer interface {
	CommitAndPush(ctx context.Context, folder string, creds gitops.Credentials, message string) error
}

// folderState tracks the per-folder debounce. A folder is Idle when
// pending is false and PendingCommit while its timer is armed. Resetting
// the timer replaces it, never stacks.
type folderState struct {
	reg       registry.Registration
	timer     *time.Timer
	pending   bool
	lastEvent time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period taken from the registry file.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the log function. Defaults to discarding.
func WithLogger(logf func(string, ...any)) Option {
	return func(w *Watcher) { w.logf = logf }
}

// Watcher owns the event loop and all per-folder state. State is only
// touched from the loop goroutine; timers signal back through a channel.
type Watcher struct {
	store     *registry.Store
	committer Committer
	debounce  time.Duration
	logf      func(string, ...any)

	fsw     *fsnotify.Watcher
	fires   chan string
	done    chan struct{}
	folders map[string]*folderState
	dirs    map[string]string // watched dir -> folder root
}

// New constructs a Watcher over the given registry store.
func New(store *registry.Store, committer Committer, opts ...Option) *Watcher {
	w := &Watcher{
		store:     store,
		committer: committer,
		logf:      func(string, ...any) {},
		folders:   make(map[string]*folderState),
		dirs:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches all registered folders until ctx is cancelled. It also
// watches the registry file itself and resyncs the folder set when the
// CLI or GUI rewrites it.
func (w *Watcher) Run(ctx context.Context) error {
	regFile, err := w.store.Load()
	if err != nil {
		return err
	}
	if w.debounce <= 0 {
		w.debounce = regFile.DebounceDuration()
	}

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.fsw.Close() }()

	w.fires = make(chan string, 64)
	w.done = make(chan struct{})
	defer close(w.done)

	registryPath := w.store.Path()
	// Watch the registry's directory, not the file: atomic saves rename a
	// temp file over it, which would orphan a file-level watch.
	if err := os.MkdirAll(filepath.Dir(registryPath), 0o750); err == nil {
		if err := w.fsw.Add(filepath.Dir(registryPath)); err != nil {
			w.logf("watch registry dir: %v", err)
		}
	}

	w.syncFolders(regFile.Folders)
	w.logf("watching %d folder(s), debounce %v", len(w.folders), w.debounce)

	for {
		select {
		case <-ctx.Done():
			for _, st := range w.folders {
				if st.pending {
					st.timer.Stop()
				}
			}
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == registryPath {
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					w.resync()
				}
				continue
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logf("fsnotify error: %v", err)
		case folder := <-w.fires:
			w.fire(ctx, folder)
		}
	}
}

// handleEvent maps a filesystem event to its registered folder and arms
// or resets that folder's debounce timer.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	root := w.folderForPath(ev.Name)
	if root == "" {
		return
	}

	// New subdirectories need their own watch for recursive coverage.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addWatchTree(ev.Name, root)
		}
	}

	w.noteChange(root)
}

// noteChange transitions a folder to PendingCommit, replacing any armed
// timer so bursts coalesce into a single commit.
func (w *Watcher) noteChange(root string) {
	st, ok := w.folders[root]
	if !ok {
		return
	}
	st.lastEvent = time.Now()

	if st.pending {
		st.timer.Reset(w.debounce)
		return
	}

	st.pending = true
	st.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fires <- root:
		case <-w.done:
		}
	})
}

// fire commits a quiesced folder and returns it to Idle regardless of
// outcome. A fire for a folder unregistered in the meantime is dropped.
func (w *Watcher) fire(ctx context.Context, root string) {
	st, ok := w.folders[root]
	if !ok || !st.pending {
		return
	}
	st.pending = false

	w.logf("quiet period elapsed for %s, committing", root)
	creds := gitops.Credentials{
		RepoURL:  st.reg.RepoURL,
		Username: st.reg.Username,
		Token:    st.reg.Token,
	}
	if err := w.committer.CommitAndPush(ctx, root, creds, ""); err != nil {
		w.logf("auto-commit failed for %s: %v", root, err)
		return
	}
	w.logf("auto-commit done for %s", root)
}

// resync reloads the registry and reconciles the watched folder set.
func (w *Watcher) resync() {
	regFile, err := w.store.Load()
	if err != nil {
		w.logf("registry reload failed: %v", err)
		return
	}
	w.syncFolders(regFile.Folders)
	w.logf("registry changed, now watching %d folder(s)", len(w.folders))
}

// syncFolders reconciles in-memory state with the registrations. Removing
// a folder (or disabling auto-commit) while PendingCommit cancels its
// timer without committing.
func (w *Watcher) syncFolders(regs []registry.Registration) {
	wanted := make(map[string]registry.Registration)
	for _, reg := range regs {
		if reg.AutoCommit {
			wanted[reg.Path] = reg
		}
	}

	for root, st := range w.folders {
		if _, keep := wanted[root]; keep {
			continue
		}
		if st.pending {
			st.timer.Stop()
			st.pending = false
		}
		w.removeWatchTree(root)
		delete(w.folders, root)
	}

	for root, reg := range wanted {
		if st, ok := w.folders[root]; ok {
			st.reg = reg // pick up edited credentials
			continue
		}
		w.folders[root] = &folderState{reg: reg}
		w.addWatchTree(root, root)
	}
}

// folderForPath returns the registered folder containing path, or "".
// Paths inside .git are never attributed to a folder: git's own writes
// during a commit must not re-arm the debounce.
func (w *Watcher) folderForPath(path string) string {
	path = filepath.Clean(path)
	for root := range w.folders {
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return ""
		}
		if rel == ".git" || strings.HasPrefix(rel, ".git"+string(filepath.Separator)) {
			return ""
		}
		return root
	}
	return ""
}

// addWatchTree registers every directory under start (excluding .git) with
// the fsnotify watcher on behalf of the given folder root.
func (w *Watcher) addWatchTree(start, root string) {
	_ = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if _, ok := w.dirs[path]; ok {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logf("watch add failed for %s: %v", path, err)
			return nil
		}
		w.dirs[path] = root
		return nil
	})
}

// removeWatchTree drops every watch belonging to a folder root.
func (w *Watcher) removeWatchTree(root string) {
	for dir, owner := range w.dirs {
		if owner != root {
			continue
		}
		_ = w.fsw.Remove(dir)
		delete(w.dirs, dir)
	}
}
