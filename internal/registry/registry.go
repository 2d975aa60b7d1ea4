// Package registry persists the mapping of watched folders to their remote
// repositories. The registry lives in a single YAML file; every mutating
// operation re-reads the file, applies the change, and rewrites it
// atomically so a crash mid-write leaves the previous version intact.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finex/gac/internal/utils"
	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by registry operations.
var (
	ErrDuplicate   = errors.New("folder already registered")
	ErrNotFound    = errors.New("folder not registered")
	ErrInvalidPath = errors.New("not an existing directory")
)

// DefaultDebounce is the quiet period the watcher waits for before
// committing, unless overridden in the registry file.
const DefaultDebounce = 30 * time.Second

// Registration binds a local folder to a remote repository.
type Registration struct {
	Path       string `yaml:"path"`
	RepoURL    string `yaml:"repo_url"`
	Username   string `yaml:"username"`
	Token      string `yaml:"token"`
	AutoCommit bool   `yaml:"auto_commit"`
}

// UnmarshalYAML defaults AutoCommit to true when the key is absent.
func (r *Registration) UnmarshalYAML(value *yaml.Node) error {
	type plain Registration
	aux := plain{AutoCommit: true}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*r = Registration(aux)
	return nil
}

// File is the on-disk shape of the registry. Folder order is preserved.
type File struct {
	Debounce string         `yaml:"debounce,omitempty"`
	Theme    string         `yaml:"theme,omitempty"`
	Folders  []Registration `yaml:"folders"`
}

// DebounceDuration parses the configured debounce, falling back to the
// default on absence or garbage.
func (f *File) DebounceDuration() time.Duration {
	if f.Debounce == "" {
		return DefaultDebounce
	}
	d, err := time.ParseDuration(f.Debounce)
	if err != nil || d <= 0 {
		return DefaultDebounce
	}
	return d
}

// Fields holds the subset of registration fields an edit may update.
// Nil pointers leave the current value untouched.
type Fields struct {
	RepoURL    *string
	Username   *string
	Token      *string
	AutoCommit *bool
}

// Store reads and writes the registry file.
type Store struct {
	path string
}

// DefaultPath returns the per-user registry location.
func DefaultPath() string {
	return filepath.Join(utils.ConfigDir(), "gac", "registry.yaml")
}

// NewStore returns a Store backed by the given file, or the default
// per-user location when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the registry file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the registry file. A missing file yields an empty registry.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", s.path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", s.path, err)
	}
	return &f, nil
}

// save rewrites the registry atomically: marshal to a temp file in the
// same directory, then rename over the old one.
func (s *Store) save(f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, utils.DefaultDirPerms); err != nil {
		return fmt.Errorf("create registry dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp registry: %w", err)
	}
	if err := tmp.Chmod(utils.DefaultFilePerms); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp registry: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace registry %s: %w", s.path, err)
	}
	return nil
}

// Add registers a folder. The path must be an existing directory and must
// not already be registered.
func (s *Store) Add(reg Registration) error {
	abs, err := utils.AbsPath(reg.Path)
	if err != nil {
		return err
	}
	reg.Path = abs

	info, err := os.Stat(reg.Path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", reg.Path, ErrInvalidPath)
	}

	f, err := s.Load()
	if err != nil {
		return err
	}
	for _, existing := range f.Folders {
		if existing.Path == reg.Path {
			return fmt.Errorf("%s: %w", reg.Path, ErrDuplicate)
		}
	}

	f.Folders = append(f.Folders, reg)
	return s.save(f)
}

// Remove unregisters a folder.
func (s *Store) Remove(path string) error {
	abs, err := utils.AbsPath(path)
	if err != nil {
		return err
	}

	f, err := s.Load()
	if err != nil {
		return err
	}
	for i, reg := range f.Folders {
		if reg.Path == abs {
			f.Folders = append(f.Folders[:i], f.Folders[i+1:]...)
			return s.save(f)
		}
	}
	return fmt.Errorf("%s: %w", abs, ErrNotFound)
}

// Edit updates a subset of fields on an existing registration.
func (s *Store) Edit(path string, fields Fields) error {
	abs, err := utils.AbsPath(path)
	if err != nil {
		return err
	}

	f, err := s.Load()
	if err != nil {
		return err
	}
	for i := range f.Folders {
		if f.Folders[i].Path != abs {
			continue
		}
		if fields.RepoURL != nil {
			f.Folders[i].RepoURL = *fields.RepoURL
		}
		if fields.Username != nil {
			f.Folders[i].Username = *fields.Username
		}
		if fields.Token != nil {
			f.Folders[i].Token = *fields.Token
		}
		if fields.AutoCommit != nil {
			f.Folders[i].AutoCommit = *fields.AutoCommit
		}
		return s.save(f)
	}
	return fmt.Errorf("%s: %w", abs, ErrNotFound)
}

// List returns all registrations in registration order.
func (s *Store) List() ([]Registration, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	return f.Folders, nil
}

// Lookup returns the registration for a folder.
func (s *Store) Lookup(path string) (Registration, error) {
	abs, err := utils.AbsPath(path)
	if err != nil {
		return Registration{}, err
	}

	f, err := s.Load()
	if err != nil {
		return Registration{}, err
	}
	for _, reg := range f.Folders {
		if reg.Path == abs {
			return reg, nil
		}
	}
	return Registration{}, fmt.Errorf("%s: %w", abs, ErrNotFound)
}

// SetTheme persists the preferred UI theme.
func (s *Store) SetTheme(name string) error {
	f, err := s.Load()
	if err != nil {
		return err
	}
	f.Theme = name
	return s.save(f)
}

// SetDebounce persists the watcher debounce duration.
func (s *Store) SetDebounce(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("debounce must be positive, got %v", d)
	}
	f, err := s.Load()
	if err != nil {
		return err
	}
	f.Debounce = d.String()
	return s.save(f)
}
