// Package utils provides small shared helpers for path handling.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Default permissions for files and directories created by gac.
const (
	DefaultDirPerms  = 0o750
	DefaultFilePerms = 0o600
)

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return os.ExpandEnv(path), nil
}

// AbsPath expands and absolutizes path.
func AbsPath(path string) (string, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

// ConfigDir returns the base directory for user configuration, honoring
// XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
