package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/projects")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "projects"), got)

	t.Setenv("GAC_TEST_DIR", "/tmp/x")
	got, err = ExpandPath("$GAC_TEST_DIR/sub")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x/sub", got)

	got, err = ExpandPath("/already/absolute")
	require.NoError(t, err)
	assert.Equal(t, "/already/absolute", got)
}

func TestAbsPath(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	got, err := AbsPath("relative/dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "relative", "dir"), got)
}

func TestConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config", ConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config"), ConfigDir())
}
