package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the config search path at fresh directories and
// resets the flag variables.
func isolate(t *testing.T) (home, confDir string) {
	t.Helper()
	home = t.TempDir()
	confDir = t.TempDir()

	homedir.DisableCache = true
	t.Setenv("HOME", home)
	t.Setenv("PURPLE_CONFIG_PATH", confDir)
	t.Setenv("PURPLE_PATH", "")
	t.Setenv("PURPLE_ADAPTER", "")

	dataPath, adapter, localRoot = "", "", false
	t.Cleanup(func() { dataPath, adapter, localRoot = "", "", false })
	return home, confDir
}

func TestLoadConfig_Defaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "purple"), cfg.Path)
	assert.Equal(t, "fs", cfg.Adapter)
	assert.True(t, cfg.DevSafety)
}

func TestLoadConfig_FileEnvAndFlags(t *testing.T) {
	home, confDir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(confDir, ".purple.yaml"),
		[]byte("path: ~/notes\nadapter: memory\ndev_safety: false\n"), 0644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes"), cfg.Path)
	assert.Equal(t, "memory", cfg.Adapter)
	assert.False(t, cfg.DevSafety)

	t.Setenv("PURPLE_ADAPTER", "fs")
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "fs", cfg.Adapter, "environment wins over the config file")

	dataPath = filepath.Join(home, "elsewhere")
	adapter = "memory"
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, dataPath, cfg.Path, "flags win over everything")
	assert.Equal(t, "memory", cfg.Adapter)
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	_, confDir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(confDir, ".purple.yaml"), []byte("path: [unclosed\n"), 0644))

	_, err := loadConfig()
	assert.Error(t, err)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestLoadConfig_LocalRoot(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	nested := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".purple"), 0755))
	require.NoError(t, os.Mkdir(nested, 0755))
	t.Chdir(nested)

	localRoot = true
	cfg, err := loadConfig()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
