package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err, "an explicit config file must exist")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.SiteRoot)
	assert.Equal(t, "1.0.0", cfg.PlatformVersion)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "packages"), cfg.PackagesDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "tmp"), cfg.TempDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "sitepack.db"), cfg.DatabasePath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitepack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
site_root = "/srv/site"
data_dir = "/var/lib/sitepack"
platform_version = "2.3.0"
log_level = "debug"
user_id = 7
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/site", cfg.SiteRoot)
	assert.Equal(t, "/var/lib/sitepack", cfg.DataDir)
	assert.Equal(t, "2.3.0", cfg.PlatformVersion)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.UserID)
	assert.Equal(t, filepath.Join("/var/lib/sitepack", "packages"), cfg.PackagesDir)
	assert.Equal(t, filepath.Join("/var/lib/sitepack", "sitepack.db"), cfg.DatabasePath)
}

func TestLoadExplicitPathsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitepack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/var/lib/sitepack"
packages_dir = "/srv/exports"
database_path = "/srv/db/entities.db"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/exports", cfg.PackagesDir)
	assert.Equal(t, "/srv/db/entities.db", cfg.DatabasePath)
	assert.Equal(t, filepath.Join("/var/lib/sitepack", "tmp"), cfg.TempDir)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitepack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`platform_version = "2.3.0"`), 0o644))
	t.Setenv("SITEPACK_PLATFORM_VERSION", "9.9.9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", cfg.PlatformVersion)
}

func TestLoadBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitepack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`site_root = [broken`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{
		DataDir:     filepath.Join(base, "data"),
		PackagesDir: filepath.Join(base, "data", "packages"),
		TempDir:     filepath.Join(base, "data", "tmp"),
	}
	require.NoError(t, cfg.EnsureDirs())
	for _, dir := range []string{cfg.DataDir, cfg.PackagesDir, cfg.TempDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
