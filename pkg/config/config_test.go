package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoform/repoform/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "yamlbridge", cfg.Bridge.Path)
	assert.Equal(t, 3, cfg.Bridge.PoolSize)
	assert.Equal(t, 10*time.Second, cfg.Bridge.Timeout)
	assert.Equal(t, int64(5242880), cfg.Bridge.MaxPayload)
	assert.Equal(t, int64(10485760), cfg.Reader.MaxFileSize)
	assert.Equal(t, 200, cfg.Sampler.PerDirCap)
	assert.Equal(t, []string{"pkgsinfo", "manifests"}, cfg.Repo.Subdirs)
}

func TestLoadRootConfigOverrides(t *testing.T) {
	root := t.TempDir()
	content := `
[bridge]
path = "/opt/munki/yamlbridge"
pool_size = 2

[repo]
subdirs = ["pkgsinfo"]
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "repoform.toml"), []byte(content), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "/opt/munki/yamlbridge", cfg.Bridge.Path)
	assert.Equal(t, 2, cfg.Bridge.PoolSize)
	assert.Equal(t, []string{"pkgsinfo"}, cfg.Repo.Subdirs)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Bridge.Timeout)
}

func TestHiddenConfigFileWins(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".repoform.toml"),
		[]byte("[sampler]\nper_dir_cap = 50\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "repoform.toml"),
		[]byte("[sampler]\nper_dir_cap = 99\n"), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Sampler.PerDirCap)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("REPOFORM_BRIDGE_POOL_SIZE", "7")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Bridge.PoolSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "repoform.toml"),
		[]byte("[bridge]\npool_size = 0\n"), 0644))

	_, err := Load(root)
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigValid, errors.GetErrorCode(err))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "repoform.toml"),
		[]byte("not toml at all ["), 0644))

	_, err := Load(root)
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigLoad, errors.GetErrorCode(err))
}
