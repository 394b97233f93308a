package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danimelchor/mindmap-go/internal/errs"
)

// withHome points $HOME at a temp dir for the duration of the test so Path()
// and Default() resolve under an isolated tree.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	home := withHome(t)

	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "notes"), cfg.DataDir)
	assert.Equal(t, 20, cfg.NumResults)
	assert.InDelta(t, 0.25, cfg.MinScore, 1e-9)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.True(t, cfg.Model.Kind.Valid())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	withHome(t)

	cfg, err := Default()
	require.NoError(t, err)
	cfg.NumResults = 42
	cfg.MinScore = 0.5

	require.NoError(t, cfg.Save())
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.NumResults)
	assert.InDelta(t, 0.5, loaded.MinScore, 1e-9)
	assert.Equal(t, cfg.DataDir, loaded.DataDir)
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	withHome(t)

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.GetKind(err))
}

func TestLoadMalformedYAMLIsConfigError(t *testing.T) {
	withHome(t)

	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not: [valid\nyaml"), 0o644))

	_, err = Load()
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.GetKind(err))
}

func TestModelKindRepoNameAndURL(t *testing.T) {
	assert.Equal(t, "all-MiniLM-L12-v2", ModelAllMiniLML12V2.RepoName())
	assert.Contains(t, ModelAllMiniLML12V2.RemoteURL(), "all-MiniLM-L12-v2")

	var bogus ModelKind = "not-a-model"
	assert.False(t, bogus.Valid())
	assert.Equal(t, "", bogus.RepoName())
	assert.Equal(t, "", bogus.RemoteURL())
}

func TestAllModelKindsAreValid(t *testing.T) {
	for _, k := range AllModelKinds() {
		assert.True(t, k.Valid(), "kind %s should be valid", k)
	}
}
