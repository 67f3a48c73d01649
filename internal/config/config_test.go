package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, found, err := Load(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, DefaultConfig(), cfg)

	_, _, err = Load(filepath.Join(t.TempDir(), FileName), true)
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
dirs = ["app", "lib"]
strategy = "reprint"
catch_continue = false
jobs = 4
global_ignored_names = ["Test"]

[global_imports]
Bean = 'Imi\Bean\Annotation\Bean'
`), 0o644))

	cfg, found, err := Load(path, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"app", "lib"}, cfg.Dirs)
	assert.Equal(t, "reprint", cfg.Strategy)
	assert.False(t, cfg.CatchContinue)
	assert.True(t, cfg.ErrorContinue)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "annotations.yaml", cfg.Index)

	mopts := cfg.MetadataOptions()
	assert.Equal(t, []string{"Test"}, mopts.IgnoredNames)
	assert.Equal(t, `Imi\Bean\Annotation\Bean`, mopts.GlobalImports["Bean"])

	ropts := cfg.RewriteOptions()
	assert.Equal(t, "reprint", ropts.Strategy)
	assert.Equal(t, "__data", ropts.DataParam)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "colour = true\n",
		"unknown strategy": "strategy = \"format\"\n",
		"negative jobs":    "jobs = -1\n",
		"empty dirs":       "dirs = []\n",
		"syntax":           "dirs = [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, _, err := Load(path, true)
			assert.Error(t, err)
		})
	}
}

func TestUnknownStrategyListsKnownNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strategy = "format"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy "format" (known: patch, reprint)`)
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)
	require.NoError(t, WriteExample(path))

	cfg, found, err := Load(path, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, DefaultConfig().Dirs, cfg.Dirs)
	assert.Equal(t, DefaultConfig().AnnotationBase, cfg.AnnotationBase)

	err = WriteExample(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))
}
