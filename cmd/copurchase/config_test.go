package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig([]string{"-edges", "amazon0302.txt"})
	require.NoError(t, err)

	assert.Equal(t, "amazon0302.txt", cfg.Dataset.Edges)
	assert.Equal(t, "./cache", cfg.Dataset.Cache)
	assert.Equal(t, "copurchase", cfg.Arango.Database)
	assert.Equal(t, "products", cfg.Arango.NodeCollection)
	assert.Equal(t, "copurchases", cfg.Arango.EdgeCollection)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "-", cfg.Output)
	assert.False(t, cfg.Persist)
}

func TestLoadConfig_FileEnvFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  edges: from-file.txt
arango:
  database: filedb
  username: fileuser
`), 0o644))

	t.Setenv("COPURCHASE_ARANGO_DATABASE", "envdb")

	cfg, err := loadConfig([]string{"-config", path, "-user", "flaguser"})
	require.NoError(t, err)

	// File sets what nothing else touches.
	assert.Equal(t, "from-file.txt", cfg.Dataset.Edges)
	// Env overrides the file.
	assert.Equal(t, "envdb", cfg.Arango.Database)
	// Flags override both.
	assert.Equal(t, "flaguser", cfg.Arango.Username)
}

func TestLoadConfig_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datset:\n  edges: oops.txt\n"), 0o644))

	_, err := loadConfig([]string{"-config", path})
	require.Error(t, err)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"no graph source at all", nil},
		{"force persist without persist", []string{"-edges", "e.txt", "-force-persist"}},
		{"bad log level", []string{"-edges", "e.txt", "-log-level", "loud"}},
		{"bad endpoint URL", []string{"-arango", "not a url"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(tc.args)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ArangoOnly(t *testing.T) {
	cfg, err := loadConfig([]string{"-arango", "http://localhost:8529", "-persist"})
	require.NoError(t, err)
	assert.Empty(t, cfg.Dataset.Edges)
	assert.True(t, cfg.Persist)
}
