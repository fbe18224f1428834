package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hookrelay/pkg/config"
)

type envFileConfig struct {
	Hostname string   `env:"HOOKRELAY_TEST_HOSTNAME"`
	Threads  int      `env:"HOOKRELAY_TEST_THREADS"`
	Enabled  bool     `env:"HOOKRELAY_TEST_ENABLED"`
	Shards   []string `env:"HOOKRELAY_TEST_SHARDS" envSeparator:","`
	Priority string   `env:"HOOKRELAY_TEST_PRIORITY"`
}

func writeEnvFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func unsetEnvFileVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOOKRELAY_TEST_HOSTNAME", "HOOKRELAY_TEST_THREADS", "HOOKRELAY_TEST_ENABLED",
		"HOOKRELAY_TEST_SHARDS", "HOOKRELAY_TEST_PRIORITY",
	} {
		// t.Setenv restores the previous value after the test
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	config.ResetCache()
}

func TestLoadEnv_CustomPath(t *testing.T) {
	unsetEnvFileVars(t)

	path := writeEnvFile(t, ".env.relay", `HOOKRELAY_TEST_HOSTNAME=hooks.example.com
HOOKRELAY_TEST_THREADS=16
HOOKRELAY_TEST_ENABLED=true
HOOKRELAY_TEST_SHARDS=a,b,c
HOOKRELAY_TEST_PRIORITY="from file"
`)
	require.NoError(t, config.LoadEnv(path))

	var cfg envFileConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "hooks.example.com", cfg.Hostname)
	assert.Equal(t, 16, cfg.Threads)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Shards)
	assert.Equal(t, "from file", cfg.Priority)
}

func TestLoadEnv_MultiplePathsFirstWins(t *testing.T) {
	unsetEnvFileVars(t)

	first := writeEnvFile(t, ".env.first", "HOOKRELAY_TEST_PRIORITY=first\n")
	second := writeEnvFile(t, ".env.second", "HOOKRELAY_TEST_PRIORITY=second\nHOOKRELAY_TEST_THREADS=4\n")
	require.NoError(t, config.LoadEnv(first, second))

	var cfg envFileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "first", cfg.Priority)
	assert.Equal(t, 4, cfg.Threads)
}

func TestLoadEnv_ProcessEnvironmentWins(t *testing.T) {
	unsetEnvFileVars(t)
	t.Setenv("HOOKRELAY_TEST_PRIORITY", "process")

	path := writeEnvFile(t, ".env", "HOOKRELAY_TEST_PRIORITY=file\n")
	require.NoError(t, config.LoadEnv(path))

	var cfg envFileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "process", cfg.Priority)
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoadEnv(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	})

	path := writeEnvFile(t, ".env", "HOOKRELAY_TEST_UNUSED=1\n")
	assert.NotPanics(t, func() { config.MustLoadEnv(path) })
}
