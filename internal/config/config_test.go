package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusk-dataflow/rusk/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadParsesBothSections(t *testing.T) {
	path := writeConfig(t, `
[content_repository]
base_path = "/var/lib/rusk"
file_name_prefix = "records"
server_port = 9001

[rusk_main]
server_port = 8080
processor_queue_length = 64
`)
	t.Setenv(config.EnvVar, path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/rusk", cfg.ContentRepository.BasePath)
	assert.Equal(t, "records", cfg.ContentRepository.FileNamePrefix)
	assert.EqualValues(t, 9001, cfg.ContentRepository.ServerPort)
	assert.EqualValues(t, 8080, cfg.RuskMain.ServerPort)
	assert.Equal(t, 64, cfg.RuskMain.ProcessorQueueLength)
}

func TestLoadFailsWhenEnvVarUnset(t *testing.T) {
	t.Setenv(config.EnvVar, "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadFailsWhenFileMissing(t *testing.T) {
	t.Setenv(config.EnvVar, filepath.Join(t.TempDir(), "does-not-exist.toml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadFailsOnInvalidTOML(t *testing.T) {
	path := writeConfig(t, `this is not valid toml === {`)
	t.Setenv(config.EnvVar, path)

	_, err := config.Load()
	assert.Error(t, err)
}

func TestMustLoadPanicsOnError(t *testing.T) {
	t.Setenv(config.EnvVar, "")

	assert.Panics(t, func() {
		config.MustLoad()
	})
}
