package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEnvironmentWritesToOwnFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Level: "info", File: filepath.Join(dir, "app.log")}))

	stagingLog := ForEnvironment(filepath.Join(dir, "staging.log"))
	prodLog := ForEnvironment(filepath.Join(dir, "prod.log"))

	stagingLog.Info().Str("environment", "staging").Msg("staging job event")
	prodLog.Info().Str("environment", "prod").Msg("prod job event")

	staging, err := os.ReadFile(filepath.Join(dir, "staging.log"))
	require.NoError(t, err)
	assert.Contains(t, string(staging), "staging job event")
	assert.NotContains(t, string(staging), "prod job event")

	prod, err := os.ReadFile(filepath.Join(dir, "prod.log"))
	require.NoError(t, err)
	assert.Contains(t, string(prod), "prod job event")
	assert.NotContains(t, string(prod), "staging job event")

	// Both environments also reach the shared sink.
	app, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "staging job event")
	assert.Contains(t, string(app), "prod job event")
}

func TestForEnvironmentWithoutFileUsesSharedSinks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Level: "info", File: filepath.Join(dir, "app.log")}))

	lg := ForEnvironment("")
	lg.Info().Msg("shared sink event")

	app, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "shared sink event")
}
