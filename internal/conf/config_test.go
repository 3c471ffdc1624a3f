package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes content to a config.yaml in a fresh temp dir.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, string(getDefaultConfig()))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "recording", settings.Evaluation.Resolution)
	assert.Equal(t, 0, settings.Evaluation.Thresholds.Lo)
	assert.Equal(t, 100, settings.Evaluation.Thresholds.Hi)
	assert.True(t, settings.Evaluation.RemoveDisallowedSpecies)
	assert.Contains(t, settings.Evaluation.ExcludeCategories, "abiotic")
	assert.Equal(t, "location", settings.Novel.Resolution)
	assert.InDelta(t, 80.0, settings.Novel.Threshold, 1e-9)
	assert.Equal(t, "first", settings.Novel.TieBreak.Policy)
	assert.Equal(t, 10*time.Minute, settings.Input.CacheTTL)
	assert.True(t, settings.Output.SQLite.Enabled)
	assert.Equal(t, 3306, settings.Output.MySQL.Port)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)

	assert.Same(t, settings, GetSettings())
}

func TestLoad_PartialFileUsesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, `
evaluation:
  resolution: minute
  thresholds:
    lo: 10
    hi: 90
novel:
  tiebreak:
    policy: random
    seed: 42
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "minute", settings.Evaluation.Resolution)
	assert.Equal(t, 10, settings.Evaluation.Thresholds.Lo)
	assert.Equal(t, 90, settings.Evaluation.Thresholds.Hi)
	assert.Equal(t, "random", settings.Novel.TieBreak.Policy)
	assert.Equal(t, uint64(42), settings.Novel.TieBreak.Seed)
	assert.Equal(t, "location", settings.Novel.Resolution)
	assert.Equal(t, "birdnet-eval.db", settings.Output.SQLite.Path)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("BIRDNET_EVAL_EVALUATION_RESOLUTION", "task")
	t.Setenv("BIRDNET_EVAL_NOVEL_THRESHOLD", "65")

	settings, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.Equal(t, "task", settings.Evaluation.Resolution)
	assert.InDelta(t, 65.0, settings.Novel.Threshold, 1e-9)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, `
evaluation:
  resolution: location
  thresholds:
    lo: 50
    hi: 20
novel:
  threshold: 120
`)

	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2, "evaluation and novel sections should both fail")
}

func TestSaveYAMLConfig_RoundTrip(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	settings, err := Load(writeConfig(t, string(getDefaultConfig())))
	require.NoError(t, err)

	settings.Evaluation.Species = []string{"OVEN", "BTNW"}
	settings.Novel.Threshold = 72

	out := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveYAMLConfig(out, settings))

	viper.Reset()
	reloaded, err := Load(out)
	require.NoError(t, err)

	assert.Equal(t, []string{"OVEN", "BTNW"}, reloaded.Evaluation.Species)
	assert.InDelta(t, 72.0, reloaded.Novel.Threshold, 1e-9)
	assert.Equal(t, settings.Output.Plot, reloaded.Output.Plot)
	assert.Equal(t, settings.Input.CacheTTL, reloaded.Input.CacheTTL)
}
