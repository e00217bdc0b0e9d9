package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
provider: openai
model: gpt-4o-mini
api_key_env: OPENAI_API_KEY
workers: 8
oracle_concurrency: 4
requests_per_second: 2
request_timeout: 90s
cache_path: /tmp/cache.json
drive_folder_id: folder-123
spreadsheet_id: sheet-456
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, int64(4), cfg.OracleConcurrency)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "folder-123", cfg.DriveFolderID)

	// Unset scoring section keeps defaults.
	assert.InDelta(t, 80.0, cfg.Scoring.GateThreshold, 1e-9)
}

func TestLoadConfigScoringOverride(t *testing.T) {
	path := writeConfig(t, `
provider: google
api_key_env: GOOGLE_API_KEY
cache_path: cache.json
scoring:
  gate_threshold: 75
  logic_weight: 0.4
  item_weight: 0.4
  axis_weight: 0.2
  perspective_spread: 5
  score_cap: 90
  strong_threshold: 78
  conditional_threshold: 65
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, cfg.Scoring.GateThreshold, 1e-9)
	assert.Equal(t, 90, cfg.Scoring.ScoreCap)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown provider",
			content: `
provider: bedrock
api_key_env: KEY
cache_path: cache.json
`,
		},
		{
			name: "missing cache path",
			content: `
provider: google
api_key_env: KEY
cache_path: ""
`,
		},
		{
			name: "broken scoring weights",
			content: `
provider: google
api_key_env: KEY
cache_path: cache.json
scoring:
  gate_threshold: 80
  logic_weight: 0.9
  item_weight: 0.9
  axis_weight: 0.9
  perspective_spread: 6
  score_cap: 92
  strong_threshold: 80
  conditional_threshold: 70
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKeyEnv = "DECKEVAL_TEST_KEY"

	t.Setenv("DECKEVAL_TEST_KEY", "secret")
	key, err := cfg.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret", key)

	t.Setenv("DECKEVAL_TEST_KEY", "")
	_, err = cfg.APIKey()
	require.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
