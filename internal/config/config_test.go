package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Redis.Addr = ""
	cfg.Run.Bankroll = -5

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mode")
	require.Contains(t, err.Error(), "redis: addr")
	require.Contains(t, err.Error(), "run: bankroll")
}

func TestValidateLLMBackendNeedsCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Classifier.Backend = "llm"
	cfg.Classifier.APIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "api_key is required")

	cfg.Classifier.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "scan"
log_level = "debug"

[run]
group = "quick"
bankroll = 2500.0

[classifier]
backend = "keyword"
cache_ttl = "48h"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "scan", cfg.Mode)
	require.Equal(t, "quick", cfg.Run.Group)
	require.Equal(t, 2500.0, cfg.Run.Bankroll)
	require.Equal(t, 48*60*60, int(cfg.Classifier.CacheTTL.Seconds()))
	// Untouched values keep their defaults.
	require.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("mode = \"paper\"\n"), 0o644))

	t.Setenv("PAPERBOT_MODE", "report")
	t.Setenv("PAPERBOT_RUN_STRATEGIES", "balanced, t2_micro_vol")
	t.Setenv("PAPERBOT_DATABASE_PASSWORD", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "report", cfg.Mode)
	require.Equal(t, []string{"balanced", "t2_micro_vol"}, cfg.Run.Strategies)
	require.Equal(t, "hunter2", cfg.Database.Password)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "secret"
	cfg.Classifier.APIKey = "sk-live"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)
	require.Equal(t, "***", red.Database.Password)
	require.Equal(t, "***", red.Classifier.APIKey)
	require.Equal(t, "***", red.Notify.TelegramToken)
	// Original untouched.
	require.Equal(t, "secret", cfg.Database.Password)
}
