package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFrom("token", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, "data/bot.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.NicknameHistoryLimit())
	assert.Equal(t, time.Minute, cfg.SchedulerTick())
	assert.Empty(t, cfg.DebugGuildIDs)
}

func TestYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `db_path: /var/lib/bot/bot.db
debug_guild_ids: ["123", "456"]
username_limit: 3
scheduler_tick_seconds: 10
log_level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadFrom("token", dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bot/bot.db", cfg.DBPath)
	assert.Equal(t, []string{"123", "456"}, cfg.DebugGuildIDs)
	assert.Equal(t, 3, cfg.UsernameHistoryLimit())
	assert.Equal(t, 5, cfg.GlobalNameHistoryLimit())
	assert.Equal(t, "debug", cfg.LogLevel)
	// Below the floor.
	assert.Equal(t, time.Minute, cfg.SchedulerTick())
}

func TestMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644))

	_, err := LoadFrom("token", dir)
	assert.Error(t, err)
}

func TestTokenRequired(t *testing.T) {
	_, err := LoadFrom("", t.TempDir())
	assert.Error(t, err)
}

func TestEnvironmentIsIgnored(t *testing.T) {
	t.Setenv("DB_PATH", "/elsewhere.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom("token", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "data/bot.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
}
