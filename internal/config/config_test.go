package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/noodle-rush/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "docs/api/openapi.yaml", cfg.Server.OpenAPIFile)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Game.InvestorClashInterval)
	assert.Equal(t, 0.35, cfg.Game.EventChance)
	assert.Equal(t, int64(5000), cfg.Game.StartingFunds)
	assert.True(t, cfg.Settings.AutosaveEnabled)
	assert.Equal(t, 5, cfg.Settings.AutosaveInterval)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
game:
  starting_funds: 12000
  event_chance: 0.5
  seed: 42
settings:
  autosave_enabled: false
  autosave_interval: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), cfg.Game.StartingFunds)
	assert.Equal(t, 0.5, cfg.Game.EventChance)
	assert.Equal(t, int64(42), cfg.Game.Seed)
	assert.False(t, cfg.Settings.AutosaveEnabled)
	assert.Equal(t, 3, cfg.Settings.AutosaveInterval)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"事件概率越界", "game:\n  event_chance: 1.5\n"},
		{"自动存档间隔为0", "settings:\n  autosave_interval: 0\n"},
		{"投资人间隔为负", "game:\n  investor_clash_interval: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfigValidate), err.Error())
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game: [unterminated\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigParse), err.Error())
}
