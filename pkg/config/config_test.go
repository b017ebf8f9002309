package config

import (
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 6000, cfg.HistoryTokenBudget)
	assert.Equal(t, "chat", cfg.ImageMode)
	assert.Empty(t, cfg.Model)
	assert.Equal(t, log.DEBUG, cfg.EchoLevel())
	assert.Equal(t, charmlog.DebugLevel, cfg.StructuredLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_PROVIDER", " Gemini ")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, log.WARN, cfg.EchoLevel())
	assert.Equal(t, charmlog.WarnLevel, cfg.StructuredLevel())
}

func TestLoadError(t *testing.T) {
	t.Setenv("QUEUE_SIZE", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestStructuredLevelOff(t *testing.T) {
	cfg := &Config{LogLevel: "off"}
	assert.Greater(t, int(cfg.StructuredLevel()), int(charmlog.FatalLevel))
}
