package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/fillscope/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 5.0, cfg.Analysis.MaxBookGapSeconds, 1e-9)
	assert.InDelta(t, 0.8, cfg.Analysis.VanishedTolerance, 1e-9)
	assert.InDelta(t, 0.95, cfg.Analysis.SettlementThreshold, 1e-9)
	assert.Equal(t, "vanished", cfg.Analysis.Method)
	assert.Equal(t, 100, cfg.Analysis.MinBookEvents)
	assert.InDelta(t, 900.0, cfg.Analysis.WindowSeconds, 1e-9)
	assert.Equal(t, "btc-updown-15m-", cfg.Data.SlugPrefix)
	assert.Equal(t, "fillscope.db", cfg.Storage.DSN)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"tolerance fuera de rango": "analysis:\n  vanished_tolerance: 1.5\n",
		"método desconocido":       "analysis:\n  method: guess\n",
		"umbral sin sentido":       "analysis:\n  settlement_threshold: 0.3\n",
		"cobertura imposible":      "analysis:\n  window_seconds: 900\n  min_window_seconds: 1000\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
