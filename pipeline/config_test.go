package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/stockcast/sarima"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, sarima.Order{P: 2, D: 1, Q: 2, M: 12}, cfg.Order())
	assert.Equal(t, 30, cfg.Horizon)
	assert.Equal(t, 12, cfg.DecompositionPeriod)
	assert.Equal(t, 30*time.Second, cfg.FitTimeout)
	assert.Equal(t, "aic", cfg.ADFAutoLag)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"p too large", func(c *Config) { c.P = 6 }},
		{"negative d", func(c *Config) { c.D = -1 }},
		{"seasonal q too large", func(c *Config) { c.SeasonalQ = 6 }},
		{"seasonal period too large", func(c *Config) { c.SeasonalPeriod = 25 }},
		{"seasonal order without period", func(c *Config) { c.SeasonalPeriod = 0; c.SeasonalP = 1 }},
		{"decomposition period", func(c *Config) { c.DecompositionPeriod = 1 }},
		{"zero horizon", func(c *Config) { c.Horizon = 0 }},
		{"horizon too large", func(c *Config) { c.Horizon = 366 }},
		{"confidence level", func(c *Config) { c.ConfidenceLevel = 1 }},
		{"adf lags", func(c *Config) { c.ADFLags = -2 }},
		{"adf regression", func(c *Config) { c.ADFRegression = "ctt" }},
		{"adf autolag", func(c *Config) { c.ADFAutoLag = "bic" }},
		{"max iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"tolerance", func(c *Config) { c.Tolerance = 0 }},
		{"fit timeout", func(c *Config) { c.FitTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfigMirrorSeasonalOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.P, cfg.D, cfg.Q = 1, 1, 1
	cfg.SeasonalP = 3
	cfg.MirrorSeasonalOrder = true

	assert.Equal(t, sarima.Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, M: 12}, cfg.Order())

	cfg.SeasonalPeriod = 0
	assert.Equal(t, sarima.Order{P: 1, D: 1, Q: 1}, cfg.Order())
	assert.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockcast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
p: 1
d: 0
q: 1
seasonal_p: 1
seasonal_period: 7
horizon: 10
confidence_level: 0.8
fit_timeout: 2s
adf_autolag: none
adf_lags: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, sarima.Order{P: 1, Q: 1, SP: 1, M: 7}, cfg.Order())
	assert.Equal(t, 10, cfg.Horizon)
	assert.Equal(t, 0.8, cfg.ConfidenceLevel)
	assert.Equal(t, 2*time.Second, cfg.FitTimeout)
	assert.Equal(t, "none", cfg.ADFAutoLag)
	assert.Equal(t, 4, cfg.ADFLags)
	// untouched keys keep their defaults
	assert.Equal(t, 12, cfg.DecompositionPeriod)
	assert.Equal(t, sarima.DefaultMaxIterations, cfg.MaxIterations)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "horizon: 1000\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "horizn: 10\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(writeConfig(t, "fit_timeout: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.FitTimeout, "zero lifts the fit time limit")
}
