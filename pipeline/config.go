package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/stockcast/sarima"
	"github.com/sartorproj/stockcast/stats"
)

// Parameter ranges offered to interactive callers.
const (
	MaxOrder          = 5
	MaxSeasonalPeriod = 24
	MaxHorizon        = 365
)

// DefaultFitTimeout bounds a single fit. The largest allowed order,
// SARIMA(5,1,5)(5,1,5)[24], needs tens of milliseconds per likelihood
// evaluation.
const DefaultFitTimeout = 30 * time.Second

// Config holds every tunable parameter of a forecast run.
type Config struct {
	// ARIMA orders, each in [0, 5].
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`

	// Seasonal orders, each in [0, 5], at SeasonalPeriod in [0, 24].
	SeasonalP      int `yaml:"seasonal_p"`
	SeasonalD      int `yaml:"seasonal_d"`
	SeasonalQ      int `yaml:"seasonal_q"`
	SeasonalPeriod int `yaml:"seasonal_period"`
	// MirrorSeasonalOrder reuses (p, d, q) as the seasonal orders whenever
	// SeasonalPeriod is at least 2, ignoring SeasonalP/D/Q.
	MirrorSeasonalOrder bool `yaml:"mirror_seasonal_order"`

	// DecompositionPeriod is the period of the additive decomposition.
	DecompositionPeriod int `yaml:"decomposition_period"`

	// Horizon is the number of forecast steps, in [1, 365].
	Horizon int `yaml:"horizon"`
	// ConfidenceLevel of the reported prediction intervals.
	ConfidenceLevel float64 `yaml:"confidence_level"`

	// ADFLags bounds the number of lagged differences; -1 selects
	// floor(12*(n/100)^0.25). ADFAutoLag "aic" searches [0, ADFLags],
	// "none" uses ADFLags as is.
	ADFLags       int    `yaml:"adf_lags"`
	ADFAutoLag    string `yaml:"adf_autolag"`
	ADFRegression string `yaml:"adf_regression"`

	MaxIterations int           `yaml:"max_iterations"`
	Tolerance     float64       `yaml:"tolerance"`
	FitTimeout    time.Duration `yaml:"fit_timeout"`
}

// DefaultConfig returns the defaults of the interactive front end:
// ARIMA(2,1,2), a 12-step decomposition and a 30-step horizon. Fits give
// up after DefaultFitTimeout; set fit_timeout to 0 to lift the limit.
func DefaultConfig() Config {
	return Config{
		P:                   2,
		D:                   1,
		Q:                   2,
		SeasonalPeriod:      12,
		DecompositionPeriod: 12,
		Horizon:             30,
		ConfidenceLevel:     0.95,
		ADFLags:             -1,
		ADFAutoLag:          string(stats.AutoLagAIC),
		ADFRegression:       string(stats.RegressionConstantTrend),
		MaxIterations:       sarima.DefaultMaxIterations,
		Tolerance:           sarima.DefaultTolerance,
		FitTimeout:          DefaultFitTimeout,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every parameter against its allowed range.
func (c Config) Validate() error {
	orders := []struct {
		name string
		v    int
	}{
		{"p", c.P}, {"d", c.D}, {"q", c.Q},
		{"seasonal_p", c.SeasonalP}, {"seasonal_d", c.SeasonalD}, {"seasonal_q", c.SeasonalQ},
	}
	for _, o := range orders {
		if o.v < 0 || o.v > MaxOrder {
			return fmt.Errorf("%s must be in [0, %d], got %d", o.name, MaxOrder, o.v)
		}
	}
	if c.SeasonalPeriod < 0 || c.SeasonalPeriod > MaxSeasonalPeriod {
		return fmt.Errorf("seasonal_period must be in [0, %d], got %d", MaxSeasonalPeriod, c.SeasonalPeriod)
	}
	if err := c.Order().Validate(); err != nil {
		return fmt.Errorf("seasonal_period %d: %w", c.SeasonalPeriod, err)
	}
	if c.DecompositionPeriod < 2 {
		return fmt.Errorf("decomposition_period must be at least 2, got %d", c.DecompositionPeriod)
	}
	if c.Horizon < 1 || c.Horizon > MaxHorizon {
		return fmt.Errorf("horizon must be in [1, %d], got %d", MaxHorizon, c.Horizon)
	}
	if !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1) {
		return fmt.Errorf("confidence_level must be in (0, 1), got %v", c.ConfidenceLevel)
	}
	if c.ADFLags < -1 {
		return fmt.Errorf("adf_lags must be -1 (automatic) or non-negative, got %d", c.ADFLags)
	}
	if !stats.AutoLag(c.ADFAutoLag).Valid() {
		return fmt.Errorf("adf_autolag must be one of aic, none, got %q", c.ADFAutoLag)
	}
	if !stats.Regression(c.ADFRegression).Valid() {
		return fmt.Errorf("adf_regression must be one of n, c, ct, got %q", c.ADFRegression)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be greater than 0, got %d", c.MaxIterations)
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("tolerance must be greater than 0, got %v", c.Tolerance)
	}
	if c.FitTimeout < 0 {
		return fmt.Errorf("fit_timeout must not be negative, got %s", c.FitTimeout)
	}
	return nil
}

// Order returns the model order described by c.
func (c Config) Order() sarima.Order {
	o := sarima.Order{
		P: c.P, D: c.D, Q: c.Q,
		SP: c.SeasonalP, SD: c.SeasonalD, SQ: c.SeasonalQ,
		M: c.SeasonalPeriod,
	}
	if c.MirrorSeasonalOrder {
		o.SP, o.SD, o.SQ = 0, 0, 0
		if c.SeasonalPeriod >= 2 {
			o.SP, o.SD, o.SQ = c.P, c.D, c.Q
		}
	}
	return o
}
