// Package pipeline runs the full forecasting flow on one series: a
// stationarity test and a seasonal decomposition as diagnostics, then a
// SARIMA fit and an out-of-sample forecast.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/stockcast/internal/metrics"
	"github.com/sartorproj/stockcast/sarima"
	"github.com/sartorproj/stockcast/stats"
	"github.com/sartorproj/stockcast/timeseries"
)

// Result is everything one run produces.
type Result struct {
	RunID           string
	SeriesName      string
	Order           sarima.Order
	Stationarity    *stats.ADFResult
	Decomposition   *stats.Decomposition
	Correlogram     *Correlogram
	Model           *sarima.Model
	Forecast        *sarima.ForecastResult
	ConfidenceLevel float64
	Elapsed         time.Duration
}

// Correlogram holds the sample autocorrelations of the series after the
// model's differencing. Index 0 is lag 0.
type Correlogram struct {
	ACF  []float64
	PACF []float64
}

// correlogramLags is the default number of lags; seasonal models show at
// least two full periods.
const correlogramLags = 24

func newCorrelogram(series *timeseries.Series, o sarima.Order) *Correlogram {
	period := 0
	if o.Seasonal() {
		period = o.M
	}
	w := stats.DifferenceSeasonal(series.Values(), o.D, o.SD, period)

	maxLag := min(max(correlogramLags, 2*period), len(w)/2)
	if maxLag < 1 {
		return nil
	}
	acf := stats.ACF(w, maxLag)
	if acf == nil {
		return nil
	}
	return &Correlogram{ACF: acf, PACF: stats.PACF(w, maxLag)}
}

// Pipeline is safe for concurrent use; each Run works on its own data.
type Pipeline struct {
	cfg        Config
	tester     *stats.ADFTester
	estimator  *sarima.Estimator
	forecaster *sarima.Forecaster
	logger     *zap.Logger
	metrics    *metrics.Metrics
	optimizer  sarima.Optimizer
}

type Option func(*Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records run and fit metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithOptimizer replaces the estimator's default optimizer.
func WithOptimizer(o sarima.Optimizer) Option {
	return func(p *Pipeline) {
		p.optimizer = o
	}
}

// New validates cfg and builds a Pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.tester = stats.NewADFTester(
		stats.WithMaxLag(cfg.ADFLags),
		stats.WithAutoLag(stats.AutoLag(cfg.ADFAutoLag)),
		stats.WithRegression(stats.Regression(cfg.ADFRegression)),
	)

	estOpts := []sarima.Option{
		sarima.WithMaxIterations(cfg.MaxIterations),
		sarima.WithTolerance(cfg.Tolerance),
		sarima.WithTimeout(cfg.FitTimeout),
		sarima.WithLogger(p.logger),
	}
	if p.optimizer != nil {
		estOpts = append(estOpts, sarima.WithOptimizer(p.optimizer))
	}
	p.estimator = sarima.NewEstimator(estOpts...)
	p.forecaster = sarima.NewForecaster(p.logger)
	return p, nil
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run executes the pipeline on series. The stationarity test and the
// decomposition run concurrently; the fit starts once both succeeded.
// Errors are returned as produced by the failing stage.
func (p *Pipeline) Run(ctx context.Context, series *timeseries.Series) (res *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	order := p.cfg.Order()

	log := p.logger.With(
		zap.String("run_id", runID),
		zap.String("series", series.Name()),
		zap.Int("observations", series.Len()),
		zap.Stringer("frequency", series.Frequency()),
		zap.Stringer("order", order),
	)
	log.Info("run started")

	defer func() {
		elapsed := time.Since(start)
		if p.metrics != nil {
			p.metrics.ObserveRun(err, elapsed)
		}
		if err != nil {
			log.Error("run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			return
		}
		res.Elapsed = elapsed
		log.Info("run finished", zap.Duration("elapsed", elapsed))
	}()

	res = &Result{
		RunID:           runID,
		SeriesName:      series.Name(),
		Order:           order,
		ConfidenceLevel: p.cfg.ConfidenceLevel,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		adf, err := p.tester.Test(series)
		if err != nil {
			return err
		}
		res.Stationarity = adf
		log.Debug("stationarity tested",
			zap.Float64("statistic", adf.Statistic),
			zap.Float64("p_value", adf.PValue),
			zap.Bool("stationary", adf.IsStationary),
		)
		return gctx.Err()
	})
	g.Go(func() error {
		decomp, err := stats.Decompose(series, p.cfg.DecompositionPeriod)
		if err != nil {
			return err
		}
		res.Decomposition = decomp
		log.Debug("series decomposed",
			zap.Int("period", decomp.Period),
			zap.Float64("seasonal_strength", decomp.SeasonalStrength()),
		)
		return gctx.Err()
	})
	g.Go(func() error {
		res.Correlogram = newCorrelogram(series, order)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fitStart := time.Now()
	model, err := p.estimator.Fit(ctx, series, order)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.ObserveFit(model.Iterations(), model.Converged(), time.Since(fitStart))
	}
	if !model.Converged() {
		log.Warn("model did not converge, forecasting from best estimate",
			zap.String("status", model.Status()),
			zap.Int("iterations", model.Iterations()),
		)
	}
	res.Model = model

	fc, err := p.forecaster.Forecast(model, series, p.cfg.Horizon)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.ForecastPoints.Add(float64(fc.Len()))
	}
	res.Forecast = fc
	return res, nil
}
