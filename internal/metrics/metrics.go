// Package metrics defines the prometheus collectors for forecast runs.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sartorproj/stockcast/tserr"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_input"
	OutcomeNumerical   = "numerical_instability"
	OutcomeCancelled   = "cancelled"
	OutcomeOtherFailed = "error"
)

type Metrics struct {
	Runs           *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	FitDuration    prometheus.Histogram
	FitIterations  prometheus.Histogram
	NotConverged   prometheus.Counter
	ForecastPoints prometheus.Counter

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them on promhttp.Handler().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_pipeline_runs_total",
				Help: "Total number of forecast pipeline runs",
			},
			[]string{"outcome"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockcast_pipeline_run_duration_seconds",
				Help:    "Forecast pipeline run duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		FitDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockcast_fit_duration_seconds",
				Help:    "SARIMA fit duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		FitIterations: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockcast_fit_iterations",
				Help:    "Optimizer iterations per SARIMA fit",
				Buckets: prometheus.LinearBuckets(0, 25, 9),
			},
		),
		NotConverged: f.NewCounter(
			prometheus.CounterOpts{
				Name: "stockcast_fit_not_converged_total",
				Help: "Fits that hit the iteration or time budget",
			},
		),
		ForecastPoints: f.NewCounter(
			prometheus.CounterOpts{
				Name: "stockcast_forecast_points_total",
				Help: "Total number of forecast points produced",
			},
		),
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"endpoint", "method", "code"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"endpoint"},
		),
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(err error, elapsed time.Duration) {
	m.Runs.WithLabelValues(Outcome(err)).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// ObserveFit records a finished fit.
func (m *Metrics) ObserveFit(iterations int, converged bool, elapsed time.Duration) {
	m.FitDuration.Observe(elapsed.Seconds())
	m.FitIterations.Observe(float64(iterations))
	if !converged {
		m.NotConverged.Inc()
	}
}

// ObserveRequest records a served API request.
func (m *Metrics) ObserveRequest(endpoint, method string, code int, elapsed time.Duration) {
	m.Requests.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Outcome classifies a run error for the "outcome" label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.Is(err, tserr.ErrNumericalInstability):
		return OutcomeNumerical
	case errors.Is(err, tserr.ErrInvalidSeries),
		errors.Is(err, tserr.ErrIrregularFrequency),
		errors.Is(err, tserr.ErrInsufficientData),
		errors.Is(err, tserr.ErrNonStationaryConfiguration),
		errors.Is(err, tserr.ErrInvalidArgument):
		return OutcomeInvalid
	default:
		return OutcomeOtherFailed
	}
}
