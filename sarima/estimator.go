package sarima

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/stockcast/stats"
	"github.com/sartorproj/stockcast/timeseries"
	"github.com/sartorproj/stockcast/tserr"
)

const (
	DefaultMaxIterations = 200
	DefaultTolerance     = 1e-6

	// objective value for coefficients outside the admissible region
	inadmissiblePenalty = 1e10
)

// Estimator fits SARIMA models by maximum likelihood.
// An Estimator holds no per-fit state and may be shared between goroutines.
type Estimator struct {
	optimizer     Optimizer
	maxIterations int
	tolerance     float64
	timeout       time.Duration
	logger        *zap.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithOptimizer replaces the default Nelder-Mead optimizer.
func WithOptimizer(o Optimizer) Option {
	return func(e *Estimator) {
		if o != nil {
			e.optimizer = o
		}
	}
}

// WithMaxIterations caps the optimizer's major iterations.
func WithMaxIterations(n int) Option {
	return func(e *Estimator) {
		e.maxIterations = n
	}
}

// WithTolerance sets the relative log-likelihood change treated as converged.
func WithTolerance(tol float64) Option {
	return func(e *Estimator) {
		e.tolerance = tol
	}
}

// WithTimeout bounds the wall-clock time of a fit. Running out of time
// yields a non-converged model, not an error.
func WithTimeout(d time.Duration) Option {
	return func(e *Estimator) {
		e.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEstimator creates an Estimator using Nelder-Mead with at most 200
// iterations and a 1e-6 relative tolerance.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		optimizer:     NelderMead{},
		maxIterations: DefaultMaxIterations,
		tolerance:     DefaultTolerance,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit estimates the coefficients of order for series.
//
// The series is differenced d times at lag 1 and D times at lag m; without
// differencing the sample mean is removed. The concentrated Gaussian
// log-likelihood of the remaining ARMA process, computed with a Kalman
// filter, is maximized from a Yule-Walker start. Coefficients outside the
// stationary and invertible region are penalized.
//
// Running out of iterations or time returns the best model found with
// Converged() == false. Cancelling ctx returns ctx.Err().
func (e *Estimator) Fit(ctx context.Context, series *timeseries.Series, order Order) (*Model, error) {
	const op = "sarima.Fit"

	if err := order.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := prepare(series, order, op)
	if err != nil {
		return nil, err
	}
	var mean float64
	if order.DiffLags() == 0 {
		mean = demean(w)
	}

	log := e.logger.With(zap.Stringer("order", order), zap.Int("observations", len(w)))
	log.Debug("fit started")
	start := time.Now()

	opt := &OptimizeResult{Converged: true, Status: "NoParameters"}
	if order.NumParams() > 0 {
		opt, err = e.optimizer.Minimize(ctx, objective(w, order), startParams(w, order), OptimizeSettings{
			MaxIterations: e.maxIterations,
			Tolerance:     e.tolerance,
			Timeout:       e.timeout,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, tserr.New(tserr.ErrNumericalInstability, op, "%s: optimizer: %v", order, err)
		}
	}

	ss, fr, err := evaluate(w, order, opt.X, true)
	if err == nil {
		err = checkCovariance(fr.covariance(ss.r))
	}
	if err != nil {
		return nil, tserr.New(tserr.ErrNumericalInstability, op, "%s: %v", order, err)
	}

	m := newModel(order, opt, fr, mean)

	log.Debug("fit finished",
		zap.Float64("log_likelihood", m.logLik),
		zap.Float64("sigma2", m.sigma2),
		zap.Int("iterations", m.iterations),
		zap.Int("evaluations", m.evaluations),
		zap.Duration("elapsed", time.Since(start)),
	)
	if !m.converged {
		log.Warn("fit did not converge",
			zap.String("status", m.status),
			zap.Int("iterations", m.iterations),
		)
	}
	return m, nil
}

// LogLikelihood returns the concentrated Gaussian log-likelihood of params
// for series under order, after the differencing and mean removal Fit
// applies. params is laid out as [ar(p), sar(P), ma(q), sma(Q)].
func LogLikelihood(series *timeseries.Series, order Order, params []float64) (float64, error) {
	const op = "sarima.LogLikelihood"

	if err := order.Validate(); err != nil {
		return 0, err
	}
	if len(params) != order.NumParams() {
		return 0, tserr.New(tserr.ErrInvalidArgument, op, "%s has %d parameters, got %d",
			order, order.NumParams(), len(params))
	}
	w, err := prepare(series, order, op)
	if err != nil {
		return 0, err
	}
	if order.DiffLags() == 0 {
		demean(w)
	}

	_, fr, err := evaluate(w, order, params, false)
	if err != nil {
		return 0, tserr.New(tserr.ErrNumericalInstability, op, "%s: %v", order, err)
	}
	return fr.logLikelihood(), nil
}

// prepare applies the order's differencing to series.
func prepare(series *timeseries.Series, o Order, op string) ([]float64, error) {
	w := stats.DifferenceSeasonal(series.Values(), o.D, o.SD, o.period())
	if need := o.MinObservations(); len(w) < need {
		return nil, tserr.New(tserr.ErrNonStationaryConfiguration, op,
			"%s leaves %d of %d observations after differencing", o, len(w), series.Len()).
			WithCounts("differenced length", len(w), need)
	}
	return w, nil
}

// demean subtracts the mean of w in place and returns it.
func demean(w []float64) float64 {
	mean := 0.0
	for _, v := range w {
		mean += v
	}
	mean /= float64(len(w))
	for i := range w {
		w[i] -= mean
	}
	return mean
}

// evaluate builds the state-space form for params and filters w.
func evaluate(w []float64, o Order, params []float64, keep bool) (*stateSpace, *filterResult, error) {
	ss := newStateSpace(o, params)
	p0, err := ss.stationaryCovariance()
	if err != nil {
		return nil, nil, err
	}
	fr, err := ss.filter(w, p0, keep)
	if err != nil {
		return nil, nil, err
	}
	return ss, fr, nil
}

// objective returns the negative concentrated log-likelihood.
func objective(w []float64, o Order) Objective {
	return func(x []float64) float64 {
		if !splitParams(o, x).admissible() {
			return inadmissiblePenalty + floats.Norm(x, 2)
		}
		_, fr, err := evaluate(w, o, x, false)
		if err != nil {
			return inadmissiblePenalty + floats.Norm(x, 2)
		}
		return -fr.logLikelihood()
	}
}

// startParams returns Yule-Walker AR and seasonal AR estimates with the MA
// terms at zero, shrunk toward zero until admissible.
func startParams(w []float64, o Order) []float64 {
	x := make([]float64, 0, o.NumParams())
	x = append(x, stats.YuleWalker(w, o.P, 1)...)
	x = append(x, stats.YuleWalker(w, o.SP, o.M)...)
	x = append(x, make([]float64, o.Q+o.SQ)...)

	for i := 0; i < 32 && !splitParams(o, x).admissible(); i++ {
		floats.Scale(0.5, x)
	}
	return x
}
