package sarima

import (
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/stockcast/stats"
	"github.com/sartorproj/stockcast/timeseries"
	"github.com/sartorproj/stockcast/tserr"
)

// ForecastResult holds out-of-sample forecasts on the scale of the input
// series. All slices have the requested horizon as their length.
type ForecastResult struct {
	Timestamps []time.Time
	Point      []float64
	StdErr     []float64
}

func (r *ForecastResult) Len() int {
	return len(r.Point)
}

// Interval returns normal prediction bounds at the given confidence level,
// e.g. 0.95.
func (r *ForecastResult) Interval(level float64) (lower, upper []float64, err error) {
	if !(level > 0 && level < 1) {
		return nil, nil, tserr.New(tserr.ErrInvalidArgument, "sarima.Interval", "level must be in (0, 1), got %v", level)
	}

	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	lower = make([]float64, len(r.Point))
	upper = make([]float64, len(r.Point))
	for i, p := range r.Point {
		lower[i] = p - z*r.StdErr[i]
		upper[i] = p + z*r.StdErr[i]
	}
	return lower, upper, nil
}

// Forecaster projects fitted models forward.
type Forecaster struct {
	logger *zap.Logger
}

// NewForecaster creates a Forecaster. A nil logger disables logging.
func NewForecaster(logger *zap.Logger) *Forecaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forecaster{logger: logger}
}

// Forecast filters series through model and iterates the transition
// equation horizon steps with zero innovations.
//
// The state is augmented with the last d + D*m levels of series so that the
// differencing is undone inside the transition: the observation row is
// y_t = w_t - sum(delta_k y_{t-k}) where delta is the differencing
// polynomial. Forecast variances follow from propagating the state
// covariance and are scaled by the innovation variance.
//
// Timestamps continue from the last observation at the series' frequency.
func (f *Forecaster) Forecast(model *Model, series *timeseries.Series, horizon int) (*ForecastResult, error) {
	const op = "sarima.Forecast"

	if model == nil {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "model is nil")
	}
	if horizon < 1 {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "horizon must be at least 1, got %d", horizon)
	}

	o := model.order
	w, err := prepare(series, o, op)
	if err != nil {
		return nil, err
	}
	for i := range w {
		w[i] -= model.mean
	}

	ss := newStateSpace(o, model.params)
	p0, err := ss.stationaryCovariance()
	if err != nil {
		return nil, tserr.New(tserr.ErrNumericalInstability, op, "%s: %v", o, err)
	}
	fr, err := ss.filter(w, p0, false)
	if err != nil {
		return nil, tserr.New(tserr.ErrNumericalInstability, op, "%s: %v", o, err)
	}

	r := ss.r
	delta := stats.DifferencingPolynomial(o.D, o.SD, o.period())
	k := len(delta) - 1
	dim := r + k

	// Augmented state: [alpha; y_{t-1}, ..., y_{t-k}].
	values := series.Values()
	n := len(values)
	x := mat.NewVecDense(dim, nil)
	for i := 0; i < r; i++ {
		x.SetVec(i, fr.state[i])
	}
	for j := 0; j < k; j++ {
		x.SetVec(r+j, values[n-1-j])
	}

	p := mat.NewDense(dim, dim, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			p.Set(i, j, fr.cov[i*r+j])
		}
	}

	t := mat.NewDense(dim, dim, nil)
	for i := 0; i < r; i++ {
		t.Set(i, 0, ss.phi[i])
		if i+1 < r {
			t.Set(i, i+1, 1)
		}
	}
	z := mat.NewVecDense(dim, nil)
	z.SetVec(0, 1)
	for j := 0; j < k; j++ {
		z.SetVec(r+j, -delta[j+1])
	}
	if k > 0 {
		t.SetRow(r, z.RawVector().Data)
		for j := 1; j < k; j++ {
			t.Set(r+j, r+j-1, 1)
		}
	}

	sel := mat.NewVecDense(dim, nil)
	for i := 0; i < r; i++ {
		sel.SetVec(i, ss.selection[i])
	}
	var rr mat.Dense
	rr.Outer(1, sel, sel)

	res := &ForecastResult{
		Timestamps: make([]time.Time, horizon),
		Point:      make([]float64, horizon),
		StdErr:     make([]float64, horizon),
	}
	freq := series.Frequency()
	last := series.Last().Time

	var (
		next, pz mat.VecDense
		tmp      mat.Dense
	)
	for h := 0; h < horizon; h++ {
		res.Timestamps[h] = freq.Next(last, h+1)
		res.Point[h] = mat.Dot(z, x) + model.mean
		pz.MulVec(p, z)
		res.StdErr[h] = math.Sqrt(math.Max(model.sigma2*mat.Dot(z, &pz), 0))

		next.MulVec(t, x)
		x.CopyVec(&next)
		tmp.Mul(t, p)
		p.Mul(&tmp, t.T())
		p.Add(p, &rr)
	}

	f.logger.Debug("forecast produced",
		zap.Stringer("order", o),
		zap.Int("horizon", horizon),
		zap.Time("from", res.Timestamps[0]),
		zap.Time("to", res.Timestamps[horizon-1]),
	)
	return res, nil
}
