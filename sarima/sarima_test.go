package sarima

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/stockcast/timeseries"
	"github.com/sartorproj/stockcast/tserr"
)

var start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func dailySeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	ts := make([]time.Time, len(values))
	for i := range ts {
		ts[i] = start.AddDate(0, 0, i)
	}
	s, err := timeseries.New(ts, values)
	require.NoError(t, err)
	return s
}

func constant(n int, k float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = k
	}
	return out
}

func arProcess(rng *rand.Rand, n int, phi float64, lag int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
		if i >= lag {
			out[i] += phi * out[i-lag]
		}
	}
	return out
}

func TestNewOrder(t *testing.T) {
	tests := []struct {
		name    string
		args    [7]int
		wantErr bool
	}{
		{"arima", [7]int{1, 1, 1, 0, 0, 0, 0}, false},
		{"airline", [7]int{0, 1, 1, 0, 1, 1, 12}, false},
		{"period without seasonal orders", [7]int{1, 0, 0, 0, 0, 0, 12}, false},
		{"negative p", [7]int{-1, 0, 0, 0, 0, 0, 0}, true},
		{"negative seasonal q", [7]int{0, 0, 0, 0, 0, -1, 12}, true},
		{"seasonal order without period", [7]int{0, 0, 0, 1, 0, 0, 0}, true},
		{"seasonal period one", [7]int{0, 0, 0, 0, 1, 0, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.args
			_, err := NewOrder(a[0], a[1], a[2], a[3], a[4], a[5], a[6])
			if tt.wantErr {
				assert.True(t, errors.Is(err, tserr.ErrInvalidArgument), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderString(t *testing.T) {
	assert.Equal(t, "ARIMA(1,1,0)", Order{P: 1, D: 1}.String())
	assert.Equal(t, "SARIMA(0,1,1)(0,1,1)[12]", Order{D: 1, Q: 1, SD: 1, SQ: 1, M: 12}.String())

	o := Order{P: 1, Q: 1, SP: 1, SD: 1, SQ: 1, M: 4}
	assert.Equal(t, 4, o.NumParams())
	assert.Equal(t, 4, o.DiffLags())
	assert.Equal(t, 1+1+4+4+5, o.MinObservations())

	// a period with no seasonal orders is ignored
	assert.Equal(t, 5, Order{M: 12}.MinObservations())
}

func TestExpandPolynomials(t *testing.T) {
	// (1 - 0.5L)(1 - 0.3L^4) = 1 - 0.5L - 0.3L^4 + 0.15L^5
	a := expandAR([]float64{0.5}, []float64{0.3}, 4)
	require.Len(t, a, 5)
	for i, want := range []float64{0.5, 0, 0, 0.3, -0.15} {
		assert.InDelta(t, want, a[i], 1e-12, "a[%d]", i)
	}

	// (1 + 0.4L)(1 + 0.2L^4) = 1 + 0.4L + 0.2L^4 + 0.08L^5
	b := expandMA([]float64{0.4}, []float64{0.2}, 4)
	require.Len(t, b, 5)
	for i, want := range []float64{0.4, 0, 0, 0.2, 0.08} {
		assert.InDelta(t, want, b[i], 1e-12, "b[%d]", i)
	}

	assert.Empty(t, expandAR(nil, nil, 0))
}

func TestStationarity(t *testing.T) {
	assert.True(t, stationary(nil))
	assert.True(t, stationary([]float64{0.5}))
	assert.True(t, stationary([]float64{-0.99}))
	assert.False(t, stationary([]float64{1}))
	assert.False(t, stationary([]float64{1.2}))
	assert.True(t, stationary([]float64{0.5, 0.3}))
	assert.False(t, stationary([]float64{0.5, 0.6}))
	assert.False(t, stationary([]float64{0, 0, 0, 1.01}))
	// 1 - 1.8z + 0.81z^2 = (1 - 0.9z)^2
	assert.True(t, stationary([]float64{1.8, -0.81}))

	assert.True(t, invertible([]float64{-0.5}))
	assert.False(t, invertible([]float64{1.5}))
	assert.False(t, invertible([]float64{-1}))

	o := Order{P: 1, Q: 1, SP: 1, M: 4}
	assert.True(t, splitParams(o, []float64{0.5, 0.5, 0.5}).admissible())
	assert.False(t, splitParams(o, []float64{0.5, 1.5, 0.5}).admissible())
	assert.False(t, splitParams(o, []float64{0.5, 0.5, -2}).admissible())
}

func TestStationaryCovariance(t *testing.T) {
	ar := newStateSpace(Order{P: 1}, []float64{0.6})
	p, err := ar.stationaryCovariance()
	require.NoError(t, err)
	assert.InDelta(t, 1/(1-0.36), p.At(0, 0), 1e-9)

	ma := newStateSpace(Order{Q: 1}, []float64{0.5})
	require.Equal(t, 2, ma.r)
	p, err = ma.stationaryCovariance()
	require.NoError(t, err)
	assert.InDelta(t, 1.25, p.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, p.At(0, 1), 1e-12)
	assert.InDelta(t, 0.25, p.At(1, 1), 1e-12)

	// rank deficient but valid
	sma := newStateSpace(Order{SQ: 1, M: 4}, []float64{0.5})
	_, err = sma.stationaryCovariance()
	assert.NoError(t, err)

	_, err = newStateSpace(Order{P: 1}, []float64{1.0}).stationaryCovariance()
	assert.ErrorIs(t, err, errNotStationary)
}

func TestCheckCovariance(t *testing.T) {
	assert.NoError(t, checkCovariance(mat.NewSymDense(2, []float64{1, 1, 1, 1})))
	assert.ErrorIs(t, checkCovariance(mat.NewSymDense(2, []float64{1, 2, 2, 1})), errNotPositive)
	assert.ErrorIs(t, checkCovariance(mat.NewSymDense(1, []float64{math.NaN()})), errNonFiniteState)
}

func TestFilterAR1(t *testing.T) {
	ss := newStateSpace(Order{P: 1}, []float64{0.6})
	p0, err := ss.stationaryCovariance()
	require.NoError(t, err)

	w := []float64{1, -0.5, 2}
	fr, err := ss.filter(w, p0, true)
	require.NoError(t, err)

	// prediction-error decomposition of an AR(1)
	assert.InDelta(t, 1, fr.innovations[0], 1e-12)
	assert.InDelta(t, -1.1, fr.innovations[1], 1e-12)
	assert.InDelta(t, 2.3, fr.innovations[2], 1e-12)
	assert.InDelta(t, 1.5625, fr.variances[0], 1e-9)
	assert.InDelta(t, 1, fr.variances[1], 1e-12)
	assert.InDelta(t, 0.64+1.21+5.29, fr.sumSq, 1e-9)
	assert.InDelta(t, math.Log(1.5625), fr.sumLogF, 1e-9)

	// next prediction is phi * w_n
	assert.InDelta(t, 1.2, fr.state[0], 1e-12)
}

func TestFilterRejectsDegenerateCovariance(t *testing.T) {
	ss := newStateSpace(Order{}, nil)
	_, err := ss.filter([]float64{1, 2}, mat.NewSymDense(1, []float64{0}), false)
	assert.ErrorIs(t, err, errNotPositive)
}

func TestLogLikelihood(t *testing.T) {
	values := []float64{3, 1.5, 4, 2.5, 3.5, 2, 4.5, 3, 2.5, 3.5}
	series := dailySeries(t, values)
	order := Order{P: 1}

	ll, err := LogLikelihood(series, order, []float64{0.3})
	require.NoError(t, err)

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	phi := 0.3
	w0 := values[0] - mean
	sumSq := w0 * w0 * (1 - phi*phi)
	for i := 1; i < len(values); i++ {
		e := (values[i] - mean) - phi*(values[i-1]-mean)
		sumSq += e * e
	}
	n := float64(len(values))
	s2 := sumSq / n
	want := -0.5*n*(math.Log(2*math.Pi*s2)+1) - 0.5*math.Log(1/(1-phi*phi))
	assert.InDelta(t, want, ll, 1e-9)

	_, err = LogLikelihood(series, order, []float64{0.3, 0.1})
	assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))

	_, err = LogLikelihood(series, order, []float64{1.5})
	assert.True(t, errors.Is(err, tserr.ErrNumericalInstability))
}

func TestFitWhiteNoise(t *testing.T) {
	const sigma = 2.0
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 500)
	for i := range values {
		values[i] = 10 + sigma*rng.NormFloat64()
	}

	est := NewEstimator(WithLogger(zaptest.NewLogger(t)))
	model, err := est.Fit(context.Background(), dailySeries(t, values), Order{M: 12})
	require.NoError(t, err)

	assert.True(t, model.Converged())
	assert.InEpsilon(t, sigma*sigma, model.Sigma2(), 0.2)
	assert.InDelta(t, 10, model.Mean(), 0.3)
	assert.Empty(t, model.ARCoeffs())
	assert.Empty(t, model.MACoeffs())
	assert.Equal(t, 500, model.NObs())
	assert.Len(t, model.Residuals(), 500)
}

func TestFitAR1(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	series := dailySeries(t, arProcess(rng, 600, 0.6, 1))

	model, err := NewEstimator().Fit(context.Background(), series, Order{P: 1})
	require.NoError(t, err)

	t.Logf("%s", model)
	assert.True(t, model.Converged())
	require.Len(t, model.ARCoeffs(), 1)
	assert.InDelta(t, 0.6, model.ARCoeffs()[0], 0.1)
	assert.InEpsilon(t, 1.0, model.Sigma2(), 0.2)
	assert.Less(t, model.AIC(), model.BIC())
}

func TestFitMA1(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 800
	eps := make([]float64, n+1)
	for i := range eps {
		eps[i] = rng.NormFloat64()
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = eps[i+1] + 0.5*eps[i]
	}

	model, err := NewEstimator().Fit(context.Background(), dailySeries(t, values), Order{Q: 1})
	require.NoError(t, err)
	require.Len(t, model.MACoeffs(), 1)
	assert.InDelta(t, 0.5, model.MACoeffs()[0], 0.1)
}

func TestFitSeasonalAR(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	series := dailySeries(t, arProcess(rng, 600, 0.5, 4))

	order, err := NewOrder(0, 0, 0, 1, 0, 0, 4)
	require.NoError(t, err)

	model, err := NewEstimator().Fit(context.Background(), series, order)
	require.NoError(t, err)
	require.Len(t, model.ARCoeffs(), 1)
	assert.InDelta(t, 0.5, model.ARCoeffs()[0], 0.1)

	s := model.Summary()
	assert.Equal(t, []float64(nil), s.ARCoeffs)
	assert.Len(t, s.SARCoeffs, 1)
	require.NotNil(t, s.LjungBox)
	assert.Equal(t, 10, s.LjungBox.Lags)
	assert.InDelta(t, 2, s.DurbinWatson, 0.4)

	text := s.String()
	assert.True(t, strings.Contains(text, "SARIMA(0,0,0)(1,0,0)[4]"), text)
	assert.True(t, strings.Contains(text, "ar.S.L1"), text)
	assert.True(t, strings.Contains(text, "Ljung-Box"), text)
	assert.True(t, strings.Contains(text, "Durbin-Watson"), text)
}

func TestFitNonStationaryConfiguration(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	series := dailySeries(t, arProcess(rng, 30, 0.2, 1))

	order, err := NewOrder(0, 1, 0, 1, 1, 1, 12)
	require.NoError(t, err)

	_, err = NewEstimator().Fit(context.Background(), series, order)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tserr.ErrNonStationaryConfiguration))

	var e *tserr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 17, e.Observed)
	assert.Equal(t, 29, e.Required)
	assert.Contains(t, err.Error(), "SARIMA(0,1,0)(1,1,1)[12]")
}

func TestFitRejectsInvalidOrder(t *testing.T) {
	series := dailySeries(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	_, err := NewEstimator().Fit(context.Background(), series, Order{P: -1})
	assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))
}

func TestFitCancelled(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	series := dailySeries(t, arProcess(rng, 200, 0.5, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEstimator().Fit(ctx, series, Order{P: 1})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NelderMead{}.Minimize(ctx, func(x []float64) float64 { return x[0] * x[0] }, []float64{1}, OptimizeSettings{})
	assert.ErrorIs(t, err, context.Canceled)
}

// cancellingOptimizer cancels the fit from inside the optimizer, the way a
// caller's deadline would fire mid-search.
type cancellingOptimizer struct {
	cancel context.CancelFunc
}

func (c cancellingOptimizer) Minimize(ctx context.Context, f Objective, x0 []float64, s OptimizeSettings) (*OptimizeResult, error) {
	c.cancel()
	return NelderMead{}.Minimize(ctx, f, x0, s)
}

func TestFitCancelledDuringOptimization(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	series := dailySeries(t, arProcess(rng, 200, 0.5, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	est := NewEstimator(WithOptimizer(cancellingOptimizer{cancel: cancel}))
	_, err := est.Fit(ctx, series, Order{P: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitIterationLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	series := dailySeries(t, arProcess(rng, 300, 0.5, 1))

	model, err := NewEstimator(WithMaxIterations(1)).Fit(context.Background(), series, Order{P: 2, Q: 1})
	require.NoError(t, err)
	assert.False(t, model.Converged())
	assert.Equal(t, "IterationLimit", model.Status())
	assert.Len(t, model.Params(), 3)
}

func TestFitTimeout(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	series := dailySeries(t, arProcess(rng, 300, 0.5, 1))

	// out of time after the first iteration: best estimate, not an error
	model, err := NewEstimator(WithTimeout(time.Nanosecond)).Fit(context.Background(), series, Order{P: 2, Q: 1})
	require.NoError(t, err)
	assert.False(t, model.Converged())
	assert.Equal(t, "RuntimeLimit", model.Status())
	assert.Len(t, model.Params(), 3)
}

// fixedOptimizer returns its starting point without searching.
type fixedOptimizer struct{}

func (fixedOptimizer) Minimize(_ context.Context, f Objective, x0 []float64, _ OptimizeSettings) (*OptimizeResult, error) {
	return &OptimizeResult{X: x0, F: f(x0), Status: "Fixed"}, nil
}

func TestFitWithCustomOptimizer(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	values := arProcess(rng, 300, 0.5, 1)
	series := dailySeries(t, values)

	model, err := NewEstimator(WithOptimizer(fixedOptimizer{})).Fit(context.Background(), series, Order{P: 1, Q: 1})
	require.NoError(t, err)
	assert.False(t, model.Converged())
	assert.Equal(t, "Fixed", model.Status())

	// Yule-Walker start for the AR term, zero for the MA term
	w := append([]float64(nil), values...)
	demean(w)
	assert.Equal(t, startParams(w, Order{P: 1, Q: 1}), model.Params())
	assert.Equal(t, 0.0, model.MACoeffs()[0])
}

func TestForecastConstantSeries(t *testing.T) {
	const k = 42.0
	series := dailySeries(t, constant(60, k))

	orders := []Order{
		{},
		{P: 1},
		{P: 1, Q: 1},
		{D: 1},
		{P: 1, D: 1, Q: 1},
		{P: 1, D: 1, SD: 1, SQ: 1, M: 4},
	}
	for _, order := range orders {
		t.Run(order.String(), func(t *testing.T) {
			model, err := NewEstimator().Fit(context.Background(), series, order)
			require.NoError(t, err)

			for _, horizon := range []int{1, 10, 50} {
				fc, err := NewForecaster(zaptest.NewLogger(t)).Forecast(model, series, horizon)
				require.NoError(t, err)
				require.Len(t, fc.Point, horizon)
				for h, v := range fc.Point {
					assert.InDelta(t, k, v, 1e-6, "step %d", h+1)
				}
			}
		})
	}
}

func TestForecastTimestamps(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	series := dailySeries(t, arProcess(rng, 120, 0.3, 1))

	model, err := NewEstimator().Fit(context.Background(), series, Order{P: 1})
	require.NoError(t, err)

	last := series.Last().Time
	for _, horizon := range []int{1, 30, 365} {
		fc, err := NewForecaster(nil).Forecast(model, series, horizon)
		require.NoError(t, err)

		assert.Equal(t, horizon, fc.Len())
		require.Len(t, fc.Timestamps, horizon)
		assert.Len(t, fc.StdErr, horizon)
		assert.Equal(t, last.AddDate(0, 0, 1), fc.Timestamps[0])
		assert.Equal(t, last.AddDate(0, 0, horizon), fc.Timestamps[horizon-1])
	}
}

func TestForecastRandomWalk(t *testing.T) {
	// y_t = 10 + 2t: every difference is 2, so ARIMA(0,1,0) without drift
	// has sigma2 = 4 and forecasts the last level.
	values := make([]float64, 50)
	for i := range values {
		values[i] = 10 + 2*float64(i)
	}
	series := dailySeries(t, values)

	model, err := NewEstimator().Fit(context.Background(), series, Order{D: 1})
	require.NoError(t, err)
	assert.InDelta(t, 4, model.Sigma2(), 1e-9)
	assert.Equal(t, 0.0, model.Mean())

	fc, err := NewForecaster(nil).Forecast(model, series, 4)
	require.NoError(t, err)
	for h := 0; h < 4; h++ {
		assert.InDelta(t, values[49], fc.Point[h], 1e-9)
		assert.InDelta(t, 2*math.Sqrt(float64(h+1)), fc.StdErr[h], 1e-9)
	}

	lower, upper, err := fc.Interval(0.95)
	require.NoError(t, err)
	assert.InDelta(t, values[49]-1.959964*2, lower[0], 1e-4)
	assert.InDelta(t, values[49]+1.959964*2, upper[0], 1e-4)

	_, _, err = fc.Interval(1.5)
	assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))
}

func TestForecastSeasonalNaive(t *testing.T) {
	pattern := []float64{5, 9, 2, 7}
	values := make([]float64, 40)
	for i := range values {
		values[i] = pattern[i%4]
	}
	series := dailySeries(t, values)

	order, err := NewOrder(0, 0, 0, 0, 1, 0, 4)
	require.NoError(t, err)
	model, err := NewEstimator().Fit(context.Background(), series, order)
	require.NoError(t, err)

	fc, err := NewForecaster(nil).Forecast(model, series, 12)
	require.NoError(t, err)
	for h, v := range fc.Point {
		assert.InDelta(t, pattern[(40+h)%4], v, 1e-9, "step %d", h+1)
	}
}

func TestForecastRejectsBadArguments(t *testing.T) {
	series := dailySeries(t, constant(20, 1))
	model, err := NewEstimator().Fit(context.Background(), series, Order{})
	require.NoError(t, err)

	f := NewForecaster(nil)
	_, err = f.Forecast(model, series, 0)
	assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))

	_, err = f.Forecast(nil, series, 5)
	assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))
}
