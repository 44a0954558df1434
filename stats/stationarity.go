package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/stockcast/timeseries"
	"github.com/sartorproj/stockcast/tserr"
)

// Regression selects the deterministic terms of the ADF regression.
type Regression string

const (
	RegressionNone          Regression = "n"
	RegressionConstant      Regression = "c"
	RegressionConstantTrend Regression = "ct"
)

func (r Regression) deterministicTerms() int {
	switch r {
	case RegressionConstant:
		return 1
	case RegressionConstantTrend:
		return 2
	default:
		return 0
	}
}

// Valid reports whether r is a supported regression.
func (r Regression) Valid() bool {
	_, ok := mackinnon[r]
	return ok
}

// AutoLag selects how the ADF lag count is chosen.
type AutoLag string

const (
	// AutoLagNone uses the maximum lag count as is.
	AutoLagNone AutoLag = "none"
	// AutoLagAIC picks the lag count in [0, max] minimizing the AIC of the
	// test regression, all candidates fitted on a common sample.
	AutoLagAIC AutoLag = "aic"
)

// Valid reports whether a is a supported lag selection.
func (a AutoLag) Valid() bool {
	return a == AutoLagNone || a == AutoLagAIC
}

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	MaxLag         int
	NObs           int
	Regression     Regression
	AutoLag        AutoLag
	CriticalValues map[string]float64 // Critical values at 1%, 5%, 10%
	IsStationary   bool
}

// ADFTester runs the Augmented Dickey-Fuller unit-root test.
// The zero value is not usable; construct with NewADFTester.
type ADFTester struct {
	maxLag     int // negative selects DefaultADFLags
	autoLag    AutoLag
	regression Regression
}

// ADFOption configures an ADFTester.
type ADFOption func(*ADFTester)

// WithMaxLag bounds the lag search. A negative value restores the
// length-based default.
func WithMaxLag(k int) ADFOption {
	return func(t *ADFTester) {
		t.maxLag = k
	}
}

// WithAutoLag selects the lag search (default: AutoLagAIC).
func WithAutoLag(a AutoLag) ADFOption {
	return func(t *ADFTester) {
		t.autoLag = a
	}
}

// WithLags fixes the number of lagged difference terms and disables the
// search. A negative value restores the default AIC search.
func WithLags(k int) ADFOption {
	return func(t *ADFTester) {
		t.maxLag = k
		t.autoLag = AutoLagNone
		if k < 0 {
			t.autoLag = AutoLagAIC
		}
	}
}

// WithRegression selects the deterministic terms (default: constant and trend).
func WithRegression(r Regression) ADFOption {
	return func(t *ADFTester) {
		t.regression = r
	}
}

// NewADFTester creates a tester with a constant-and-trend regression and
// an AIC search over up to DefaultADFLags lags.
func NewADFTester(opts ...ADFOption) *ADFTester {
	t := &ADFTester{
		maxLag:     -1,
		autoLag:    AutoLagAIC,
		regression: RegressionConstantTrend,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ADF performs the Augmented Dickey-Fuller test with a constant and trend.
// A non-negative lags fixes the lag count; a negative one runs the default
// AIC search.
func ADF(series *timeseries.Series, lags int) (*ADFResult, error) {
	return NewADFTester(WithLags(lags)).Test(series)
}

// DefaultADFLags returns floor(12 * (n/100)^(1/4)).
func DefaultADFLags(n int) int {
	return int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
}

// Test regresses
//
//	dy_t = alpha + beta*t + gamma*y_{t-1} + sum(delta_i * dy_{t-i}) + e_t
//
// and returns the t-statistic of gamma with its MacKinnon p-value.
// The null hypothesis is a unit root; p < 0.05 rejects it.
func (t *ADFTester) Test(series *timeseries.Series) (*ADFResult, error) {
	const op = "stats.ADF"

	if !t.regression.Valid() {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "unknown regression %q", t.regression)
	}
	if !t.autoLag.Valid() {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "unknown lag selection %q", t.autoLag)
	}

	values := series.Values()
	n := len(values)
	if series.Min() == series.Max() {
		return nil, tserr.New(tserr.ErrInvalidSeries, op, "series is constant")
	}

	ntrend := t.regression.deterministicTerms()
	maxLag := t.maxLag
	if maxLag < 0 {
		maxLag = min(DefaultADFLags(n), n/2-ntrend-1)
		if maxLag < 0 {
			return nil, tserr.Insufficient(op, "series length", n, 2*(ntrend+1))
		}
	}

	params := ntrend + 1 + maxLag
	if n < params+3 {
		return nil, tserr.Insufficient(op, "series length", n, params+3)
	}
	if nobs := n - maxLag - 1; nobs <= params {
		return nil, tserr.Insufficient(op, "regression observations", nobs, params+1)
	}

	lags := maxLag
	if t.autoLag == AutoLagAIC && maxLag > 0 {
		best, err := selectLagAIC(values, ntrend, maxLag)
		if err != nil {
			return nil, tserr.New(tserr.ErrNumericalInstability, op, "lag search: %v", err)
		}
		lags = best
	}

	x, y := adfDesign(values, ntrend, lags, lags+1)
	nobs, _ := x.Dims()
	fit, err := olsRegression(x, y)
	if err != nil {
		return nil, tserr.New(tserr.ErrNumericalInstability, op, "%v", err)
	}

	stat := fit.coeffs[ntrend] / fit.stdErrors[ntrend]
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return nil, tserr.New(tserr.ErrNumericalInstability, op, "degenerate test statistic %v", stat)
	}
	pValue := mackinnonPValue(stat, t.regression)

	return &ADFResult{
		Statistic:      stat,
		PValue:         pValue,
		Lags:           lags,
		MaxLag:         maxLag,
		NObs:           nobs,
		Regression:     t.regression,
		AutoLag:        t.autoLag,
		CriticalValues: mackinnonCriticalValues(t.regression, nobs),
		IsStationary:   pValue < 0.05,
	}, nil
}

// selectLagAIC fits the test regression for every lag count in [0, maxLag]
// on the observations from maxLag+1 on and returns the one with the lowest
// AIC. Ties go to the shorter lag.
func selectLagAIC(values []float64, ntrend, maxLag int) (int, error) {
	best, bestAIC := 0, math.Inf(1)
	for lags := 0; lags <= maxLag; lags++ {
		x, y := adfDesign(values, ntrend, lags, maxLag+1)
		nobs, k := x.Dims()
		fit, err := olsRegression(x, y)
		if err != nil {
			return 0, err
		}
		aic := float64(nobs)*math.Log(fit.sse/float64(nobs)) + 2*float64(k)
		if aic < bestAIC {
			best, bestAIC = lags, aic
		}
	}
	return best, nil
}

// adfDesign builds the ADF regression with the given lag count over the
// differences dy_t for t = start..n-1. start must be at least lags+1.
func adfDesign(values []float64, ntrend, lags, start int) (*mat.Dense, *mat.VecDense) {
	nobs := len(values) - start
	x := mat.NewDense(nobs, ntrend+1+lags, nil)
	y := mat.NewVecDense(nobs, nil)
	for i := 0; i < nobs; i++ {
		ti := start + i
		y.SetVec(i, values[ti]-values[ti-1])

		col := 0
		if ntrend >= 1 {
			x.Set(i, col, 1)
			col++
		}
		if ntrend == 2 {
			x.Set(i, col, float64(i+1))
			col++
		}
		x.Set(i, col, values[ti-1])
		for j := 1; j <= lags; j++ {
			x.Set(i, col+j, values[ti-j]-values[ti-j-1])
		}
	}
	return x, y
}

var errSingularDesign = errors.New("singular design matrix")

type olsFit struct {
	coeffs    []float64
	stdErrors []float64
	sse       float64
}

// olsRegression performs ordinary least squares through a Cholesky
// factorization of X'X. Returns coefficients and their standard errors.
func olsRegression(x *mat.Dense, y *mat.VecDense) (*olsFit, error) {
	n, k := x.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, errSingularDesign
	}

	var xty, beta mat.VecDense
	xty.MulVec(x.T(), y)
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, err
	}

	var resid mat.VecDense
	resid.MulVec(x, &beta)
	resid.SubVec(y, &resid)
	sse := mat.Dot(&resid, &resid)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, err
	}

	s2 := sse / float64(n-k)
	fit := &olsFit{
		coeffs:    make([]float64, k),
		stdErrors: make([]float64, k),
		sse:       sse,
	}
	for i := 0; i < k; i++ {
		fit.coeffs[i] = beta.AtVec(i)
		fit.stdErrors[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return fit, nil
}
