package sarima

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/sartorproj/stockcast/stats"
)

// Model is a fitted SARIMA model. It is immutable; accessors return copies.
type Model struct {
	order       Order
	params      []float64
	mean        float64
	sigma2      float64
	logLik      float64
	converged   bool
	status      string
	iterations  int
	evaluations int
	residuals   []float64
	ic          stats.InformationCriteria
}

func newModel(o Order, opt *OptimizeResult, fr *filterResult, mean float64) *Model {
	m := &Model{
		order:       o,
		params:      append(make([]float64, 0, len(opt.X)), opt.X...),
		mean:        mean,
		sigma2:      fr.sigma2(),
		logLik:      fr.logLikelihood(),
		converged:   opt.Converged,
		status:      opt.Status,
		iterations:  opt.Iterations,
		evaluations: opt.Evaluations,
		residuals:   fr.innovations,
	}

	// coefficients, the innovation variance and the mean when estimated
	k := o.NumParams() + 1
	if o.DiffLags() == 0 {
		k++
	}
	m.ic = stats.CalculateIC(m.logLik, fr.n, k)
	return m
}

func (m *Model) Order() Order { return m.order }

// Params returns the coefficient vector [ar(p), sar(P), ma(q), sma(Q)].
func (m *Model) Params() []float64 { return append([]float64(nil), m.params...) }

// ARCoeffs returns the autoregressive coefficients, non-seasonal first.
func (m *Model) ARCoeffs() []float64 {
	c := splitParams(m.order, m.params)
	return append(append(make([]float64, 0, len(c.ar)+len(c.sar)), c.ar...), c.sar...)
}

// MACoeffs returns the moving-average coefficients, non-seasonal first.
func (m *Model) MACoeffs() []float64 {
	c := splitParams(m.order, m.params)
	return append(append(make([]float64, 0, len(c.ma)+len(c.sma)), c.ma...), c.sma...)
}

// Mean returns the sample mean removed before fitting; zero when the
// model differences the series.
func (m *Model) Mean() float64 { return m.mean }

// Sigma2 returns the innovation variance.
func (m *Model) Sigma2() float64 { return m.sigma2 }

func (m *Model) LogLikelihood() float64 { return m.logLik }

// Converged reports whether the optimizer met its convergence criterion.
// A model that ran out of iterations or time is still usable but should be
// treated with care.
func (m *Model) Converged() bool { return m.converged }

// Status returns the optimizer's termination status.
func (m *Model) Status() string { return m.status }

func (m *Model) Iterations() int { return m.iterations }

// NObs returns the number of observations in the likelihood, i.e. the
// length of the differenced series.
func (m *Model) NObs() int { return len(m.residuals) }

// Residuals returns the one-step prediction errors of the differenced series.
func (m *Model) Residuals() []float64 { return append([]float64(nil), m.residuals...) }

func (m *Model) AIC() float64  { return m.ic.AIC }
func (m *Model) AICc() float64 { return m.ic.AICc }
func (m *Model) BIC() float64  { return m.ic.BIC }

func (m *Model) String() string {
	return fmt.Sprintf("%s sigma2=%.6g loglik=%.4f converged=%v", m.order, m.sigma2, m.logLik, m.converged)
}

// Summary represents a model summary.
type Summary struct {
	Order      Order
	ARCoeffs   []float64
	MACoeffs   []float64
	SARCoeffs  []float64
	SMACoeffs  []float64
	Mean       float64
	Variance   float64
	AIC        float64
	AICc       float64 // Corrected AIC
	BIC        float64
	LogLik     float64
	NObs       int
	Converged  bool
	Iterations int
	LjungBox   *stats.LjungBoxResult // nil when there are too few residuals

	// DurbinWatson is near 2 when the residuals have no lag-1 correlation.
	DurbinWatson float64
}

// Summary returns the model diagnostics, including a Ljung-Box test on the
// residuals with up to 10 lags.
func (m *Model) Summary() *Summary {
	c := splitParams(m.order, m.params)
	lags := min(10, len(m.residuals)/5)

	return &Summary{
		Order:      m.order,
		ARCoeffs:   append([]float64(nil), c.ar...),
		MACoeffs:   append([]float64(nil), c.ma...),
		SARCoeffs:  append([]float64(nil), c.sar...),
		SMACoeffs:  append([]float64(nil), c.sma...),
		Mean:       m.mean,
		Variance:   m.sigma2,
		AIC:        m.ic.AIC,
		AICc:       m.ic.AICc,
		BIC:        m.ic.BIC,
		LogLik:     m.logLik,
		NObs:       len(m.residuals),
		Converged:  m.converged,
		Iterations: m.iterations,
		LjungBox:   stats.LjungBox(m.residuals, lags, m.order.NumParams()),

		DurbinWatson: stats.DurbinWatson(m.residuals),
	}
}

// String renders the summary as an aligned text table.
func (s *Summary) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Model:\t%s\n", s.Order)
	fmt.Fprintf(tw, "Observations:\t%d\n", s.NObs)
	fmt.Fprintf(tw, "Log likelihood:\t%.4f\n", s.LogLik)
	fmt.Fprintf(tw, "AIC / AICc / BIC:\t%.4f / %.4f / %.4f\n", s.AIC, s.AICc, s.BIC)
	fmt.Fprintf(tw, "sigma2:\t%.6g\n", s.Variance)
	if s.Order.DiffLags() == 0 {
		fmt.Fprintf(tw, "mean:\t%.6g\n", s.Mean)
	}
	fmt.Fprintf(tw, "Converged:\t%v (%d iterations)\n", s.Converged, s.Iterations)

	writeCoeffs := func(name string, c []float64) {
		for i, v := range c {
			fmt.Fprintf(tw, "%s.L%d\t%.6f\n", name, i+1, v)
		}
	}
	writeCoeffs("ar", s.ARCoeffs)
	writeCoeffs("ar.S", s.SARCoeffs)
	writeCoeffs("ma", s.MACoeffs)
	writeCoeffs("ma.S", s.SMACoeffs)

	if s.LjungBox != nil {
		fmt.Fprintf(tw, "Ljung-Box (L%d):\tQ=%.4f p=%.4f\n", s.LjungBox.Lags, s.LjungBox.Statistic, s.LjungBox.PValue)
	}
	if !math.IsNaN(s.DurbinWatson) {
		fmt.Fprintf(tw, "Durbin-Watson:\t%.4f\n", s.DurbinWatson)
	}
	tw.Flush()
	return b.String()
}
