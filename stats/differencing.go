package stats

import (
	"math"
)

// Difference applies the lag-`lag` difference `times` times.
// Each pass shortens the result by lag; the result is empty when the input
// is exhausted.
func Difference(values []float64, lag, times int) []float64 {
	result := append([]float64(nil), values...)
	for k := 0; k < times; k++ {
		if len(result) <= lag {
			return []float64{}
		}
		next := make([]float64, len(result)-lag)
		for i := lag; i < len(result); i++ {
			next[i-lag] = result[i] - result[i-lag]
		}
		result = next
	}
	return result
}

// DifferenceSeasonal applies d simple differences followed by sd seasonal
// differences at lag period.
func DifferenceSeasonal(values []float64, d, sd, period int) []float64 {
	out := Difference(values, 1, d)
	if sd > 0 {
		out = Difference(out, period, sd)
	}
	return out
}

// DifferencingPolynomial returns the coefficients of (1-L)^d (1-L^period)^sd,
// constant term first.
func DifferencingPolynomial(d, sd, period int) []float64 {
	poly := []float64{1}
	for i := 0; i < d; i++ {
		poly = PolyMul(poly, []float64{1, -1})
	}
	if sd > 0 {
		seasonal := make([]float64, period+1)
		seasonal[0], seasonal[period] = 1, -1
		for i := 0; i < sd; i++ {
			poly = PolyMul(poly, seasonal)
		}
	}
	return poly
}

// PolyMul multiplies two polynomials given by coefficients, constant term first.
func PolyMul(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// InformationCriteria holds AIC, AICc, and BIC for a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
