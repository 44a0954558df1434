package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Response-surface coefficients for a single series (N = 1).
//
// p-values: MacKinnon, J.G. (1994), "Approximate asymptotic distribution
// functions for unit-root and cointegration tests", JBES 12, 167-76.
// Critical values: MacKinnon, J.G. (2010), "Critical Values for
// Cointegration Tests", Queen's Economics Department Working Paper 1227.
type mackinnonSurface struct {
	tauMax  float64
	tauMin  float64
	tauStar float64
	smallP  [3]float64
	largeP  [4]float64
	crit    [3][4]float64 // 1%, 5%, 10%: b0 + b1/T + b2/T^2 + b3/T^3
}

var mackinnon = map[Regression]mackinnonSurface{
	RegressionNone: {
		tauMax:  math.Inf(1),
		tauMin:  -19.04,
		tauStar: -1.04,
		smallP:  [3]float64{0.6344, 1.2378, 0.032496},
		largeP:  [4]float64{0.4797, 0.93557, -0.06999, 0.033066},
		crit: [3][4]float64{
			{-2.56574, -2.2358, -3.627, 0},
			{-1.94100, -0.2686, -3.365, 31.223},
			{-1.61682, 0.2656, -2.714, 25.364},
		},
	},
	RegressionConstant: {
		tauMax:  2.74,
		tauMin:  -18.83,
		tauStar: -1.61,
		smallP:  [3]float64{2.1659, 1.4412, 0.038269},
		largeP:  [4]float64{1.7339, 0.93202, -0.12745, -0.010368},
		crit: [3][4]float64{
			{-3.43035, -6.5393, -16.786, -79.433},
			{-2.86154, -2.8903, -4.234, -40.040},
			{-2.56677, -1.5384, -2.809, 0},
		},
	},
	RegressionConstantTrend: {
		tauMax:  0.7,
		tauMin:  -16.18,
		tauStar: -2.89,
		smallP:  [3]float64{3.2512, 1.6047, 0.049588},
		largeP:  [4]float64{2.5261, 0.61654, -0.37956, -0.060285},
		crit: [3][4]float64{
			{-3.95877, -9.0531, -28.428, -134.155},
			{-3.41049, -4.3904, -9.036, -45.374},
			{-3.12705, -2.5856, -3.925, -22.380},
		},
	},
}

var stdNormal = distuv.UnitNormal

// mackinnonPValue maps an ADF statistic to its approximate p-value.
func mackinnonPValue(stat float64, regression Regression) float64 {
	s := mackinnon[regression]
	switch {
	case stat > s.tauMax:
		return 1
	case stat < s.tauMin:
		return 0
	}

	var z float64
	if stat <= s.tauStar {
		z = polyval(s.smallP[:], stat)
	} else {
		z = polyval(s.largeP[:], stat)
	}
	return stdNormal.CDF(z)
}

// mackinnonCriticalValues returns the finite-sample 1%, 5% and 10% critical values.
func mackinnonCriticalValues(regression Regression, nobs int) map[string]float64 {
	s := mackinnon[regression]
	levels := [3]string{"1%", "5%", "10%"}
	out := make(map[string]float64, len(levels))
	for i, level := range levels {
		b := s.crit[i]
		t := float64(nobs)
		out[level] = b[0] + b[1]/t + b[2]/(t*t) + b[3]/(t*t*t)
	}
	return out
}

// polyval evaluates c[0] + c[1]x + c[2]x^2 + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}
