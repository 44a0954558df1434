// Package stats provides the statistical building blocks of the forecasting
// engine: the Augmented Dickey-Fuller stationarity test, classical additive
// seasonal decomposition, differencing, autocorrelation and residual
// diagnostics.
//
// # Stationarity
//
// Test whether a series is stationary. H0: the series has a unit root.
//
//	result, err := stats.NewADFTester().Test(series)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("ADF: stat=%.4f, p=%.4f, stationary=%v\n",
//	    result.Statistic, result.PValue, result.IsStationary)
//
// The regression includes a constant and a linear trend by default
// (WithRegression selects "c" or "n"). The number of lagged differences is
// chosen by AIC between 0 and floor(12*(n/100)^0.25); WithMaxLag moves the
// bound and WithLags fixes the count. p-values follow MacKinnon's
// 1994 response surfaces; critical values his 2010 finite-sample tables.
//
// # Decomposition
//
//	decomp, err := stats.Decompose(series, 12)
//	// decomp.Trend, decomp.Seasonal, decomp.Residual
//
// Trend and Residual are NaN over the edge padding; use Defined(i).
//
// # Differencing
//
//	w := stats.DifferenceSeasonal(values, 1, 1, 12) // (1-L)(1-L^12) y
//	poly := stats.DifferencingPolynomial(1, 1, 12)
//
// # Autocorrelation and residual diagnostics
//
//	acf := stats.ACF(values, 20)
//	pacf := stats.PACF(values, 20)
//	phi := stats.YuleWalker(values, 2, 1)
//	lb := stats.LjungBox(residuals, 10, p+q)
//	dw := stats.DurbinWatson(residuals)
package stats
