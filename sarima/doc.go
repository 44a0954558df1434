// Package sarima fits Seasonal ARIMA models by exact maximum likelihood and
// forecasts from them.
//
// A SARIMA(p,d,q)(P,D,Q)[m] model differences the series d times at lag 1
// and D times at lag m, then models the result as an ARMA process whose
// polynomials are the products phi(L)Phi(L^m) and theta(L)Theta(L^m).
//
// # Estimation
//
// The differenced series is cast into state-space form and run through a
// Kalman filter; the innovation variance is concentrated out of the
// Gaussian likelihood, which is then maximized over the AR and MA
// coefficients by an Optimizer (Nelder-Mead by default):
//
//	order, err := sarima.NewOrder(0, 1, 1, 0, 1, 1, 12) // airline model
//	if err != nil {
//	    return err
//	}
//	est := sarima.NewEstimator(sarima.WithTimeout(5 * time.Second))
//	model, err := est.Fit(ctx, series, order)
//	if err != nil {
//	    return err
//	}
//	if !model.Converged() {
//	    // best effort; inspect model.Status()
//	}
//	fmt.Print(model.Summary())
//
// Coefficients outside the stationary or invertible region are penalized
// during the search rather than constrained.
//
// # Forecasting
//
//	fc, err := sarima.NewForecaster(logger).Forecast(model, series, 30)
//	lower, upper, _ := fc.Interval(0.95)
//
// Forecasts are returned on the scale of the input series with timestamps
// continuing at its sampling frequency.
package sarima
