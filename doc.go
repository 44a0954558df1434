// Package stockcast forecasts univariate price series with seasonal ARIMA
// models.
//
// A run tests the series for a unit root, splits it into trend, seasonal
// and residual components, fits a SARIMA model by exact maximum likelihood
// and extrapolates it with prediction intervals.
//
// # Quick Start
//
// Load a column, fit and forecast:
//
//	series, _ := timeseries.LoadCSV("prices.csv", &timeseries.CSVOptions{
//		DateColumn:  "Date",
//		ValueColumn: "Close",
//	})
//	order, _ := sarima.NewOrder(2, 1, 2, 0, 0, 0, 0)
//	model, _ := sarima.NewEstimator().Fit(ctx, series, order)
//	fc, _ := sarima.NewForecaster(nil).Forecast(model, series, 30)
//	lower, upper, _ := fc.Interval(0.95)
//
// Or run every step at once:
//
//	p, _ := pipeline.New(pipeline.DefaultConfig())
//	res, _ := p.Run(ctx, series)
//
// # Packages
//
//   - timeseries: the immutable series buffer, frequency inference and CSV loading
//   - stats: ADF test, classical decomposition, ACF/PACF, differencing, Ljung-Box
//   - sarima: model orders, the state-space likelihood, estimation and forecasting
//   - pipeline: configuration and the end-to-end forecast run
//   - tserr: the error kinds shared by all packages
//
// The cmd/stockcast and cmd/stockcastd commands wrap the pipeline as a CLI
// and an HTTP service.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Durbin, J., & Koopman, S.J. (2012). Time Series Analysis by State Space Methods
//   - MacKinnon, J.G. (1994). Approximate asymptotic distribution functions for unit-root and cointegration tests
package stockcast
