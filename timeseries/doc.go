// Package timeseries provides the immutable series buffer consumed by the
// forecasting engine.
//
// A Series holds strictly increasing timestamps and finite values, at least
// two of them, sampled at a regular frequency. Construction fails fast with
// tserr.ErrInvalidSeries or tserr.ErrIrregularFrequency; the engine never
// repairs input.
//
// # Creating a Series
//
//	series, err := timeseries.New(timestamps, values, timeseries.WithName("Close"))
//	if err != nil {
//	    return err
//	}
//
// or from points:
//
//	series, err := timeseries.FromPoints([]timeseries.Point{
//	    {Time: day1, Value: 101.2},
//	    {Time: day2, Value: 102.8},
//	})
//
// # Frequency
//
// The sampling frequency is inferred from the minimum gap between
// consecutive timestamps. Every gap must match it within
// DefaultFrequencyTolerance (see WithFrequencyTolerance). Calendar-day and
// calendar-month steps are recognised as well, so monthly data is regular:
//
//	freq := series.Frequency()
//	next := freq.Next(series.Last().Time, 1)
//
// # Loading from CSV
//
// The caller selects exactly one numeric column:
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "Close"
//	series, err := timeseries.LoadCSV("AAPL.csv", opts)
package timeseries
