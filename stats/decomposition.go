package stats

import (
	"math"
	"time"

	"github.com/sartorproj/stockcast/timeseries"
	"github.com/sartorproj/stockcast/tserr"
)

// Decomposition is the additive split Observed = Trend + Seasonal + Residual.
// Trend and Residual are NaN over the period/2 edge padding on each side.
type Decomposition struct {
	Timestamps []time.Time
	Observed   []float64
	Trend      []float64
	Seasonal   []float64
	Residual   []float64
	Period     int
}

// Defined reports whether all three components exist at index i.
func (d *Decomposition) Defined(i int) bool {
	return !math.IsNaN(d.Trend[i]) && !math.IsNaN(d.Residual[i])
}

// SeasonalPattern returns one cycle of seasonal indices, phase 0 first.
func (d *Decomposition) SeasonalPattern() []float64 {
	return append([]float64(nil), d.Seasonal[:d.Period]...)
}

// SeasonalStrength returns F_S = max(0, 1 - Var(R) / Var(S+R)) over the
// defined range. Values near 1 indicate strong seasonality.
func (d *Decomposition) SeasonalStrength() float64 {
	var resid, seasonalPlusResid []float64
	for i := range d.Observed {
		if d.Defined(i) {
			resid = append(resid, d.Residual[i])
			seasonalPlusResid = append(seasonalPlusResid, d.Seasonal[i]+d.Residual[i])
		}
	}

	varSR := variance(seasonalPlusResid)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-variance(resid)/varSR)
}

// Decompose performs classical additive seasonal decomposition.
// The trend is a centered moving average of width period (a 2xperiod
// average for even periods); seasonal indices are phase means of the
// detrended series, centered to sum to zero over a cycle.
func Decompose(series *timeseries.Series, period int) (*Decomposition, error) {
	const op = "stats.Decompose"

	if period < 2 {
		return nil, tserr.New(tserr.ErrInvalidSeries, op, "period must be at least 2, got %d", period)
	}
	n := series.Len()
	if 2*period >= n {
		return nil, tserr.New(tserr.ErrInsufficientData, op, "period %d requires series length > %d", period, 2*period).
			WithCounts("series length", n, 2*period+1)
	}

	values := series.Values()

	// Step 1: Calculate trend using centered moving average
	trend := calculateTrend(values, period)

	// Step 2: Detrend and average within each phase
	seasonalPattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(trend[i]) {
			seasonalPattern[i%period] += values[i] - trend[i]
			counts[i%period]++
		}
	}
	for i := range seasonalPattern {
		seasonalPattern[i] /= float64(counts[i])
	}

	// Step 3: Center so one cycle sums to zero
	mean := 0.0
	for _, v := range seasonalPattern {
		mean += v
	}
	mean /= float64(period)
	for i := range seasonalPattern {
		seasonalPattern[i] -= mean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = seasonalPattern[i%period]
		// NaN trend propagates into the residual
		residual[i] = values[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{
		Timestamps: series.Timestamps(),
		Observed:   values,
		Trend:      trend,
		Seasonal:   seasonal,
		Residual:   residual,
		Period:     period,
	}, nil
}

// calculateTrend calculates trend using centered moving average.
func calculateTrend(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	halfPeriod := period / 2

	if period%2 == 0 {
		// Even period: 2xperiod MA, end points get half weight
		for i := halfPeriod; i < n-halfPeriod; i++ {
			sum := 0.5*values[i-halfPeriod] + 0.5*values[i+halfPeriod]
			for j := i - halfPeriod + 1; j < i+halfPeriod; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		for i := halfPeriod; i < n-halfPeriod; i++ {
			sum := 0.0
			for j := i - halfPeriod; j <= i+halfPeriod; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	}

	return trend
}

// variance calculates the sample variance of a slice.
func variance(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)

	sumSq := 0.0
	for _, v := range data {
		diff := v - mean
		sumSq += diff * diff
	}

	return sumSq / float64(n-1)
}
