// Package timeseries provides the immutable series buffer consumed by the engine.
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/sartorproj/stockcast/tserr"
)

// DefaultFrequencyTolerance is the relative deviation allowed between a gap
// and the minimum gap before a series is considered irregular.
const DefaultFrequencyTolerance = 0.01

// Point is a single (timestamp, value) observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an immutable, regularly sampled sequence of observations.
// Accessors return copies; a Series is safe for concurrent readers.
type Series struct {
	timestamps []time.Time
	values     []float64
	freq       Frequency
	name       string
	tolerance  float64
}

// Option configures series construction.
type Option func(*Series)

// WithName labels the series, typically with the column it was read from.
func WithName(name string) Option {
	return func(s *Series) {
		s.name = name
	}
}

// WithFrequencyTolerance overrides DefaultFrequencyTolerance.
func WithFrequencyTolerance(tol float64) Option {
	return func(s *Series) {
		if tol >= 0 {
			s.tolerance = tol
		}
	}
}

// New builds a Series from parallel timestamp and value slices.
// The inputs are copied.
func New(timestamps []time.Time, values []float64, opts ...Option) (*Series, error) {
	const op = "timeseries.New"

	if len(timestamps) != len(values) {
		return nil, tserr.New(tserr.ErrInvalidSeries, op,
			"%d timestamps for %d values", len(timestamps), len(values))
	}
	if len(values) < 2 {
		return nil, tserr.New(tserr.ErrInvalidSeries, op, "too few points").
			WithCounts("series length", len(values), 2)
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, tserr.New(tserr.ErrInvalidSeries, op, "value at index %d is not finite (%v)", i, v)
		}
		if i > 0 && !timestamps[i].After(timestamps[i-1]) {
			return nil, tserr.New(tserr.ErrInvalidSeries, op,
				"timestamp at index %d (%s) does not follow %s", i,
				timestamps[i].Format(time.RFC3339), timestamps[i-1].Format(time.RFC3339))
		}
	}

	s := &Series{
		timestamps: append([]time.Time(nil), timestamps...),
		values:     append([]float64(nil), values...),
		tolerance:  DefaultFrequencyTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}

	freq, err := inferFrequency(s.timestamps, s.tolerance)
	if err != nil {
		return nil, err
	}
	s.freq = freq

	return s, nil
}

// FromPoints builds a Series from ordered points.
func FromPoints(points []Point, opts ...Option) (*Series, error) {
	timestamps := make([]time.Time, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		timestamps[i] = p.Time
		values[i] = p.Value
	}
	return New(timestamps, values, opts...)
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.values)
}

// Name returns the series label.
func (s *Series) Name() string {
	return s.name
}

// At returns the value at index i.
func (s *Series) At(i int) float64 {
	return s.values[i]
}

// Time returns the timestamp at index i.
func (s *Series) Time(i int) time.Time {
	return s.timestamps[i]
}

// Last returns the final observation.
func (s *Series) Last() Point {
	n := len(s.values) - 1
	return Point{Time: s.timestamps[n], Value: s.values[n]}
}

// Frequency returns the inferred sampling frequency.
func (s *Series) Frequency() Frequency {
	return s.freq
}

// Values returns a copy of the observed values.
func (s *Series) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Timestamps returns a copy of the timestamps.
func (s *Series) Timestamps() []time.Time {
	return append([]time.Time(nil), s.timestamps...)
}

// Points returns a copy of the observations as points.
func (s *Series) Points() []Point {
	points := make([]Point, len(s.values))
	for i := range s.values {
		points[i] = Point{Time: s.timestamps[i], Value: s.values[i]}
	}
	return points
}

// Slice returns the sub-series [start, end).
func (s *Series) Slice(start, end int) (*Series, error) {
	if start < 0 || end > len(s.values) || start > end {
		return nil, tserr.New(tserr.ErrInvalidArgument, "timeseries.Slice",
			"bounds [%d:%d] out of range for length %d", start, end, len(s.values))
	}
	return New(s.timestamps[start:end], s.values[start:end],
		WithName(s.name), WithFrequencyTolerance(s.tolerance))
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	sum := 0.0
	for _, v := range s.values {
		sum += v
	}
	return sum / float64(len(s.values))
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.values)-1)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	min := s.values[0]
	for _, v := range s.values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	max := s.values[0]
	for _, v := range s.values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Median returns the median value of the series.
func (s *Series) Median() float64 {
	sorted := s.Values()
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
