package tserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", Insufficient("stats.ADF", "series length", 5, 9))

	require.True(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrInvalidSeries))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "series length", e.Param)
	assert.Equal(t, 5, e.Observed)
	assert.Equal(t, 9, e.Required)
}

func TestErrorMessage(t *testing.T) {
	err := New(ErrInvalidSeries, "timeseries.New", "value at index %d is NaN", 3)
	assert.Equal(t, "timeseries.New: invalid series: value at index 3 is NaN", err.Error())

	err = Insufficient("stats.Decompose", "period", 60, 120).WithCounts("series length", 100, 121)
	assert.Equal(t, "stats.Decompose: insufficient data (series length: observed 100, required 121)", err.Error())
}
