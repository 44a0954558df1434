package timeseries

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/stockcast/tserr"
)

const pricesCSV = `Date,Open,High,Low,Close,Volume
2020-01-01,100,101,99,100.5,1000
2020-01-02,100.5,102,100,101.5,1200
2020-01-03,101.5,103,101,102.0,900
2020-01-04,102,104,101,103.25,1100
2020-01-05,103,105,102,104.0,1000`

func TestLoadCSVFromReader(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.ValueColumn = "Close"

	series, err := LoadCSVFromReader(strings.NewReader(pricesCSV), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 5 {
		t.Errorf("Expected 5 observations, got %d", series.Len())
	}

	expected := []float64{100.5, 101.5, 102.0, 103.25, 104.0}
	for i, v := range expected {
		if series.At(i) != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, series.At(i))
		}
	}
	assert.Equal(t, "Close", series.Name())
	assert.Equal(t, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), series.Last().Time)
}

func TestLoadCSVSelectsColumn(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.ValueColumn = "Volume"

	series, err := LoadCSVFromReader(strings.NewReader(pricesCSV), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1200, 900, 1100, 1000}, series.Values())
}

func TestLoadCSVErrors(t *testing.T) {
	t.Run("no column selected", func(t *testing.T) {
		_, err := LoadCSVFromReader(strings.NewReader(pricesCSV), nil)
		assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))
	})

	t.Run("unknown column", func(t *testing.T) {
		opts := DefaultCSVOptions()
		opts.ValueColumn = "Adj Close"
		_, err := LoadCSVFromReader(strings.NewReader(pricesCSV), opts)
		assert.True(t, errors.Is(err, tserr.ErrInvalidArgument))
	})

	t.Run("gap in values", func(t *testing.T) {
		data := "Date,Close\n2020-01-01,1\n2020-01-02,\n2020-01-03,3\n"
		opts := DefaultCSVOptions()
		opts.ValueColumn = "Close"
		_, err := LoadCSVFromReader(strings.NewReader(data), opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, tserr.ErrInvalidSeries))
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		data := "Date;Close\n2020/01/01;1\n2020/01/02;2\n"
		opts := &CSVOptions{DateColumn: "Date", ValueColumn: "Close", DateFormat: "2006/01/02", Delimiter: ';'}
		series, err := LoadCSVFromReader(strings.NewReader(data), opts)
		require.NoError(t, err)
		assert.Equal(t, 2, series.Len())
	})
}
