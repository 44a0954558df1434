package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sartorproj/stockcast/tserr"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (default: "Date")
	ValueColumn string // Column name for values, e.g. "Close" (required)
	DateFormat  string // Date layout (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip before the header
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn: "Date",
		DateFormat: "2006-01-02",
		Delimiter:  ',',
	}
}

// fallback layouts tried after opts.DateFormat
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// LoadCSV loads one numeric column of a CSV file as a series.
func LoadCSV(filename string, opts *CSVOptions, seriesOpts ...Option) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts, seriesOpts...)
}

// LoadCSVFromReader loads one numeric column from an io.Reader.
// Empty or unparseable cells are rejected rather than skipped: the engine
// does not fill gaps.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions, seriesOpts ...Option) (*Series, error) {
	const op = "timeseries.LoadCSV"

	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if opts.ValueColumn == "" {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "value column must be selected")
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("%s: skip row %d: %w", op, i+1, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", op, err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch h {
		case opts.ValueColumn:
			valueIdx = i
		case opts.DateColumn:
			dateIdx = i
		}
	}
	if valueIdx == -1 {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "column %q not found in header %v", opts.ValueColumn, header)
	}
	if dateIdx == -1 {
		return nil, tserr.New(tserr.ErrInvalidArgument, op, "date column %q not found in header %v", opts.DateColumn, header)
	}

	var (
		values     []float64
		timestamps []time.Time
	)

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, row, err)
		}

		valStr := strings.TrimSpace(strings.Trim(record[valueIdx], "\""))
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, tserr.New(tserr.ErrInvalidSeries, op, "row %d: value %q in column %q", row, valStr, opts.ValueColumn)
		}

		dateStr := strings.TrimSpace(strings.Trim(record[dateIdx], "\""))
		ts, ok := parseDate(dateStr, opts.DateFormat)
		if !ok {
			return nil, tserr.New(tserr.ErrInvalidSeries, op, "row %d: date %q", row, dateStr)
		}

		values = append(values, val)
		timestamps = append(timestamps, ts)
	}

	return New(timestamps, values, append([]Option{WithName(opts.ValueColumn)}, seriesOpts...)...)
}

func parseDate(s, layout string) (time.Time, bool) {
	if layout != "" {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	for _, l := range dateLayouts {
		if ts, err := time.Parse(l, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
