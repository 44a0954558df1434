// Package tserr defines the error kinds reported by the forecasting engine.
//
// Every failure returned by the engine wraps one of the sentinel kinds below,
// so callers branch with errors.Is and read the offending parameter, the
// observed value and the required minimum with errors.As:
//
//	var e *tserr.Error
//	if errors.As(err, &e) && errors.Is(err, tserr.ErrInsufficientData) {
//	    fmt.Printf("%s needs %d observations, got %d\n", e.Param, e.Required, e.Observed)
//	}
package tserr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSeries reports malformed or too-short input.
	ErrInvalidSeries = errors.New("invalid series")
	// ErrIrregularFrequency reports non-uniform sampling.
	ErrIrregularFrequency = errors.New("irregular frequency")
	// ErrInsufficientData reports too few observations for a test or order.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNonStationaryConfiguration reports that differencing leaves too few observations.
	ErrNonStationaryConfiguration = errors.New("non-stationary configuration")
	// ErrNumericalInstability reports a covariance breakdown during filtering.
	ErrNumericalInstability = errors.New("numerical instability")
	// ErrInvalidArgument reports an out-of-range order, horizon or setting.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error carries the context of an engine failure.
// Observed and Required are only meaningful when Param is set.
type Error struct {
	Kind     error
	Op       string
	Param    string
	Observed int
	Required int
	Detail   string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Param != "" && e.Required != 0 {
		fmt.Fprintf(&b, " (%s: observed %d, required %d)", e.Param, e.Observed, e.Required)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New builds an Error of the given kind with a formatted detail message.
func New(kind error, op, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Insufficient builds an ErrInsufficientData error for param.
func Insufficient(op, param string, observed, required int) *Error {
	return &Error{
		Kind:     ErrInsufficientData,
		Op:       op,
		Param:    param,
		Observed: observed,
		Required: required,
	}
}

// WithCounts attaches the observed and required counts for param.
func (e *Error) WithCounts(param string, observed, required int) *Error {
	e.Param = param
	e.Observed = observed
	e.Required = required
	return e
}
