package sarima

import (
	"fmt"

	"github.com/sartorproj/stockcast/tserr"
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (e.g., 12 for monthly data with yearly seasonality)
}

// NewOrder builds and validates a model order.
func NewOrder(p, d, q, sp, sd, sq, m int) (Order, error) {
	o := Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Validate checks that all orders are non-negative and that the seasonal
// period is at least 2 whenever a seasonal order is set.
func (o Order) Validate() error {
	const op = "sarima.Order"

	fields := []struct {
		name string
		v    int
	}{
		{"p", o.P}, {"d", o.D}, {"q", o.Q},
		{"seasonal p", o.SP}, {"seasonal d", o.SD}, {"seasonal q", o.SQ},
		{"seasonal period", o.M},
	}
	for _, f := range fields {
		if f.v < 0 {
			return tserr.New(tserr.ErrInvalidArgument, op, "%s must be non-negative, got %d", f.name, f.v)
		}
	}
	if o.Seasonal() && o.M < 2 {
		return tserr.New(tserr.ErrInvalidArgument, op,
			"seasonal period must be at least 2 when a seasonal order is set, got %d", o.M)
	}
	return nil
}

// Seasonal reports whether any seasonal order is non-zero.
func (o Order) Seasonal() bool {
	return o.SP > 0 || o.SD > 0 || o.SQ > 0
}

// NumParams returns the number of estimated AR and MA coefficients.
func (o Order) NumParams() int {
	return o.P + o.SP + o.Q + o.SQ
}

// DiffLags returns the number of observations consumed by differencing.
func (o Order) DiffLags() int {
	return o.D + o.SD*o.period()
}

// MinObservations returns the number of observations that must remain after
// differencing for the model to be estimable.
func (o Order) MinObservations() int {
	m := o.period()
	return o.P + o.Q + o.SP*m + o.SQ*m + 5
}

func (o Order) period() int {
	if !o.Seasonal() {
		return 0
	}
	return o.M
}

func (o Order) arDegree() int { return o.P + o.SP*o.period() }
func (o Order) maDegree() int { return o.Q + o.SQ*o.period() }

func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}
