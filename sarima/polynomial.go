package sarima

import (
	"math"

	"github.com/sartorproj/stockcast/stats"
)

// rootMargin keeps accepted polynomials strictly inside the admissible
// region so the stationary covariance stays well conditioned.
const rootMargin = 1e-6

// coefficients is the parameter vector split by factor. The flat layout is
// [ar(p), sar(P), ma(q), sma(Q)].
type coefficients struct {
	ar, sar, ma, sma []float64
}

func splitParams(o Order, params []float64) coefficients {
	i := 0
	take := func(k int) []float64 {
		out := params[i : i+k : i+k]
		i += k
		return out
	}
	return coefficients{
		ar:  take(o.P),
		sar: take(o.SP),
		ma:  take(o.Q),
		sma: take(o.SQ),
	}
}

// expandAR returns a_1..a_k of phi(L)Phi(L^m) = 1 - a_1 L - ... - a_k L^k.
func expandAR(ar, sar []float64, m int) []float64 {
	prod := stats.PolyMul(lagPolynomial(ar, 1, -1), lagPolynomial(sar, m, -1))
	out := make([]float64, len(prod)-1)
	for k := range out {
		out[k] = -prod[k+1]
	}
	return out
}

// expandMA returns b_1..b_k of theta(L)Theta(L^m) = 1 + b_1 L + ... + b_k L^k.
func expandMA(ma, sma []float64, m int) []float64 {
	prod := stats.PolyMul(lagPolynomial(ma, 1, 1), lagPolynomial(sma, m, 1))
	return prod[1:]
}

// lagPolynomial builds 1 + sign*c_1 L^step + sign*c_2 L^(2 step) + ...
func lagPolynomial(c []float64, step int, sign float64) []float64 {
	if len(c) == 0 {
		return []float64{1}
	}
	poly := make([]float64, len(c)*step+1)
	poly[0] = 1
	for i, v := range c {
		poly[(i+1)*step] = sign * v
	}
	return poly
}

// stationary reports whether 1 - c_1 z - ... - c_k z^k has all roots
// outside the unit circle. It runs the Schur-Cohn step-down recursion: the
// polynomial is stable iff every reflection coefficient is inside (-1, 1).
func stationary(c []float64) bool {
	a := append([]float64(nil), c...)
	next := make([]float64, len(a))
	for k := len(a); k >= 1; k-- {
		r := a[k-1]
		if math.IsNaN(r) || math.Abs(r) >= 1-rootMargin {
			return false
		}
		den := 1 - r*r
		for j := 0; j < k-1; j++ {
			next[j] = (a[j] + r*a[k-2-j]) / den
		}
		a, next = next, a
	}
	return true
}

// invertible reports whether 1 + c_1 z + ... + c_k z^k has all roots
// outside the unit circle.
func invertible(c []float64) bool {
	neg := make([]float64, len(c))
	for i, v := range c {
		neg[i] = -v
	}
	return stationary(neg)
}

// admissible checks each factor separately; the products are admissible
// exactly when every factor is.
func (c coefficients) admissible() bool {
	return stationary(c.ar) && stationary(c.sar) && invertible(c.ma) && invertible(c.sma)
}
