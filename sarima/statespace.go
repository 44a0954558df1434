package sarima

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	maxDoubling      = 64
	lyapunovTol      = 1e-12
	covarianceJitter = 1e-9
)

var (
	errNotStationary  = errors.New("autoregressive polynomial is not stationary")
	errNoConvergence  = errors.New("stationary covariance did not converge")
	errNotPositive    = errors.New("state covariance is not positive semi-definite")
	errNonFiniteState = errors.New("state covariance has non-finite entries")
)

// stateSpace is the Harvey representation of an ARMA process:
//
//	alpha_t = T alpha_{t-1} + R eps_t
//	w_t     = Z alpha_t
//
// T has the expanded AR coefficients in its first column and ones on the
// superdiagonal, R = (1, b_1, ..., b_{r-1})' and Z = (1, 0, ..., 0).
// The innovation variance is concentrated out, so eps has unit variance.
type stateSpace struct {
	r         int
	phi       []float64 // first column of T, length r
	selection []float64 // R, length r
}

func newStateSpace(o Order, params []float64) *stateSpace {
	c := splitParams(o, params)
	a := expandAR(c.ar, c.sar, o.M)
	b := expandMA(c.ma, c.sma, o.M)

	r := max(len(a), len(b)+1)
	s := &stateSpace{
		r:         r,
		phi:       make([]float64, r),
		selection: make([]float64, r),
	}
	copy(s.phi, a)
	s.selection[0] = 1
	copy(s.selection[1:], b)
	return s
}

// transition returns T as a dense matrix.
func (s *stateSpace) transition() *mat.Dense {
	t := mat.NewDense(s.r, s.r, nil)
	for i := 0; i < s.r; i++ {
		t.Set(i, 0, s.phi[i])
		if i+1 < s.r {
			t.Set(i, i+1, 1)
		}
	}
	return t
}

// stationaryCovariance solves P = T P T' + R R' with the doubling
// algorithm and verifies the result with a Cholesky factorization.
func (s *stateSpace) stationaryCovariance() (*mat.SymDense, error) {
	if !stationary(s.phi) {
		return nil, errNotStationary
	}

	rv := mat.NewVecDense(s.r, s.selection)
	var p mat.Dense
	p.Outer(1, rv, rv)

	a := s.transition()
	a2 := mat.NewDense(s.r, s.r, nil)
	var tmp, step mat.Dense

	converged := false
	for i := 0; i < maxDoubling; i++ {
		tmp.Mul(a, &p)
		step.Mul(&tmp, a.T())
		p.Add(&p, &step)
		if mat.Norm(&step, math.Inf(1)) <= lyapunovTol*mat.Norm(&p, math.Inf(1)) {
			converged = true
			break
		}
		a2.Mul(a, a)
		a, a2 = a2, a
	}
	if !converged {
		return nil, errNoConvergence
	}

	cov := mat.NewSymDense(s.r, nil)
	for i := 0; i < s.r; i++ {
		for j := i; j < s.r; j++ {
			cov.SetSym(i, j, (p.At(i, j)+p.At(j, i))/2)
		}
	}
	if err := checkCovariance(cov); err != nil {
		return nil, err
	}
	return cov, nil
}

// checkCovariance verifies that p is finite and positive semi-definite.
// Harvey-form covariances are often rank deficient, so the factorization is
// attempted on p plus a small diagonal jitter scaled to p.
func checkCovariance(p mat.Symmetric) error {
	n := p.SymmetricDim()
	scale := 1.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := p.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errNonFiniteState
			}
		}
		scale = math.Max(scale, math.Abs(p.At(i, i)))
	}

	jittered := mat.NewSymDense(n, nil)
	jittered.CopySym(p)
	for i := 0; i < n; i++ {
		jittered.SetSym(i, i, jittered.At(i, i)+covarianceJitter*scale)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(jittered); !ok {
		return errNotPositive
	}
	return nil
}
