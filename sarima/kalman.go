package sarima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// minVariance floors the concentrated innovation variance so that a series
// with no variation keeps a finite likelihood.
const minVariance = 1e-12

// filterResult holds the output of one pass of the Kalman filter.
type filterResult struct {
	n           int
	innovations []float64 // one-step prediction errors v_t
	variances   []float64 // their scaled variances F_t
	sumSq       float64   // sum of v_t^2 / F_t
	sumLogF     float64
	state       []float64 // predicted state for the step after the last observation
	cov         []float64 // its covariance, row-major r x r
}

// sigma2 returns the concentrated innovation variance.
func (f *filterResult) sigma2() float64 {
	return math.Max(f.sumSq/float64(f.n), minVariance)
}

// logLikelihood returns the Gaussian log-likelihood with sigma2 concentrated out.
func (f *filterResult) logLikelihood() float64 {
	n := float64(f.n)
	s2 := f.sigma2()
	return -0.5 * (n*math.Log(2*math.Pi*s2) + f.sumSq/s2 + f.sumLogF)
}

// filter runs the Kalman filter over w starting from a zero mean state with
// covariance p0. T is a companion-like matrix, so prediction is done on raw
// slices in O(r^2) per observation instead of dense products.
// When keep is false the per-step innovations are not stored.
func (s *stateSpace) filter(w []float64, p0 mat.Symmetric, keep bool) (*filterResult, error) {
	r := s.r
	a := make([]float64, r)
	p := make([]float64, r*r)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			p[i*r+j] = p0.At(i, j)
		}
	}

	rr := make([]float64, r*r)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			rr[i*r+j] = s.selection[i] * s.selection[j]
		}
	}

	res := &filterResult{n: len(w)}
	if keep {
		res.innovations = make([]float64, len(w))
		res.variances = make([]float64, len(w))
	}

	k := make([]float64, r)
	m := make([]float64, r*r)
	for t, y := range w {
		v := y - a[0]
		f := p[0]
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("prediction variance %v at observation %d: %w", f, t, errNotPositive)
		}

		res.sumSq += v * v / f
		res.sumLogF += math.Log(f)
		if keep {
			res.innovations[t] = v
			res.variances[t] = f
		}

		// Update with the observation of the first state element.
		for i := 0; i < r; i++ {
			k[i] = p[i*r]
		}
		for i := 0; i < r; i++ {
			a[i] += k[i] * v / f
			for j := 0; j < r; j++ {
				p[i*r+j] -= k[i] * k[j] / f
			}
		}

		// Predict: a = T a and P = T P T' + R R'.
		a0 := a[0]
		for i := 0; i < r-1; i++ {
			a[i] = s.phi[i]*a0 + a[i+1]
		}
		a[r-1] = s.phi[r-1] * a0

		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := s.phi[i] * p[j]
				if i+1 < r {
					v += p[(i+1)*r+j]
				}
				m[i*r+j] = v
			}
		}
		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := s.phi[j] * m[i*r]
				if j+1 < r {
					v += m[i*r+j+1]
				}
				p[i*r+j] = v + rr[i*r+j]
			}
		}
	}

	res.state = a
	res.cov = p
	return res, nil
}

// covariance returns the final predicted state covariance as a symmetric matrix.
func (f *filterResult) covariance(r int) *mat.SymDense {
	cov := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			cov.SetSym(i, j, (f.cov[i*r+j]+f.cov[j*r+i])/2)
		}
	}
	return cov
}
