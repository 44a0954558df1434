package sarima

import (
	"context"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// Objective is a function to minimize over the coefficient vector.
type Objective func(x []float64) float64

// OptimizeSettings bounds an optimizer run.
type OptimizeSettings struct {
	MaxIterations int           // major iteration cap, 0 for none
	Tolerance     float64       // relative change in the objective treated as converged
	Timeout       time.Duration // wall-clock budget, 0 for none
}

// OptimizeResult is the best point an optimizer found.
type OptimizeResult struct {
	X           []float64
	F           float64
	Iterations  int
	Evaluations int
	Converged   bool
	Status      string
}

// Optimizer is a local minimizer. Implementations must return the best point
// found when a budget runs out, with Converged false, and must return
// ctx.Err() when ctx is cancelled.
type Optimizer interface {
	Minimize(ctx context.Context, f Objective, x0 []float64, settings OptimizeSettings) (*OptimizeResult, error)
}

// NelderMead is the gonum downhill simplex method.
type NelderMead struct {
	// SimplexSize is the edge length of the initial simplex (default 0.1).
	SimplexSize float64
	// StallIterations is the number of major iterations without a relative
	// improvement above the tolerance before declaring convergence (default 20).
	StallIterations int
}

// Minimize implements Optimizer.
func (nm NelderMead) Minimize(ctx context.Context, f Objective, x0 []float64, s OptimizeSettings) (*OptimizeResult, error) {
	simplex := nm.SimplexSize
	if simplex <= 0 {
		simplex = 0.1
	}
	stall := nm.StallIterations
	if stall <= 0 {
		stall = 20
	}

	problem := optimize.Problem{
		Func: f,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		MajorIterations: s.MaxIterations,
		Runtime:         s.Timeout,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   s.Tolerance,
			Iterations: stall,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: simplex})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	return &OptimizeResult{
		X:           res.X,
		F:           res.F,
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
		Converged:   converged(res.Status),
		Status:      res.Status.String(),
	}, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.MethodConverge,
		optimize.StepConvergence, optimize.GradientThreshold:
		return true
	}
	return false
}
