package sat

import (
	"context"

	gophersat "github.com/crillab/gophersat/solver"
)

// gophersatSolver runs gophersat in-process. It is the default backend: no
// external binary to install, and its stop channel gives us real
// cancellation instead of killing a child process mid-search.
type gophersatSolver struct{}

func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (*gophersatSolver) Solve(ctx context.Context, instance Instance) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Status: Unknown}, nil
	}

	problem := gophersat.ParseSlice(instance.Clauses)
	solver := gophersat.New(problem)

	stop := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			close(stop)
		case <-done:
		}
	}()

	outcome := solver.Optimal(nil, stop)
	switch outcome.Status {
	case gophersat.Sat:
		model := outcome.Model
		if model == nil {
			model = solver.Model()
		}
		return Result{Status: Satisfiable, Model: paddedModel(model, instance.Variables)}, nil
	case gophersat.Unsat:
		return Result{Status: Unsatisfiable}, nil
	default:
		return Result{Status: Unknown}, nil
	}
}

// paddedModel extends the backend model up to the declared variable count:
// variables absent from every clause are unconstrained and default to false.
func paddedModel(model []bool, variables int) Model {
	padded := make(Model, variables)
	copy(padded, model)
	return padded
}
