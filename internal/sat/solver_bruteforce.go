package sat

import (
	"context"
	"fmt"
)

// bruteForceSolver enumerates every assignment. It exists so the encoding
// and decoding layers can be exercised without any real engine: on the tiny
// variable spaces used in tests it is exact and instantaneous, and it honors
// the same four-way outcome contract as the production backends.
type bruteForceSolver struct {
	maxVariables int
}

func NewBruteForceSolver() Solver {
	return &bruteForceSolver{maxVariables: 24}
}

func (solver *bruteForceSolver) Solve(ctx context.Context, instance Instance) (Result, error) {
	if instance.Variables > solver.maxVariables {
		return Result{}, fmt.Errorf("brute-force solver is limited to %d variables, got %d", solver.maxVariables, instance.Variables)
	}

	model := make(Model, instance.Variables)
	for assignment := uint64(0); assignment < 1<<instance.Variables; assignment++ {
		if assignment%1024 == 0 && ctx.Err() != nil {
			return Result{Status: Unknown}, nil
		}

		for v := range instance.Variables {
			model[v] = assignment&(1<<v) != 0
		}
		if satisfies(instance, model) {
			found := make(Model, len(model))
			copy(found, model)
			return Result{Status: Satisfiable, Model: found}, nil
		}
	}
	return Result{Status: Unsatisfiable}, nil
}

func satisfies(instance Instance, model Model) bool {
	for _, clause := range instance.Clauses {
		satisfied := false
		for _, literal := range clause {
			variable := literal
			if variable < 0 {
				variable = -variable
			}
			if model.Value(variable) == (literal > 0) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}
