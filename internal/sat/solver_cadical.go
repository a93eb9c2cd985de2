package sat

import "context"

const cadicalPath = "cadical"

type cadicalSolver struct{}

func NewCadicalSolver() Solver {
	return &cadicalSolver{}
}

func (*cadicalSolver) Solve(ctx context.Context, instance Instance) (Result, error) {
	return runDIMACS(ctx, instance, cadicalPath, "-q")
}
