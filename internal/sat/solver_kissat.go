package sat

import "context"

const kissatPath = "kissat"

type kissatSolver struct{}

func NewKissatSolver() Solver {
	return &kissatSolver{}
}

func (*kissatSolver) Solve(ctx context.Context, instance Instance) (Result, error) {
	return runDIMACS(ctx, instance, kissatPath, "-q", "--relaxed")
}
