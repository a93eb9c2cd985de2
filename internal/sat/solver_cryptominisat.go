package sat

import "context"

const cryptominisatPath = "cryptominisat"

type cryptominisatSolver struct{}

func NewCryptominisatSolver() Solver {
	return &cryptominisatSolver{}
}

func (*cryptominisatSolver) Solve(ctx context.Context, instance Instance) (Result, error) {
	return runDIMACS(ctx, instance, cryptominisatPath, "--verb", "0")
}
