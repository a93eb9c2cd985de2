package sat

import "context"

// Solver is the external solving capability. Implementations must honor
// ctx cancellation and deadlines: an expired context yields a Result with
// the Unknown status, not an error. A non-nil error means the backend
// itself failed and says nothing about satisfiability.
type Solver interface {
	Solve(ctx context.Context, instance Instance) (Result, error)
}
