package sat

import (
	"fmt"
	"strings"
)

// Instance is a CNF formula. Variables are numbered 1..Variables and a
// clause literal v (or -v) asserts variable v true (or false).
type Instance struct {
	Variables int
	Clauses   [][]int
}

// Model holds one satisfying assignment: Model[v-1] is the value of variable v.
type Model []bool

func (m Model) Value(variable int) bool {
	return m[variable-1]
}

type Status int

const (
	// Satisfiable means a model was found.
	Satisfiable Status = iota
	// Unsatisfiable means the backend proved no model exists.
	Unsatisfiable
	// Unknown means the budget ran out before either proof.
	Unknown
)

func (s Status) String() string {
	switch s {
	case Satisfiable:
		return "satisfiable"
	case Unsatisfiable:
		return "unsatisfiable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single Solve call. Model is non-nil only when
// Status is Satisfiable.
type Result struct {
	Status Status
	Model  Model
}

func (instance Instance) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", instance.Variables, len(instance.Clauses))
	for _, clause := range instance.Clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}
