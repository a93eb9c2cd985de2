package schedule

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"timetabler/internal/domain"
	"timetabler/internal/sat"
)

// State tracks one solve through its lifecycle.
type State int

const (
	StateBuilt State = iota
	StateSubmitted
	StateSolved
	StateInfeasible
	StateTimedOut
	StateError
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSubmitted:
		return "submitted"
	case StateSolved:
		return "solved"
	case StateInfeasible:
		return "infeasible"
	case StateTimedOut:
		return "timed_out"
	default:
		return "error"
	}
}

type Status string

const (
	StatusSolved     Status = "solved"
	StatusInfeasible Status = "infeasible"
	StatusTimedOut   Status = "timed_out"
	StatusError      Status = "error"
)

// Report is the structured outcome of one solve. Assignments is non-empty
// for StatusSolved always, and for StatusTimedOut when a feasible but
// unproven-optimal timetable was found before the budget ran out.
type Report struct {
	Status      Status
	Optimal     bool
	Assignments []domain.Assignment
	Families    map[ConstraintFamily]int
	Message     string
}

type Options struct {
	// Budget bounds the whole solve, optimization included. Zero means the
	// caller's context is the only limit.
	Budget time.Duration
	// Priorities lists soft-constraint families to minimize, most
	// important first. Empty disables optimization.
	Priorities []string
	Logger     *zap.Logger
}

// Scheduler owns one solve: a validated model turned into a variable space
// and an encoding, submitted to the injected solving capability and
// decoded back into assignments. Shared inputs stay read-only, so distinct
// Schedulers may run concurrently over the same Model.
type Scheduler struct {
	model    *domain.Model
	grid     *SlotGrid
	space    *VariableSpace
	encoding *Encoding
	solver   sat.Solver

	budget     time.Duration
	priorities []string
	logger     *zap.Logger
	state      State
}

// NewScheduler builds the slot grid, the variable space and the constraint
// encoding. Every pre-solver failure (ConfigurationError,
// InfeasibleModelError, EncodingError) surfaces here, before any external
// call is possible.
func NewScheduler(model *domain.Model, solver sat.Solver, opts Options) (*Scheduler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := model.CheckStaticFeasibility(); err != nil {
		return nil, err
	}

	grid, err := NewSlotGrid(model.Calendar)
	if err != nil {
		return nil, err
	}

	space, err := BuildVariableSpace(model, grid, logger)
	if err != nil {
		return nil, err
	}

	encoding, err := NewEncoder(space, logger).Encode()
	if err != nil {
		return nil, err
	}

	for _, family := range opts.Priorities {
		if _, ok := encoding.Soft[family]; !ok {
			return nil, domain.Configurationf("objective", "unknown soft-constraint family %q", family)
		}
	}

	return &Scheduler{
		model:      model,
		grid:       grid,
		space:      space,
		encoding:   encoding,
		solver:     solver,
		budget:     opts.Budget,
		priorities: opts.Priorities,
		logger:     logger,
		state:      StateBuilt,
	}, nil
}

func (s *Scheduler) State() State {
	return s.state
}

// Grid exposes the generated slot sequence for rendering.
func (s *Scheduler) Grid() *SlotGrid {
	return s.grid
}

// Solve submits the encoding to the solving capability and decodes the
// outcome. The returned error is non-nil only when the capability itself
// failed; infeasibility and budget exhaustion are ordinary Report
// statuses.
func (s *Scheduler) Solve(ctx context.Context) (*Report, error) {
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	s.state = StateSubmitted
	started := time.Now()

	result, err := s.solver.Solve(ctx, s.encoding.Instance)
	if err != nil {
		s.state = StateError
		return s.report(StatusError, nil, false, "solving capability failed: "+err.Error()), err
	}

	switch result.Status {
	case sat.Unsatisfiable:
		s.state = StateInfeasible
		return s.report(StatusInfeasible, nil, false, "no assignment satisfies all hard constraints; see per-family clause counts"), nil
	case sat.Unknown:
		s.state = StateTimedOut
		return s.report(StatusTimedOut, nil, false, "budget exhausted before feasibility could be decided"), nil
	}

	best, optimal, message := s.optimize(ctx, result.Model)

	assignments, err := s.decode(best)
	if err != nil {
		s.state = StateError
		return s.report(StatusError, nil, false, err.Error()), err
	}
	if !VerifyTimetable(s.model, s.grid, assignments) {
		s.state = StateError
		err := domain.Encodingf("decoded timetable violates a hard constraint")
		return s.report(StatusError, nil, false, err.Error()), err
	}

	s.logger.Info("solve finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("assignments", len(assignments)),
		zap.Bool("optimal", optimal))

	if optimal {
		s.state = StateSolved
		return s.report(StatusSolved, assignments, true, message), nil
	}
	s.state = StateTimedOut
	return s.report(StatusTimedOut, assignments, false, message), nil
}

func (s *Scheduler) report(status Status, assignments []domain.Assignment, optimal bool, message string) *Report {
	return &Report{
		Status:      status,
		Optimal:     optimal,
		Assignments: assignments,
		Families:    s.encoding.FamilyClauses,
		Message:     message,
	}
}

// optimize minimizes the configured soft families lexicographically: for
// each family in priority order it lowers an at-most-k bound over the
// family's violation indicators until the capability proves the bound
// tight, then pins that bound and moves on. Any budget exhaustion keeps
// the best feasible model found so far, tagged non-optimal.
func (s *Scheduler) optimize(ctx context.Context, base sat.Model) (best sat.Model, optimal bool, message string) {
	best = base
	if len(s.priorities) == 0 {
		return best, true, ""
	}

	clauses := slices.Clone(s.encoding.Instance.Clauses)
	variables := s.encoding.Instance.Variables

	for _, family := range s.priorities {
		indicators := s.encoding.Soft[family]
		if len(indicators) == 0 {
			continue
		}

		violations := countViolations(best, indicators)
		for violations > 0 {
			trialClauses := slices.Clone(clauses)
			trialVariables := atMostK(&trialClauses, indicators, violations-1, variables+1) - 1

			result, err := s.solver.Solve(ctx, sat.Instance{Variables: trialVariables, Clauses: trialClauses})
			if err != nil {
				s.logger.Warn("solving capability failed during optimization, keeping best feasible timetable",
					zap.String("family", family), zap.Error(err))
				return best, false, "optimization aborted by capability failure on family " + family
			}
			if result.Status == sat.Unknown {
				return best, false, "budget exhausted while minimizing " + family
			}
			if result.Status == sat.Unsatisfiable {
				break
			}
			best = result.Model
			violations = countViolations(best, indicators)
		}

		// Pin the proven bound so later families cannot trade against it.
		variables = atMostK(&clauses, indicators, violations, variables+1) - 1
		s.logger.Debug("soft family minimized",
			zap.String("family", family),
			zap.Int("violations", violations))
	}

	return best, true, ""
}

func countViolations(model sat.Model, indicators []int) int {
	count := 0
	for _, indicator := range indicators {
		if model.Value(indicator) {
			count++
		}
	}
	return count
}

// decode maps every true decision variable to exactly one Assignment.
// Auxiliary counter variables are ignored.
func (s *Scheduler) decode(model sat.Model) ([]domain.Assignment, error) {
	if len(model) < s.encoding.DecisionVariables {
		return nil, domain.Encodingf("model covers %d variables, expected at least %d", len(model), s.encoding.DecisionVariables)
	}

	assignments := make([]domain.Assignment, 0, len(s.model.Sessions))
	for id := 1; id <= s.encoding.DecisionVariables; id++ {
		if !model.Value(id) {
			continue
		}
		variable := s.space.Var(id)
		assignments = append(assignments, domain.Assignment{
			SessionID:   s.model.Sessions[variable.Session].ID,
			ProfessorID: s.model.Professors[variable.Professor].ID,
			RoomID:      s.model.Rooms[variable.Room].ID,
			Pattern:     variable.Pattern,
			Day:         s.grid.Slot(variable.Start).Day,
			StartSlot:   variable.Start,
			Slots:       slices.Clone(variable.Covered),
		})
	}

	slices.SortFunc(assignments, func(a, b domain.Assignment) int {
		if a.Day != b.Day {
			return a.Day - b.Day
		}
		if a.StartSlot != b.StartSlot {
			return a.StartSlot - b.StartSlot
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return assignments, nil
}
