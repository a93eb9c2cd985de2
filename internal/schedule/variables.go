package schedule

import (
	"strings"

	"go.uber.org/zap"

	"timetabler/internal/domain"
)

// Variable is one boolean decision: "this session occupies these slots in
// this room, taught by this professor, on these weeks". IDs are allocated
// densely in deterministic order, so the space stays proportional to the
// statically feasible combinations instead of the full cross product.
type Variable struct {
	ID        int // 1-based SAT variable
	Session   int // index into Model.Sessions
	Room      int
	Professor int
	Pattern   domain.WeekPattern
	Start     int   // first covered slot index
	Covered   []int // covered slot indices, ordered
}

type VariableSpace struct {
	Model *domain.Model
	Grid  *SlotGrid

	vars       []Variable
	perSession [][]int // session index -> variable IDs
}

// BuildVariableSpace enumerates every admissible (session, slots, room,
// professor, parity) tuple. Static pruning here is what keeps the later
// constraint encoding tractable: a combination rejected now produces no
// variable and therefore no clause.
func BuildVariableSpace(model *domain.Model, grid *SlotGrid, logger *zap.Logger) (*VariableSpace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	space := &VariableSpace{
		Model:      model,
		Grid:       grid,
		perSession: make([][]int, len(model.Sessions)),
	}

	for sessionIndex, session := range model.Sessions {
		rooms := model.CompatibleRooms(session)
		professors := model.QualifiedProfessors(session)
		patterns := session.Frequency.Patterns()

		pruned := prunedCounters{}
		for start := 0; start < grid.Len(); start++ {
			covered, ok := grid.Consecutive(start, session.Duration)
			if !ok {
				pruned.window++
				continue
			}
			for _, room := range rooms {
				for _, professor := range professors {
					if !availableOn(model.Professors[professor], grid, covered) {
						pruned.availability++
						continue
					}
					for _, pattern := range patterns {
						space.vars = append(space.vars, Variable{
							ID:        len(space.vars) + 1,
							Session:   sessionIndex,
							Room:      room,
							Professor: professor,
							Pattern:   pattern,
							Start:     start,
							Covered:   covered,
						})
						space.perSession[sessionIndex] = append(space.perSession[sessionIndex], len(space.vars))
					}
				}
			}
		}

		if len(space.perSession[sessionIndex]) == 0 {
			return nil, domain.Infeasiblef(session.ID, "no candidate placement: %v", pruned.explain(len(rooms), len(professors)))
		}

		logger.Debug("session candidates",
			zap.String("session", session.ID),
			zap.Int("variables", len(space.perSession[sessionIndex])),
			zap.Int("rooms", len(rooms)),
			zap.Int("professors", len(professors)))
	}

	logger.Info("variable space built",
		zap.Int("sessions", len(model.Sessions)),
		zap.Int("variables", len(space.vars)))

	return space, nil
}

func availableOn(professor domain.Professor, grid *SlotGrid, covered []int) bool {
	for _, i := range covered {
		slot := grid.Slot(i)
		if !professor.AvailableAt(slot.Day, slot.Index) {
			return false
		}
	}
	return true
}

type prunedCounters struct {
	window       int
	availability int
}

func (p prunedCounters) explain(rooms, professors int) string {
	reasons := make([]string, 0, 3)
	if rooms == 0 {
		reasons = append(reasons, "no compatible room")
	}
	if professors == 0 {
		reasons = append(reasons, "no qualified professor")
	}
	if p.window > 0 && len(reasons) == 0 {
		reasons = append(reasons, "duration exceeds every contiguous slot window")
	}
	if p.availability > 0 {
		reasons = append(reasons, "professor unavailable on every fitting slot range")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "empty slot grid")
	}
	return strings.Join(reasons, "; ")
}

// Count is the number of decision variables.
func (space *VariableSpace) Count() int {
	return len(space.vars)
}

func (space *VariableSpace) Var(id int) Variable {
	return space.vars[id-1]
}

// SessionVariables returns the candidate variable IDs of one session.
func (space *VariableSpace) SessionVariables(sessionIndex int) []int {
	return space.perSession[sessionIndex]
}

// Variables iterates over all variables in ID order.
func (space *VariableSpace) Variables() []Variable {
	return space.vars
}
