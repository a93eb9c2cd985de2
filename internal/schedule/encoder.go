package schedule

import (
	"go.uber.org/zap"

	"timetabler/internal/domain"
	"timetabler/internal/sat"
)

type ConstraintFamily string

const (
	FamilyCompleteness      ConstraintFamily = "completeness"
	FamilyUniqueness        ConstraintFamily = "uniqueness"
	FamilyRoomConflict      ConstraintFamily = "room_conflict"
	FamilyProfessorConflict ConstraintFamily = "professor_conflict"
	FamilyGroupConflict     ConstraintFamily = "group_conflict"
	FamilyDailyWorkload     ConstraintFamily = "daily_workload"
	FamilyWeeklyWorkload    ConstraintFamily = "weekly_workload"
)

// Soft-constraint family names the objective configuration may list.
const (
	SoftCapacitySlack = "capacity_slack"
	SoftLateSlot      = "late_slot"
)

// Encoding is the complete constraint set over a variable space. Variables
// 1..DecisionVariables are the decision variables; everything above them is
// sequential-counter bookkeeping and never decoded.
type Encoding struct {
	Instance          sat.Instance
	DecisionVariables int
	FamilyClauses     map[ConstraintFamily]int
	Soft              map[string][]int // soft family -> violation indicator literals
}

type Encoder struct {
	space  *VariableSpace
	logger *zap.Logger
}

func NewEncoder(space *VariableSpace, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{space: space, logger: logger}
}

// Encode walks the variable space and emits every hard constraint family
// plus the soft-violation indicators. Room compatibility, professor
// qualification and availability need no clauses: inadmissible
// combinations were pruned before a variable could exist.
func (e *Encoder) Encode() (*Encoding, error) {
	encoding := &Encoding{
		DecisionVariables: e.space.Count(),
		FamilyClauses:     make(map[ConstraintFamily]int),
		Soft:              e.softIndicators(),
	}

	clauses := make([][]int, 0)
	nextVar := e.space.Count() + 1

	appendFamily := func(family ConstraintFamily, familyClauses [][]int) {
		clauses = append(clauses, familyClauses...)
		encoding.FamilyClauses[family] += len(familyClauses)
	}

	appendFamily(FamilyCompleteness, e.completenessClauses())
	appendFamily(FamilyUniqueness, e.uniquenessClauses())

	roomClauses, professorClauses, groupClauses := e.conflictClauses()
	appendFamily(FamilyRoomConflict, roomClauses)
	appendFamily(FamilyProfessorConflict, professorClauses)
	appendFamily(FamilyGroupConflict, groupClauses)

	before := len(clauses)
	nextVar = e.workloadClauses(&clauses, nextVar, true)
	encoding.FamilyClauses[FamilyDailyWorkload] = len(clauses) - before

	before = len(clauses)
	nextVar = e.workloadClauses(&clauses, nextVar, false)
	encoding.FamilyClauses[FamilyWeeklyWorkload] = len(clauses) - before

	encoding.Instance = sat.Instance{
		Variables: nextVar - 1,
		Clauses:   clauses,
	}

	if err := checkClauses(encoding.Instance); err != nil {
		return nil, err
	}

	for family, count := range encoding.FamilyClauses {
		e.logger.Debug("constraint family encoded",
			zap.String("family", string(family)),
			zap.Int("clauses", count))
	}
	e.logger.Info("constraints encoded",
		zap.Int("variables", encoding.Instance.Variables),
		zap.Int("decision_variables", encoding.DecisionVariables),
		zap.Int("clauses", len(encoding.Instance.Clauses)))

	return encoding, nil
}

// completenessClauses: every session is placed at least once among its
// candidates.
func (e *Encoder) completenessClauses() [][]int {
	clauses := make([][]int, 0, len(e.space.Model.Sessions))
	for sessionIndex := range e.space.Model.Sessions {
		candidates := e.space.SessionVariables(sessionIndex)
		clause := make([]int, len(candidates))
		copy(clause, candidates)
		clauses = append(clauses, clause)
	}
	return clauses
}

// uniquenessClauses: at most one candidate per session, pairwise.
func (e *Encoder) uniquenessClauses() [][]int {
	clauses := make([][]int, 0)
	for sessionIndex := range e.space.Model.Sessions {
		candidates := e.space.SessionVariables(sessionIndex)
		for i := range len(candidates) - 1 {
			for j := i + 1; j < len(candidates); j++ {
				clauses = append(clauses, []int{-candidates[i], -candidates[j]})
			}
		}
	}
	return clauses
}

// conflictClauses forbids double-booking of rooms, professors and student
// groups: for every pair of variables of distinct sessions that cover a
// common slot on colliding week patterns and contend for the same
// resource, at most one may hold.
func (e *Encoder) conflictClauses() (rooms, professors, groups [][]int) {
	bySlot := make([][]int, e.space.Grid.Len())
	for _, variable := range e.space.Variables() {
		for _, slot := range variable.Covered {
			bySlot[slot] = append(bySlot[slot], variable.ID)
		}
	}

	model := e.space.Model
	type pair [2]int
	seenRoom := make(map[pair]bool)
	seenProfessor := make(map[pair]bool)
	seenGroup := make(map[pair]bool)

	for _, bucket := range bySlot {
		for i := range len(bucket) - 1 {
			for j := i + 1; j < len(bucket); j++ {
				a, b := e.space.Var(bucket[i]), e.space.Var(bucket[j])
				if a.Session == b.Session || !a.Pattern.Collides(b.Pattern) {
					continue
				}
				key := pair{a.ID, b.ID}

				if a.Room == b.Room && !seenRoom[key] {
					seenRoom[key] = true
					rooms = append(rooms, []int{-a.ID, -b.ID})
				}
				if a.Professor == b.Professor && !seenProfessor[key] {
					seenProfessor[key] = true
					professors = append(professors, []int{-a.ID, -b.ID})
				}
				if !seenGroup[key] && model.SessionsShareStudents(model.Sessions[a.Session], model.Sessions[b.Session]) {
					seenGroup[key] = true
					groups = append(groups, []int{-a.ID, -b.ID})
				}
			}
		}
	}
	return rooms, professors, groups
}

// workloadClauses caps each professor's taught slot-units per day (daily)
// or per week (weekly), separately for each week parity since biweekly
// sessions consume hours only on their own weeks. Each variable enters the
// counter once per covered slot, which weighs it by its duration.
func (e *Encoder) workloadClauses(clauses *[][]int, nextVar int, daily bool) int {
	model := e.space.Model
	grid := e.space.Grid

	perProfessor := make(map[int][]Variable)
	for _, variable := range e.space.Variables() {
		perProfessor[variable.Professor] = append(perProfessor[variable.Professor], variable)
	}

	for professorIndex, professor := range model.Professors {
		capHours := professor.MaxHoursWeek
		if daily {
			capHours = professor.MaxHoursDay
		}
		if capHours <= 0 {
			continue
		}
		capSlots := grid.HoursToSlots(capHours)

		for _, parity := range []domain.WeekPattern{domain.WeekA, domain.WeekB} {
			days := grid.Days()
			if !daily {
				days = []int{-1}
			}
			for _, day := range days {
				literals := make([]int, 0)
				for _, variable := range perProfessor[professorIndex] {
					if !variable.Pattern.Collides(parity) {
						continue
					}
					for _, slot := range variable.Covered {
						if daily && grid.Slot(slot).Day != day {
							continue
						}
						literals = append(literals, variable.ID)
					}
				}
				nextVar = atMostK(clauses, literals, capSlots, nextVar)
			}
		}
	}
	return nextVar
}

func (e *Encoder) softIndicators() map[string][]int {
	model := e.space.Model
	soft := map[string][]int{
		SoftCapacitySlack: {},
		SoftLateSlot:      {},
	}

	for _, variable := range e.space.Variables() {
		session := model.Sessions[variable.Session]
		room := model.Rooms[variable.Room]
		if room.Capacity >= 2*model.SessionSize(session) {
			soft[SoftCapacitySlack] = append(soft[SoftCapacitySlack], variable.ID)
		}
		for _, slot := range variable.Covered {
			if e.space.Grid.LastOfDay(slot) {
				soft[SoftLateSlot] = append(soft[SoftLateSlot], variable.ID)
				break
			}
		}
	}
	return soft
}

// checkClauses guards the encoder's own output: a literal outside the
// allocated variable range is a construction defect, not a solver concern.
func checkClauses(instance sat.Instance) error {
	for _, clause := range instance.Clauses {
		if len(clause) == 0 {
			return domain.Encodingf("empty clause emitted")
		}
		for _, literal := range clause {
			variable := literal
			if variable < 0 {
				variable = -variable
			}
			if variable == 0 || variable > instance.Variables {
				return domain.Encodingf("literal %d references a variable outside the space of %d", literal, instance.Variables)
			}
		}
	}
	return nil
}
