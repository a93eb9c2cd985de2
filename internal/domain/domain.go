package domain

import "fmt"

type RoomType string

const (
	RoomAmphi RoomType = "amphi"
	RoomTD    RoomType = "td_room"
	RoomLab   RoomType = "lab"
)

func ParseRoomType(s string) (RoomType, error) {
	switch RoomType(s) {
	case RoomAmphi, RoomTD, RoomLab:
		return RoomType(s), nil
	}
	return "", fmt.Errorf("unknown room type %q", s)
}

type SessionType string

const (
	SessionCourse SessionType = "course"
	SessionTD     SessionType = "td"
	SessionTP     SessionType = "tp"
)

func ParseSessionType(s string) (SessionType, error) {
	switch SessionType(s) {
	case SessionCourse, SessionTD, SessionTP:
		return SessionType(s), nil
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// WeekPattern places a session occurrence on the alternating-week grid.
// EveryWeek occupies both parities; WeekA and WeekB occupy one each.
type WeekPattern uint8

const (
	EveryWeek WeekPattern = iota
	WeekA
	WeekB
)

func (p WeekPattern) String() string {
	switch p {
	case WeekA:
		return "week_a"
	case WeekB:
		return "week_b"
	default:
		return "weekly"
	}
}

// Collides reports whether two patterns ever occupy the same week.
func (p WeekPattern) Collides(other WeekPattern) bool {
	return p == other || p == EveryWeek || other == EveryWeek
}

type Frequency string

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	BiweeklyA Frequency = "biweekly_a"
	BiweeklyB Frequency = "biweekly_b"
)

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Weekly, Biweekly, BiweeklyA, BiweeklyB:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// Patterns lists the week patterns a session of this frequency may occupy.
// A plain biweekly session leaves the parity choice to the engine.
func (f Frequency) Patterns() []WeekPattern {
	switch f {
	case Biweekly:
		return []WeekPattern{WeekA, WeekB}
	case BiweeklyA:
		return []WeekPattern{WeekA}
	case BiweeklyB:
		return []WeekPattern{WeekB}
	default:
		return []WeekPattern{EveryWeek}
	}
}

type Room struct {
	ID       string
	Type     RoomType
	Capacity int
	Features map[string]bool
}

func (r Room) HasFeatures(required []string) bool {
	for _, feature := range required {
		if !r.Features[feature] {
			return false
		}
	}
	return true
}

// SlotRef addresses one generated time slot by day and position within
// that day. Professor availability is a set of these.
type SlotRef struct {
	Day  int
	Slot int
}

type Professor struct {
	ID           string
	Subjects     map[string]bool
	Availability map[SlotRef]bool
	MaxHoursDay  int
	MaxHoursWeek int
}

func (p Professor) Teaches(subject string) bool {
	return p.Subjects[subject]
}

func (p Professor) AvailableAt(day, slot int) bool {
	return p.Availability[SlotRef{Day: day, Slot: slot}]
}

// StudentGroup is a schedulable unit of students. TD/TP subgroups
// reference their parent by id; the lineage is resolved at model
// construction, never duplicated onto the subgroup.
type StudentGroup struct {
	ID       string
	Size     int
	ParentID string
}

// Session is immutable solve input. Its assignment (slot, room, professor,
// parity) is the engine's output and lives in Assignment, so the same
// definition can be re-solved.
type Session struct {
	ID               string
	Type             SessionType
	Subject          string
	RoomType         RoomType
	RequiredFeatures []string
	Duration         int // in slot units
	Frequency        Frequency
	ProfessorID      string // optional preassignment; empty lets the engine decide
	GroupIDs         []string
	Priority         int
}

// TimeSlot is derived from the calendar, immutable after generation and
// referenced by index everywhere else.
type TimeSlot struct {
	Day      int
	Index    int // position within the day
	Start    int // minutes from midnight
	Duration int // minutes
	Run      int // contiguous-run id; a multi-slot session must stay inside one run
}

func (s TimeSlot) End() int {
	return s.Start + s.Duration
}

type Window struct {
	Day   int
	Start int // minutes from midnight
	End   int
}

type Break struct {
	Day   int // -1 applies to every day
	Start int
	End   int
}

type Calendar struct {
	SlotMinutes int
	Windows     []Window
	Breaks      []Break
}

// Assignment is the unit the engine decides: one session occurrence placed
// on the week grid. Produced only by the solve orchestrator.
type Assignment struct {
	SessionID   string
	ProfessorID string
	RoomID      string
	Pattern     WeekPattern
	Day         int
	StartSlot   int   // index into the generated slot sequence
	Slots       []int // covered slot indices, ordered
}
