package schedule

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"timetabler/internal/domain"
)

func cloneClauses(clauses [][]int) [][]int {
	return slices.Clone(clauses)
}

// compactCalendar yields days consecutive hour slots from 08:00, no breaks.
func compactCalendar(days, slotsPerDay int) domain.Calendar {
	calendar := domain.Calendar{SlotMinutes: 60}
	for day := range days {
		calendar.Windows = append(calendar.Windows, domain.Window{
			Day:   day,
			Start: 8 * 60,
			End:   (8 + slotsPerDay) * 60,
		})
	}
	return calendar
}

func availableEverywhere(calendar domain.Calendar) map[domain.SlotRef]bool {
	grid, err := NewSlotGrid(calendar)
	if err != nil {
		panic(err)
	}
	availability := make(map[domain.SlotRef]bool, grid.Len())
	for i := range grid.Len() {
		slot := grid.Slot(i)
		availability[domain.SlotRef{Day: slot.Day, Slot: slot.Index}] = true
	}
	return availability
}

type fixture struct {
	calendar   domain.Calendar
	rooms      []domain.Room
	professors []domain.Professor
	groups     []domain.StudentGroup
	sessions   []domain.Session
}

func (f fixture) build(t *testing.T) *domain.Model {
	t.Helper()
	model, err := domain.NewModel(f.calendar, f.rooms, f.professors, f.groups, f.sessions)
	require.Nil(t, err)
	return model
}

func labProfessor(id, subject string, calendar domain.Calendar) domain.Professor {
	return domain.Professor{
		ID:           id,
		Subjects:     map[string]bool{subject: true},
		Availability: availableEverywhere(calendar),
	}
}
