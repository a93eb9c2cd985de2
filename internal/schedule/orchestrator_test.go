package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetabler/internal/domain"
	"timetabler/internal/sat"
)

func soloPractical(t *testing.T) *domain.Model {
	calendar := compactCalendar(1, 4)
	return fixture{
		calendar: calendar,
		rooms: []domain.Room{
			{ID: "lab-1", Type: domain.RoomLab, Capacity: 30, Features: map[string]bool{"fume_hood": true}},
		},
		professors: []domain.Professor{labProfessor("prof-chen", "chemistry", calendar)},
		groups:     []domain.StudentGroup{{ID: "g1", Size: 25}},
		sessions: []domain.Session{
			{
				ID:               "chem-tp",
				Type:             domain.SessionTP,
				Subject:          "chemistry",
				RoomType:         domain.RoomLab,
				RequiredFeatures: []string{"fume_hood"},
				Duration:         2,
				Frequency:        domain.Weekly,
				GroupIDs:         []string{"g1"},
			},
		},
	}.build(t)
}

func TestSolveSinglePractical(t *testing.T) {
	scheduler, err := NewScheduler(soloPractical(t), sat.NewBruteForceSolver(), Options{})
	require.Nil(t, err)
	assert.Equal(t, StateBuilt, scheduler.State())

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)

	assert.Equal(t, StatusSolved, report.Status)
	assert.True(t, report.Optimal)
	assert.Equal(t, StateSolved, scheduler.State())
	require.Len(t, report.Assignments, 1)

	assignment := report.Assignments[0]
	assert.Equal(t, "chem-tp", assignment.SessionID)
	assert.Equal(t, "prof-chen", assignment.ProfessorID)
	assert.Equal(t, "lab-1", assignment.RoomID)
	assert.Equal(t, domain.EveryWeek, assignment.Pattern)
	assert.Len(t, assignment.Slots, 2)
	assert.True(t, VerifyTimetable(scheduler.model, scheduler.Grid(), report.Assignments))
}

func TestSolveIdempotent(t *testing.T) {
	scheduler, err := NewScheduler(soloPractical(t), sat.NewBruteForceSolver(), Options{})
	require.Nil(t, err)

	first, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	second, err := scheduler.Solve(context.Background())
	require.Nil(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Assignments, second.Assignments)
}

func TestSolveRoomContention(t *testing.T) {
	// Two 2-slot sessions, one room, a 2-slot day: no timetable exists.
	calendar := compactCalendar(1, 2)
	model := fixture{
		calendar: calendar,
		rooms:    []domain.Room{{ID: "td-1", Type: domain.RoomTD, Capacity: 40}},
		professors: []domain.Professor{
			labProfessor("prof-a", "algebra", calendar),
			labProfessor("prof-b", "analysis", calendar),
		},
		groups: []domain.StudentGroup{{ID: "g1", Size: 20}, {ID: "g2", Size: 20}},
		sessions: []domain.Session{
			{ID: "algebra-td", Type: domain.SessionTD, Subject: "algebra", RoomType: domain.RoomTD,
				Duration: 2, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
			{ID: "analysis-td", Type: domain.SessionTD, Subject: "analysis", RoomType: domain.RoomTD,
				Duration: 2, Frequency: domain.Weekly, GroupIDs: []string{"g2"}},
		},
	}.build(t)

	scheduler, err := NewScheduler(model, sat.NewBruteForceSolver(), Options{})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	assert.Equal(t, StatusInfeasible, report.Status)
	assert.Empty(t, report.Assignments)
	assert.Equal(t, StateInfeasible, scheduler.State())
	assert.Positive(t, report.Families[FamilyRoomConflict])
}

func TestSolveBiweeklyPicksOneParity(t *testing.T) {
	calendar := compactCalendar(1, 1)
	model := fixture{
		calendar:   calendar,
		rooms:      []domain.Room{{ID: "td-1", Type: domain.RoomTD, Capacity: 40}},
		professors: []domain.Professor{labProfessor("prof-a", "algebra", calendar)},
		groups:     []domain.StudentGroup{{ID: "g1", Size: 20}},
		sessions: []domain.Session{
			{ID: "algebra-td", Type: domain.SessionTD, Subject: "algebra", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Biweekly, GroupIDs: []string{"g1"}},
		},
	}.build(t)

	scheduler, err := NewScheduler(model, sat.NewBruteForceSolver(), Options{})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	assert.Equal(t, StatusSolved, report.Status)
	require.Len(t, report.Assignments, 1)

	// One decision carries slot, room and parity at once, so the two
	// occurrences of the fortnight share them by construction.
	assignment := report.Assignments[0]
	assert.Contains(t, []domain.WeekPattern{domain.WeekA, domain.WeekB}, assignment.Pattern)
}

func TestSolveOppositeParitiesShareRoom(t *testing.T) {
	// Two biweekly sessions fit a single slot by landing on opposite weeks,
	// while a weekly session in their place would collide with either.
	calendar := compactCalendar(1, 1)
	base := fixture{
		calendar: calendar,
		rooms:    []domain.Room{{ID: "td-1", Type: domain.RoomTD, Capacity: 40}},
		professors: []domain.Professor{
			labProfessor("prof-a", "algebra", calendar),
			labProfessor("prof-b", "analysis", calendar),
		},
		groups: []domain.StudentGroup{{ID: "g1", Size: 20}, {ID: "g2", Size: 20}},
	}

	t.Run("both biweekly", func(t *testing.T) {
		scenario := base
		scenario.sessions = []domain.Session{
			{ID: "algebra-td", Type: domain.SessionTD, Subject: "algebra", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Biweekly, GroupIDs: []string{"g1"}},
			{ID: "analysis-td", Type: domain.SessionTD, Subject: "analysis", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Biweekly, GroupIDs: []string{"g2"}},
		}

		scheduler, err := NewScheduler(scenario.build(t), sat.NewBruteForceSolver(), Options{})
		require.Nil(t, err)

		report, err := scheduler.Solve(context.Background())
		require.Nil(t, err)
		require.Equal(t, StatusSolved, report.Status)
		require.Len(t, report.Assignments, 2)
		assert.NotEqual(t, report.Assignments[0].Pattern, report.Assignments[1].Pattern)
	})

	t.Run("weekly blocks the slot", func(t *testing.T) {
		scenario := base
		scenario.sessions = []domain.Session{
			{ID: "algebra-td", Type: domain.SessionTD, Subject: "algebra", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
			{ID: "analysis-td", Type: domain.SessionTD, Subject: "analysis", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Biweekly, GroupIDs: []string{"g2"}},
		}

		scheduler, err := NewScheduler(scenario.build(t), sat.NewBruteForceSolver(), Options{})
		require.Nil(t, err)

		report, err := scheduler.Solve(context.Background())
		require.Nil(t, err)
		assert.Equal(t, StatusInfeasible, report.Status)
	})
}

func TestSolveDailyWorkloadSpread(t *testing.T) {
	// A one-hour daily cap forces the professor's two lectures onto
	// different days even though one day could hold both.
	calendar := compactCalendar(2, 2)
	professor := labProfessor("prof-a", "algebra", calendar)
	professor.MaxHoursDay = 1

	model := fixture{
		calendar:   calendar,
		rooms:      []domain.Room{{ID: "amphi-1", Type: domain.RoomAmphi, Capacity: 100}},
		professors: []domain.Professor{professor},
		groups:     []domain.StudentGroup{{ID: "g1", Size: 20}, {ID: "g2", Size: 20}},
		sessions: []domain.Session{
			{ID: "algebra-c1", Type: domain.SessionCourse, Subject: "algebra", RoomType: domain.RoomAmphi,
				Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
			{ID: "algebra-c2", Type: domain.SessionCourse, Subject: "algebra", RoomType: domain.RoomAmphi,
				Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g2"}},
		},
	}.build(t)

	scheduler, err := NewScheduler(model, sat.NewBruteForceSolver(), Options{})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	require.Equal(t, StatusSolved, report.Status)
	require.Len(t, report.Assignments, 2)
	assert.NotEqual(t, report.Assignments[0].Day, report.Assignments[1].Day)
}

func TestSolveMinimizesCapacitySlack(t *testing.T) {
	// Both rooms are admissible; the objective steers away from the one
	// holding more than twice the cohort.
	calendar := compactCalendar(1, 2)
	model := fixture{
		calendar: calendar,
		rooms: []domain.Room{
			{ID: "td-big", Type: domain.RoomTD, Capacity: 100},
			{ID: "td-small", Type: domain.RoomTD, Capacity: 30},
		},
		professors: []domain.Professor{labProfessor("prof-a", "algebra", calendar)},
		groups:     []domain.StudentGroup{{ID: "g1", Size: 25}},
		sessions: []domain.Session{
			{ID: "algebra-td", Type: domain.SessionTD, Subject: "algebra", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
		},
	}.build(t)

	scheduler, err := NewScheduler(model, sat.NewBruteForceSolver(), Options{
		Priorities: []string{SoftCapacitySlack},
	})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	require.Equal(t, StatusSolved, report.Status)
	assert.True(t, report.Optimal)
	require.Len(t, report.Assignments, 1)
	assert.Equal(t, "td-small", report.Assignments[0].RoomID)
}

func TestSolveMinimizesLateSlots(t *testing.T) {
	calendar := compactCalendar(1, 3)
	model := fixture{
		calendar:   calendar,
		rooms:      []domain.Room{{ID: "td-1", Type: domain.RoomTD, Capacity: 40}},
		professors: []domain.Professor{labProfessor("prof-a", "algebra", calendar)},
		groups:     []domain.StudentGroup{{ID: "g1", Size: 20}},
		sessions: []domain.Session{
			{ID: "algebra-td", Type: domain.SessionTD, Subject: "algebra", RoomType: domain.RoomTD,
				Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
		},
	}.build(t)

	scheduler, err := NewScheduler(model, sat.NewBruteForceSolver(), Options{
		Priorities: []string{SoftLateSlot},
	})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	require.Equal(t, StatusSolved, report.Status)
	require.Len(t, report.Assignments, 1)
	assert.False(t, scheduler.Grid().LastOfDay(report.Assignments[0].StartSlot))
}

func TestNewSchedulerRejectsUnknownPriority(t *testing.T) {
	_, err := NewScheduler(soloPractical(t), sat.NewBruteForceSolver(), Options{
		Priorities: []string{"corner_office"},
	})
	var configurationError *domain.ConfigurationError
	assert.ErrorAs(t, err, &configurationError)
}

func TestNewSchedulerStaticInfeasibility(t *testing.T) {
	calendar := compactCalendar(1, 2)
	model := fixture{
		calendar:   calendar,
		rooms:      []domain.Room{{ID: "td-1", Type: domain.RoomTD, Capacity: 40}},
		professors: []domain.Professor{labProfessor("prof-a", "algebra", calendar)},
		groups:     []domain.StudentGroup{{ID: "g1", Size: 20}},
		sessions: []domain.Session{
			{ID: "chem-tp", Type: domain.SessionTP, Subject: "algebra", RoomType: domain.RoomLab,
				Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
		},
	}.build(t)

	_, err := NewScheduler(model, sat.NewBruteForceSolver(), Options{})
	var infeasible *domain.InfeasibleModelError
	require.ErrorAs(t, err, &infeasible)
	assert.Equal(t, "chem-tp", infeasible.SessionID)
}

type stubSolver struct {
	result sat.Result
	err    error
}

func (s stubSolver) Solve(context.Context, sat.Instance) (sat.Result, error) {
	return s.result, s.err
}

func TestSolveCapabilityFailure(t *testing.T) {
	scheduler, err := NewScheduler(soloPractical(t), stubSolver{err: errors.New("binary not found")}, Options{})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	assert.NotNil(t, err)
	assert.Equal(t, StatusError, report.Status)
	assert.Equal(t, StateError, scheduler.State())
}

// flakySolver answers the first call through its delegate and degrades on
// every later one, either with a capability error or an Unknown outcome.
type flakySolver struct {
	delegate sat.Solver
	failure  error
	calls    int
}

func (s *flakySolver) Solve(ctx context.Context, instance sat.Instance) (sat.Result, error) {
	s.calls++
	if s.calls == 1 {
		return s.delegate.Solve(ctx, instance)
	}
	if s.failure != nil {
		return sat.Result{}, s.failure
	}
	return sat.Result{Status: sat.Unknown}, nil
}

func TestSolveKeepsBestTimetableWhenOptimizationDegrades(t *testing.T) {
	// The only room holds four times the cohort, so every candidate
	// violates the capacity objective and minimizing it needs a second
	// solver call.
	buildModel := func() *domain.Model {
		calendar := compactCalendar(1, 2)
		return fixture{
			calendar:   calendar,
			rooms:      []domain.Room{{ID: "amphi-1", Type: domain.RoomAmphi, Capacity: 100}},
			professors: []domain.Professor{labProfessor("prof-a", "algebra", calendar)},
			groups:     []domain.StudentGroup{{ID: "g1", Size: 25}},
			sessions: []domain.Session{
				{ID: "algebra-course", Type: domain.SessionCourse, Subject: "algebra", RoomType: domain.RoomAmphi,
					Duration: 1, Frequency: domain.Weekly, GroupIDs: []string{"g1"}},
			},
		}.build(t)
	}

	scenarios := map[string]*flakySolver{
		"budget exhausted mid-optimization": {delegate: sat.NewBruteForceSolver()},
		"capability failure mid-optimization": {
			delegate: sat.NewBruteForceSolver(),
			failure:  errors.New("binary vanished"),
		},
	}

	for name, solver := range scenarios {
		t.Run(name, func(t *testing.T) {
			model := buildModel()
			scheduler, err := NewScheduler(model, solver, Options{
				Priorities: []string{SoftCapacitySlack},
			})
			require.Nil(t, err)

			report, err := scheduler.Solve(context.Background())
			require.Nil(t, err)
			assert.Greater(t, solver.calls, 1)

			assert.Equal(t, StatusTimedOut, report.Status)
			assert.False(t, report.Optimal)
			assert.Equal(t, StateTimedOut, scheduler.State())
			require.Len(t, report.Assignments, 1)
			assert.True(t, VerifyTimetable(model, scheduler.Grid(), report.Assignments))
		})
	}
}

func TestSolveBudgetExhausted(t *testing.T) {
	scheduler, err := NewScheduler(soloPractical(t), stubSolver{result: sat.Result{Status: sat.Unknown}}, Options{})
	require.Nil(t, err)

	report, err := scheduler.Solve(context.Background())
	require.Nil(t, err)
	assert.Equal(t, StatusTimedOut, report.Status)
	assert.False(t, report.Optimal)
	assert.Empty(t, report.Assignments)
	assert.Equal(t, StateTimedOut, scheduler.State())
}
