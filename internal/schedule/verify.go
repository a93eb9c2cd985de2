package schedule

import (
	"slices"

	"timetabler/internal/domain"
)

// VerifyTimetable re-checks every hard constraint on a decoded timetable.
// It is deliberately independent from the encoder: the decoder's output is
// only trusted after this walk accepts it.
func VerifyTimetable(model *domain.Model, grid *SlotGrid, assignments []domain.Assignment) bool {
	occurrences := make(map[string]int)

	type occupancy struct {
		slot   int
		parity domain.WeekPattern
	}
	roomBusy := make(map[string]map[occupancy]bool)
	professorBusy := make(map[string]map[occupancy]bool)
	groupsPresent := make(map[occupancy]map[string]bool)

	type workloadKey struct {
		professor string
		day       int
		parity    domain.WeekPattern
	}
	dailyLoad := make(map[workloadKey]int)
	weeklyLoad := make(map[workloadKey]int)

	for _, assignment := range assignments {
		session, ok := model.SessionByID(assignment.SessionID)
		if !ok {
			return false
		}
		occurrences[session.ID]++

		room, ok := model.RoomByID(assignment.RoomID)
		if !ok || room.Type != session.RoomType || !room.HasFeatures(session.RequiredFeatures) || room.Capacity < model.SessionSize(session) {
			return false
		}

		professor, ok := model.ProfessorByID(assignment.ProfessorID)
		if !ok || !professor.Teaches(session.Subject) {
			return false
		}
		if session.ProfessorID != "" && session.ProfessorID != assignment.ProfessorID {
			return false
		}

		if !slices.Contains(session.Frequency.Patterns(), assignment.Pattern) {
			return false
		}

		covered, ok := grid.Consecutive(assignment.StartSlot, session.Duration)
		if !ok || !slices.Equal(covered, assignment.Slots) || grid.Slot(assignment.StartSlot).Day != assignment.Day {
			return false
		}

		for _, parity := range parities(assignment.Pattern) {
			for _, slot := range covered {
				at := grid.Slot(slot)
				if !professor.AvailableAt(at.Day, at.Index) {
					return false
				}

				key := occupancy{slot: slot, parity: parity}
				if roomBusy[room.ID] == nil {
					roomBusy[room.ID] = make(map[occupancy]bool)
				}
				if roomBusy[room.ID][key] {
					return false
				}
				roomBusy[room.ID][key] = true

				if professorBusy[professor.ID] == nil {
					professorBusy[professor.ID] = make(map[occupancy]bool)
				}
				if professorBusy[professor.ID][key] {
					return false
				}
				professorBusy[professor.ID][key] = true

				if groupsPresent[key] == nil {
					groupsPresent[key] = make(map[string]bool)
				}
				for _, groupID := range session.GroupIDs {
					for present := range groupsPresent[key] {
						if model.GroupsRelated(groupID, present) {
							return false
						}
					}
				}
				for _, groupID := range session.GroupIDs {
					groupsPresent[key][groupID] = true
				}

				dailyLoad[workloadKey{professor.ID, at.Day, parity}]++
				weeklyLoad[workloadKey{professor.ID, -1, parity}]++
			}
		}
	}

	// Every session appears exactly once; its single decision variable
	// carries all alternating-week occurrences.
	for _, session := range model.Sessions {
		if occurrences[session.ID] != 1 {
			return false
		}
	}

	for key, load := range dailyLoad {
		professor, _ := model.ProfessorByID(key.professor)
		if professor.MaxHoursDay > 0 && load > grid.HoursToSlots(professor.MaxHoursDay) {
			return false
		}
	}
	for key, load := range weeklyLoad {
		professor, _ := model.ProfessorByID(key.professor)
		if professor.MaxHoursWeek > 0 && load > grid.HoursToSlots(professor.MaxHoursWeek) {
			return false
		}
	}

	return true
}

func parities(pattern domain.WeekPattern) []domain.WeekPattern {
	if pattern == domain.EveryWeek {
		return []domain.WeekPattern{domain.WeekA, domain.WeekB}
	}
	return []domain.WeekPattern{pattern}
}
