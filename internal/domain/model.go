package domain

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Model is the validated, read-only input of one solve. All slices are
// sorted by identifier so every later stage iterates deterministically.
// A Model is never mutated after construction; reconfiguration means
// building a new one.
type Model struct {
	Calendar   Calendar
	Rooms      []Room
	Professors []Professor
	Groups     []StudentGroup
	Sessions   []Session

	roomIndex      map[string]int
	professorIndex map[string]int
	groupIndex     map[string]int
	sessionIndex   map[string]int
	related        map[[2]string]bool
}

func NewModel(calendar Calendar, rooms []Room, professors []Professor, groups []StudentGroup, sessions []Session) (*Model, error) {
	model := &Model{
		Calendar:   calendar,
		Rooms:      slices.Clone(rooms),
		Professors: slices.Clone(professors),
		Groups:     slices.Clone(groups),
		Sessions:   slices.Clone(sessions),
	}

	slices.SortFunc(model.Rooms, func(a, b Room) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(model.Professors, func(a, b Professor) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(model.Groups, func(a, b StudentGroup) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(model.Sessions, func(a, b Session) int { return strings.Compare(a.ID, b.ID) })

	var err error
	if model.roomIndex, err = indexByID(model.Rooms, "rooms", func(r Room) string { return r.ID }); err != nil {
		return nil, err
	}
	if model.professorIndex, err = indexByID(model.Professors, "professors", func(p Professor) string { return p.ID }); err != nil {
		return nil, err
	}
	if model.groupIndex, err = indexByID(model.Groups, "groups", func(g StudentGroup) string { return g.ID }); err != nil {
		return nil, err
	}
	if model.sessionIndex, err = indexByID(model.Sessions, "sessions", func(s Session) string { return s.ID }); err != nil {
		return nil, err
	}

	if err := model.validate(); err != nil {
		return nil, err
	}
	model.related = model.buildLineage()

	return model, nil
}

func indexByID[T any](items []T, field string, id func(T) string) (map[string]int, error) {
	index := make(map[string]int, len(items))
	for i, item := range items {
		if id(item) == "" {
			return nil, Configurationf(field, "empty identifier at position %d", i)
		}
		if _, ok := index[id(item)]; ok {
			return nil, Configurationf(field, "duplicate identifier %q", id(item))
		}
		index[id(item)] = i
	}
	return index, nil
}

func (m *Model) validate() error {
	for _, room := range m.Rooms {
		if room.Capacity <= 0 {
			return Configurationf("rooms", "room %q must have a positive capacity", room.ID)
		}
	}

	for _, group := range m.Groups {
		if group.Size <= 0 {
			return Configurationf("groups", "group %q must have a positive size", group.ID)
		}
		if group.ParentID == "" {
			continue
		}
		if group.ParentID == group.ID {
			return Configurationf("groups", "group %q is its own parent", group.ID)
		}
		if _, ok := m.groupIndex[group.ParentID]; !ok {
			return Configurationf("groups", "group %q references unknown parent %q", group.ID, group.ParentID)
		}
	}
	if err := m.checkParentCycles(); err != nil {
		return err
	}

	assignedProfessors := make(map[string]bool)
	for _, session := range m.Sessions {
		if session.Duration < 1 {
			return Configurationf("sessions", "session %q must last at least one slot", session.ID)
		}
		if len(session.GroupIDs) == 0 {
			return Configurationf("sessions", "session %q references no group", session.ID)
		}
		for _, groupID := range session.GroupIDs {
			if _, ok := m.groupIndex[groupID]; !ok {
				return Configurationf("sessions", "session %q references unknown group %q", session.ID, groupID)
			}
		}
		if session.ProfessorID != "" {
			i, ok := m.professorIndex[session.ProfessorID]
			if !ok {
				return Configurationf("sessions", "session %q references unknown professor %q", session.ID, session.ProfessorID)
			}
			if !m.Professors[i].Teaches(session.Subject) {
				return Configurationf("sessions", "session %q is assigned to professor %q who does not teach %q", session.ID, session.ProfessorID, session.Subject)
			}
			assignedProfessors[session.ProfessorID] = true
		}
	}

	// A professor holding sessions but no availability can never teach them.
	for _, professor := range m.Professors {
		if assignedProfessors[professor.ID] && len(professor.Availability) == 0 {
			return Configurationf("professors", "professor %q has assigned sessions but an empty availability", professor.ID)
		}
	}

	return nil
}

func (m *Model) checkParentCycles() error {
	for _, group := range m.Groups {
		seen := map[string]bool{group.ID: true}
		current := group.ParentID
		for current != "" {
			if seen[current] {
				return Configurationf("groups", "group %q is part of a parent cycle", group.ID)
			}
			seen[current] = true
			current = m.Groups[m.groupIndex[current]].ParentID
		}
	}
	return nil
}

// buildLineage marks every (group, group) pair where one is an ancestor of
// the other (or they are equal). Sessions of lineage-related groups share
// students and must never overlap; sibling subgroups are disjoint and may
// run in parallel.
func (m *Model) buildLineage() map[[2]string]bool {
	related := make(map[[2]string]bool)
	for _, group := range m.Groups {
		related[[2]string{group.ID, group.ID}] = true
		current := group.ParentID
		for current != "" {
			related[[2]string{group.ID, current}] = true
			related[[2]string{current, group.ID}] = true
			current = m.Groups[m.groupIndex[current]].ParentID
		}
	}
	return related
}

func (m *Model) RoomByID(id string) (Room, bool) {
	i, ok := m.roomIndex[id]
	if !ok {
		return Room{}, false
	}
	return m.Rooms[i], true
}

func (m *Model) ProfessorByID(id string) (Professor, bool) {
	i, ok := m.professorIndex[id]
	if !ok {
		return Professor{}, false
	}
	return m.Professors[i], true
}

func (m *Model) SessionByID(id string) (Session, bool) {
	i, ok := m.sessionIndex[id]
	if !ok {
		return Session{}, false
	}
	return m.Sessions[i], true
}

func (m *Model) GroupsRelated(a, b string) bool {
	return m.related[[2]string{a, b}]
}

// SessionsShareStudents reports whether two sessions involve lineage-related
// groups, in which case their occurrences must never overlap in time.
func (m *Model) SessionsShareStudents(a, b Session) bool {
	for _, ga := range a.GroupIDs {
		for _, gb := range b.GroupIDs {
			if m.GroupsRelated(ga, gb) {
				return true
			}
		}
	}
	return false
}

// SessionSize is the headcount a room must hold for the session.
func (m *Model) SessionSize(session Session) int {
	return lo.SumBy(session.GroupIDs, func(id string) int {
		return m.Groups[m.groupIndex[id]].Size
	})
}

// QualifiedProfessors lists the indices of professors the engine may pick
// for the session: the preassigned one when set, otherwise everyone
// teaching the subject.
func (m *Model) QualifiedProfessors(session Session) []int {
	if session.ProfessorID != "" {
		return []int{m.professorIndex[session.ProfessorID]}
	}
	candidates := make([]int, 0)
	for i, professor := range m.Professors {
		if professor.Teaches(session.Subject) {
			candidates = append(candidates, i)
		}
	}
	return candidates
}

// CompatibleRooms lists the indices of rooms matching the session's type,
// feature and capacity requirements.
func (m *Model) CompatibleRooms(session Session) []int {
	size := m.SessionSize(session)
	candidates := make([]int, 0)
	for i, room := range m.Rooms {
		if room.Type == session.RoomType && room.Capacity >= size && room.HasFeatures(session.RequiredFeatures) {
			candidates = append(candidates, i)
		}
	}
	return candidates
}

// CheckStaticFeasibility rejects sessions that no room or professor can
// ever serve, before any variable is created.
func (m *Model) CheckStaticFeasibility() error {
	for _, session := range m.Sessions {
		if len(m.CompatibleRooms(session)) == 0 {
			return Infeasiblef(session.ID, "no room of type %v with features %v and capacity >= %d exists",
				session.RoomType, session.RequiredFeatures, m.SessionSize(session))
		}

		qualified := m.QualifiedProfessors(session)
		available := lo.Filter(qualified, func(i int, _ int) bool {
			return len(m.Professors[i].Availability) > 0
		})
		if len(available) == 0 {
			if session.ProfessorID != "" && len(qualified) > 0 {
				return Infeasiblef(session.ID, "assigned professor %q has no availability", session.ProfessorID)
			}
			return Infeasiblef(session.ID, "no available professor teaches %q", session.Subject)
		}
	}
	return nil
}
