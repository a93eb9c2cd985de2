package schedule

import (
	"slices"

	"github.com/samber/lo"

	"timetabler/internal/domain"
)

// SlotGrid is the ordered, finite sequence of schedulable time slots
// derived from the calendar: working windows tiled into uniform slots,
// minus breaks. Slots are ordered by day then start, and the ordering is
// stable across runs because the calendar is the only input.
type SlotGrid struct {
	SlotMinutes int

	slots []domain.TimeSlot
	byDay map[int][]int
	days  []int
	runs  int
}

func NewSlotGrid(calendar domain.Calendar) (*SlotGrid, error) {
	if calendar.SlotMinutes <= 0 {
		return nil, domain.Configurationf("working_hours", "slot_minutes must be positive, got %d", calendar.SlotMinutes)
	}
	if len(calendar.Windows) == 0 {
		return nil, domain.Configurationf("working_hours", "no working windows configured")
	}

	for _, window := range calendar.Windows {
		if window.Day < 0 {
			return nil, domain.Configurationf("working_hours", "window on negative day %d", window.Day)
		}
		if window.End <= window.Start {
			return nil, domain.Configurationf("working_hours", "window on day %d ends (%d) before it starts (%d)", window.Day, window.End, window.Start)
		}
	}
	for _, interval := range calendar.Breaks {
		if interval.End <= interval.Start {
			return nil, domain.Configurationf("breaks", "break on day %d has a negative or empty length", interval.Day)
		}
	}

	grid := &SlotGrid{
		SlotMinutes: calendar.SlotMinutes,
		byDay:       make(map[int][]int),
	}

	windowsPerDay := lo.GroupBy(calendar.Windows, func(w domain.Window) int { return w.Day })
	grid.days = lo.Keys(windowsPerDay)
	slices.Sort(grid.days)

	for _, day := range grid.days {
		windows := windowsPerDay[day]
		slices.SortFunc(windows, func(a, b domain.Window) int { return a.Start - b.Start })
		for i := 1; i < len(windows); i++ {
			if windows[i].Start < windows[i-1].End {
				return nil, domain.Configurationf("working_hours", "overlapping windows on day %d", day)
			}
		}

		dayBreaks, err := breaksForDay(calendar.Breaks, day)
		if err != nil {
			return nil, err
		}

		for _, window := range windows {
			for _, interval := range carve(window, dayBreaks) {
				grid.tile(day, interval)
			}
		}
	}

	return grid, nil
}

func breaksForDay(breaks []domain.Break, day int) ([]domain.Break, error) {
	applicable := lo.Filter(breaks, func(b domain.Break, _ int) bool {
		return b.Day == day || b.Day == -1
	})
	slices.SortFunc(applicable, func(a, b domain.Break) int { return a.Start - b.Start })
	for i := 1; i < len(applicable); i++ {
		if applicable[i].Start < applicable[i-1].End {
			return nil, domain.Configurationf("breaks", "overlapping breaks on day %d produce a negative-length interval", day)
		}
	}
	return applicable, nil
}

// carve subtracts the (sorted, non-overlapping) breaks from the window and
// returns the remaining sub-intervals as [start, end) minute pairs.
func carve(window domain.Window, breaks []domain.Break) [][2]int {
	intervals := make([][2]int, 0, len(breaks)+1)
	start := window.Start
	for _, interval := range breaks {
		if interval.End <= start || interval.Start >= window.End {
			continue
		}
		if interval.Start > start {
			intervals = append(intervals, [2]int{start, interval.Start})
		}
		start = max(start, interval.End)
	}
	if start < window.End {
		intervals = append(intervals, [2]int{start, window.End})
	}
	return intervals
}

// tile fills one contiguous interval with uniform slots; a remainder
// shorter than a slot is dropped.
func (grid *SlotGrid) tile(day int, interval [2]int) {
	added := false
	for start := interval[0]; start+grid.SlotMinutes <= interval[1]; start += grid.SlotMinutes {
		index := len(grid.byDay[day])
		grid.byDay[day] = append(grid.byDay[day], len(grid.slots))
		grid.slots = append(grid.slots, domain.TimeSlot{
			Day:      day,
			Index:    index,
			Start:    start,
			Duration: grid.SlotMinutes,
			Run:      grid.runs,
		})
		added = true
	}
	if added {
		grid.runs++
	}
}

func (grid *SlotGrid) Len() int {
	return len(grid.slots)
}

func (grid *SlotGrid) Slot(i int) domain.TimeSlot {
	return grid.slots[i]
}

func (grid *SlotGrid) Days() []int {
	return grid.days
}

// DaySlots returns the indices of the slots of one day, in start order.
func (grid *SlotGrid) DaySlots(day int) []int {
	return grid.byDay[day]
}

// Consecutive returns the n slot indices starting at start when they sit in
// the same contiguous run, i.e. a session of n slot-units fits there
// without spanning a break or a day boundary.
func (grid *SlotGrid) Consecutive(start, n int) ([]int, bool) {
	if start < 0 || start+n > len(grid.slots) {
		return nil, false
	}
	run := grid.slots[start].Run
	covered := make([]int, n)
	for i := range n {
		if grid.slots[start+i].Run != run {
			return nil, false
		}
		covered[i] = start + i
	}
	return covered, true
}

// LongestRun is the slot count of the longest contiguous run.
func (grid *SlotGrid) LongestRun() int {
	counts := make(map[int]int)
	longest := 0
	for _, slot := range grid.slots {
		counts[slot.Run]++
		longest = max(longest, counts[slot.Run])
	}
	return longest
}

// LastOfDay reports whether slot i is the final slot of its day.
func (grid *SlotGrid) LastOfDay(i int) bool {
	daySlots := grid.byDay[grid.slots[i].Day]
	return daySlots[len(daySlots)-1] == i
}

// HoursToSlots converts an hour budget to whole slot units, rounding down.
func (grid *SlotGrid) HoursToSlots(hours int) int {
	return hours * 60 / grid.SlotMinutes
}
