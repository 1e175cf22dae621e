package itinerary

import (
	"fmt"
	"sort"

	"github.com/itinerary-planner/backend/internal/timeline"
)

// Window is the clock range within which events may be scheduled on any day.
type Window struct {
	Start timeline.Clock
	End   timeline.Clock
}

// WindowOf returns the daily window of a grid.
func WindowOf(g timeline.Grid) Window {
	return Window{Start: g.WindowStart(), End: g.WindowEnd()}
}

// Contains reports whether [start, end) is a non-empty range inside the window.
func (w Window) Contains(start, end timeline.Clock) bool {
	return start >= w.Start && end <= w.End && start < end
}

// Patch lists the event fields a manual edit may change. Nil fields are kept.
type Patch struct {
	Day   *int
	Start *timeline.Clock
	End   *timeline.Clock
}

// Model is the canonical event collection of one itinerary.
//
// Model is not safe for concurrent use; the owning session serialises access.
type Model struct {
	window    Window
	totalDays int
	events    []Event
	index     map[string]int
}

// NewModel creates an empty model for the given daily window.
func NewModel(window Window) *Model {
	return &Model{
		window: window,
		index:  make(map[string]int),
	}
}

// Window returns the daily window.
func (m *Model) Window() Window { return m.window }

// TotalDays returns the number of days in the current schedule.
func (m *Model) TotalDays() int { return m.totalDays }

// Len returns the number of stored events.
func (m *Model) Len() int { return len(m.events) }

// All returns a copy of every event in stored order.
func (m *Model) All() []Event {
	out := make([]Event, len(m.events))
	for i, e := range m.events {
		out[i] = e.Clone()
	}
	return out
}

// Get returns a copy of one event.
func (m *Model) Get(id string) (Event, error) {
	i, ok := m.index[id]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.events[i].Clone(), nil
}

// ByDay returns the events of one day ordered by start time. Visits sort
// before a transit leg starting at the same minute.
func (m *Model) ByDay(day int) []Event {
	var out []Event
	for _, e := range m.events {
		if e.Day == day {
			out = append(out, e.Clone())
		}
	}
	sortByStart(out)
	return out
}

// Days returns ByDay for every day of the trip.
func (m *Model) Days() [][]Event {
	days := make([][]Event, m.totalDays)
	for d := range days {
		days[d] = m.ByDay(d)
	}
	return days
}

// Places returns the distinct places visited, in first-seen order.
func (m *Model) Places() []Place {
	seen := make(map[string]bool)
	var out []Place
	for _, e := range m.events {
		if e.Place == nil || e.IsTransit() {
			continue
		}
		key := e.Place.ID
		if key == "" {
			key = e.Place.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, *e.Clone().Place)
	}
	return out
}

// ReplaceAll swaps the whole collection for events spread over totalDays.
// The batch is validated first; on any error nothing is changed.
//
// Events may end past the daily window: the optimizer reports such days
// through its schedule status rather than by omitting them.
func (m *Model) ReplaceAll(events []Event, totalDays int) error {
	if totalDays < 0 {
		return fmt.Errorf("%w: negative day count %d", ErrInvalidSchedule, totalDays)
	}

	next := make([]Event, len(events))
	index := make(map[string]int, len(events))
	for i, e := range events {
		if e.ID == "" {
			return fmt.Errorf("%w: event %d has no id", ErrInvalidSchedule, i)
		}
		if _, dup := index[e.ID]; dup {
			return fmt.Errorf("%w: duplicate event id %s", ErrInvalidSchedule, e.ID)
		}
		if err := checkShape(e, totalDays); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		next[i] = e.Clone()
		index[e.ID] = i
	}

	for i := range next {
		if next[i].IsTransit() {
			continue
		}
		for j := i + 1; j < len(next); j++ {
			if next[j].IsTransit() {
				continue
			}
			if next[i].Overlaps(next[j]) {
				return fmt.Errorf("%w: %w", ErrInvalidSchedule,
					&OverlapError{EventID: next[j].ID, ConflictingID: next[i].ID, Day: next[i].Day})
			}
		}
	}

	m.events = next
	m.index = index
	m.totalDays = totalDays
	return nil
}

// Update applies a patch to one event. It fails with ErrNotFound,
// ErrOutOfBounds or ErrOverlap and leaves the model unchanged on error.
func (m *Model) Update(id string, patch Patch) (Event, error) {
	i, ok := m.index[id]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	candidate := m.events[i]
	if patch.Day != nil {
		candidate.Day = *patch.Day
	}
	if patch.Start != nil {
		candidate.Start = *patch.Start
	}
	if patch.End != nil {
		candidate.End = *patch.End
	}

	if candidate.Day < 0 || candidate.Day >= m.totalDays {
		return Event{}, fmt.Errorf("%w: day %d not in [0,%d)", ErrOutOfBounds, candidate.Day, m.totalDays)
	}
	if !m.window.Contains(candidate.Start, candidate.End) {
		return Event{}, fmt.Errorf("%w: %s-%s not within %s-%s", ErrOutOfBounds,
			candidate.Start, candidate.End, m.window.Start, m.window.End)
	}
	if err := m.checkOverlap(candidate); err != nil {
		return Event{}, err
	}

	m.events[i] = candidate
	return candidate.Clone(), nil
}

// MoveToDay moves an event to another day, keeping its times.
func (m *Model) MoveToDay(id string, day int) (Event, error) {
	current, err := m.Get(id)
	if err != nil {
		return Event{}, err
	}
	moved, err := m.Update(id, Patch{Day: &day})
	if err != nil {
		return Event{}, err
	}
	// The source day only lost an event, so a conflict there means the
	// model was already inconsistent.
	if err := m.checkDay(current.Day); err != nil {
		return Event{}, err
	}
	return moved, nil
}

// checkOverlap reports a collision between candidate and any other visit on its day.
func (m *Model) checkOverlap(candidate Event) error {
	if candidate.IsTransit() {
		return nil
	}
	for _, other := range m.events {
		if other.ID == candidate.ID || other.IsTransit() {
			continue
		}
		if candidate.Overlaps(other) {
			return &OverlapError{EventID: candidate.ID, ConflictingID: other.ID, Day: candidate.Day}
		}
	}
	return nil
}

// checkDay verifies that the visits of one day are pairwise disjoint.
func (m *Model) checkDay(day int) error {
	visits := make([]Event, 0)
	for _, e := range m.events {
		if e.Day == day && !e.IsTransit() {
			visits = append(visits, e)
		}
	}
	sortByStart(visits)
	for i := 1; i < len(visits); i++ {
		if visits[i-1].End > visits[i].Start {
			return &OverlapError{EventID: visits[i].ID, ConflictingID: visits[i-1].ID, Day: day}
		}
	}
	return nil
}

func checkShape(e Event, totalDays int) error {
	if e.Day < 0 || e.Day >= totalDays {
		return fmt.Errorf("event %s: day %d not in [0,%d)", e.ID, e.Day, totalDays)
	}
	if e.Start >= e.End {
		return fmt.Errorf("event %s: start %s not before end %s", e.ID, e.Start, e.End)
	}
	switch e.Kind {
	case KindVisit:
		if e.Place == nil {
			return fmt.Errorf("event %s: visit without place", e.ID)
		}
	case KindTransit:
		if !e.Mode.Valid() {
			return fmt.Errorf("event %s: unknown transport mode %q", e.ID, e.Mode)
		}
		if e.Duration < 0 {
			return fmt.Errorf("event %s: negative duration", e.ID)
		}
	default:
		return fmt.Errorf("event %s: unknown kind %q", e.ID, e.Kind)
	}
	return nil
}

func sortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.IsTransit() != b.IsTransit() {
			return !a.IsTransit()
		}
		return a.ID < b.ID
	})
}
