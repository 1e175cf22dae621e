// Package session ties the timeline components of one open itinerary
// together and serialises every access to them.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itinerary-planner/backend/internal/drag"
	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/storage/models"
	"github.com/itinerary-planner/backend/internal/timeline"
	"github.com/itinerary-planner/backend/internal/validator"
)

// ErrSessionNotFound is returned for an unknown or closed session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrDayOutOfRange is returned when a day index is outside the trip.
var ErrDayOutOfRange = errors.New("day out of range")

// Listener receives session changes for presentation. Calls are made with
// the session lock held and must not block.
type Listener interface {
	EventsUpdated(sessionID string, days []DayView)
	ModeChanged(sessionID string, m mode.Mode)
	StatusChanged(sessionID string, status validator.Status)
}

// Session is one open itinerary. The mutex stands in for the single UI
// thread: model, drag engine, controller and status are only touched with
// it held.
type Session struct {
	ID string

	mu         sync.Mutex
	trip       itinerary.Trip
	grid       timeline.Grid
	model      *itinerary.Model
	status     *validator.Store
	controller *mode.Controller
	drag       *drag.Engine
	listener   Listener
	closed     bool
	createdAt  time.Time
	lastActive time.Time
	now        func() time.Time
}

type deps struct {
	grid      timeline.Grid
	optimizer mode.Optimizer
	journal   mode.Journal
	listener  Listener
	timeout   time.Duration
	now       func() time.Time
}

func newSession(id string, trip itinerary.Trip, d deps) *Session {
	now := d.now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		ID:        id,
		trip:      trip,
		grid:      d.grid,
		model:     itinerary.NewModel(itinerary.WindowOf(d.grid)),
		status:    validator.NewStore(),
		listener:  d.listener,
		createdAt: now(),
		now:       now,
	}
	s.lastActive = s.createdAt
	// Empty rows for every trip day until the first schedule arrives.
	if err := s.model.ReplaceAll(nil, trip.TotalDays()); err != nil {
		log.Printf("Session %s could not lay out %d days: %v", id, trip.TotalDays(), err)
	}

	s.controller = mode.NewController(mode.Options{
		SessionID: id,
		Locker:    &s.mu,
		Model:     s.model,
		Status:    s.status,
		Optimizer: d.optimizer,
		Journal:   d.journal,
		Timeout:   d.timeout,
		Hooks: mode.Hooks{
			ModeChanged:   s.modeChanged,
			EventsUpdated: s.replaced,
			StatusChanged: s.statusChanged,
		},
	})
	s.drag = drag.NewEngine(d.grid, s.model, s.controller, s.dragged)
	return s
}

// start issues the initial plan. It must run before the session is shared.
func (s *Session) start() *mode.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Plan(s.trip, models.RunTriggerInitial)
}

// Snapshot returns the full presentation state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.snapshot()
}

// Day returns one day of the schedule.
func (s *Session) Day(day int) (DayView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if day < 0 || day >= s.model.TotalDays() {
		return DayView{}, fmt.Errorf("%w: %d", ErrDayOutOfRange, day)
	}
	return s.dayView(day), nil
}

// Trip returns the current trip parameters.
func (s *Session) Trip() itinerary.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trip
}

// Grid returns the session's timeline grid.
func (s *Session) Grid() timeline.Grid { return s.grid }

// Events returns a copy of every scheduled event.
func (s *Session) Events() []itinerary.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.All()
}

// Days returns the schedule grouped by day, each day ordered by start time.
func (s *Session) Days() [][]itinerary.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Days()
}

// Mode returns who owns the schedule.
func (s *Session) Mode() mode.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Mode()
}

// Status returns the latest schedule status.
func (s *Session) Status() validator.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.CurrentStatus()
}

// SetTrip replaces the trip parameters. In automatic mode the optimizer is
// asked for a new schedule. In manual mode the change is kept for the next
// reoptimize and the ticket is nil, unless a reoptimize is in flight: that
// request is superseded by one for the new trip.
func (s *Session) SetTrip(trip itinerary.Trip) (*mode.Ticket, error) {
	if err := trip.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionNotFound
	}
	s.touch()
	s.trip = trip
	if s.controller.Mode() == mode.Manual {
		if s.controller.Pending() {
			// A reoptimize is already on its way back; only the new trip may land.
			log.Printf("Session %s trip updated during reoptimize, reissuing request", s.ID)
			s.drag.Reset()
			return s.controller.Reoptimize(trip), nil
		}
		log.Printf("Session %s trip updated in manual mode, waiting for reoptimize", s.ID)
		return nil, nil
	}
	return s.controller.Plan(trip, models.RunTriggerTripChange), nil
}

// EnterManual hands the schedule to the user.
func (s *Session) EnterManual(confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.controller.EnterManual(confirm)
}

// Reoptimize hands the schedule back to the optimizer.
func (s *Session) Reoptimize() *mode.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.drag.Reset()
	return s.controller.Reoptimize(s.trip)
}

// BeginDrag starts dragging an event.
func (s *Session) BeginDrag(id string) (drag.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.drag.Begin(id)
}

// Drop ends the active drag at pixel offset (x, y).
func (s *Session) Drop(id string, x, y float64) (drag.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.drag.Drop(id, x, y)
}

// CancelDrag abandons the active drag.
func (s *Session) CancelDrag() drag.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.drag.Cancel()
}

// Move drags an event to (x, y) in one step.
func (s *Session) Move(id string, x, y float64) (drag.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.drag.Move(id, x, y)
}

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close tears the session down. In-flight optimizer responses are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.drag.Reset()
	s.controller.Close()
}

func (s *Session) touch() {
	s.lastActive = s.now()
}

func (s *Session) modeChanged(m mode.Mode) {
	if s.listener != nil {
		s.listener.ModeChanged(s.ID, m)
	}
}

func (s *Session) statusChanged(status validator.Status) {
	if s.listener != nil {
		s.listener.StatusChanged(s.ID, status)
	}
}

// replaced runs after the optimizer swapped the whole schedule.
func (s *Session) replaced() {
	s.drag.Reset()
	s.eventsUpdated()
}

func (s *Session) dragged([]itinerary.Event) {
	s.eventsUpdated()
}

func (s *Session) eventsUpdated() {
	if s.listener != nil {
		s.listener.EventsUpdated(s.ID, s.dayViews())
	}
}
