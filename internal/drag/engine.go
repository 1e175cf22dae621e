// Package drag turns pointer drag gestures on the timeline into validated
// event moves, or into no-ops when the move is not allowed.
package drag

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/timeline"
)

// Status is the result class of a drag step.
type Status string

const (
	StatusStarted            Status = "started"
	StatusAccepted           Status = "accepted"
	StatusRejected           Status = "rejected"
	StatusIgnored            Status = "ignored"
	StatusCancelled          Status = "cancelled"
	StatusModeSwitchRequired Status = "mode_switch_required"
)

// Reasons attached to rejected or ignored drags.
const (
	ReasonNotDraggable    = "not_draggable"
	ReasonDayOutOfRange   = "day_out_of_range"
	ReasonOutsideWindow   = "outside_window"
	ReasonOverlap         = "overlap"
	ReasonNoActiveDrag    = "no_active_drag"
	ReasonInvalidPosition = "invalid_position"
)

// Outcome describes what a drag step did. Event is the event as it stands
// afterwards: its new placement when accepted, its original one otherwise.
type Outcome struct {
	Status   Status           `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Message  string           `json:"message,omitempty"`
	Event    *itinerary.Event `json:"event,omitempty"`
	Accepted bool             `json:"accepted"`
}

// ModeSource reports who currently owns the schedule.
type ModeSource interface {
	Mode() mode.Mode
}

// Notifier receives the full event list after an accepted drop.
type Notifier func(events []itinerary.Event)

// Engine handles the drag gestures of one session. At most one drag is
// active at a time. Callers serialise access with the session lock.
type Engine struct {
	grid   timeline.Grid
	model  *itinerary.Model
	modes  ModeSource
	notify Notifier

	active *itinerary.Event
}

// NewEngine creates a drag engine over model.
func NewEngine(grid timeline.Grid, model *itinerary.Model, modes ModeSource, notify Notifier) *Engine {
	return &Engine{
		grid:   grid,
		model:  model,
		modes:  modes,
		notify: notify,
	}
}

// DurationFor is the fixed length a visit takes when moved by hand.
func DurationFor(e itinerary.Event) int {
	return e.Place.VisitMinutes()
}

// Active returns the id of the event being dragged, if any.
func (e *Engine) Active() (string, bool) {
	if e.active == nil {
		return "", false
	}
	return e.active.ID, true
}

// Begin starts dragging an event. In automatic mode nothing happens and the
// caller is told to offer a switch to manual mode. Transit legs are ignored.
func (e *Engine) Begin(id string) (Outcome, error) {
	if e.modes.Mode() != mode.Manual {
		return Outcome{
			Status:  StatusModeSwitchRequired,
			Message: "Switch to manual mode to rearrange the schedule.",
		}, nil
	}

	event, err := e.model.Get(id)
	if err != nil {
		return Outcome{}, err
	}
	if !event.Draggable() {
		return Outcome{Status: StatusIgnored, Reason: ReasonNotDraggable, Event: &event}, nil
	}

	e.active = &event
	return Outcome{Status: StatusStarted, Event: &event}, nil
}

// Drop ends the active drag of id at pixel offset (x, y). The event either
// moves as a whole or stays exactly where it was.
func (e *Engine) Drop(id string, x, y float64) (Outcome, error) {
	if e.modes.Mode() != mode.Manual {
		e.active = nil
		return Outcome{Status: StatusModeSwitchRequired}, nil
	}
	if e.active == nil || e.active.ID != id {
		return Outcome{Status: StatusIgnored, Reason: ReasonNoActiveDrag}, nil
	}
	origin := *e.active
	e.active = nil

	if !finite(x) || !finite(y) {
		return e.reject(origin, ReasonInvalidPosition, "The drop position is not on the timeline."), nil
	}

	day := e.grid.DayForY(y)
	start := e.grid.PositionToTime(x)
	if ws := e.grid.WindowStart(); start < ws {
		start = ws
	}
	end := start.Add(DurationFor(origin))

	if day < 0 || day >= e.model.TotalDays() {
		return e.reject(origin, ReasonDayOutOfRange,
			fmt.Sprintf("Day %d is outside the trip.", day+1)), nil
	}
	if end > e.grid.WindowEnd() {
		return e.reject(origin, ReasonOutsideWindow,
			fmt.Sprintf("%s would end after %s.", origin.Title, timeline.FormatTime(e.grid.WindowEnd()))), nil
	}

	moved, err := e.model.Update(id, itinerary.Patch{Day: &day, Start: &start, End: &end})
	switch {
	case errors.Is(err, itinerary.ErrOverlap):
		var overlap *itinerary.OverlapError
		msg := "The new time overlaps another activity."
		if errors.As(err, &overlap) {
			msg = fmt.Sprintf("The new time overlaps %s.", overlap.ConflictingID)
		}
		return e.reject(origin, ReasonOverlap, msg), nil
	case errors.Is(err, itinerary.ErrOutOfBounds):
		return e.reject(origin, ReasonOutsideWindow, err.Error()), nil
	case err != nil:
		return Outcome{}, err
	}

	log.Printf("Moved %s to day %d at %s", moved.ID, moved.Day, moved.Start)
	if e.notify != nil {
		e.notify(e.model.All())
	}
	return Outcome{Status: StatusAccepted, Accepted: true, Event: &moved}, nil
}

// Move performs Begin and Drop in one step.
func (e *Engine) Move(id string, x, y float64) (Outcome, error) {
	started, err := e.Begin(id)
	if err != nil || started.Status != StatusStarted {
		return started, err
	}
	return e.Drop(id, x, y)
}

// Cancel abandons the active drag. The event was never changed.
func (e *Engine) Cancel() Outcome {
	if e.active == nil {
		return Outcome{Status: StatusIgnored, Reason: ReasonNoActiveDrag}
	}
	origin := *e.active
	e.active = nil
	return Outcome{Status: StatusCancelled, Event: &origin}
}

// Reset drops any active drag without reporting it, e.g. after the model
// was replaced wholesale.
func (e *Engine) Reset() {
	e.active = nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (e *Engine) reject(origin itinerary.Event, reason, msg string) Outcome {
	current, err := e.model.Get(origin.ID)
	if err != nil {
		current = origin
	}
	return Outcome{Status: StatusRejected, Reason: reason, Message: msg, Event: &current}
}
