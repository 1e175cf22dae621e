package session

import (
	"fmt"

	"github.com/itinerary-planner/backend/internal/drag"
	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/timeline"
	"github.com/itinerary-planner/backend/internal/validator"
)

// DayLabelLayout formats the calendar date shown under a day label.
const DayLabelLayout = "Mon, Jan 2"

// Snapshot is the complete presentation state of a session.
type Snapshot struct {
	ID              string            `json:"id"`
	Mode            mode.Mode         `json:"mode"`
	Pending         bool              `json:"pending"`
	ManualConfirmed bool              `json:"manual_confirmed"`
	ActiveDrag      string            `json:"active_drag,omitempty"`
	Trip            TripView          `json:"trip"`
	Grid            timeline.Grid     `json:"grid"`
	Status          validator.Status  `json:"schedule_status"`
	Metrics         itinerary.Metrics `json:"metrics"`
	Days            []DayView         `json:"days"`
}

// TripView is the JSON form of a trip.
type TripView struct {
	StartDate     string                  `json:"startDate"`
	EndDate       string                  `json:"endDate"`
	TransportMode itinerary.TransportMode `json:"transportMode"`
	Places        []itinerary.Place       `json:"places"`
	TotalDays     int                     `json:"totalDays"`
}

// NewTripView converts a trip for display.
func NewTripView(t itinerary.Trip) TripView {
	places := t.Places
	if places == nil {
		places = []itinerary.Place{}
	}
	return TripView{
		StartDate:     t.StartDateString(),
		EndDate:       t.EndDateString(),
		TransportMode: t.TransportMode,
		Places:        places,
		TotalDays:     t.TotalDays(),
	}
}

// DayView is one row of the timeline.
type DayView struct {
	Index  int         `json:"index"`
	Label  string      `json:"label"`
	Date   string      `json:"date"`
	Events []EventView `json:"events"`
}

// EventView is an event with its on-screen placement.
type EventView struct {
	ID        string                  `json:"id"`
	Kind      itinerary.Kind          `json:"type"`
	Title     string                  `json:"title,omitempty"`
	Day       int                     `json:"day"`
	Start     timeline.Clock          `json:"startTime"`
	End       timeline.Clock          `json:"endTime"`
	Place     *itinerary.Place        `json:"place,omitempty"`
	Mode      itinerary.TransportMode `json:"mode,omitempty"`
	Duration  float64                 `json:"duration,omitempty"`
	Position  timeline.Position       `json:"position"`
	Width     float64                 `json:"width"`
	Category  itinerary.Category      `json:"category,omitempty"`
	Colors    *itinerary.Palette      `json:"colors,omitempty"`
	Draggable bool                    `json:"draggable"`
}

func (s *Session) snapshot() Snapshot {
	active, _ := s.drag.Active()
	return Snapshot{
		ID:              s.ID,
		Mode:            s.controller.Mode(),
		Pending:         s.controller.Pending(),
		ManualConfirmed: s.controller.Confirmed(),
		ActiveDrag:      active,
		Trip:            NewTripView(s.trip),
		Grid:            s.grid,
		Status:          s.status.CurrentStatus(),
		Metrics:         s.model.Metrics(),
		Days:            s.dayViews(),
	}
}

func (s *Session) dayViews() []DayView {
	days := make([]DayView, s.model.TotalDays())
	for d := range days {
		days[d] = s.dayView(d)
	}
	return days
}

func (s *Session) dayView(day int) DayView {
	events := s.model.ByDay(day)
	views := make([]EventView, len(events))
	for i, e := range events {
		views[i] = s.eventView(e)
	}
	return DayView{
		Index:  day,
		Label:  fmt.Sprintf("Day %d", day+1),
		Date:   s.trip.Date(day).Format(DayLabelLayout),
		Events: views,
	}
}

func (s *Session) eventView(e itinerary.Event) EventView {
	v := EventView{
		ID:        e.ID,
		Kind:      e.Kind,
		Title:     e.Title,
		Day:       e.Day,
		Start:     e.Start,
		End:       e.End,
		Place:     e.Place,
		Mode:      e.Mode,
		Duration:  e.Duration,
		Position:  s.grid.Project(e.Day, e.Start),
		Width:     float64(e.Minutes()) * s.grid.HourWidthPx / 60,
		Draggable: e.Draggable(),
	}
	if !e.IsTransit() {
		v.Category = e.Category()
		palette := v.Category.Palette()
		v.Colors = &palette
	}
	return v
}

// DragResult is a drag outcome with the position the event is shown at.
type DragResult struct {
	drag.Outcome
	Position *timeline.Position `json:"position,omitempty"`
}

// NewDragResult projects the outcome's event onto the grid.
func NewDragResult(g timeline.Grid, out drag.Outcome) DragResult {
	r := DragResult{Outcome: out}
	if out.Event != nil {
		p := g.Project(out.Event.Day, out.Event.Start)
		r.Position = &p
	}
	return r
}
