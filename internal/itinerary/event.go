// Package itinerary holds the schedule data model: day-partitioned,
// time-ordered visits and transit legs.
package itinerary

import (
	"encoding/json"
	"fmt"

	"github.com/itinerary-planner/backend/internal/timeline"
)

// Kind distinguishes place visits from travel legs.
type Kind string

const (
	KindVisit   Kind = "place"
	KindTransit Kind = "transit"
)

// TransportMode is how a transit leg is travelled.
type TransportMode string

const (
	ModeWalking TransportMode = "walking"
	ModeDriving TransportMode = "driving"
	ModeTransit TransportMode = "transit"
)

// Valid reports whether m is a known transport mode.
func (m TransportMode) Valid() bool {
	switch m {
	case ModeWalking, ModeDriving, ModeTransit:
		return true
	}
	return false
}

// ParseTransportMode validates a transport mode string.
func ParseTransportMode(s string) (TransportMode, error) {
	m := TransportMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown transport mode %q", s)
	}
	return m, nil
}

// Event is one scheduled block on the timeline.
type Event struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"type"`
	Title    string         `json:"title,omitempty"`
	Day      int            `json:"day"`
	Start    timeline.Clock `json:"startTime"`
	End      timeline.Clock `json:"endTime"`
	Place    *Place         `json:"place,omitempty"`
	Mode     TransportMode  `json:"mode,omitempty"`
	Duration float64        `json:"duration,omitempty"`
}

// UnmarshalJSON defaults a missing type to a visit.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Kind == "" {
		p.Kind = KindVisit
	}
	*e = Event(p)
	return nil
}

// IsTransit reports whether the event is a travel leg.
func (e Event) IsTransit() bool { return e.Kind == KindTransit }

// Draggable reports whether the user may move the event.
func (e Event) Draggable() bool { return e.Kind == KindVisit }

// Minutes returns the event length.
func (e Event) Minutes() int { return int(e.End - e.Start) }

// Overlaps reports whether two events on the same day share any minute.
func (e Event) Overlaps(other Event) bool {
	return e.Day == other.Day && e.Start < other.End && other.Start < e.End
}

// Category returns the category of the visited place.
func (e Event) Category() Category { return e.Place.Category() }

// Clone returns a deep copy so callers cannot alias stored state.
func (e Event) Clone() Event {
	if e.Place != nil {
		p := *e.Place
		p.Types = append([]string(nil), e.Place.Types...)
		e.Place = &p
	}
	return e
}
