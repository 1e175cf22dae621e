package models

import (
	"time"
)

// OptimizerRun is one completed optimizer request of a session.
type OptimizerRun struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Generation    uint64    `json:"generation"`
	Trigger       string    `json:"trigger"`
	TransportMode string    `json:"transport_mode"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	PlaceCount    int       `json:"place_count"`
	EventCount    int       `json:"event_count"`
	Outcome       string    `json:"outcome"`
	Severity      *string   `json:"severity,omitempty"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Run trigger constants
const (
	RunTriggerInitial    = "initial"     // First plan of a new session
	RunTriggerTripChange = "trip_change" // Dates, transport or places changed in automatic mode
	RunTriggerReoptimize = "reoptimize"  // Explicit manual -> automatic transition
)

// Run outcome constants
const (
	RunOutcomeApplied    = "applied"    // Schedule replaced
	RunOutcomeFailed     = "failed"     // Request or returned schedule rejected
	RunOutcomeSuperseded = "superseded" // Newer request or teardown won
)

// Duration returns how long the request took.
func (r *OptimizerRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
