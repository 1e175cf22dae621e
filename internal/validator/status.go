// Package validator holds the optimizer's verdict on the current schedule.
// It never computes feasibility itself; it only stores what it is given.
package validator

import (
	"encoding/json"
	"time"
)

// Severity grades a schedule status or warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySevere  Severity = "severe"
)

// Rank orders severities from least to most serious.
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// UnmarshalJSON maps the optimizer's "normal" and any unknown value to info.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Severity(raw) {
	case SeverityWarning, SeveritySevere:
		*s = Severity(raw)
	default:
		*s = SeverityInfo
	}
	return nil
}

// Warning types emitted by the optimizer or by failed requests.
const (
	WarningEmptyDays         = "empty_days"
	WarningUnscheduledPlaces = "unscheduled_places"
	WarningOvertimeDays      = "overtime_days"
	WarningError             = "error"
	WarningOptimizerFailed   = "optimizer_failed"
)

// Warning is one issue found with an arrangement.
type Warning struct {
	Type       string   `json:"type"`
	Severity   Severity `json:"severity,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Status is the optimizer's verdict on a schedule.
type Status struct {
	IsReasonable bool      `json:"is_reasonable"`
	Severity     Severity  `json:"severity"`
	Warnings     []Warning `json:"warnings"`
	// Evaluated is false until a status has been set.
	Evaluated bool      `json:"evaluated"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Unknown is the status reported before anything has been evaluated.
func Unknown() Status {
	return Status{
		IsReasonable: false,
		Severity:     SeverityInfo,
		Warnings:     []Warning{},
	}
}

// Failure builds the status recorded when an optimizer request fails.
func Failure(message, suggestion string) Status {
	return Status{
		IsReasonable: false,
		Severity:     SeveritySevere,
		Warnings: []Warning{{
			Type:       WarningOptimizerFailed,
			Severity:   SeveritySevere,
			Message:    message,
			Suggestion: suggestion,
		}},
		Evaluated: true,
	}
}

// Normalize fills defaults: warnings without a severity inherit the
// status severity, and the status severity is raised to its worst warning.
func (s Status) Normalize() Status {
	if s.Severity == "" {
		s.Severity = SeverityInfo
	}
	warnings := make([]Warning, len(s.Warnings))
	for i, w := range s.Warnings {
		if w.Severity == "" {
			w.Severity = s.Severity
		}
		warnings[i] = w
	}
	s.Warnings = warnings
	s.Severity = s.Highest()
	s.Evaluated = true
	return s
}

// Highest returns the most serious severity among the status and its warnings.
func (s Status) Highest() Severity {
	highest := s.Severity
	if highest == "" {
		highest = SeverityInfo
	}
	for _, w := range s.Warnings {
		if w.Severity.Rank() > highest.Rank() {
			highest = w.Severity
		}
	}
	return highest
}

// WarningsAtLeast returns the warnings whose severity is at least min.
func (s Status) WarningsAtLeast(min Severity) []Warning {
	var out []Warning
	for _, w := range s.Warnings {
		if w.Severity.Rank() >= min.Rank() {
			out = append(out, w)
		}
	}
	return out
}
