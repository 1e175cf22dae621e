package itinerary

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the ISO date format exchanged with the optimizer.
const DateLayout = "2006-01-02"

// Trip is the user's selection: date range, transport mode and places.
// It survives re-optimization; manual edits never change it.
type Trip struct {
	StartDate     time.Time     `json:"-"`
	EndDate       time.Time     `json:"-"`
	TransportMode TransportMode `json:"transportMode"`
	Places        []Place       `json:"places"`
}

// NewTrip parses ISO dates and validates the trip.
func NewTrip(startDate, endDate string, mode TransportMode, places []Place) (Trip, error) {
	start, err := time.ParseInLocation(DateLayout, startDate, time.Local)
	if err != nil {
		return Trip{}, fmt.Errorf("parsing start date: %w", err)
	}
	end, err := time.ParseInLocation(DateLayout, endDate, time.Local)
	if err != nil {
		return Trip{}, fmt.Errorf("parsing end date: %w", err)
	}
	trip := Trip{StartDate: start, EndDate: end, TransportMode: mode, Places: places}
	if err := trip.Validate(); err != nil {
		return Trip{}, err
	}
	return trip, nil
}

// MaxTripDays bounds the number of day rows a single trip may lay out.
const MaxTripDays = 60

// Validate checks the trip's date range and transport mode.
func (t Trip) Validate() error {
	if t.EndDate.Before(t.StartDate) {
		return errors.New("end date is before start date")
	}
	if days := t.TotalDays(); days > MaxTripDays {
		return fmt.Errorf("trip spans %d days, at most %d allowed", days, MaxTripDays)
	}
	if !t.TransportMode.Valid() {
		return fmt.Errorf("unknown transport mode %q", t.TransportMode)
	}
	return nil
}

// TotalDays is the inclusive number of days in the trip.
func (t Trip) TotalDays() int {
	start := time.Date(t.StartDate.Year(), t.StartDate.Month(), t.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(t.EndDate.Year(), t.EndDate.Month(), t.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// Date returns the calendar date of a day index.
func (t Trip) Date(day int) time.Time {
	return t.StartDate.AddDate(0, 0, day)
}

// StartDateString returns the start date in ISO form.
func (t Trip) StartDateString() string { return t.StartDate.Format(DateLayout) }

// EndDateString returns the end date in ISO form.
func (t Trip) EndDateString() string { return t.EndDate.Format(DateLayout) }
