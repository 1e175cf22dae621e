// Package export renders a schedule as an iCalendar document.
package export

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/itinerary-planner/backend/internal/itinerary"
)

// Content type and default file name of an exported schedule.
const (
	ContentType = "text/calendar"
	FileName    = "trip-schedule.ics"
	ProductID   = "-//itinerary-planner//timeline//EN"
)

// Calendar renders the visits of days as VEVENTs. Day d is placed on the
// trip's start date plus d, in the trip's location. Transit legs are omitted.
func Calendar(trip itinerary.Trip, days [][]itinerary.Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(fmt.Sprintf("Trip %s to %s", trip.StartDateString(), trip.EndDateString()))

	for _, events := range days {
		for _, e := range events {
			if e.IsTransit() {
				continue
			}
			addVisit(cal, trip, e, stamp)
		}
	}

	return cal.Serialize()
}

func addVisit(cal *ical.Calendar, trip itinerary.Trip, e itinerary.Event, stamp time.Time) {
	date := trip.Date(e.Day)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	ev := cal.AddEvent(e.ID + "@itinerary-planner")
	ev.SetDtStampTime(stamp)
	ev.SetStartAt(midnight.Add(time.Duration(e.Start) * time.Minute))
	ev.SetEndAt(midnight.Add(time.Duration(e.End) * time.Minute))

	title := e.Title
	if title == "" && e.Place != nil {
		title = e.Place.Name
	}
	ev.SetSummary(title)

	if e.Place == nil {
		return
	}
	if e.Place.Vicinity != "" {
		ev.SetLocation(e.Place.Vicinity)
	}
	if desc := describe(e.Place); desc != "" {
		ev.SetDescription(desc)
	}
	ev.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(e.Category())))
}

func describe(p *itinerary.Place) string {
	var lines []string
	if p.Rating > 0 {
		lines = append(lines, fmt.Sprintf("Rating: %.1f", p.Rating))
	}
	if p.Location.Lat != 0 || p.Location.Lng != 0 {
		lines = append(lines, fmt.Sprintf("Location: %.6f,%.6f", p.Location.Lat, p.Location.Lng))
	}
	return strings.Join(lines, "\n")
}
