package itinerary

import "math"

// Metrics summarises a schedule for display.
type Metrics struct {
	TotalPlaces      int `json:"total_places"`
	Restaurants      int `json:"restaurants"`
	Attractions      int `json:"attractions"`
	TotalTravelMin   int `json:"total_travel_time"`
	OverWindowVisits int `json:"over_window_visits"`
}

// Metrics counts visits by kind and totals the transit minutes.
func (m *Model) Metrics() Metrics {
	var out Metrics
	var travel float64
	for _, e := range m.events {
		if e.IsTransit() {
			travel += e.Duration
			continue
		}
		out.TotalPlaces++
		if e.Place.IsRestaurant() {
			out.Restaurants++
		} else if e.Place != nil && len(e.Place.Types) > 0 {
			out.Attractions++
		}
		if !m.window.Contains(e.Start, e.End) {
			out.OverWindowVisits++
		}
	}
	out.TotalTravelMin = int(math.Round(travel))
	return out
}
