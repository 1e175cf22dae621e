package timeline

import (
	"errors"
	"fmt"
	"math"
)

// Default grid parameters. The window matches the optimizer's 9 AM to 9 PM day.
const (
	DefaultDayStartHour = 9
	DefaultDayEndHour   = 21
	DefaultHourWidthPx  = 100
	DefaultRowHeightPx  = 100
	DefaultSnapMinutes  = 60
)

const (
	floorEpsilon = 1e-9
	// maxRows bounds DayForY for offsets far outside any trip.
	maxRows = 1 << 20
)

// Position is the on-screen placement of an event block.
// X is derived from the start time and Y from the day index.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Grid describes the per-day timeline: one row per day, one column per hour.
//
// Horizontal offsets are snapped down to SnapMinutes before conversion. With
// the default of 60 only whole hours are addressable, so times between hour
// marks map to the hour column they fall in.
type Grid struct {
	DayStartHour int     `json:"day_start_hour"`
	DayEndHour   int     `json:"day_end_hour"`
	HourWidthPx  float64 `json:"hour_width_px"`
	RowHeightPx  float64 `json:"row_height_px"`
	SnapMinutes  int     `json:"snap_minutes"`
}

// DefaultGrid returns the grid used when nothing is configured.
func DefaultGrid() Grid {
	return Grid{
		DayStartHour: DefaultDayStartHour,
		DayEndHour:   DefaultDayEndHour,
		HourWidthPx:  DefaultHourWidthPx,
		RowHeightPx:  DefaultRowHeightPx,
		SnapMinutes:  DefaultSnapMinutes,
	}
}

// Validate checks that the grid describes a usable window.
func (g Grid) Validate() error {
	if g.DayStartHour < 0 || g.DayEndHour > 24 || g.DayStartHour >= g.DayEndHour {
		return fmt.Errorf("invalid daily window %d-%d", g.DayStartHour, g.DayEndHour)
	}
	if g.HourWidthPx <= 0 {
		return errors.New("hour width must be > 0")
	}
	if g.RowHeightPx <= 0 {
		return errors.New("row height must be > 0")
	}
	if g.SnapMinutes <= 0 || 60%g.SnapMinutes != 0 {
		return fmt.Errorf("snap minutes must divide 60, got %d", g.SnapMinutes)
	}
	return nil
}

// WindowStart is the first schedulable minute of a day.
func (g Grid) WindowStart() Clock { return At(g.DayStartHour, 0) }

// WindowEnd is the last minute an event may end at.
func (g Grid) WindowEnd() Clock { return At(g.DayEndHour, 0) }

// Hours returns the number of hour columns in the window.
func (g Grid) Hours() int { return g.DayEndHour - g.DayStartHour }

// Width returns the pixel width of the window.
func (g Grid) Width() float64 { return float64(g.Hours()) * g.HourWidthPx }

// Contains reports whether [start, end) lies inside the daily window.
func (g Grid) Contains(start, end Clock) bool {
	return start >= g.WindowStart() && end <= g.WindowEnd() && start < end
}

// PositionToTime converts a horizontal offset to a clock time, snapping down
// to the nearest SnapMinutes column.
//
// Offsets further than a day from the window start are clamped to a day
// either side. NaN maps to the window start.
func (g Grid) PositionToTime(x float64) Clock {
	snap := g.snap()
	minutes := x * 60 / g.HourWidthPx
	column := floorIndex(minutes/float64(snap), MinutesPerDay/snap)
	return g.WindowStart().Add(column * snap)
}

// PositionToTimeString is PositionToTime rendered in 12-hour form.
func (g Grid) PositionToTimeString(x float64) string {
	return FormatTime(g.PositionToTime(x))
}

// TimeToPosition converts a clock time to its horizontal offset.
func (g Grid) TimeToPosition(c Clock) float64 {
	return float64(c-g.WindowStart()) * g.HourWidthPx / 60
}

// TimeToPositionString parses text and converts it to a horizontal offset.
func (g Grid) TimeToPositionString(text string) (float64, error) {
	c, err := ParseTime(text)
	if err != nil {
		return 0, err
	}
	return g.TimeToPosition(c), nil
}

// DayForY returns the day row containing the vertical offset y.
// Offsets above the first row yield negative indices.
func (g Grid) DayForY(y float64) int {
	return floorIndex(y/g.RowHeightPx, maxRows)
}

// YForDay returns the vertical offset of a day row.
func (g Grid) YForDay(day int) float64 {
	return float64(day) * g.RowHeightPx
}

// Project computes the position of an event starting at start on day.
func (g Grid) Project(day int, start Clock) Position {
	return Position{X: g.TimeToPosition(start), Y: g.YForDay(day)}
}

// floorIndex floors v to an int within [-limit, limit]. The epsilon absorbs
// float error from non-integer pixel sizes so exact column edges do not
// fall into the previous column.
func floorIndex(v float64, limit int) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= float64(limit):
		return limit
	case v <= -float64(limit):
		return -limit
	}
	return int(math.Floor(v + floorEpsilon))
}

func (g Grid) snap() int {
	if g.SnapMinutes <= 0 {
		return DefaultSnapMinutes
	}
	return g.SnapMinutes
}
