// Package timeline converts between wall-clock times, their 12-hour and
// 24-hour text forms, and pixel offsets on the per-day timeline grid.
package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay is the number of minutes in one calendar day.
const MinutesPerDay = 24 * 60

// ErrInvalidTimeFormat is returned when a string is neither "h:MM AM/PM" nor "H:MM".
var ErrInvalidTimeFormat = errors.New("invalid time format")

// TimeFormatError reports the input that failed to parse.
type TimeFormatError struct {
	Input string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("%v: %q", ErrInvalidTimeFormat, e.Input)
}

func (e *TimeFormatError) Unwrap() error {
	return ErrInvalidTimeFormat
}

var (
	twelveHourPattern     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])$`)
	twentyFourHourPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// Clock is a wall-clock time expressed as minutes since midnight.
type Clock int

// At builds a Clock from an hour and minute.
func At(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// Hour returns the hour component (0-23).
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component (0-59).
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns the clock shifted by the given number of minutes.
func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

// String renders the clock in 12-hour form.
func (c Clock) String() string { return FormatTime(c) }

// Format24 renders the clock as "HH:MM".
func (c Clock) Format24() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalJSON encodes the clock as its 12-hour string.
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTime(c))
}

// UnmarshalJSON accepts both 12-hour and 24-hour strings.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding time: %w", err)
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseTime parses "9:00 AM", "09:00 PM" or "21:00" into minutes since midnight.
func ParseTime(text string) (Clock, error) {
	s := strings.TrimSpace(text)

	if m := twelveHourPattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, &TimeFormatError{Input: text}
		}
		pm := strings.EqualFold(m[3], "PM")
		if pm && hour != 12 {
			hour += 12
		}
		if !pm && hour == 12 {
			hour = 0
		}
		return At(hour, minute), nil
	}

	if m := twentyFourHourPattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, &TimeFormatError{Input: text}
		}
		return At(hour, minute), nil
	}

	return 0, &TimeFormatError{Input: text}
}

// FormatTime renders minutes since midnight as a 12-hour string such as "9:05 PM".
// Values outside a single day wrap around midnight.
func FormatTime(c Clock) string {
	minutes := ((int(c) % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	hour := minutes / 60
	minute := minutes % 60

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}
