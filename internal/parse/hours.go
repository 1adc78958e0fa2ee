package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockRe = regexp.MustCompile(`^\s*(\d{1,2})\s*:\s*(\d{2})\s*$`)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// DayHours is the raw opening window of one day, as stored on an attraction.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses an "HH:MM" string.
func ParseClock(raw string) (Clock, error) {
	m := clockRe.FindStringSubmatch(raw)
	if m == nil {
		return Clock{}, fmt.Errorf("invalid clock %q: want HH:MM", raw)
	}
	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if h > 23 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid clock %q: out of range", raw)
	}
	return Clock{Hour: h, Minute: minute}, nil
}

// Window is the opening interval of one day. Close is exclusive; a Close
// earlier than Open means the attraction stays open past midnight.
type Window struct {
	Open  Clock
	Close Clock
}

// Overnight reports whether the window closes on the following day.
func (w Window) Overnight() bool {
	return w.Close.Minutes() < w.Open.Minutes()
}

// Schedule maps weekdays to their opening window. Missing days are closed.
type Schedule map[time.Weekday]Window

// ParseOpeningHours validates raw opening hours keyed by lowercase day name.
func ParseOpeningHours(raw map[string]DayHours) (Schedule, error) {
	schedule := make(Schedule, len(raw))
	for day, hours := range raw {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, fmt.Errorf("unknown day %q", day)
		}
		open, err := ParseClock(hours.Open)
		if err != nil {
			return nil, fmt.Errorf("%s open: %w", day, err)
		}
		closing, err := ParseClock(hours.Close)
		if err != nil {
			return nil, fmt.Errorf("%s close: %w", day, err)
		}
		schedule[wd] = Window{Open: open, Close: closing}
	}
	return schedule, nil
}

// IsOpen reports whether the schedule is open at t, using t's own location.
// A window that closes after midnight covers the early hours of the next day.
func (s Schedule) IsOpen(t time.Time) bool {
	m := Clock{Hour: t.Hour(), Minute: t.Minute()}.Minutes()

	if w, ok := s[t.Weekday()]; ok && m >= w.Open.Minutes() {
		if w.Overnight() || m < w.Close.Minutes() {
			return true
		}
	}

	prev := (t.Weekday() + 6) % 7
	if w, ok := s[prev]; ok && w.Overnight() {
		return m < w.Close.Minutes()
	}
	return false
}
