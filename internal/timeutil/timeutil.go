// Package timeutil provides the timezone-correct primitives the rule
// engine is built on: weekday extraction, calendar-day arithmetic, and
// local clock-time anchoring. Everything operates on instants that have
// already been projected into the schedule's IANA zone, so higher layers
// never do raw UTC math. Calendar-day differences are computed on civil
// dates, never by dividing durations, so DST transitions cannot produce
// off-by-one days.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InvalidTimezoneError reports an IANA zone name that does not resolve.
type InvalidTimezoneError struct {
	Zone string
	Err  error
}

func (e *InvalidTimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q", e.Zone)
}

func (e *InvalidTimezoneError) Unwrap() error { return e.Err }

// LoadLocation resolves an IANA timezone name.
func LoadLocation(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, &InvalidTimezoneError{Zone: zone}
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, &InvalidTimezoneError{Zone: zone, Err: err}
	}
	return loc, nil
}

// Localize projects an absolute instant into the named zone.
func Localize(t time.Time, zone string) (time.Time, error) {
	loc, err := LoadLocation(zone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

var weekdayTokens = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// WeekdayToken returns the three-letter weekday token (mon..sun) for
// the instant's local calendar day.
func WeekdayToken(t time.Time) string {
	return weekdayTokens[t.Weekday()]
}

// IsWeekday reports whether the instant falls on Monday through Friday
// in its own location.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// CalendarDate returns the ISO calendar date (YYYY-MM-DD) of the
// instant in its own location.
func CalendarDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// IsValidISODate reports whether s is a real YYYY-MM-DD calendar date.
// The check round-trips through the parser so regex-shaped garbage like
// "2024-13-01" is rejected, not just malformed strings.
func IsValidISODate(s string) bool {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return false
	}
	return t.Format("2006-01-02") == s
}

// ParseDate returns midnight of the given ISO date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// civilDays maps a calendar date onto a continuous day count by
// re-anchoring it at UTC midnight. UTC has no DST, so the division is
// exact regardless of what offsets the original zone went through.
func civilDays(year int, month time.Month, day int) int64 {
	utc := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return utc.Unix() / 86400
}

// DaysBetween returns the number of whole calendar days from the given
// ISO date to the instant's local calendar day. Negative when the
// instant's day precedes the date. A 23- or 25-hour DST day counts as
// exactly one day.
func DaysBetween(later time.Time, earlierDate string) (int, error) {
	if !IsValidISODate(earlierDate) {
		return 0, fmt.Errorf("invalid date %q", earlierDate)
	}
	earlier, _ := time.Parse("2006-01-02", earlierDate)

	ly, lm, ld := later.Date()
	ey, em, ed := earlier.Date()
	return int(civilDays(ly, lm, ld) - civilDays(ey, em, ed)), nil
}

// ParseClock splits a "HH:MM" string into hour and minute, enforcing
// 24-hour bounds.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid time %q: hour out of range", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q: minute out of range", s)
	}
	return hour, minute, nil
}

// AtLocalTime returns the instant at the given local clock time on the
// same calendar day as t, in t's location.
func AtLocalTime(t time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location()), nil
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// AddDays moves t forward by n calendar days, preserving the local
// clock time where it exists. Going via the date components (rather
// than adding 24h multiples) keeps the result on the expected calendar
// day across DST transitions.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
