package timeutil

import (
	"errors"
	"testing"
	"time"
)

func mustLoc(t *testing.T, zone string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(zone)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", zone, err)
	}
	return loc
}

func TestLocalize(t *testing.T) {
	utc := time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC)

	local, err := Localize(utc, "America/Los_Angeles")
	if err != nil {
		t.Fatalf("Localize: %v", err)
	}
	if got := local.Hour(); got != 10 {
		t.Errorf("local hour = %d, want 10", got)
	}
	if got := CalendarDate(local); got != "2024-01-08" {
		t.Errorf("CalendarDate = %q, want 2024-01-08", got)
	}
}

func TestLocalizeInvalidZone(t *testing.T) {
	_, err := Localize(time.Now(), "Not/AZone")
	if err == nil {
		t.Fatal("expected error for unresolvable zone")
	}
	var tzErr *InvalidTimezoneError
	if !errors.As(err, &tzErr) {
		t.Fatalf("error type = %T, want *InvalidTimezoneError", err)
	}
	if _, err := Localize(time.Now(), ""); err == nil {
		t.Fatal("expected error for empty zone")
	}
}

func TestWeekdayToken(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	// 2024-01-08 is a Monday; walk the whole week.
	want := []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	for i, token := range want {
		day := time.Date(2024, 1, 8+i, 12, 0, 0, 0, la)
		if got := WeekdayToken(day); got != token {
			t.Errorf("WeekdayToken(%s) = %q, want %q", day.Format("2006-01-02"), got, token)
		}
	}
}

func TestIsValidISODate(t *testing.T) {
	tests := []struct {
		date  string
		valid bool
	}{
		{"2024-01-01", true},
		{"2024-02-29", true},  // leap year
		{"2023-02-29", false}, // not a leap year
		{"2024-13-01", false}, // regex-shaped but no month 13
		{"2024-04-31", false},
		{"2024-1-01", false},
		{"not-a-date", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidISODate(tt.date); got != tt.valid {
			t.Errorf("IsValidISODate(%q) = %v, want %v", tt.date, got, tt.valid)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	tests := []struct {
		name    string
		later   time.Time
		earlier string
		want    int
	}{
		{"same day", time.Date(2024, 1, 8, 23, 0, 0, 0, la), "2024-01-08", 0},
		{"next day early", time.Date(2024, 1, 9, 0, 0, 1, 0, la), "2024-01-08", 1},
		{"a week", time.Date(2024, 1, 15, 12, 0, 0, 0, la), "2024-01-08", 7},
		{"before start", time.Date(2024, 1, 5, 12, 0, 0, 0, la), "2024-01-08", -3},
		// 2024-03-10 is the US spring-forward date: the day is only 23
		// hours long, which would make naive duration division come up
		// one short.
		{"across spring forward", time.Date(2024, 3, 11, 1, 0, 0, 0, la), "2024-03-01", 10},
		{"across fall back", time.Date(2024, 11, 4, 1, 0, 0, 0, la), "2024-11-01", 3},
	}
	for _, tt := range tests {
		got, err := DaysBetween(tt.later, tt.earlier)
		if err != nil {
			t.Errorf("%s: DaysBetween: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: DaysBetween = %d, want %d", tt.name, got, tt.want)
		}
	}

	if _, err := DaysBetween(time.Now(), "2024-13-01"); err == nil {
		t.Error("expected error for invalid earlier date")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		clock  string
		hour   int
		minute int
		ok     bool
	}{
		{"09:00", 9, 0, true},
		{"00:00", 0, 0, true},
		{"23:59", 23, 59, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"9:00", 0, 0, false},
		{"0900", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		hour, minute, err := ParseClock(tt.clock)
		if tt.ok != (err == nil) {
			t.Errorf("ParseClock(%q) err = %v, want ok=%v", tt.clock, err, tt.ok)
			continue
		}
		if tt.ok && (hour != tt.hour || minute != tt.minute) {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.clock, hour, minute, tt.hour, tt.minute)
		}
	}
}

func TestAtLocalTime(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	base := time.Date(2024, 1, 8, 22, 30, 0, 0, la)

	got, err := AtLocalTime(base, "09:15")
	if err != nil {
		t.Fatalf("AtLocalTime: %v", err)
	}
	want := time.Date(2024, 1, 8, 9, 15, 0, 0, la)
	if !got.Equal(want) {
		t.Errorf("AtLocalTime = %v, want %v", got, want)
	}

	if _, err := AtLocalTime(base, "25:00"); err == nil {
		t.Error("expected error for out-of-range clock")
	}
}

func TestDayBounds(t *testing.T) {
	seoul := mustLoc(t, "Asia/Seoul")
	at := time.Date(2024, 6, 15, 13, 45, 12, 0, seoul)

	start := StartOfDay(at)
	if start.Hour() != 0 || start.Minute() != 0 || CalendarDate(start) != "2024-06-15" {
		t.Errorf("StartOfDay = %v", start)
	}

	end := EndOfDay(at)
	if end.Hour() != 23 || end.Minute() != 59 || CalendarDate(end) != "2024-06-15" {
		t.Errorf("EndOfDay = %v", end)
	}
	if !end.After(at) {
		t.Error("EndOfDay should be after the input instant")
	}
}

func TestAddDaysAcrossDST(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	// 2024-03-09 09:00 + 1 day must land on 2024-03-10 09:00 local even
	// though that day has only 23 hours.
	base := time.Date(2024, 3, 9, 9, 0, 0, 0, la)
	got := AddDays(base, 1)
	if CalendarDate(got) != "2024-03-10" || got.Hour() != 9 {
		t.Errorf("AddDays across spring forward = %v", got)
	}

	if got := AddDays(base, 30); CalendarDate(got) != "2024-04-08" {
		t.Errorf("AddDays(30) = %v", got)
	}
}
