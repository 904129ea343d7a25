package export

import (
	"strings"
	"testing"
	"time"

	"statuscal/internal/model"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func laMonday() time.Time {
	la, _ := time.LoadLocation("America/Los_Angeles")
	return time.Date(2024, 1, 8, 6, 0, 0, 0, la)
}

func TestICSWeeklyRuleCarriesRRule(t *testing.T) {
	doc := &model.ScheduleDocument{
		Version:  1,
		Timezone: "America/Los_Angeles",
		Rules: []model.Rule{
			{ID: "focus", Type: model.RuleWeekly, Days: []string{"mon", "wed"}, Time: "09:00",
				Status: model.Status{Text: "Deep work", Icon: ":brain:", ExpireHour: intPtr(11)}},
		},
	}

	feed, err := ICS(doc, laMonday(), 7)
	if err != nil {
		t.Fatalf("ICS: %v", err)
	}

	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "BEGIN:VEVENT") {
		t.Fatalf("not an iCalendar feed:\n%s", feed)
	}
	if !strings.Contains(feed, "RRULE:FREQ=WEEKLY;BYDAY=MO,WE") {
		t.Errorf("missing weekly RRULE:\n%s", feed)
	}
	if !strings.Contains(feed, "Deep work :brain:") {
		t.Errorf("missing summary:\n%s", feed)
	}
}

func TestICSIntervalRule(t *testing.T) {
	doc := &model.ScheduleDocument{
		Version:  1,
		Timezone: "America/Los_Angeles",
		Rules: []model.Rule{
			{ID: "standup", Type: model.RuleEveryNDays, StartDate: "2024-01-01", IntervalDays: 3,
				OnlyWeekdays: true,
				Status:       model.Status{Text: "Standup", Icon: ":mega:"}},
		},
	}

	feed, err := ICS(doc, laMonday(), 14)
	if err != nil {
		t.Fatalf("ICS: %v", err)
	}
	if !strings.Contains(feed, "RRULE:FREQ=DAILY;INTERVAL=3;BYDAY=MO,TU,WE,TH,FR") {
		t.Errorf("missing interval RRULE:\n%s", feed)
	}
}

func TestICSDatesRule(t *testing.T) {
	doc := &model.ScheduleDocument{
		Version:  1,
		Timezone: "America/Los_Angeles",
		Rules: []model.Rule{
			{ID: "ooo", Type: model.RuleDates,
				Dates:  []string{"2024-01-10", "2024-06-01"},
				Status: model.Status{Text: "Out of office", Icon: "🌴"}},
		},
	}

	feed, err := ICS(doc, laMonday(), 7)
	if err != nil {
		t.Fatalf("ICS: %v", err)
	}

	// Only the in-window date produces an event, and dates rules never
	// carry an RRULE.
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("events = %d, want 1:\n%s", got, feed)
	}
	if strings.Contains(feed, "RRULE") {
		t.Errorf("dates rule must not emit an RRULE:\n%s", feed)
	}
}

func TestICSSkipsDisabledRules(t *testing.T) {
	doc := &model.ScheduleDocument{
		Version:  1,
		Timezone: "America/Los_Angeles",
		Rules: []model.Rule{
			{ID: "off", Type: model.RuleWeekly, Days: []string{"mon"}, Enabled: boolPtr(false),
				Status: model.Status{Text: "x", Icon: ":x:"}},
		},
	}

	feed, err := ICS(doc, laMonday(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(feed, "BEGIN:VEVENT") {
		t.Errorf("disabled rule produced an event:\n%s", feed)
	}
}

func TestICSRejectsBadTimezone(t *testing.T) {
	doc := &model.ScheduleDocument{Version: 1, Timezone: "Bad/Zone"}
	if _, err := ICS(doc, laMonday(), 7); err == nil {
		t.Fatal("expected timezone error")
	}
}
