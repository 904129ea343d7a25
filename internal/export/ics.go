// Package export renders a schedule document as an iCalendar feed so
// the authored status blocks can be viewed in any calendar app.
// Weekly and interval rules become recurring VEVENTs carrying an RRULE;
// date-list rules become one VEVENT per date. Pure output, no network.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"statuscal/internal/model"
	"statuscal/internal/schedule"
	"statuscal/internal/timeutil"
)

// dayToRRule maps schedule day tokens onto rrule weekday constants.
var dayToRRule = map[string]rrule.Weekday{
	"mon": rrule.MO,
	"tue": rrule.TU,
	"wed": rrule.WE,
	"thu": rrule.TH,
	"fri": rrule.FR,
	"sat": rrule.SA,
	"sun": rrule.SU,
}

var weekdayTokensOnly = []string{"mon", "tue", "wed", "thu", "fri"}

// intersectDays keeps the tokens of days that also appear in allowed,
// preserving the original order.
func intersectDays(days, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, day := range allowed {
		keep[day] = true
	}
	out := make([]string, 0, len(days))
	for _, day := range days {
		if keep[day] {
			out = append(out, day)
		}
	}
	return out
}

// ICS renders the document's enabled rules as an iCalendar feed
// covering `days` calendar days from `from`. Each event spans the
// status block: the rule's execution time (midnight when no time gate
// is set) through the status's computed expiration.
func ICS(doc *model.ScheduleDocument, from time.Time, days int) (string, error) {
	loc, err := timeutil.LoadLocation(doc.Timezone)
	if err != nil {
		return "", err
	}

	localFrom := timeutil.StartOfDay(from.In(loc))
	windowEnd := timeutil.AddDays(localFrom, days)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//statuscal//status schedule//EN")

	for i := range doc.Rules {
		rule := &doc.Rules[i]
		if !rule.IsEnabled() {
			continue
		}

		switch rule.Type {
		case model.RuleWeekly, model.RuleEveryNDays:
			if err := addRecurringEvent(cal, rule, i, localFrom, windowEnd, loc); err != nil {
				return "", err
			}
		case model.RuleDates:
			if err := addDateEvents(cal, rule, i, localFrom, windowEnd, loc); err != nil {
				return "", err
			}
		default:
			return "", &schedule.UnknownRuleTypeError{RuleID: rule.ID, Type: rule.Type}
		}
	}

	return cal.Serialize(), nil
}

// ruleClock returns the rule's execution clock time, defaulting to
// midnight.
func ruleClock(rule *model.Rule) string {
	if rule.Time != "" {
		return rule.Time
	}
	return "00:00"
}

// recurrenceOption builds the rrule options matching the rule's
// semantics, anchored at the rule's own start. For interval rules
// BYDAY acts as a weekday filter over the interval days, which is
// exactly how onlyWeekdays narrows matching.
func recurrenceOption(rule *model.Rule, windowStart time.Time, loc *time.Location) (rrule.ROption, error) {
	clock := ruleClock(rule)

	switch rule.Type {
	case model.RuleWeekly:
		days := rule.Days
		if rule.OnlyWeekdays {
			days = intersectDays(days, weekdayTokensOnly)
		}
		byday := make([]rrule.Weekday, 0, len(days))
		for _, day := range days {
			byday = append(byday, dayToRRule[day])
		}
		dtstart, err := timeutil.AtLocalTime(windowStart, clock)
		if err != nil {
			return rrule.ROption{}, err
		}
		return rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: byday,
			Dtstart:   dtstart,
		}, nil

	case model.RuleEveryNDays:
		anchor, err := timeutil.ParseDate(rule.StartDate, loc)
		if err != nil {
			return rrule.ROption{}, err
		}
		dtstart, err := timeutil.AtLocalTime(anchor, clock)
		if err != nil {
			return rrule.ROption{}, err
		}
		opt := rrule.ROption{
			Freq:     rrule.DAILY,
			Interval: rule.IntervalDays,
			Dtstart:  dtstart,
		}
		if rule.OnlyWeekdays {
			opt.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}
		}
		return opt, nil
	}

	return rrule.ROption{}, fmt.Errorf("rule %q: type %q has no recurrence", rule.ID, rule.Type)
}

// rruleValue formats the RRULE property for the rule. The property
// carries only the recurrence pattern; the anchor lives in DTSTART.
func rruleValue(rule *model.Rule) string {
	switch rule.Type {
	case model.RuleWeekly:
		days := rule.Days
		if rule.OnlyWeekdays {
			days = intersectDays(days, weekdayTokensOnly)
		}
		byday := make([]string, 0, len(days))
		for _, day := range days {
			byday = append(byday, dayToRRule[day].String())
		}
		return "FREQ=WEEKLY;BYDAY=" + strings.Join(byday, ",")
	case model.RuleEveryNDays:
		v := fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", rule.IntervalDays)
		if rule.OnlyWeekdays {
			v += ";BYDAY=MO,TU,WE,TH,FR"
		}
		return v
	}
	return ""
}

func addRecurringEvent(cal *ics.Calendar, rule *model.Rule, index int, from, until time.Time, loc *time.Location) error {
	opt, err := recurrenceOption(rule, from, loc)
	if err != nil {
		return err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return fmt.Errorf("rule %q: building recurrence: %w", rule.ID, err)
	}

	// Anchor the exported event at the first occurrence inside the
	// window. Enumerating through the rule keeps interval phase intact
	// even when the window does not start on an interval day.
	occurrences := r.Between(from, until, true)
	if len(occurrences) == 0 {
		return nil
	}
	start := occurrences[0].In(loc)

	event := cal.AddEvent(eventUID(rule, index, start))
	event.SetStartAt(start)
	event.SetEndAt(schedule.ComputeExpiration(&rule.Status, start))
	event.SetSummary(rule.Status.Text + " " + rule.Status.Icon)
	event.SetDescription(schedule.Describe(rule))
	event.AddRrule(rruleValue(rule))
	return nil
}

func addDateEvents(cal *ics.Calendar, rule *model.Rule, index int, from, until time.Time, loc *time.Location) error {
	dates := append([]string(nil), rule.Dates...)
	sort.Strings(dates)

	for _, date := range dates {
		day, err := timeutil.ParseDate(date, loc)
		if err != nil {
			return fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		start, err := timeutil.AtLocalTime(day, ruleClock(rule))
		if err != nil {
			return err
		}
		if start.Before(from) || !start.Before(until) {
			continue
		}

		event := cal.AddEvent(eventUID(rule, index, start))
		event.SetStartAt(start)
		event.SetEndAt(schedule.ComputeExpiration(&rule.Status, start))
		event.SetSummary(rule.Status.Text + " " + rule.Status.Icon)
		event.SetDescription(schedule.Describe(rule))
	}
	return nil
}

// eventUID derives a stable per-event UID from the rule identity and
// the occurrence start.
func eventUID(rule *model.Rule, index int, start time.Time) string {
	id := rule.ID
	if id == "" {
		id = fmt.Sprintf("rule-%d", index+1)
	}
	return fmt.Sprintf("%s-%s@statuscal", id, start.Format("20060102T150405"))
}
