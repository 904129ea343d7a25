package schedule

import (
	"fmt"
	"strings"

	"statuscal/internal/model"
)

var dayNames = map[string]string{
	"mon": "Monday",
	"tue": "Tuesday",
	"wed": "Wednesday",
	"thu": "Thursday",
	"fri": "Friday",
	"sat": "Saturday",
	"sun": "Sunday",
}

// Describe renders one rule as a single human-readable line for CLI and
// editor listings, e.g.
//
//	Every Monday, Friday at 09:00: "Deep work" :brain: (expires 11:00)
func Describe(rule *model.Rule) string {
	var b strings.Builder

	switch rule.Type {
	case model.RuleWeekly:
		names := make([]string, 0, len(rule.Days))
		for _, day := range rule.Days {
			if n, ok := dayNames[day]; ok {
				names = append(names, n)
			} else {
				names = append(names, day)
			}
		}
		b.WriteString("Every " + strings.Join(names, ", "))
	case model.RuleEveryNDays:
		if rule.IntervalDays == 1 {
			b.WriteString("Every day")
		} else {
			fmt.Fprintf(&b, "Every %d days", rule.IntervalDays)
		}
		b.WriteString(" from " + rule.StartDate)
	case model.RuleDates:
		b.WriteString("On " + strings.Join(rule.Dates, ", "))
	default:
		fmt.Fprintf(&b, "Unknown rule type %q", rule.Type)
	}

	if rule.OnlyWeekdays && rule.Type != model.RuleDates {
		b.WriteString(" (weekdays only)")
	}
	if rule.Time != "" {
		b.WriteString(" at " + rule.Time)
	}

	fmt.Fprintf(&b, ": %q %s", rule.Status.Text, rule.Status.Icon)
	if rule.Status.ExpireHour != nil {
		fmt.Fprintf(&b, " (expires %02d:00)", *rule.Status.ExpireHour)
	}
	if !rule.IsEnabled() {
		b.WriteString(" [disabled]")
	}

	return b.String()
}

// DescribeDocument renders every rule in document order, one per line,
// numbered the way validation messages number rules.
func DescribeDocument(doc *model.ScheduleDocument) string {
	lines := make([]string, 0, len(doc.Rules))
	for i := range doc.Rules {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, Describe(&doc.Rules[i])))
	}
	return strings.Join(lines, "\n")
}
