package schedule

import (
	"fmt"
	"time"

	"statuscal/internal/model"
	"statuscal/internal/timeutil"
)

// UnknownRuleTypeError reports a rule whose type is not one of the
// three known variants. The validator rejects such documents, so
// hitting this at match time means the caller skipped validation; it
// is a defect, not a normal no-match.
type UnknownRuleTypeError struct {
	RuleID string
	Type   model.RuleType
}

func (e *UnknownRuleTypeError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("rule %q has unknown type %q", e.RuleID, e.Type)
	}
	return fmt.Sprintf("rule has unknown type %q", e.Type)
}

// Matches reports whether the rule fires at the given instant. The
// instant must already be localized into the schedule's timezone; all
// day and clock comparisons happen in its location.
//
// The optional time gate is checked first: a rule with time "09:00"
// matches from 09:00 local onward on a matching calendar day, and never
// before. The gate is per-day, not a rolling window.
func Matches(rule *model.Rule, local time.Time) (bool, error) {
	if rule.Time != "" {
		gate, err := timeutil.AtLocalTime(local, rule.Time)
		if err != nil {
			return false, fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		if local.Before(gate) {
			return false, nil
		}
	}

	switch rule.Type {
	case model.RuleWeekly:
		return matchesWeekly(rule, local), nil
	case model.RuleEveryNDays:
		return matchesEveryNDays(rule, local)
	case model.RuleDates:
		return matchesDates(rule, local), nil
	default:
		return false, &UnknownRuleTypeError{RuleID: rule.ID, Type: rule.Type}
	}
}

func matchesWeekly(rule *model.Rule, local time.Time) bool {
	if rule.OnlyWeekdays && !timeutil.IsWeekday(local) {
		return false
	}
	token := timeutil.WeekdayToken(local)
	for _, day := range rule.Days {
		if day == token {
			return true
		}
	}
	return false
}

func matchesEveryNDays(rule *model.Rule, local time.Time) (bool, error) {
	days, err := timeutil.DaysBetween(local, rule.StartDate)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", rule.ID, err)
	}
	if days < 0 {
		// Rule not yet active.
		return false, nil
	}
	if rule.IntervalDays <= 0 {
		return false, fmt.Errorf("rule %q: intervalDays must be positive", rule.ID)
	}
	if days%rule.IntervalDays != 0 {
		return false, nil
	}
	if rule.OnlyWeekdays && !timeutil.IsWeekday(local) {
		return false, nil
	}
	return true, nil
}

func matchesDates(rule *model.Rule, local time.Time) bool {
	date := timeutil.CalendarDate(local)
	for _, d := range rule.Dates {
		if d == date {
			return true
		}
	}
	return false
}
