package schedule

import (
	"time"

	"statuscal/internal/model"
	"statuscal/internal/timeutil"
)

// Evaluator runs an ordered rule list against localized instants.
// Construct one per validated document; it holds the resolved timezone
// and the enabled subset of rules (disabled rules never reach the
// matcher) and is read-only thereafter.
type Evaluator struct {
	location *time.Location
	rules    []model.Rule
}

// NewEvaluator builds an Evaluator for a validated document. The only
// error path is an unresolvable timezone, which a validated document
// cannot have; it is kept for callers that evaluate hand-built
// documents directly.
func NewEvaluator(doc *model.ScheduleDocument) (*Evaluator, error) {
	loc, err := timeutil.LoadLocation(doc.Timezone)
	if err != nil {
		return nil, err
	}

	rules := make([]model.Rule, 0, len(doc.Rules))
	for _, rule := range doc.Rules {
		if rule.IsEnabled() {
			rules = append(rules, rule)
		}
	}

	return &Evaluator{location: loc, rules: rules}, nil
}

// Location returns the schedule's resolved timezone.
func (e *Evaluator) Location() *time.Location {
	return e.location
}

// Localize projects an absolute instant into the schedule's timezone.
func (e *Evaluator) Localize(t time.Time) time.Time {
	return t.In(e.location)
}

// FindMatchingRule returns the first rule (in document order) that
// matches the instant, or nil when none does. First-match-wins: later
// rules are never consulted once one matches.
func (e *Evaluator) FindMatchingRule(t time.Time) (*model.Rule, error) {
	local := e.Localize(t)
	for i := range e.rules {
		ok, err := Matches(&e.rules[i], local)
		if err != nil {
			return nil, err
		}
		if ok {
			return &e.rules[i], nil
		}
	}
	return nil, nil
}

// AllMatchingRules returns every rule matching the instant, in document
// order. Diagnostic variant of FindMatchingRule with no short-circuit.
func (e *Evaluator) AllMatchingRules(t time.Time) ([]model.Rule, error) {
	local := e.Localize(t)
	var matched []model.Rule
	for i := range e.rules {
		ok, err := Matches(&e.rules[i], local)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e.rules[i])
		}
	}
	return matched, nil
}

// RuleMatches localizes the instant and runs the matcher on one rule.
func (e *Evaluator) RuleMatches(rule *model.Rule, t time.Time) (bool, error) {
	return Matches(rule, e.Localize(t))
}
