package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"statuscal/internal/model"
	"statuscal/internal/timeutil"
)

// maxStatusTextLength is the longest status text the downstream profile
// API accepts.
const maxStatusTextLength = 100

// shortCodePattern matches a well-formed icon short-code: colon-delimited
// on both ends with a non-empty [a-z0-9_+-] body.
var shortCodePattern = regexp.MustCompile(`^:[a-z0-9_+-]+:$`)

// Validate checks a schedule document exhaustively and returns every
// defect found, in document order, each prefixed with enough context
// ("Rule 2: ...", "Rule 2 status: ...", "Options: ...") to locate the
// problem without a line number. It never returns an error and never
// stops at the first defect; Valid is true iff Errors is empty.
func Validate(doc *model.ScheduleDocument) model.ValidationResult {
	if doc == nil {
		return invalid("Schedule document is missing")
	}

	var errs []string

	if doc.Version != model.SchemaVersion {
		errs = append(errs, fmt.Sprintf("Version must be %d, got %d", model.SchemaVersion, doc.Version))
	}

	switch {
	case doc.Timezone == "":
		errs = append(errs, "Timezone is required")
	default:
		if _, err := timeutil.LoadLocation(doc.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("Timezone %q is not a valid IANA timezone", doc.Timezone))
		}
	}

	if len(doc.Rules) == 0 {
		errs = append(errs, "Rules must be a non-empty list")
	}

	for i, rule := range doc.Rules {
		errs = append(errs, validateRule(&rule, i+1)...)
	}

	errs = append(errs, duplicateRuleIDs(doc.Rules)...)

	if doc.Options != nil {
		errs = append(errs, validateOptions(doc.Options)...)
	}

	return model.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func invalid(msg string) model.ValidationResult {
	return model.ValidationResult{Valid: false, Errors: []string{msg}}
}

// validateRule checks one rule; index is 1-based for messages.
func validateRule(rule *model.Rule, index int) []string {
	var errs []string
	prefix := fmt.Sprintf("Rule %d", index)

	if rule.Time != "" {
		if _, _, err := timeutil.ParseClock(rule.Time); err != nil {
			errs = append(errs, fmt.Sprintf("%s: time %q must be HH:MM with hour 0-23 and minute 0-59", prefix, rule.Time))
		}
	}

	errs = append(errs, validateStatus(&rule.Status, prefix)...)

	switch rule.Type {
	case model.RuleWeekly:
		errs = append(errs, validateWeekly(rule, prefix)...)
	case model.RuleEveryNDays:
		errs = append(errs, validateEveryNDays(rule, prefix)...)
	case model.RuleDates:
		errs = append(errs, validateDates(rule, prefix)...)
	case "":
		errs = append(errs, fmt.Sprintf("%s: type is required (weekly, everyNDays, or dates)", prefix))
	default:
		errs = append(errs, fmt.Sprintf("%s: unknown type %q (expected weekly, everyNDays, or dates)", prefix, rule.Type))
	}

	return errs
}

func validateStatus(status *model.Status, prefix string) []string {
	var errs []string

	if status.Text == "" {
		errs = append(errs, fmt.Sprintf("%s status: text is required", prefix))
	} else if utf8.RuneCountInString(status.Text) > maxStatusTextLength {
		errs = append(errs, fmt.Sprintf("%s status: text exceeds %d characters", prefix, maxStatusTextLength))
	}

	switch {
	case status.Icon == "":
		errs = append(errs, fmt.Sprintf("%s status: icon is required", prefix))
	case strings.HasPrefix(status.Icon, ":") || strings.HasSuffix(status.Icon, ":"):
		// Looks like a short-code; it must then be a well-formed one.
		// Anything without colons is accepted permissively as a literal
		// Unicode glyph.
		if !shortCodePattern.MatchString(status.Icon) {
			errs = append(errs, fmt.Sprintf("%s status: icon %q is a malformed short-code (expected :name: with [a-z0-9_+-])", prefix, status.Icon))
		}
	}

	if status.ExpireHour != nil {
		if h := *status.ExpireHour; h < 0 || h > 23 {
			errs = append(errs, fmt.Sprintf("%s status: expireHour must be between 0 and 23, got %d", prefix, h))
		}
	}

	return errs
}

func validateWeekly(rule *model.Rule, prefix string) []string {
	var errs []string

	if len(rule.Days) == 0 {
		errs = append(errs, fmt.Sprintf("%s: weekly rules require a non-empty days list", prefix))
		return errs
	}

	known := make(map[string]bool, len(model.DayTokens))
	for _, tok := range model.DayTokens {
		known[tok] = true
	}

	seen := make(map[string]bool, len(rule.Days))
	for _, day := range rule.Days {
		if !known[day] {
			errs = append(errs, fmt.Sprintf("%s: unrecognized day %q (expected mon, tue, wed, thu, fri, sat, sun)", prefix, day))
			continue
		}
		if seen[day] {
			errs = append(errs, fmt.Sprintf("%s: duplicate day %q", prefix, day))
		}
		seen[day] = true
	}

	return errs
}

func validateEveryNDays(rule *model.Rule, prefix string) []string {
	var errs []string

	switch {
	case rule.StartDate == "":
		errs = append(errs, fmt.Sprintf("%s: everyNDays rules require a startDate", prefix))
	case !timeutil.IsValidISODate(rule.StartDate):
		errs = append(errs, fmt.Sprintf("%s: startDate %q is not a valid YYYY-MM-DD date", prefix, rule.StartDate))
	}

	if rule.IntervalDays <= 0 {
		errs = append(errs, fmt.Sprintf("%s: intervalDays must be a positive integer, got %d", prefix, rule.IntervalDays))
	}

	return errs
}

func validateDates(rule *model.Rule, prefix string) []string {
	var errs []string

	if len(rule.Dates) == 0 {
		errs = append(errs, fmt.Sprintf("%s: dates rules require a non-empty dates list", prefix))
		return errs
	}

	seen := make(map[string]bool, len(rule.Dates))
	for _, date := range rule.Dates {
		if !timeutil.IsValidISODate(date) {
			errs = append(errs, fmt.Sprintf("%s: date %q is not a valid YYYY-MM-DD date", prefix, date))
			continue
		}
		if seen[date] {
			errs = append(errs, fmt.Sprintf("%s: duplicate date %q", prefix, date))
		}
		seen[date] = true
	}

	return errs
}

// duplicateRuleIDs reports every id used by more than one rule, naming
// the id and the 1-based positions involved.
func duplicateRuleIDs(rules []model.Rule) []string {
	positions := make(map[string][]int)
	order := make([]string, 0)
	for i, rule := range rules {
		if rule.ID == "" {
			continue
		}
		if _, ok := positions[rule.ID]; !ok {
			order = append(order, rule.ID)
		}
		positions[rule.ID] = append(positions[rule.ID], i+1)
	}

	var errs []string
	for _, id := range order {
		if idxs := positions[id]; len(idxs) > 1 {
			refs := make([]string, len(idxs))
			for i, idx := range idxs {
				refs[i] = fmt.Sprintf("%d", idx)
			}
			errs = append(errs, fmt.Sprintf("Duplicate rule id %q used by rules %s", id, strings.Join(refs, ", ")))
		}
	}
	return errs
}

func validateOptions(opts *model.Options) []string {
	var errs []string

	switch opts.LogLevel {
	case "", model.LogLevelError, model.LogLevelWarn, model.LogLevelInfo, model.LogLevelDebug:
	default:
		errs = append(errs, fmt.Sprintf("Options: logLevel %q must be one of error, warn, info, debug", opts.LogLevel))
	}

	if opts.RetryAttempts != nil && *opts.RetryAttempts < 0 {
		errs = append(errs, fmt.Sprintf("Options: retryAttempts must be non-negative, got %d", *opts.RetryAttempts))
	}
	if opts.RetryDelayMs != nil && *opts.RetryDelayMs < 0 {
		errs = append(errs, fmt.Sprintf("Options: retryDelayMs must be non-negative, got %d", *opts.RetryDelayMs))
	}

	return errs
}

// quick is the shared struct validator for QuickValidate. The tags live
// on the model types; this instance just drives them.
var quick = validator.New(validator.WithRequiredStructEnabled())

// QuickValidate runs the fast-path presence checks used for interactive
// editor feedback: timezone present, rules non-empty, and per rule a
// type plus status text and icon. It intentionally skips the deep
// checks; anything passing Validate also passes QuickValidate, but not
// the reverse.
func QuickValidate(doc *model.ScheduleDocument) model.ValidationResult {
	if doc == nil {
		return invalid("Schedule document is missing")
	}

	err := quick.Struct(doc)
	if err == nil {
		return model.ValidationResult{Valid: true}
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return invalid(err.Error())
	}

	var errs []string
	for _, fe := range fieldErrs {
		errs = append(errs, quickMessage(fe))
	}
	return model.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// quickMessage renders a validator.FieldError as a short human-readable
// defect in the same register as Validate's messages.
func quickMessage(fe validator.FieldError) string {
	ns := fe.StructNamespace()

	// Pull the rule position out of namespaces like
	// "ScheduleDocument.Rules[2].Status.Text".
	if start := strings.Index(ns, "Rules["); start >= 0 {
		end := strings.Index(ns[start:], "]")
		if end > 0 {
			idx := 0
			fmt.Sscanf(ns[start+len("Rules["):start+end], "%d", &idx)
			switch fe.Field() {
			case "Type":
				return fmt.Sprintf("Rule %d: type is required", idx+1)
			case "Text":
				return fmt.Sprintf("Rule %d status: text is required", idx+1)
			case "Icon":
				return fmt.Sprintf("Rule %d status: icon is required", idx+1)
			}
			return fmt.Sprintf("Rule %d: %s is required", idx+1, strings.ToLower(fe.Field()))
		}
	}

	switch fe.Field() {
	case "Timezone":
		return "Timezone is required"
	case "Rules":
		return "Rules must be a non-empty list"
	}
	return fmt.Sprintf("%s failed %s validation", ns, fe.Tag())
}
