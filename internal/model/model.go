package model

import "time"

// SchemaVersion is the only schedule document version this engine
// understands. Documents carrying any other version fail validation.
const SchemaVersion = 1

// RuleType discriminates the three recurrence variants. A Rule carries
// exactly the fields its type needs; the others stay zero.
type RuleType string

const (
	RuleWeekly     RuleType = "weekly"
	RuleEveryNDays RuleType = "everyNDays"
	RuleDates      RuleType = "dates"
)

// DayTokens lists the recognized weekday tokens in week order.
var DayTokens = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Status is the payload applied to the external profile when a rule
// matches. Icon is either a :short_code: or a literal Unicode glyph.
type Status struct {
	Text string `json:"text" yaml:"text" validate:"required"`
	Icon string `json:"icon" yaml:"icon" validate:"required"`

	// ExpireHour, if set, is the local hour (0-23) at which the applied
	// status should be considered stale. Absent means end of local day.
	ExpireHour *int `json:"expireHour,omitempty" yaml:"expireHour,omitempty"`
}

// Rule is one recurrence definition. Which of the variant fields are
// meaningful depends on Type; validation enforces the pairing.
type Rule struct {
	ID   string   `json:"id,omitempty" yaml:"id,omitempty"`
	Type RuleType `json:"type" yaml:"type" validate:"required"`

	// Time is an optional "HH:MM" local time gate. When set, the rule
	// only matches from that clock time onward on a matching day.
	Time string `json:"time,omitempty" yaml:"time,omitempty"`

	Status Status `json:"status" yaml:"status"`

	// Enabled is an editor-level switch. Nil means enabled. Disabled
	// rules are filtered out before evaluation.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// weekly
	Days []string `json:"days,omitempty" yaml:"days,omitempty"`

	// weekly / everyNDays
	OnlyWeekdays bool `json:"onlyWeekdays,omitempty" yaml:"onlyWeekdays,omitempty"`

	// everyNDays
	StartDate    string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	IntervalDays int    `json:"intervalDays,omitempty" yaml:"intervalDays,omitempty"`

	// dates
	Dates []string `json:"dates,omitempty" yaml:"dates,omitempty"`
}

// IsEnabled reports whether the rule participates in evaluation.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// LogLevel values accepted in Options.
const (
	LogLevelError = "error"
	LogLevelWarn  = "warn"
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
)

// Options holds document-level behavior switches. Retry settings are
// surfaced to the status-setting collaborator; the engine itself never
// retries.
type Options struct {
	ClearWhenNoMatch bool   `json:"clearWhenNoMatch,omitempty" yaml:"clearWhenNoMatch,omitempty"`
	LogLevel         string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	RetryAttempts    *int   `json:"retryAttempts,omitempty" yaml:"retryAttempts,omitempty"`
	RetryDelayMs     *int   `json:"retryDelayMs,omitempty" yaml:"retryDelayMs,omitempty"`
}

// ScheduleDocument is the root configuration: an ordered rule list
// evaluated first-match-wins in a single IANA timezone. Rule order is
// semantically meaningful and must survive every load/save round trip.
type ScheduleDocument struct {
	Version  int      `json:"version" yaml:"version"`
	Timezone string   `json:"timezone" yaml:"timezone" validate:"required"`
	Options  *Options `json:"options,omitempty" yaml:"options,omitempty"`
	Rules    []Rule   `json:"rules" yaml:"rules" validate:"required,min=1,dive"`
}

// ClearWhenNoMatch reports the effective clearWhenNoMatch option.
func (d *ScheduleDocument) ClearWhenNoMatch() bool {
	return d.Options != nil && d.Options.ClearWhenNoMatch
}

// ValidationResult is the validator's verdict: Valid is true iff
// Errors is empty. Errors preserves discovery order.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Action is what an evaluation decided to do with the external status.
type Action string

const (
	ActionNoChange     Action = "noChange"
	ActionUpdateStatus Action = "updateStatus"
	ActionClear        Action = "clear"
)

// Result is the outcome of one Run/Preview call.
type Result struct {
	Action    Action    `json:"action"`
	Message   string    `json:"message,omitempty"`
	RuleID    string    `json:"rule,omitempty"`
	Status    *Status   `json:"status,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`

	// DryRun records whether the external status-setter was skipped.
	DryRun bool `json:"dryRun,omitempty"`
}

// UpcomingChange is one entry of a lookahead scan: the rule that will
// fire on Date and the concrete local instant it takes effect.
type UpcomingChange struct {
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	ExecuteAt time.Time `json:"executeAt"`
	RuleID    string    `json:"rule"`
	Status    Status    `json:"status"`
}
