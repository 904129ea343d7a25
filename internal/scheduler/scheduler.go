// Package scheduler provides the orchestration facade over the rule
// engine: it owns a loaded and validated schedule document, evaluates
// it against target instants, and delegates the actual profile mutation
// to an injected StatusSetter. Evaluation is synchronous and side
// effect free; the setter call is the single external boundary, and it
// is skipped entirely in dry-run.
//
// The facade holds no locks. Each Run/Preview treats the loaded
// document as a read-only snapshot; callers that reload concurrently
// with an in-flight run must serialize access themselves.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLog "statuscal/internal/log"
	"statuscal/internal/model"
	"statuscal/internal/schedule"
	"statuscal/internal/timeutil"
)

// StatusSetter is the status-setting collaborator the facade delegates
// to. A zero expiresAt means the status does not expire. Failures
// propagate to the caller unchanged; the facade never retries.
type StatusSetter interface {
	SetStatus(ctx context.Context, text, icon string, expiresAt time.Time) error
	ClearStatus(ctx context.Context) error
}

// Scheduler evaluates a schedule document and applies the outcome
// through a StatusSetter. Zero value is unusable; construct with New
// and load a document with Initialize.
type Scheduler struct {
	doc    *model.ScheduleDocument
	eval   *schedule.Evaluator
	setter StatusSetter
	dryRun bool

	// now is the clock, swappable in tests.
	now func() time.Time
}

// New returns a Scheduler. dryRun controls whether Run calls the
// setter; Preview always behaves as if it were set.
func New(dryRun bool) *Scheduler {
	return &Scheduler{dryRun: dryRun, now: time.Now}
}

// Initialize loads and validates a schedule and stores the setter.
// source is either a file path (loaded via the schedule loader) or an
// in-memory *model.ScheduleDocument. A document that fails validation
// is rejected wholesale with an InvalidScheduleError carrying every
// defect; the engine never partially evaluates an invalid document.
func (s *Scheduler) Initialize(source any, setter StatusSetter) error {
	var doc *model.ScheduleDocument
	var err error

	switch src := source.(type) {
	case string:
		doc, err = schedule.Load(src)
		if err != nil {
			return err
		}
	case *model.ScheduleDocument:
		doc = src
	default:
		return fmt.Errorf("unsupported schedule source %T (expected path or *model.ScheduleDocument)", source)
	}

	if result := schedule.Validate(doc); !result.Valid {
		return &InvalidScheduleError{Errors: result.Errors}
	}

	eval, err := schedule.NewEvaluator(doc)
	if err != nil {
		return err
	}

	if doc.Options != nil && doc.Options.LogLevel != "" {
		appLog.SetLevel(appLog.ParseLevel(doc.Options.LogLevel))
	}

	s.doc = doc
	s.eval = eval
	s.setter = setter
	return nil
}

// Document returns the currently loaded document, or nil before
// Initialize.
func (s *Scheduler) Document() *model.ScheduleDocument {
	return s.doc
}

// DryRun reports the facade's current dry-run flag.
func (s *Scheduler) DryRun() bool {
	return s.dryRun
}

var errNotInitialized = errors.New("scheduler is not initialized (call Initialize first)")

// resolveTarget turns a caller-supplied target string into an absolute
// instant. Empty means now. Zoneless forms are interpreted in the
// schedule's timezone, which is what a human pasting "2024-01-08T10:00"
// out of their calendar means.
func (s *Scheduler) resolveTarget(target string) (time.Time, error) {
	if target == "" {
		return s.now(), nil
	}
	if t, err := time.Parse(time.RFC3339, target); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, target, s.eval.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidTargetInstantError{Input: target}
}

// Run evaluates the schedule at the target instant (empty = now) and
// applies the outcome. First matching rule wins; with no match the
// result is a clear when options.clearWhenNoMatch is set, otherwise no
// change. Live runs require a setter; setter failures propagate
// unchanged with no retry here.
func (s *Scheduler) Run(ctx context.Context, target string) (*model.Result, error) {
	if s.eval == nil {
		return nil, errNotInitialized
	}
	if !s.dryRun && s.setter == nil {
		return nil, &CredentialMissingError{}
	}

	instant, err := s.resolveTarget(target)
	if err != nil {
		return nil, err
	}
	local := s.eval.Localize(instant)

	rule, err := s.eval.FindMatchingRule(instant)
	if err != nil {
		return nil, err
	}

	if rule == nil {
		if s.doc.ClearWhenNoMatch() {
			return s.clearStatus(ctx, local)
		}
		appLog.Debug("no rule matched", "at", local.Format(time.RFC3339))
		return &model.Result{
			Action:  model.ActionNoChange,
			Message: "no rule matched at " + local.Format(time.RFC3339),
			DryRun:  s.dryRun,
		}, nil
	}

	return s.updateStatus(ctx, rule, local)
}

// Preview evaluates like Run but forces dry-run for the duration of the
// call, restoring the previous flag afterwards even when evaluation
// fails. It never invokes the setter.
func (s *Scheduler) Preview(ctx context.Context, target string) (*model.Result, error) {
	saved := s.dryRun
	s.dryRun = true
	defer func() { s.dryRun = saved }()

	return s.Run(ctx, target)
}

func (s *Scheduler) updateStatus(ctx context.Context, rule *model.Rule, local time.Time) (*model.Result, error) {
	expiresAt := schedule.ComputeExpiration(&rule.Status, local)

	if !s.dryRun {
		if err := s.setter.SetStatus(ctx, rule.Status.Text, rule.Status.Icon, expiresAt); err != nil {
			return nil, fmt.Errorf("setting status for rule %q: %w", rule.ID, err)
		}
	}

	appLog.Info("status update",
		"rule", rule.ID,
		"text", rule.Status.Text,
		"icon", rule.Status.Icon,
		"expires_at", expiresAt.Format(time.RFC3339),
		"dry_run", s.dryRun,
	)

	status := rule.Status
	return &model.Result{
		Action:    model.ActionUpdateStatus,
		RuleID:    rule.ID,
		Status:    &status,
		ExpiresAt: expiresAt,
		DryRun:    s.dryRun,
	}, nil
}

func (s *Scheduler) clearStatus(ctx context.Context, local time.Time) (*model.Result, error) {
	if !s.dryRun {
		if err := s.setter.ClearStatus(ctx); err != nil {
			return nil, fmt.Errorf("clearing status: %w", err)
		}
	}

	appLog.Info("status cleared", "at", local.Format(time.RFC3339), "dry_run", s.dryRun)
	return &model.Result{Action: model.ActionClear, DryRun: s.dryRun}, nil
}

// UpcomingChanges scans the next `days` calendar days (today included)
// and returns one entry per day that produces a match, ascending by
// date. Matching is date-granular: each day is checked at its final
// local instant so per-day time gates do not hide the day, and the
// entry's ExecuteAt is the rule's own time (midnight when absent) on
// that day. This never touches the status setter.
func (s *Scheduler) UpcomingChanges(days int) ([]model.UpcomingChange, error) {
	if s.eval == nil {
		return nil, errNotInitialized
	}

	localNow := s.eval.Localize(s.now())
	var upcoming []model.UpcomingChange

	for i := 0; i < days; i++ {
		day := timeutil.AddDays(timeutil.StartOfDay(localNow), i)

		rule, err := s.eval.FindMatchingRule(timeutil.EndOfDay(day))
		if err != nil {
			return nil, err
		}
		if rule == nil {
			continue
		}

		clock := rule.Time
		if clock == "" {
			clock = "00:00"
		}
		executeAt, err := timeutil.AtLocalTime(day, clock)
		if err != nil {
			return nil, err
		}

		upcoming = append(upcoming, model.UpcomingChange{
			Date:      timeutil.CalendarDate(day),
			Time:      clock,
			ExecuteAt: executeAt,
			RuleID:    rule.ID,
			Status:    rule.Status,
		})
	}

	return upcoming, nil
}

// Envelope is the boundary representation of a Run/Preview outcome for
// UI and CLI consumers that prefer a record over an error value.
type Envelope struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Result  *model.Result `json:"result,omitempty"`
}

// Wrap folds a (result, error) pair into an Envelope.
func Wrap(res *model.Result, err error) Envelope {
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	return Envelope{Success: true, Result: res}
}
