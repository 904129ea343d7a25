// Package daemon runs the scheduler facade on a cron cadence. The
// engine itself has no timers or polling; deciding when to call Run is
// this layer's whole job.
package daemon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	appLog "statuscal/internal/log"
	"statuscal/internal/scheduler"
)

// DefaultCron evaluates the schedule every five minutes, which is tight
// enough for time-gated rules to apply close to their gate.
const DefaultCron = "*/5 * * * *"

// Daemon invokes a Scheduler's Run at each cron tick.
type Daemon struct {
	sched *scheduler.Scheduler
	next  cron.Schedule
	now   func() time.Time
}

// New parses the cron expression (standard five-field form; empty means
// DefaultCron) and returns a Daemon around the given scheduler.
func New(sched *scheduler.Scheduler, cronExpr string) (*Daemon, error) {
	if cronExpr == "" {
		cronExpr = DefaultCron
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	next, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Daemon{sched: sched, next: next, now: time.Now}, nil
}

// Run ticks until the context is canceled. Each tick evaluates the
// schedule at the current instant under a short per-tick run id so log
// lines from one evaluation can be correlated. A failing tick is logged
// and does not stop the loop.
func (d *Daemon) Run(ctx context.Context) error {
	appLog.Info("daemon started", "next_run", d.next.Next(d.now()).Format(time.RFC3339))

	for {
		wake := d.next.Next(d.now())
		timer := time.NewTimer(time.Until(wake))

		select {
		case <-ctx.Done():
			timer.Stop()
			appLog.Info("daemon stopping")
			return ctx.Err()
		case <-timer.C:
		}

		d.tick(ctx)
	}
}

func (d *Daemon) tick(ctx context.Context) {
	runID := uuid.New().String()[:8]

	result, err := d.sched.Run(ctx, "")
	if err != nil {
		appLog.Error("daemon run failed", err, "run_id", runID)
		return
	}

	appLog.Info("daemon run complete",
		"run_id", runID,
		"action", string(result.Action),
		"rule", result.RuleID,
		"dry_run", result.DryRun,
	)
}
