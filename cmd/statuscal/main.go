package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"statuscal/internal/daemon"
	"statuscal/internal/export"
	appLog "statuscal/internal/log"
	"statuscal/internal/model"
	"statuscal/internal/schedule"
	"statuscal/internal/scheduler"
	"statuscal/internal/slack"
)

type flagConfig struct {
	configPath string
	validate   bool
	describe   bool
	preview    bool
	at         string
	upcoming   int
	exportDays int
	daemonMode bool
	cronExpr   string
	dryRun     bool
	token      string
	logLevel   string
}

func main() {
	flags := parseFlags()
	appLog.SetLevel(appLog.ParseLevel(flags.logLevel))

	if err := run(flags); err != nil {
		appLog.Error("statuscal failed", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "schedule.json", "Path to the schedule document (JSON, JSONC, or YAML)")
	flag.BoolVar(&cfg.validate, "validate", false, "Validate the schedule and exit")
	flag.BoolVar(&cfg.describe, "describe", false, "Print a human-readable rule listing and exit")
	flag.BoolVar(&cfg.preview, "preview", false, "Evaluate without touching the external status")
	flag.StringVar(&cfg.at, "at", "", "Target instant (RFC3339 or YYYY-MM-DDTHH:MM[:SS]; default now)")
	flag.IntVar(&cfg.upcoming, "upcoming", 0, "Print status changes for the next N days and exit")
	flag.IntVar(&cfg.exportDays, "export-ics", 0, "Print an iCalendar feed covering the next N days and exit")
	flag.BoolVar(&cfg.daemonMode, "daemon", false, "Keep running, evaluating on a cron cadence")
	flag.StringVar(&cfg.cronExpr, "cron", daemon.DefaultCron, "Cron expression for --daemon")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Evaluate but never call the status API")
	flag.StringVar(&cfg.token, "token", "", "Bearer token for the status API (or SLACK_TOKEN env)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level: error, warn, info, debug")

	flag.Parse()
	return cfg
}

func run(flags flagConfig) error {
	// Validate and describe work on the raw document, before any facade
	// exists, so defects are reported even for documents the engine
	// would refuse to initialize with.
	if flags.validate || flags.describe {
		doc, err := schedule.Load(flags.configPath)
		if err != nil {
			return err
		}
		if flags.validate {
			result := schedule.Validate(doc)
			if !result.Valid {
				for _, msg := range result.Errors {
					fmt.Fprintln(os.Stderr, msg)
				}
				return fmt.Errorf("schedule has %d problem(s)", len(result.Errors))
			}
			fmt.Println("schedule is valid")
		}
		if flags.describe {
			fmt.Println(schedule.DescribeDocument(doc))
		}
		return nil
	}

	setter, err := buildSetter(flags)
	if err != nil {
		return err
	}

	sched := scheduler.New(flags.dryRun)
	if err := sched.Initialize(flags.configPath, setter); err != nil {
		var invalid *scheduler.InvalidScheduleError
		if errors.As(err, &invalid) {
			for _, msg := range invalid.Errors {
				fmt.Fprintln(os.Stderr, msg)
			}
		}
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	switch {
	case flags.upcoming > 0:
		return printUpcoming(sched, flags.upcoming)

	case flags.exportDays > 0:
		feed, err := export.ICS(sched.Document(), time.Now(), flags.exportDays)
		if err != nil {
			return err
		}
		fmt.Print(feed)
		return nil

	case flags.daemonMode:
		d, err := daemon.New(sched, flags.cronExpr)
		if err != nil {
			return err
		}
		if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	case flags.preview:
		result, err := sched.Preview(ctx, flags.at)
		return printResult(result, err)

	default:
		result, err := sched.Run(ctx, flags.at)
		return printResult(result, err)
	}
}

// buildSetter constructs the live Slack collaborator when a token is
// available. Dry runs and previews need no collaborator at all.
func buildSetter(flags flagConfig) (scheduler.StatusSetter, error) {
	token := flags.token
	if token == "" {
		token = os.Getenv("SLACK_TOKEN")
	}
	if token == "" {
		return nil, nil
	}

	// Retry policy comes from the document options; read them off the
	// raw document since the facade is not built yet.
	doc, err := schedule.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	attempts, delay := 0, time.Duration(0)
	if doc.Options != nil {
		if doc.Options.RetryAttempts != nil {
			attempts = *doc.Options.RetryAttempts
		}
		if doc.Options.RetryDelayMs != nil {
			delay = time.Duration(*doc.Options.RetryDelayMs) * time.Millisecond
		}
	}

	return slack.New(token, slack.WithRetry(attempts, delay))
}

// printResult writes the boundary envelope for a Run/Preview outcome
// to stdout as JSON. The error still decides the exit code.
func printResult(result *model.Result, err error) error {
	envelope := scheduler.Wrap(result, err)
	data, merr := json.MarshalIndent(envelope, "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Println(string(data))
	return err
}

func printUpcoming(sched *scheduler.Scheduler, days int) error {
	changes, err := sched.UpcomingChanges(days)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Printf("no status changes in the next %d day(s)\n", days)
		return nil
	}
	for _, change := range changes {
		fmt.Printf("%s %s  %-24s %s %s\n",
			change.Date, change.Time, change.RuleID, change.Status.Text, change.Status.Icon)
	}
	return nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	return ctx, cancel
}
