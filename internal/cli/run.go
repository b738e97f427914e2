package cli

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/config"
	"github.com/mrz1836/marksafe/internal/metrics"
	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/watch"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the backup scheduler in the foreground",
	Long: `Keep the schedule armed and take backups when they are due.

A backup missed while the scheduler was not running is taken right away.
Settings changed from another terminal are picked up automatically.
Stop with Ctrl-C or SIGTERM; a backup in progress is allowed to finish.

Example:
  marksafe run
  marksafe run --verbose`,
	Args: cobra.NoArgs,
	RunE: runScheduler,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	runCmd.GroupID = groupBackups
	rootCmd.AddCommand(runCmd)
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	log := schedulerLogger(cmd.ErrOrStderr())
	a, err := openApp(func(c *CommandContext) { c.Events = log })
	if err != nil {
		return err
	}

	watcher, err := watch.New(a.Store.Path(), log)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		announceSchedule(cmd.OutOrStdout(), a, ctx.Done())
	}()

	log.Info("scheduler started (store %s)", a.Store.Path())
	err = a.Service.Run(ctx, watcher.Changes())
	cancel()
	wg.Wait()

	s := metrics.Global.Snapshot()
	log.Info("scheduler stopped after %d runs (%d failed, %d fallbacks)", s.RunsTotal, s.RunFailures, s.Fallbacks)
	return err
}

// schedulerLogger mirrors log lines onto stderr in verbose mode.
func schedulerLogger(stderr io.Writer) *teeLogger {
	t := &teeLogger{primary: logger}
	if cfg.Output.Verbose {
		t.mirror = config.NewWriterLogger(config.LogLevelDebug, stderr)
	}
	return t
}

// announceSchedule prints the armed trigger once it is known.
func announceSchedule(w io.Writer, a *CommandContext, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if next := a.Service.NextArmed(); !next.IsZero() {
				if !formatter.IsJSON() {
					out(w, "Next backup: %s\n", output.When(next.UnixMilli(), a.Clock.Now()))
				}
				return
			}
		}
	}
}

type teeLogger struct {
	primary *config.Logger
	mirror  *config.Logger
}

func (t *teeLogger) Debug(format string, args ...any) {
	t.primary.Debug(format, args...)
	if t.mirror != nil {
		t.mirror.Debug(format, args...)
	}
}

func (t *teeLogger) Info(format string, args ...any) {
	t.primary.Info(format, args...)
	if t.mirror != nil {
		t.mirror.Info(format, args...)
	}
}

func (t *teeLogger) Error(format string, args ...any) {
	t.primary.Error(format, args...)
	if t.mirror != nil {
		t.mirror.Error(format, args...)
	}
}
