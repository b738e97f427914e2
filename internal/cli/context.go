package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/backup"
	"github.com/mrz1836/marksafe/internal/bookmarks"
	"github.com/mrz1836/marksafe/internal/config"
	"github.com/mrz1836/marksafe/internal/history"
	"github.com/mrz1836/marksafe/internal/kvstore"
	"github.com/mrz1836/marksafe/internal/metrics"
	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/schedule"
	"github.com/mrz1836/marksafe/internal/seal"
	"github.com/mrz1836/marksafe/internal/settings"
	"github.com/mrz1836/marksafe/internal/storage"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config      *config.Config
	Logger      *config.Logger
	Formatter   *output.Formatter
	Clock       clock.Clock
	Keyring     seal.Keyring
	Passphrases *seal.Passphrases

	// Events receives service and storage log lines; Logger when nil.
	Events backup.Logger

	// Set by Open.
	Store     *kvstore.FileStore
	Settings  *settings.Repository
	Timers    *schedule.ClockTimers
	Scheduler *schedule.Scheduler
	Selector  *storage.Selector
	Service   *backup.Service
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
		Clock:     clock.WallClock,
		Keyring:   seal.OSKeyring{},
	}
}

// WithClock sets the clock used for scheduling.
func (c *CommandContext) WithClock(clk clock.Clock) *CommandContext {
	c.Clock = clk
	return c
}

// WithKeyring sets the keyring holding the backup passphrase.
func (c *CommandContext) WithKeyring(kr seal.Keyring) *CommandContext {
	c.Keyring = kr
	return c
}

// Open wires the store, the storage backends, the scheduler and the backup
// service. When encryption is enabled a passphrase must be available.
func (c *CommandContext) Open() error {
	events := c.Events
	if events == nil {
		events = c.Logger
	}

	c.Passphrases = seal.NewPassphrases(c.Keyring)

	passphrase, source, err := c.Passphrases.Resolve()
	if err != nil {
		c.Logger.Error("resolving passphrase: %v", err)
	}
	var sealer *seal.Sealer
	if passphrase != "" {
		if sealer, err = seal.NewSealer(passphrase); err != nil {
			return err
		}
		c.Logger.Debug("backup passphrase found in %s", source)
	}
	if c.Config.Encryption.Enabled && sealer == nil {
		return mserr.WithSuggestion(mserr.ErrPassphraseMissing,
			"run 'marksafe passphrase set', export "+seal.EnvPassphrase+", or disable encryption in config.yaml")
	}

	c.Store = kvstore.NewFileStore(c.Config.StorePath())
	c.Settings = settings.NewRepository(c.Store)
	dirs := storage.NewGrantedDirectories(c.Store)

	opts := []storage.Option{storage.WithLogger(events), storage.WithMetrics(metrics.Global)}
	if c.Config.Encryption.Enabled {
		opts = append(opts, storage.WithSealer(sealer))
	}
	c.Selector = storage.NewSelector(dirs, storage.NewFileSink(c.Config.DownloadsPath()), opts...)

	c.Timers = schedule.NewClockTimers(c.Clock, schedule.WithTimerLogger(events))
	c.Scheduler = schedule.NewScheduler(c.Timers, c.Clock)

	svcCfg := &backup.Config{
		Source:      bookmarks.NewChromiumSource(c.Config.BookmarksPath()),
		Settings:    c.Settings,
		History:     history.NewLedger(c.Store),
		Storage:     c.Selector,
		Directories: dirs,
		Scheduler:   c.Scheduler,
		Clock:       c.Clock,
		BrowserInfo: browserInfo(c.Config),
		Logger:      events,
		Metrics:     metrics.Global,
	}
	if sealer != nil {
		svcCfg.Opener = sealer
	}
	c.Service = backup.NewService(svcCfg)

	c.Logger.Debug("store %s, downloads %s, bookmarks %s",
		c.Config.StorePath(), c.Config.DownloadsPath(), c.Config.BookmarksPath())
	return nil
}

// Close stops pending timers.
func (c *CommandContext) Close() {
	if c.Timers != nil {
		c.Timers.Stop()
	}
}

// browserInfo describes the browser and platform recorded in every backup.
func browserInfo(c *config.Config) string {
	name := c.Browser.Name
	if name == "" {
		name = config.DefaultBrowserName
	}
	return fmt.Sprintf("%s (%s/%s)", name, runtime.GOOS, runtime.GOARCH)
}

// contextWithTimeout bounds work started by cmd. The command context carries
// the SIGINT/SIGTERM cancellation set up by Execute.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, d)
}
