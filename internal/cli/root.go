// Package cli implements the marksafe command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and released by cleanup.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/config"
	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/version"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	// appCtx is opened on first use by commands that touch the store.
	appCtx *CommandContext

	// newCommandContextFn is replaced in tests.
	newCommandContextFn = NewCommandContext

	buildInfo   BuildInfo
	enrichHelps sync.Once

	versionCheck bool

	// newReleaseCheckerFn is replaced in tests.
	newReleaseCheckerFn = func(current string) *version.Checker { return version.NewChecker(current) }
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// SetBuildInfo records version details injected at link time.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
}

func formatVersion(info BuildInfo) string {
	v, c, d := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if c == "" {
		c = "unknown"
	}
	if d == "" {
		d = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "marksafe",
	Short: "Scheduled backups of your browser bookmarks",
	Long: `marksafe backs up the bookmarks of a Chromium-family browser profile on a
schedule you choose, as JSON or as a Netscape bookmark file that any browser can
import.

Backups are kept in a local history, written to a downloads folder, or written
to a directory you grant. Run 'marksafe run' to keep the scheduler going.

Example:
  marksafe backup now
  marksafe settings set frequency weekly
  marksafe history list
  marksafe run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit and build date of this binary. With --check the
latest release is looked up on GitHub.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

// versionCheckTimeout bounds the release lookup.
const versionCheckTimeout = 15 * time.Second

func runVersion(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if !versionCheck {
		if formatter.IsJSON() {
			return writeJSON(w, buildInfo)
		}
		outln(w, "marksafe "+formatVersion(buildInfo))
		return nil
	}

	ctx, cancel := contextWithTimeout(cmd, versionCheckTimeout)
	defer cancel()

	check, err := newReleaseCheckerFn(buildInfo.Version).Check(ctx, buildInfo.Version)
	if err != nil {
		return mserr.Wrap(err, "checking for a newer release")
	}
	if formatter.IsJSON() {
		return writeJSON(w, check)
	}
	outln(w, "marksafe "+formatVersion(buildInfo))
	if check.Newer {
		output.Infof(w, "marksafe %s is available: %s", check.Latest, check.URL)
	} else {
		output.Successf(w, "You are running the latest release (%s)", check.Latest)
	}
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	enrichHelps.Do(func() { walkCommands(rootCmd, enrichParentLong) })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return mserr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !os.IsNotExist(err) {
			return mserr.WithCause(mserr.ErrConfigInvalid, err)
		}
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), os.Stdout)
	return nil
}

// app returns the opened command context, opening it on first use.
func app() (*CommandContext, error) {
	return openApp(nil)
}

// openApp is app with a hook to adjust the context before it is opened.
func openApp(configure func(*CommandContext)) (*CommandContext, error) {
	if appCtx != nil {
		return appCtx, nil
	}
	c := newCommandContextFn(cfg, logger, formatter)
	if configure != nil {
		configure(c)
	}
	if err := c.Open(); err != nil {
		return nil, err
	}
	appCtx = c
	return appCtx, nil
}

// cleanup releases resources. It is safe to call more than once.
func cleanup() {
	if appCtx != nil {
		appCtx.Close()
		appCtx = nil
	}
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "marksafe data directory (default: ~/.marksafe)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "look up the latest release on GitHub")
	versionCmd.GroupID = groupSetup
	rootCmd.AddCommand(versionCmd)
}
