package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/config"
	"github.com/mrz1836/marksafe/internal/output"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and modify config.yaml, which says where things live on this machine.
Backup settings are managed with 'marksafe settings'.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.marksafe/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.

Example:
  marksafe config init
  marksafe config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, including environment overrides and the
resolved paths.

Example:
  marksafe config show
  marksafe config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		outln(cmd.OutOrStdout(), config.Path(cfg.Home))
		return nil
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by its dotted key.

Example:
  marksafe config get browser.bookmarks_file
  marksafe config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dotted key and save config.yaml.

Example:
  marksafe config set browser.bookmarks_file "~/.config/chromium/Default/Bookmarks"
  marksafe config set encryption.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = groupSetup
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

type configField struct {
	get func(c *config.Config) string
	set func(c *config.Config, v string) error
}

func setString(dst *string) func(*config.Config, string) error {
	return func(_ *config.Config, v string) error {
		*dst = config.CleanPath(v)
		return nil
	}
}

// configFields maps dotted keys onto the configuration. The setters are bound
// per call because they write through pointers into c.
func configFields(c *config.Config) map[string]configField {
	return map[string]configField{
		"home":                   {get: func(c *config.Config) string { return c.Home }, set: setString(&c.Home)},
		"browser.name":           {get: func(c *config.Config) string { return c.Browser.Name }, set: setString(&c.Browser.Name)},
		"browser.bookmarks_file": {get: func(c *config.Config) string { return c.Browser.BookmarksFile }, set: setString(&c.Browser.BookmarksFile)},
		"storage.store_file":     {get: func(c *config.Config) string { return c.Storage.StoreFile }, set: setString(&c.Storage.StoreFile)},
		"storage.downloads_dir":  {get: func(c *config.Config) string { return c.Storage.DownloadsDir }, set: setString(&c.Storage.DownloadsDir)},
		"encryption.enabled": {
			get: func(c *config.Config) string { return strconv.FormatBool(c.Encryption.Enabled) },
			set: func(c *config.Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return err
				}
				c.Encryption.Enabled = b
				return nil
			},
		},
		"output.default_format": {
			get: func(c *config.Config) string { return c.Output.DefaultFormat },
			set: func(c *config.Config, v string) error {
				if v != "text" && v != "json" && v != "auto" {
					return fmt.Errorf("%q is not one of text, json, auto", v) //nolint:err113 // surfaced through ErrConfigInvalid
				}
				c.Output.DefaultFormat = v
				return nil
			},
		},
		"output.verbose": {
			get: func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) },
			set: func(c *config.Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return err
				}
				c.Output.Verbose = b
				return nil
			},
		},
		"logging.level": {
			get: func(c *config.Config) string { return c.Logging.Level },
			set: func(c *config.Config, v string) error {
				if config.ParseLogLevel(v).String() != v {
					return fmt.Errorf("%q is not one of off, error, info, debug", v) //nolint:err113 // surfaced through ErrConfigInvalid
				}
				c.Logging.Level = v
				return nil
			},
		},
		"logging.file": {get: func(c *config.Config) string { return c.Logging.File }, set: setString(&c.Logging.File)},
	}
}

func configKeys() []string {
	fields := configFields(config.Defaults())
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unknownConfigKey(key string) error {
	return mserr.WithSuggestion(
		mserr.WithDetails(mserr.ErrConfigInvalid, map[string]string{"key": key}),
		"run 'marksafe config show' to list the keys")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return mserr.WithSuggestion(
			mserr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - browser.bookmarks_file: Bookmarks file of the profile to back up")
	outln(w, "  - storage.downloads_dir: Where download-mode backups are written")
	outln(w, "  - encryption.enabled: Encrypt backup files with a passphrase")
	outln(w, "  - logging.level: Log level (off/error/info/debug)")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		type resolved struct {
			Config        *config.Config `json:"config"`
			ConfigFile    string         `json:"config_file"`
			StorePath     string         `json:"store_path"`
			DownloadsPath string         `json:"downloads_path"`
			BookmarksPath string         `json:"bookmarks_path"`
		}
		return writeJSON(w, resolved{
			Config:        cfg,
			ConfigFile:    config.Path(cfg.Home),
			StorePath:     cfg.StorePath(),
			DownloadsPath: cfg.DownloadsPath(),
			BookmarksPath: cfg.BookmarksPath(),
		})
	}

	fields := configFields(cfg)
	tbl := output.NewTable("KEY", "VALUE")
	for _, key := range configKeys() {
		tbl.AddRow(key, fields[key].get(cfg))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	outln(w)
	out(w, "Config file: %s\n", config.Path(cfg.Home))
	out(w, "Store:       %s\n", cfg.StorePath())
	out(w, "Downloads:   %s\n", cfg.DownloadsPath())
	out(w, "Bookmarks:   %s\n", cfg.BookmarksPath())
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	field, ok := configFields(cfg)[args[0]]
	if !ok {
		return unknownConfigKey(args[0])
	}
	outln(cmd.OutOrStdout(), field.get(cfg))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configPath := config.Path(cfg.Home)
	current, err := config.Load(configPath)
	if err != nil {
		current = config.Defaults()
		current.Home = cfg.Home
	}

	field, ok := configFields(current)[key]
	if !ok {
		return unknownConfigKey(key)
	}
	if err := field.set(current, value); err != nil {
		return mserr.WithCause(mserr.ErrConfigInvalid, err)
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", key, field.get(current))
	return nil
}
