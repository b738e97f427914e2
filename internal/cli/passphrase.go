package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/seal"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var passphraseCmd = &cobra.Command{
	Use:   "passphrase",
	Short: "Manage the passphrase for encrypted backups",
	Long: `When encryption.enabled is true in config.yaml, backup files are encrypted
with age using a passphrase. The passphrase is read from ` + seal.EnvPassphrase + `
or from the system keyring.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var passphraseSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the passphrase in the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runPassphraseSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var passphraseClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the passphrase from the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runPassphraseClear,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var passphraseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the passphrase comes from",
	Args:  cobra.NoArgs,
	RunE:  runPassphraseStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	passphraseCmd.GroupID = groupSetup
	rootCmd.AddCommand(passphraseCmd)
	passphraseCmd.AddCommand(passphraseSetCmd, passphraseClearCmd, passphraseStatusCmd)
}

// passphrases builds a resolver without opening the store, so the passphrase
// can be set even while encryption is enabled and none is known yet.
func passphrases() *seal.Passphrases {
	return seal.NewPassphrases(newCommandContextFn(cfg, logger, formatter).Keyring)
}

func runPassphraseSet(cmd *cobra.Command, _ []string) error {
	if !stdinIsTerminalFn() {
		return mserr.WithSuggestion(mserr.ErrInvalidInput,
			"a terminal is required to enter the passphrase; use "+seal.EnvPassphrase+" for unattended use")
	}
	passphrase, err := promptNewPassphraseFn()
	if err != nil {
		return err
	}
	if err := passphrases().Store(passphrase); err != nil {
		return mserr.Wrap(err, "storing passphrase")
	}
	logger.Info("backup passphrase stored in keyring")
	if os.Getenv(seal.EnvPassphrase) != "" {
		output.Warnf(cmd.ErrOrStderr(), "%s is set and takes precedence over the keyring", seal.EnvPassphrase)
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "Passphrase stored in the system keyring", formatter.Format())
}

func runPassphraseClear(cmd *cobra.Command, _ []string) error {
	if err := passphrases().Clear(); err != nil {
		return mserr.Wrap(err, "clearing passphrase")
	}
	logger.Info("backup passphrase removed from keyring")
	return output.FormatSuccess(cmd.OutOrStdout(), "Passphrase removed from the system keyring", formatter.Format())
}

func runPassphraseStatus(cmd *cobra.Command, _ []string) error {
	_, source, err := passphrases().Resolve()
	if err != nil {
		return err
	}
	if source == seal.SourceNone {
		source = "none"
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, map[string]any{"source": source, "encryption": cfg.Encryption.Enabled})
	}
	out(w, "Passphrase source: %s\n", source)
	out(w, "Encryption:        %t\n", cfg.Encryption.Enabled)
	return nil
}
