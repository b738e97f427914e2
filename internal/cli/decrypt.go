package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/fileutil"
	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/seal"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var decryptCmd = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt an encrypted backup file",
	Long: `Decrypt a backup written while encryption was enabled. The output defaults to
the input path without its .age suffix, and existing files are only replaced
with --force.

Example:
  marksafe decrypt ~/Downloads/BookmarkBackups/bookmarks-backup-2024-01-02-09-00-00.json.age
  marksafe decrypt backup.html.age --out restored.html`,
	Args: cobra.ExactArgs(1),
	RunE: runDecrypt,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	decryptOut   string
	decryptForce bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	decryptCmd.GroupID = groupFiles
	rootCmd.AddCommand(decryptCmd)
	decryptCmd.Flags().StringVar(&decryptOut, "out", "", "output path (default: input without .age)")
	decryptCmd.Flags().BoolVar(&decryptForce, "force", false, "overwrite an existing output file")
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	in := args[0]
	data, err := os.ReadFile(in) //nolint:gosec // G304: user-chosen backup file
	if err != nil {
		return mserr.WithCause(mserr.ErrNotFound, err)
	}
	if !seal.IsSealed(data) {
		return mserr.WithSuggestion(mserr.ErrInvalidInput, in+" is not an encrypted backup")
	}

	target := decryptOut
	if target == "" {
		target = strings.TrimSuffix(in, seal.Suffix)
		if target == in {
			target = in + ".decrypted"
		}
	}
	if _, err := os.Stat(target); err == nil && !decryptForce {
		return mserr.WithSuggestion(mserr.ErrInvalidInput, target+" already exists; use --force to replace it")
	}

	passphrase, err := decryptPassphrase()
	if err != nil {
		return err
	}
	plain, err := seal.Decrypt(data, passphrase)
	if err != nil {
		return mserr.WithCause(mserr.ErrDecryptionFailed, err)
	}
	if err := fileutil.WriteAtomic(target, plain, 0o600); err != nil {
		return mserr.Wrap(err, "writing %s", target)
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, map[string]any{"output": target, "size": len(plain)})
	}
	output.Successf(w, "Decrypted %s to %s (%s)", in, target, output.Size(len(plain)))
	return nil
}

// decryptPassphrase uses the configured passphrase, prompting when none is
// configured and a terminal is attached.
func decryptPassphrase() (string, error) {
	passphrase, _, err := passphrases().Resolve()
	if err != nil {
		logger.Error("resolving passphrase: %v", err)
	}
	if passphrase != "" {
		return passphrase, nil
	}
	if !stdinIsTerminalFn() {
		return "", mserr.WithSuggestion(mserr.ErrPassphraseMissing, "set "+seal.EnvPassphrase+" or run 'marksafe passphrase set'")
	}
	return promptSecretFn("Backup passphrase: ")
}
