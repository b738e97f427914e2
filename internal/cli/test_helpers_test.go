package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/mrz1836/marksafe/internal/config"
	"github.com/mrz1836/marksafe/internal/seal"
)

// testEnv points every path at temporary directories and swaps the system
// keyring for go-keyring's in-memory mock.
type testEnv struct {
	home      string
	downloads string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	keyring.MockInit()

	env := &testEnv{home: t.TempDir(), downloads: t.TempDir()}
	fixture, err := filepath.Abs(filepath.Join("..", "bookmarks", "testdata", "Bookmarks"))
	require.NoError(t, err)

	t.Setenv(config.EnvHome, env.home)
	t.Setenv(config.EnvBookmarksFile, fixture)
	t.Setenv(config.EnvDownloadsDir, env.downloads)
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvEncrypt, "")
	t.Setenv(config.EnvOutputFormat, "")
	t.Setenv(seal.EnvPassphrase, "")

	t.Cleanup(func() { _ = keyring.Delete(seal.KeyringService, seal.KeyringUser) })
	return env
}

// executeCommand runs the root command with args and returns everything
// written to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	cleanup()
	return buf.String(), err
}

// executeJSON runs a command with JSON output and decodes the result into v.
func executeJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := executeCommand(t, append(args, "-o", "json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

// resetCommandState clears flag values left behind by a previous execution.
func resetCommandState() {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		reset := func(f *pflag.Flag) {
			if f.Changed {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
	})

	// Enum flags reject their empty default, so they are reset directly.
	setFrequency, setFormat, setStorageMode = "", "", ""
	homeDir, outputFormat, verbose = "", "auto", false
	appCtx = nil
}

// withPrompts replaces the interactive prompts for one test.
func withPrompts(t *testing.T, line string, confirm bool, secret string) {
	t.Helper()
	origLine, origConfirm := promptLineFn, promptConfirmFn
	origSecret, origNew, origTerm := promptSecretFn, promptNewPassphraseFn, stdinIsTerminalFn
	t.Cleanup(func() {
		promptLineFn, promptConfirmFn = origLine, origConfirm
		promptSecretFn, promptNewPassphraseFn, stdinIsTerminalFn = origSecret, origNew, origTerm
	})

	promptLineFn = func(string) (string, error) { return line, nil }
	promptConfirmFn = func(string) bool { return confirm }
	promptSecretFn = func(string) (string, error) { return secret, nil }
	promptNewPassphraseFn = func() (string, error) { return secret, nil }
	stdinIsTerminalFn = func() bool { return true }
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}
