package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

// minPassphraseLength is the shortest passphrase accepted by 'passphrase set'.
const minPassphraseLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // test seams for interactive input
var (
	promptSecretFn        = promptSecret
	promptNewPassphraseFn = promptNewPassphrase
	promptLineFn          = promptLine
	promptConfirmFn       = promptConfirm
	stdinIsTerminalFn     = stdinIsTerminal
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// promptSecret reads a line from the terminal without echo.
func promptSecret(prompt string) (string, error) {
	out(os.Stderr, "%s", prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() returns uintptr
	outln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(secret), nil
}

// promptNewPassphrase asks for a passphrase twice.
func promptNewPassphrase() (string, error) {
	passphrase, err := promptSecretFn("Enter backup passphrase: ")
	if err != nil {
		return "", err
	}
	if len(passphrase) < minPassphraseLength {
		return "", mserr.WithSuggestion(mserr.ErrInvalidInput,
			fmt.Sprintf("passphrase must be at least %d characters", minPassphraseLength))
	}

	confirm, err := promptSecretFn("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase != confirm {
		return "", mserr.WithSuggestion(mserr.ErrInvalidInput, "passphrases do not match")
	}
	return passphrase, nil
}

// promptLine reads one line of visible input.
func promptLine(prompt string) (string, error) {
	out(os.Stderr, "%s", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", nil //nolint:nilerr // EOF means the user gave no answer
	}
	return strings.TrimSpace(line), nil
}

// promptConfirm asks a yes/no question; anything but yes is no.
func promptConfirm(question string) bool {
	answer, err := promptLineFn(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
