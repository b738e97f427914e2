package seal

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Passphrase lookup locations.
const (
	EnvPassphrase  = "MARKSAFE_PASSPHRASE"
	KeyringService = "marksafe"
	KeyringUser    = "backup-passphrase"
)

// Keyring abstracts the OS keychain.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// OSKeyring implements Keyring using the OS keychain.
type OSKeyring struct{}

// Set stores a secret in the OS keyring.
func (OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get retrieves a secret from the OS keyring.
func (OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret from the OS keyring.
func (OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// Passphrases finds the backup passphrase in the environment or the keyring.
type Passphrases struct {
	keyring Keyring
	getenv  func(string) string
}

// NewPassphrases creates a resolver. A nil keyring disables keyring lookups.
func NewPassphrases(kr Keyring) *Passphrases {
	return &Passphrases{keyring: kr, getenv: os.Getenv}
}

// Source names where a passphrase was found.
type Source string

// Sources.
const (
	SourceNone        Source = ""
	SourceEnvironment Source = "environment"
	SourceKeyring     Source = "keyring"
)

// Resolve returns the passphrase and where it came from. The environment wins
// over the keyring. A missing passphrase is not an error.
func (p *Passphrases) Resolve() (string, Source, error) {
	if v := strings.TrimSpace(p.getenv(EnvPassphrase)); v != "" {
		return v, SourceEnvironment, nil
	}
	if p.keyring == nil {
		return "", SourceNone, nil
	}

	v, err := p.keyring.Get(KeyringService, KeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", SourceNone, nil
	}
	if err != nil {
		return "", SourceNone, fmt.Errorf("reading keyring: %w", err)
	}
	return v, SourceKeyring, nil
}

// Store saves passphrase in the keyring.
func (p *Passphrases) Store(passphrase string) error {
	if passphrase == "" {
		return ErrEmptyPassphrase
	}
	if p.keyring == nil {
		return errKeyringUnavailable
	}
	if err := p.keyring.Set(KeyringService, KeyringUser, passphrase); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// Clear removes the stored passphrase. Clearing an absent entry succeeds.
func (p *Passphrases) Clear() error {
	if p.keyring == nil {
		return errKeyringUnavailable
	}
	err := p.keyring.Delete(KeyringService, KeyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keyring entry: %w", err)
	}
	return nil
}

var errKeyringUnavailable = errors.New("keyring is unavailable")
