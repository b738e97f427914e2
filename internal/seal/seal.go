// Package seal encrypts backup files with an age passphrase.
package seal

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// Suffix is appended to the name of a sealed file.
const Suffix = ".age"

// header is the first line of every binary age file.
const header = "age-encryption.org/v1"

// ErrEmptyPassphrase indicates sealing was attempted without a passphrase.
var ErrEmptyPassphrase = errors.New("passphrase is empty")

// Encrypt seals plaintext with a scrypt recipient derived from passphrase.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt opens ciphertext produced by Encrypt.
func Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}

// IsSealed reports whether data starts with the age header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(header))
}

// Sealer encrypts file contents with a fixed passphrase.
type Sealer struct {
	passphrase string
}

// NewSealer returns a Sealer for passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Sealer{passphrase: passphrase}, nil
}

// Seal encrypts data.
func (s *Sealer) Seal(data []byte) ([]byte, error) {
	return Encrypt(data, s.passphrase)
}

// Open decrypts data.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	return Decrypt(data, s.passphrase)
}

// Name appends Suffix to filename.
func (s *Sealer) Name(filename string) string {
	return filename + Suffix
}
