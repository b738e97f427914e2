// Package fileutil provides filesystem helpers for backup files and local state.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirPermissions is the permission mode used for directories created by marksafe.
const DirPermissions = 0o750

// maxUniqueAttempts bounds the "name (n).ext" search in WriteUnique.
const maxUniqueAttempts = 10000

var (
	// ErrEmptyPath indicates an empty file path was provided.
	ErrEmptyPath = errors.New("path is empty")

	// ErrNoFreeName indicates WriteUnique could not find an unused file name.
	ErrNoFreeName = errors.New("no free file name available")
)

// WriteAtomic writes data to path atomically with the provided permissions.
// Missing parent directories are created. The data goes to a temp file in the
// same directory which is synced and then renamed over path.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path is built by the caller
		return fmt.Errorf("renaming temp file: %w", err)
	}

	// Best effort; some filesystems refuse to sync directories.
	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}

// WriteUnique writes data into dir under name without overwriting anything.
// When name is taken it tries "stem (1).ext", "stem (2).ext" and so on, the way
// browsers rename colliding downloads. It returns the path that was written.
func WriteUnique(dir, name string, data []byte, perm os.FileMode) (string, error) {
	if dir == "" || name == "" {
		return "", ErrEmptyPath
	}

	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	stem, ext := SplitName(name)
	for i := 0; i < maxUniqueAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		// #nosec G304 -- path is joined from a caller-controlled directory
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", candidate, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("writing %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("closing %s: %w", candidate, err)
		}
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrNoFreeName, name)
}

// SplitName splits a file name into stem and extension. Compound backup
// extensions such as ".json.age" stay together so renames read "x (1).json.age".
func SplitName(name string) (string, string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == ".age" {
		if inner := filepath.Ext(stem); inner != "" {
			ext = inner + ext
			stem = strings.TrimSuffix(stem, inner)
		}
	}
	return stem, ext
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
