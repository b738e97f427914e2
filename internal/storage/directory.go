package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/marksafe/internal/fileutil"
	"github.com/mrz1836/marksafe/internal/kvstore"
)

// DirectoryKey is the store key of the granted directory.
const DirectoryKey = "customDirectory"

const backupFilePermissions = 0o600

// ErrNotDirectory indicates a grant for a path that is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// GrantedDirectories keeps the user's chosen backup directory in the store.
type GrantedDirectories struct {
	store kvstore.Store
	now   func() time.Time
}

// Compile-time interface check.
var _ DirectoryProvider = (*GrantedDirectories)(nil)

// NewGrantedDirectories creates a provider over store.
func NewGrantedDirectories(store kvstore.Store) *GrantedDirectories {
	return &GrantedDirectories{store: store, now: time.Now}
}

// Available reports that local directories are always supported.
func (g *GrantedDirectories) Available() bool {
	return true
}

// Grant records dir as the backup directory. The path must exist and be a directory.
func (g *GrantedDirectories) Grant(dir string) (*Handle, error) {
	expanded, err := fileutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	h := &Handle{Path: abs, Name: filepath.Base(abs), GrantedAt: g.now().UTC()}
	if err := g.store.Set(DirectoryKey, h); err != nil {
		return nil, fmt.Errorf("saving directory grant: %w", err)
	}
	return h, nil
}

// Revoke forgets the granted directory.
func (g *GrantedDirectories) Revoke() error {
	if err := g.store.Set(DirectoryKey, nil); err != nil {
		return fmt.Errorf("removing directory grant: %w", err)
	}
	return nil
}

// Resolve returns the granted directory or ErrNoDirectory.
func (g *GrantedDirectories) Resolve() (*Handle, error) {
	var h *Handle
	if _, err := g.store.Get(DirectoryKey, &h); err != nil {
		return nil, fmt.Errorf("loading directory grant: %w", err)
	}
	if h == nil || h.Path == "" {
		return nil, ErrNoDirectory
	}
	return h, nil
}

// CheckPermission reports whether h is still an existing, readable and writable directory.
func (g *GrantedDirectories) CheckPermission(h *Handle) Permission {
	if h == nil {
		return PermissionDenied
	}
	info, err := os.Stat(h.Path)
	if err != nil || !info.IsDir() {
		return PermissionDenied
	}
	if !canReadWrite(h.Path) {
		return PermissionDenied
	}
	return PermissionGranted
}

// Write stores content as filename in h, replacing an existing file.
func (g *GrantedDirectories) Write(h *Handle, filename string, content []byte, _ string) (string, error) {
	if h == nil {
		return "", ErrNoDirectory
	}
	target := filepath.Join(h.Path, filepath.Base(filename))
	if err := fileutil.WriteAtomic(target, content, backupFilePermissions); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}
