package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mrz1836/marksafe/internal/fileutil"
)

var (
	// ErrPromptUnsupported indicates an interactive save dialog was requested.
	ErrPromptUnsupported = errors.New("interactive download prompts are not supported")

	// ErrOutsideDownloads indicates a destination that escapes the downloads root.
	ErrOutsideDownloads = errors.New("destination is outside the downloads directory")
)

// FileSink writes downloads below a root directory, renaming on collision.
type FileSink struct {
	root string
}

// Compile-time interface check.
var _ DownloadSink = (*FileSink)(nil)

// NewFileSink creates a sink rooted at root.
func NewFileSink(root string) *FileSink {
	return &FileSink{root: root}
}

// Root returns the downloads root.
func (f *FileSink) Root() string {
	return f.root
}

// Available reports whether a root is configured.
func (f *FileSink) Available() bool {
	return f.root != ""
}

// Download writes content to destPath below the root. An existing file is
// never replaced; "name (1).ext", "name (2).ext" and so on are tried instead.
func (f *FileSink) Download(ctx context.Context, content []byte, destPath, _ string, promptUser bool) (string, error) {
	if promptUser {
		return "", ErrPromptUnsupported
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := filepath.Clean(filepath.FromSlash(destPath))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDownloads, destPath)
	}

	dir := filepath.Join(f.root, filepath.Dir(rel))
	return fileutil.WriteUnique(dir, filepath.Base(rel), content, backupFilePermissions)
}
