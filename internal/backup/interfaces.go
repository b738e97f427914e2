package backup

import (
	"context"

	"github.com/mrz1836/marksafe/internal/bookmarks"
	"github.com/mrz1836/marksafe/internal/storage"
)

// BookmarkSource provides a read-only snapshot of the bookmark tree.
// Adapter for bookmarks.ChromiumSource.
type BookmarkSource interface {
	Tree(ctx context.Context) ([]bookmarks.Node, error)
}

// DirectoryGranter manages the user-granted backup directory.
// Adapter for storage.GrantedDirectories.
type DirectoryGranter interface {
	storage.DirectoryProvider
	Grant(dir string) (*storage.Handle, error)
	Revoke() error
}

// Opener decrypts sealed backup files.
// Adapter for seal.Sealer.
type Opener interface {
	Open(data []byte) ([]byte, error)
}

// Logger is the logging surface used by the service.
// Satisfied by config.Logger.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
