// Package storage writes serialized backups to the configured backend.
//
// Extension mode keeps the content in the history ledger. Download mode
// writes a file, preferring a directory the user granted and falling back to
// the downloads folder when that directory cannot be used.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/mrz1836/marksafe/internal/metrics"
	"github.com/mrz1836/marksafe/internal/settings"
)

// Backend names where a backup ended up.
type Backend string

// Backends.
const (
	BackendExtension Backend = "extension"
	BackendNone      Backend = "none"
	BackendDirectory Backend = "directory"
	BackendDownloads Backend = "downloads"
)

// sealedMIMEType is used for age-encrypted files.
const sealedMIMEType = "application/octet-stream"

var (
	// ErrNoDirectory indicates no directory has been granted.
	ErrNoDirectory = errors.New("no directory granted")

	// ErrPermissionDenied indicates the granted directory is not readable and writable.
	ErrPermissionDenied = errors.New("directory permission denied")

	// ErrDownloadsUnavailable indicates no download sink is configured.
	ErrDownloadsUnavailable = errors.New("downloads are unavailable")
)

// Permission is the state of a granted directory.
type Permission int

// Permission states.
const (
	PermissionDenied Permission = iota
	PermissionGranted
)

func (p Permission) String() string {
	if p == PermissionGranted {
		return "granted"
	}
	return "denied"
}

// Handle refers to a directory the user granted.
type Handle struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	GrantedAt time.Time `json:"grantedAt"`
}

// DirectoryProvider resolves and writes into the granted directory.
type DirectoryProvider interface {
	// Resolve returns the granted directory, or ErrNoDirectory.
	Resolve() (*Handle, error)
	CheckPermission(h *Handle) Permission
	// Write stores content as filename inside h, replacing any file of that name.
	Write(h *Handle, filename string, content []byte, mimeType string) (string, error)
}

// DownloadSink writes files into the downloads area with auto-rename on collision.
type DownloadSink interface {
	// Download writes content to destPath, a slash-separated path relative to
	// the downloads root, and returns the final absolute location.
	Download(ctx context.Context, content []byte, destPath, mimeType string, promptUser bool) (string, error)
}

// Sealer encrypts content before it reaches the filesystem.
type Sealer interface {
	Seal(data []byte) ([]byte, error)
	Name(filename string) string
}

// Logger is the logging surface used by the selector.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Capabilities records which backends this host provides.
type Capabilities struct {
	Directory bool `json:"directory"`
	Downloads bool `json:"downloads"`
}

// availability is implemented by providers that can report themselves unusable.
type availability interface {
	Available() bool
}

// Outcome describes where a backup was stored.
type Outcome struct {
	// Data is the content to embed in history (extension mode only).
	Data      string
	Location  string
	Backend   Backend
	FellBack  bool
	Encrypted bool
}

// Selector stores content according to the current settings.
type Selector struct {
	dirs    DirectoryProvider
	sink    DownloadSink
	sealer  Sealer
	caps    Capabilities
	logger  Logger
	metrics *metrics.Metrics
}

// Option configures a Selector.
type Option func(*Selector)

// WithSealer encrypts every file the selector writes.
func WithSealer(s Sealer) Option {
	return func(sel *Selector) { sel.sealer = s }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(sel *Selector) { sel.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(sel *Selector) { sel.metrics = m }
}

// NewSelector builds a selector. Capabilities are resolved here, once; either
// collaborator may be nil.
func NewSelector(dirs DirectoryProvider, sink DownloadSink, opts ...Option) *Selector {
	sel := &Selector{
		dirs:    dirs,
		sink:    sink,
		logger:  nopLogger{},
		metrics: &metrics.Metrics{},
	}
	for _, opt := range opts {
		opt(sel)
	}
	sel.caps = Capabilities{
		Directory: isAvailable(dirs),
		Downloads: isAvailable(sink),
	}
	return sel
}

func isAvailable(v any) bool {
	if v == nil {
		return false
	}
	if a, ok := v.(availability); ok {
		return a.Available()
	}
	return true
}

// Capabilities returns the capabilities resolved at construction.
func (s *Selector) Capabilities() Capabilities {
	return s.caps
}

// Encrypting reports whether files are sealed before writing.
func (s *Selector) Encrypting() bool {
	return s.sealer != nil
}

// Store persists content according to st. Only a failure of the downloads
// fallback is returned as an error; custom directory problems are logged.
func (s *Selector) Store(ctx context.Context, content []byte, filename, mimeType string, st settings.Settings) (Outcome, error) {
	if st.StorageMode == settings.StorageExtension {
		return Outcome{Data: string(content), Backend: BackendExtension}, nil
	}
	if !st.AutoDownload {
		return Outcome{Backend: BackendNone}, nil
	}

	content, filename, mimeType, sealed, err := s.prepare(content, filename, mimeType)
	if err != nil {
		return Outcome{}, err
	}

	var fellBack bool
	if st.UseCustomDirectory {
		if !s.caps.Directory {
			s.logger.Error("custom directory requested but not supported here, using downloads")
			fellBack = true
		} else {
			location, dirErr := s.writeDirectory(filename, content, mimeType)
			if dirErr == nil {
				s.metrics.RecordWrite(len(content), sealed)
				s.logger.Info("backup written to %s", location)
				return Outcome{Location: location, Backend: BackendDirectory, Encrypted: sealed}, nil
			}
			s.logger.Error("custom directory write failed, using downloads: %v", dirErr)
			fellBack = true
		}
	}
	if fellBack {
		s.metrics.RecordFallback()
	}

	location, err := s.download(ctx, content, path.Join(st.DownloadFolder, filename), mimeType)
	if err != nil {
		return Outcome{}, err
	}
	s.metrics.RecordWrite(len(content), sealed)
	s.logger.Info("backup downloaded to %s", location)
	return Outcome{Location: location, Backend: BackendDownloads, FellBack: fellBack, Encrypted: sealed}, nil
}

// Export writes previously produced content into the downloads folder.
func (s *Selector) Export(ctx context.Context, content []byte, filename, mimeType string, st settings.Settings) (Outcome, error) {
	content, filename, mimeType, sealed, err := s.prepare(content, filename, mimeType)
	if err != nil {
		return Outcome{}, err
	}
	location, err := s.download(ctx, content, path.Join(st.DownloadFolder, filename), mimeType)
	if err != nil {
		return Outcome{}, err
	}
	s.metrics.RecordWrite(len(content), sealed)
	return Outcome{Location: location, Backend: BackendDownloads, Encrypted: sealed}, nil
}

func (s *Selector) prepare(content []byte, filename, mimeType string) ([]byte, string, string, bool, error) {
	if s.sealer == nil {
		return content, filename, mimeType, false, nil
	}
	sealed, err := s.sealer.Seal(content)
	if err != nil {
		return nil, "", "", false, fmt.Errorf("encrypting backup: %w", err)
	}
	return sealed, s.sealer.Name(filename), sealedMIMEType, true, nil
}

func (s *Selector) writeDirectory(filename string, content []byte, mimeType string) (string, error) {
	h, err := s.dirs.Resolve()
	if err != nil {
		return "", err
	}
	if s.dirs.CheckPermission(h) != PermissionGranted {
		return "", fmt.Errorf("%w: %s", ErrPermissionDenied, h.Path)
	}
	return s.dirs.Write(h, filename, content, mimeType)
}

func (s *Selector) download(ctx context.Context, content []byte, destPath, mimeType string) (string, error) {
	if !s.caps.Downloads {
		return "", ErrDownloadsUnavailable
	}
	location, err := s.sink.Download(ctx, content, destPath, mimeType, false)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	return location, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
