package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/marksafe/internal/metrics"
	"github.com/mrz1836/marksafe/internal/settings"
)

type fakeDirs struct {
	handle     *Handle
	resolveErr error
	permission Permission
	writeErr   error
	writes     map[string][]byte
}

func newFakeDirs() *fakeDirs {
	return &fakeDirs{
		handle:     &Handle{Path: "/granted", Name: "granted"},
		permission: PermissionGranted,
		writes:     make(map[string][]byte),
	}
}

func (f *fakeDirs) Resolve() (*Handle, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.handle, nil
}

func (f *fakeDirs) CheckPermission(*Handle) Permission { return f.permission }

func (f *fakeDirs) Write(h *Handle, filename string, content []byte, _ string) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	location := h.Path + "/" + filename
	f.writes[location] = content
	return location, nil
}

type download struct {
	content  []byte
	destPath string
	mimeType string
	prompt   bool
}

type fakeSink struct {
	err       error
	downloads []download
}

func (f *fakeSink) Download(_ context.Context, content []byte, destPath, mimeType string, promptUser bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.downloads = append(f.downloads, download{content, destPath, mimeType, promptUser})
	return "/downloads/" + destPath, nil
}

type fakeSealer struct{ err error }

func (f fakeSealer) Seal(data []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("sealed:"), data...), nil
}

func (fakeSealer) Name(filename string) string { return filename + ".age" }

func downloadSettings(custom bool) settings.Settings {
	s := settings.Defaults()
	s.StorageMode = settings.StorageDownload
	s.AutoDownload = true
	s.UseCustomDirectory = custom
	return s
}

func TestSelector_ExtensionMode(t *testing.T) {
	t.Parallel()

	dirs, sink := newFakeDirs(), &fakeSink{}
	sel := NewSelector(dirs, sink)

	out, err := sel.Store(context.Background(), []byte(`{"a":1}`), "b.json", "application/json", settings.Defaults())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out.Data)
	assert.Equal(t, BackendExtension, out.Backend)
	assert.Empty(t, dirs.writes)
	assert.Empty(t, sink.downloads)
}

func TestSelector_ExtensionModeNeverSeals(t *testing.T) {
	t.Parallel()

	sel := NewSelector(nil, nil, WithSealer(fakeSealer{}))
	out, err := sel.Store(context.Background(), []byte("plain"), "b.json", "application/json", settings.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "plain", out.Data)
	assert.False(t, out.Encrypted)
}

func TestSelector_DownloadWithoutAutoDownload(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	sel := NewSelector(newFakeDirs(), sink)

	s := downloadSettings(false)
	s.AutoDownload = false
	out, err := sel.Store(context.Background(), []byte("x"), "b.json", "application/json", s)
	require.NoError(t, err)
	assert.Equal(t, BackendNone, out.Backend)
	assert.Empty(t, out.Data)
	assert.Empty(t, sink.downloads)
}

func TestSelector_CustomDirectory(t *testing.T) {
	t.Parallel()

	dirs, sink := newFakeDirs(), &fakeSink{}
	m := &metrics.Metrics{}
	sel := NewSelector(dirs, sink, WithMetrics(m))

	out, err := sel.Store(context.Background(), []byte("x"), "b.json", "application/json", downloadSettings(true))
	require.NoError(t, err)
	assert.Equal(t, BackendDirectory, out.Backend)
	assert.Equal(t, "/granted/b.json", out.Location)
	assert.False(t, out.FellBack)
	assert.Empty(t, sink.downloads)
	assert.Equal(t, int64(0), m.Fallbacks())
}

func TestSelector_FallsBackToDownloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(d *fakeDirs)
	}{
		{"permission denied", func(d *fakeDirs) { d.permission = PermissionDenied }},
		{"no grant", func(d *fakeDirs) { d.resolveErr = ErrNoDirectory }},
		{"write error", func(d *fakeDirs) { d.writeErr = errors.New("disk full") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dirs, sink := newFakeDirs(), &fakeSink{}
			tc.modify(dirs)
			m := &metrics.Metrics{}
			sel := NewSelector(dirs, sink, WithMetrics(m))

			s := downloadSettings(true)
			out, err := sel.Store(context.Background(), []byte("x"), "b.json", "application/json", s)
			require.NoError(t, err)
			assert.Equal(t, BackendDownloads, out.Backend)
			assert.True(t, out.FellBack)
			require.Len(t, sink.downloads, 1)
			assert.Equal(t, "BookmarkBackups/b.json", sink.downloads[0].destPath)
			assert.False(t, sink.downloads[0].prompt)
			assert.Equal(t, int64(1), m.Fallbacks())
		})
	}
}

func TestSelector_NoDirectoryCapability(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	sel := NewSelector(nil, sink)
	assert.Equal(t, Capabilities{Directory: false, Downloads: true}, sel.Capabilities())

	out, err := sel.Store(context.Background(), []byte("x"), "b.json", "application/json", downloadSettings(true))
	require.NoError(t, err)
	assert.True(t, out.FellBack)
	assert.Len(t, sink.downloads, 1)
}

func TestSelector_DownloadFailureIsFatal(t *testing.T) {
	t.Parallel()

	dirs := newFakeDirs()
	dirs.permission = PermissionDenied
	sel := NewSelector(dirs, &fakeSink{err: errors.New("read-only filesystem")})

	_, err := sel.Store(context.Background(), []byte("x"), "b.json", "application/json", downloadSettings(true))
	require.Error(t, err)

	_, err = NewSelector(nil, nil).Store(context.Background(), []byte("x"), "b.json", "application/json", downloadSettings(false))
	require.ErrorIs(t, err, ErrDownloadsUnavailable)
}

func TestSelector_Sealing(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	sel := NewSelector(nil, sink, WithSealer(fakeSealer{}))
	assert.True(t, sel.Encrypting())

	out, err := sel.Store(context.Background(), []byte("x"), "b.json", "application/json", downloadSettings(false))
	require.NoError(t, err)
	assert.True(t, out.Encrypted)
	require.Len(t, sink.downloads, 1)
	assert.Equal(t, "BookmarkBackups/b.json.age", sink.downloads[0].destPath)
	assert.Equal(t, "sealed:x", string(sink.downloads[0].content))
	assert.Equal(t, "application/octet-stream", sink.downloads[0].mimeType)

	failing := NewSelector(nil, sink, WithSealer(fakeSealer{err: errors.New("no entropy")}))
	_, err = failing.Store(context.Background(), []byte("x"), "b.json", "application/json", downloadSettings(false))
	require.Error(t, err)
}

func TestSelector_Export(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	sel := NewSelector(nil, sink)

	out, err := sel.Export(context.Background(), []byte("<html>"), "b.html", "text/html", settings.Defaults())
	require.NoError(t, err)
	assert.Equal(t, BackendDownloads, out.Backend)
	assert.Equal(t, "/downloads/BookmarkBackups/b.html", out.Location)
}

func TestSelector_WithRealBackends(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sel := NewSelector(nil, NewFileSink(root))

	s := downloadSettings(false)
	first, err := sel.Store(context.Background(), []byte("1"), "b.json", "application/json", s)
	require.NoError(t, err)
	second, err := sel.Store(context.Background(), []byte("2"), "b.json", "application/json", s)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "BookmarkBackups", "b.json"), first.Location)
	assert.Equal(t, filepath.Join(root, "BookmarkBackups", "b (1).json"), second.Location)
}

func TestPermission_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "granted", PermissionGranted.String())
	assert.Equal(t, "denied", PermissionDenied.String())
}
