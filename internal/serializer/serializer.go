// Package serializer renders a bookmark tree into the backup file formats:
// a JSON envelope and the Netscape bookmark file understood by every browser.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrz1836/marksafe/internal/bookmarks"
)

// EnvelopeVersion is the version written into every BackupData envelope.
const EnvelopeVersion = "1.0"

// Format is a backup output format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ErrUnknownFormat indicates a format other than json or html.
var ErrUnknownFormat = errors.New("unknown backup format")

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	if f == FormatHTML {
		return "html"
	}
	return "json"
}

// MIMEType returns the content type used when the backup is written out.
func (f Format) MIMEType() string {
	if f == FormatHTML {
		return "text/html"
	}
	return "application/json"
}

// BackupData is the envelope serialized for every backup.
type BackupData struct {
	Version        string           `json:"version"`
	ExportDate     string           `json:"exportDate"`
	BrowserInfo    string           `json:"browserInfo"`
	TotalBookmarks int              `json:"totalBookmarks"`
	Bookmarks      []bookmarks.Node `json:"bookmarks"`
}

// NewBackupData builds the envelope for tree at now.
func NewBackupData(tree []bookmarks.Node, browserInfo string, now time.Time) *BackupData {
	return &BackupData{
		Version:        EnvelopeVersion,
		ExportDate:     now.UTC().Format(time.RFC3339Nano),
		BrowserInfo:    browserInfo,
		TotalBookmarks: bookmarks.Count(tree),
		Bookmarks:      tree,
	}
}

// Render serializes data in the given format.
func Render(data *BackupData, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(data)
	case FormatHTML:
		return []byte(HTML(data)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// JSON renders the envelope as two-space indented JSON.
func JSON(data *BackupData) ([]byte, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return out, nil
}

// ParseJSON reads an envelope produced by JSON.
func ParseJSON(content []byte) (*BackupData, error) {
	var data BackupData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("decoding backup: %w", err)
	}
	return &data, nil
}

// Filename returns the backup file name for a backup taken at now, for example
// bookmarks-backup-2024-01-02-09-00-00.json.
func Filename(format Format, now time.Time) string {
	return fmt.Sprintf("bookmarks-backup-%s.%s", now.Format("2006-01-02-15-04-05"), format.Extension())
}
