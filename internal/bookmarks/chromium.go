package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// webkitEpochOffsetMs is the distance between 1601-01-01 and 1970-01-01 in milliseconds.
const webkitEpochOffsetMs = 11644473600000

// Chromium root folders in the order the browser shows them.
var chromiumRoots = []struct { //nolint:gochecknoglobals // Fixed layout of the Bookmarks file
	key   string
	title string
}{
	{"bookmark_bar", "Bookmarks bar"},
	{"other", "Other bookmarks"},
	{"synced", "Mobile bookmarks"},
}

var (
	// ErrBookmarksFileMissing indicates the profile has no Bookmarks file.
	ErrBookmarksFileMissing = errors.New("bookmarks file not found")

	// ErrInvalidBookmarksFile indicates the Bookmarks file could not be parsed.
	ErrInvalidBookmarksFile = errors.New("invalid bookmarks file")
)

// ChromiumSource reads the Bookmarks JSON file of a Chromium-family browser
// profile (Chrome, Chromium, Edge, Brave, Vivaldi).
type ChromiumSource struct {
	path string
}

// NewChromiumSource creates a source for the Bookmarks file at path.
func NewChromiumSource(path string) *ChromiumSource {
	return &ChromiumSource{path: path}
}

// Path returns the Bookmarks file path.
func (s *ChromiumSource) Path() string {
	return s.path
}

// Tree returns a snapshot of the bookmark tree. Like the browser's own API it
// is a single untitled root whose children are the root folders.
func (s *ChromiumSource) Tree(ctx context.Context) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBookmarksFileMissing, s.path)
		}
		return nil, fmt.Errorf("reading bookmarks file: %w", err)
	}

	return ParseChromium(data)
}

type chromiumFile struct {
	Version int                      `json:"version"`
	Roots   map[string]chromiumEntry `json:"roots"`
}

type chromiumEntry struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	URL          string          `json:"url"`
	DateAdded    string          `json:"date_added"`
	DateModified string          `json:"date_modified"`
	Children     []chromiumEntry `json:"children"`
}

// ParseChromium converts the contents of a Chromium Bookmarks file into a tree.
func ParseChromium(data []byte) ([]Node, error) {
	var file chromiumFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBookmarksFile, err)
	}
	if file.Roots == nil {
		return nil, fmt.Errorf("%w: no roots", ErrInvalidBookmarksFile)
	}

	root := Node{ID: "0"}
	for _, r := range chromiumRoots {
		entry, ok := file.Roots[r.key]
		if !ok {
			continue
		}
		node := entry.toNode()
		if node.Title == "" {
			node.Title = r.title
		}
		root.Children = append(root.Children, node)
	}

	return []Node{root}, nil
}

func (e *chromiumEntry) toNode() Node {
	node := Node{
		ID:        e.ID,
		Title:     e.Name,
		DateAdded: webkitToEpochMs(e.DateAdded),
	}

	if e.Type == "url" {
		node.URL = e.URL
		return node
	}

	node.DateGroupModified = webkitToEpochMs(e.DateModified)
	if len(e.Children) > 0 {
		node.Children = make([]Node, 0, len(e.Children))
		for i := range e.Children {
			node.Children = append(node.Children, e.Children[i].toNode())
		}
	}
	return node
}

// webkitToEpochMs converts microseconds since 1601 (as a decimal string) to
// epoch milliseconds. Missing or malformed values map to zero.
func webkitToEpochMs(v string) int64 {
	if v == "" || v == "0" {
		return 0
	}
	micros, err := strconv.ParseInt(v, 10, 64)
	if err != nil || micros <= 0 {
		return 0
	}
	ms := micros/1000 - webkitEpochOffsetMs
	if ms < 0 {
		return 0
	}
	return ms
}
