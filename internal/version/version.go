// Package version checks GitHub for newer marksafe releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Release source and request limits.
const (
	DefaultBaseURL = "https://api.github.com"
	DefaultOwner   = "mrz1836"
	DefaultRepo    = "marksafe"
	DefaultTimeout = 10 * time.Second

	maxErrorBodySize    = 1024
	maxResponseBodySize = 64 * 1024
)

// ErrReleaseLookupFailed is returned for non-200 answers from the releases API.
var ErrReleaseLookupFailed = errors.New("release lookup failed")

// Release is the part of a GitHub release marksafe cares about.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// Check is the outcome of comparing the running version with the latest release.
type Check struct {
	Current string `json:"current"`
	Latest  string `json:"latest"`
	URL     string `json:"url,omitempty"`
	Newer   bool   `json:"newer"`
}

// Checker fetches the latest release of one repository.
type Checker struct {
	baseURL    string
	owner      string
	repo       string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Checker.
type Option func(*Checker)

// WithBaseURL points the checker at another API host.
func WithBaseURL(url string) Option {
	return func(c *Checker) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.httpClient = client
	}
}

// NewChecker returns a checker for mrz1836/marksafe.
func NewChecker(current string, opts ...Option) *Checker {
	c := &Checker{
		baseURL:    DefaultBaseURL,
		owner:      DefaultOwner,
		repo:       DefaultRepo,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  fmt.Sprintf("marksafe/%s (%s/%s)", Normalize(current), runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the newest published release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL is built from the fixed releases endpoint
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("%w: status %d: %s", ErrReleaseLookupFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	return &release, nil
}

// Check compares current with the latest release.
func (c *Checker) Check(ctx context.Context, current string) (Check, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return Check{}, err
	}
	return Check{
		Current: current,
		Latest:  release.TagName,
		URL:     release.HTMLURL,
		Newer:   Compare(release.TagName, current) > 0,
	}, nil
}

// Compare orders two versions: 1 when a is newer, -1 when b is newer, 0 when
// equal. Development builds and commit hashes sort before every release.
func Compare(a, b string) int {
	aDev, bDev := isDevelopment(a), isDevelopment(b)
	switch {
	case aDev && bDev:
		return 0
	case aDev:
		return -1
	case bDev:
		return 1
	}

	pa, pb := parts(a), parts(b)
	for i := range 3 {
		if pa[i] != pb[i] {
			if pa[i] > pb[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Normalize drops a leading v and any pre-release or build suffix.
func Normalize(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}
	return v
}

func parts(v string) [3]int {
	var out [3]int
	for i, p := range strings.SplitN(Normalize(v), ".", 3) {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

func isDevelopment(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	return v == "" || v == "dev" || isCommitHash(v)
}

// isCommitHash reports whether s looks like an abbreviated or full git hash.
// A letter is required so that numeric versions such as 2024010100 do not match.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'):
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
