// Package version reports build information and checks for newer releases.
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

// Set at build time with -ldflags "-X".
//
//nolint:gochecknoglobals // build metadata
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Release source and client defaults.
const (
	DefaultBaseURL = "https://api.github.com"
	DefaultOwner   = "mrz1836"
	DefaultRepo    = "sigil-earn"
	DefaultTimeout = 10 * time.Second

	maxBodySize = 64 * 1024
)

// ErrReleaseLookup is returned when the release API does not answer 200.
var ErrReleaseLookup = errors.New("release lookup failed")

// Info is the build description printed by the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Latest    string `json:"latest,omitempty"`
	Outdated  bool   `json:"outdated,omitempty"`
}

// Get returns the running binary's build info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the info on one line.
func (i Info) String() string {
	s := fmt.Sprintf("sigil-earn %s (commit %s, built %s, %s %s)",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
	if i.Outdated {
		s += fmt.Sprintf("\nA newer release is available: %s", i.Latest)
	}
	return s
}

// Client looks up the latest published release.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the public GitHub API.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Latest returns the tag of the latest release of owner/repo.
func (c *Client) Latest(ctx context.Context, owner, repo string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimSuffix(c.BaseURL, "/"), owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "sigil-earn/"+Version)

	resp, err := c.HTTPClient.Do(req) //nolint:gosec // fixed API host
	if err != nil {
		return "", fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, maxBodySize)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrReleaseLookup, resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(body).Decode(&release); err != nil {
		return "", fmt.Errorf("decoding release: %w", err)
	}
	return release.TagName, nil
}

// Check fills Latest and Outdated on info.
func (c *Client) Check(ctx context.Context, info Info) (Info, error) {
	latest, err := c.Latest(ctx, DefaultOwner, DefaultRepo)
	if err != nil {
		return info, err
	}
	info.Latest = latest
	info.Outdated = Compare(latest, info.Version) > 0
	return info, nil
}

// Compare orders two versions: 1 when a > b, -1 when a < b, else 0.
// "dev" and empty versions sort before every release.
func Compare(a, b string) int {
	pa, okA := parse(a)
	pb, okB := parse(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	for i := range pa {
		if pa[i] != pb[i] {
			if pa[i] > pb[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// parse reads major.minor.patch, ignoring a "v" prefix and any
// pre-release or build suffix.
func parse(v string) ([3]int, bool) {
	var out [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "dev" {
		return out, false
	}
	parts := strings.Split(v, ".")
	if len(parts) > 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
