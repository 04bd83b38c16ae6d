// Package fetcher retrieves the raw content of monitored resources.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
)

// Fetcher retrieves the content of one resource. Implementations must be
// safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, res models.Resource) (*Result, error)
}

// Closer is implemented by fetchers holding external processes or pools.
type Closer interface {
	Close() error
}

// Result is the raw outcome of a successful fetch.
type Result struct {
	Body        []byte
	ContentType string
	StatusCode  int
	FinalURL    string
}

// FetchError reports a resource that could not be retrieved.
type FetchError struct {
	ID         string
	URL        string
	StatusCode int // 0 when no response was received
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): status %d: %v", e.ID, e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.ID, e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func newFetchError(res models.Resource, status int, cause error) *FetchError {
	return &FetchError{ID: res.ID, URL: res.URL, StatusCode: status, Cause: cause}
}

// New builds the fetcher selected by fetch_config.transport.
func New(cfg *config.GlobalConfig, logger zerolog.Logger) (Fetcher, error) {
	switch strings.ToLower(cfg.FetchConfig.Transport) {
	case "", config.TransportHTTP:
		return NewHTTPFetcher(cfg.FetchConfig, logger)
	case config.TransportColly:
		return NewCollyFetcher(cfg.FetchConfig, logger), nil
	case config.TransportBrowser:
		return NewBrowserFetcher(cfg.FetchConfig, cfg.BrowserConfig, logger), nil
	default:
		return nil, common.NewValidationError("fetch_config.transport", cfg.FetchConfig.Transport, "unknown transport")
	}
}

// requestURL parses the resource URL, adding https:// to bare host names
// such as "a.test" or "example.com/path".
func requestURL(res models.Resource) (*url.URL, error) {
	raw := strings.TrimSpace(res.URL)
	if raw == "" {
		raw = res.ID
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("missing host in %q", raw)
		}
	case "file":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

// fetchFile serves file:// resources for every transport.
func fetchFile(u *url.URL, maxSize int) (*Result, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	body, err := readLimited(f, maxSize)
	if err != nil {
		return nil, err
	}
	return &Result{
		Body:        body,
		ContentType: "",
		StatusCode:  0,
		FinalURL:    u.String(),
	}, nil
}

// readLimited reads r, failing when it yields more than maxSize bytes (0 = unlimited).
func readLimited(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, int64(maxSize)+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxSize {
		return nil, fmt.Errorf("content too large: more than %d bytes", maxSize)
	}
	return body, nil
}
