package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPFetcher fetches resources with net/http, retrying transient failures.
type HTTPFetcher struct {
	client *http.Client
	cfg    config.FetchConfig
	retry  *RetryHandler
	logger zerolog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher from fetch_config.
func NewHTTPFetcher(cfg config.FetchConfig, logger zerolog.Logger) (*HTTPFetcher, error) {
	logger = logger.With().Str("component", "HTTPFetcher").Logger()

	client, err := newHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &HTTPFetcher{
		client: client,
		cfg:    cfg,
		retry:  NewRetryHandler(cfg, logger),
		logger: logger,
	}, nil
}

func newHTTPClient(cfg config.FetchConfig, logger zerolog.Logger) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout(),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, common.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", cfg.Proxy).Msg("HTTP client configured with proxy")
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout(),
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if cfg.MaxRedirects > 0 {
		maxRedirects := cfg.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}

	logger.Debug().
		Dur("timeout", cfg.Timeout()).
		Bool("insecure_skip_verify", cfg.InsecureSkipVerify).
		Bool("follow_redirects", cfg.FollowRedirects).
		Bool("http2_enabled", cfg.EnableHTTP2).
		Msg("HTTP client created")

	return client, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, res models.Resource) (*Result, error) {
	u, err := requestURL(res)
	if err != nil {
		return nil, newFetchError(res, 0, common.WrapError(err, "invalid URL"))
	}
	if u.Scheme == "file" {
		result, err := fetchFile(u, f.cfg.MaxContentSize)
		if err != nil {
			return nil, newFetchError(res, 0, err)
		}
		return result, nil
	}

	for attempt := 0; ; attempt++ {
		result, status, err := f.do(ctx, u.String())
		if err == nil {
			return result, nil
		}

		retryable := false
		var netErr *common.NetworkError
		switch {
		case status != 0:
			retryable = f.retry.ShouldRetryStatus(status, attempt)
		case errors.As(err, &netErr):
			retryable = f.retry.ShouldRetryError(ctx, attempt)
		}
		if !retryable {
			return nil, newFetchError(res, status, err)
		}
		if werr := f.retry.Wait(ctx, attempt, u.String(), err.Error()); werr != nil {
			return nil, newFetchError(res, status, werr)
		}
	}
}

// do performs one request. A non-zero status with an error means the server
// answered with a non-2xx code.
func (f *HTTPFetcher) do(ctx context.Context, target string) (*Result, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, common.WrapError(err, "failed to create request")
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, common.NewNetworkError(target, "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, common.NewHTTPError(target, resp.StatusCode, string(snippet))
	}

	if f.cfg.MaxContentSize > 0 && resp.ContentLength > int64(f.cfg.MaxContentSize) {
		return nil, 0, fmt.Errorf("content too large: %d bytes (max: %d bytes)", resp.ContentLength, f.cfg.MaxContentSize)
	}

	body, err := readLimited(resp.Body, f.cfg.MaxContentSize)
	if err != nil {
		return nil, 0, common.WrapError(err, "failed to read response body")
	}

	f.logger.Debug().
		Str("url", target).
		Int("status_code", resp.StatusCode).
		Int("size", len(body)).
		Msg("Content fetched")

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
	}, resp.StatusCode, nil
}
