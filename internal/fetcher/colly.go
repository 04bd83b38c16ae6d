package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// CollyFetcher fetches resources with a colly collector, which adds robots.txt
// handling and charset detection on top of net/http.
type CollyFetcher struct {
	base   *colly.Collector
	cfg    config.FetchConfig
	logger zerolog.Logger
}

// NewCollyFetcher creates a CollyFetcher from fetch_config.
func NewCollyFetcher(cfg config.FetchConfig, logger zerolog.Logger) *CollyFetcher {
	options := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	}
	if cfg.UserAgent != "" {
		options = append(options, colly.UserAgent(cfg.UserAgent))
	}
	if cfg.MaxContentSize > 0 {
		// One extra byte tells an oversized body apart from one exactly at the limit.
		options = append(options, colly.MaxBodySize(cfg.MaxContentSize+1))
	}

	c := colly.NewCollector(options...)
	c.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	c.SetRequestTimeout(cfg.Timeout())

	if !cfg.FollowRedirects {
		c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		})
	}

	return &CollyFetcher{
		base:   c,
		cfg:    cfg,
		logger: logger.With().Str("component", "CollyFetcher").Logger(),
	}
}

// Fetch implements Fetcher.
func (f *CollyFetcher) Fetch(ctx context.Context, res models.Resource) (*Result, error) {
	u, err := requestURL(res)
	if err != nil {
		return nil, newFetchError(res, 0, fmt.Errorf("invalid URL: %w", err))
	}
	if u.Scheme == "file" {
		result, err := fetchFile(u, f.cfg.MaxContentSize)
		if err != nil {
			return nil, newFetchError(res, 0, err)
		}
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, newFetchError(res, 0, err)
	}

	// Callbacks are per request, so each fetch works on a clone sharing the HTTP backend.
	c := f.base.Clone()

	var (
		result   *Result
		fetchErr error
		status   int
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		result = &Result{
			Body:        r.Body,
			ContentType: r.Headers.Get("Content-Type"),
			StatusCode:  r.StatusCode,
			FinalURL:    r.Request.URL.String(),
		}
	})
	c.OnError(func(r *colly.Response, e error) {
		status = r.StatusCode
		fetchErr = e
	})

	visitErr := c.Visit(u.String())
	c.Wait()

	switch {
	case ctx.Err() != nil:
		return nil, newFetchError(res, 0, ctx.Err())
	case errors.Is(visitErr, colly.ErrRobotsTxtBlocked):
		return nil, newFetchError(res, 0, visitErr)
	case fetchErr != nil:
		return nil, newFetchError(res, status, fetchErr)
	case visitErr != nil:
		return nil, newFetchError(res, status, visitErr)
	case result == nil:
		return nil, newFetchError(res, status, errors.New("no response received"))
	}

	if f.cfg.MaxContentSize > 0 && len(result.Body) > f.cfg.MaxContentSize {
		return nil, newFetchError(res, 0, fmt.Errorf("content too large: more than %d bytes", f.cfg.MaxContentSize))
	}

	f.logger.Debug().Str("url", result.FinalURL).Int("status_code", status).Int("size", len(result.Body)).Msg("Content fetched")
	return result, nil
}
