package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// BrowserFetcher renders resources in headless Chrome and returns the
// resulting DOM, for pages whose content is produced by JavaScript.
// The browser is launched on first use.
type BrowserFetcher struct {
	fetchCfg   config.FetchConfig
	browserCfg config.BrowserConfig
	logger     zerolog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserFetcher creates a BrowserFetcher; nothing is launched yet.
func NewBrowserFetcher(fetchCfg config.FetchConfig, browserCfg config.BrowserConfig, logger zerolog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		fetchCfg:   fetchCfg,
		browserCfg: browserCfg,
		logger:     logger.With().Str("component", "BrowserFetcher").Logger(),
	}
}

func (f *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().Headless(true)
	if f.browserCfg.ChromePath != "" {
		l = l.Bin(f.browserCfg.ChromePath)
	}
	if f.browserCfg.UserDataDir != "" {
		l = l.UserDataDir(f.browserCfg.UserDataDir)
	}
	l = l.
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-default-apps").
		Set("disable-sync")
	if f.browserCfg.DisableImages {
		l = l.Set("blink-settings", "imagesEnabled=false")
	}
	if f.fetchCfg.Proxy != "" {
		l = l.Proxy(f.fetchCfg.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	if f.fetchCfg.InsecureSkipVerify {
		if err := browser.IgnoreCertErrors(true); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to disable certificate checks")
		}
	}

	f.browser = browser
	f.launcher = l
	f.logger.Info().Msg("Headless browser started")
	return browser, nil
}

// Fetch implements Fetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context, res models.Resource) (*Result, error) {
	u, err := requestURL(res)
	if err != nil {
		return nil, newFetchError(res, 0, fmt.Errorf("invalid URL: %w", err))
	}
	if u.Scheme == "file" {
		result, err := fetchFile(u, f.fetchCfg.MaxContentSize)
		if err != nil {
			return nil, newFetchError(res, 0, err)
		}
		return result, nil
	}

	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, newFetchError(res, 0, err)
	}

	pageCtx, cancel := context.WithTimeout(ctx, f.browserCfg.PageTimeout())
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, newFetchError(res, 0, fmt.Errorf("failed to create page: %w", err))
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			f.logger.Debug().Err(closeErr).Msg("Failed to close page")
		}
	}()

	if f.fetchCfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.fetchCfg.UserAgent}); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	var status int
	waitResponse := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := page.Navigate(u.String()); err != nil {
		return nil, newFetchError(res, 0, fmt.Errorf("failed to navigate: %w", err))
	}
	waitResponse()
	if status >= 400 {
		return nil, newFetchError(res, status, fmt.Errorf("document request failed"))
	}

	if err := page.WaitLoad(); err != nil {
		return nil, newFetchError(res, status, fmt.Errorf("page load failed: %w", err))
	}
	if f.browserCfg.WaitForIdle {
		if err := page.WaitIdle(f.browserCfg.PageTimeout() / 3); err != nil {
			f.logger.Debug().Err(err).Str("url", u.String()).Msg("Page did not become idle")
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, newFetchError(res, status, fmt.Errorf("failed to read DOM: %w", err))
	}
	if f.fetchCfg.MaxContentSize > 0 && len(html) > f.fetchCfg.MaxContentSize {
		return nil, newFetchError(res, status, fmt.Errorf("content too large: more than %d bytes", f.fetchCfg.MaxContentSize))
	}

	finalURL := u.String()
	if info, err := page.Info(); err == nil {
		finalURL = info.URL
	}

	return &Result{
		Body:        []byte(html),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  status,
		FinalURL:    finalURL,
	}, nil
}

// Close shuts the browser down if it was started.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Cleanup()
	f.browser = nil
	f.launcher = nil
	f.logger.Info().Msg("Headless browser stopped")
	return err
}
