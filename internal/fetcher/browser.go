package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/observability"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// It renders JavaScript-heavy catalogue pages that the plain HTTP
// fetcher cannot see. Pages are fetched one at a time.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.FetcherConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBrowserFetcher launches a headless Chromium instance and connects
// to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		proxyMgr, err := NewProxyManager(&cfg.Proxy, logger)
		if err != nil {
			return nil, err
		}
		l = l.Proxy(proxyMgr.Next().String())
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf := &BrowserFetcher{
		browser: browser,
		cfg:     &cfg.Fetcher,
		logger:  logger.With("component", "browser_fetcher"),
		metrics: metrics,
	}

	bf.logger.Info("browser fetcher ready")
	return bf, nil
}

// Fetch navigates to a URL and returns the rendered page content,
// retrying failed attempts with a fixed delay between them.
func (bf *BrowserFetcher) Fetch(ctx context.Context, url string) (*types.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= bf.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			bf.metrics.IncFetchRetry()
			select {
			case <-ctx.Done():
				bf.metrics.IncPageFetched("failed")
				return nil, &types.FetchError{URL: url, Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(bf.cfg.RetryDelay):
			}
		}

		resp, err := bf.navigate(url)
		if err == nil {
			bf.metrics.IncPageFetched("ok")
			bf.metrics.ObserveFetchDuration(resp.FetchDuration)
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			bf.metrics.IncPageFetched("failed")
			return nil, &types.FetchError{URL: url, Attempts: attempt, Err: lastErr}
		}

		bf.logger.Warn("fetch attempt failed",
			"url", url,
			"status", 0,
			"attempt", attempt,
			"max_retries", bf.cfg.MaxRetries,
			"error", err,
		)
	}

	bf.metrics.IncPageFetched("failed")
	return nil, &types.FetchError{URL: url, Attempts: bf.cfg.MaxRetries, Err: lastErr}
}

// navigate performs a single browser navigation on a fresh stealth page.
func (bf *BrowserFetcher) navigate(url string) (*types.Response, error) {
	start := time.Now()

	page, err := stealth.Page(bf.browser)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	defer page.Close()

	if err := page.Timeout(bf.cfg.Timeout).Navigate(url); err != nil {
		return nil, err
	}

	if err := page.Timeout(bf.cfg.Timeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	// Rod doesn't surface status codes for simple navigations; a page
	// that rendered is treated as a 200.
	finalURL := url
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	resp := types.NewBrowserResponse(url, http.StatusOK, []byte(html), finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", url,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}
