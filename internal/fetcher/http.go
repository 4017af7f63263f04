package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/observability"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client  *http.Client
	cfg     *config.FetcherConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetcher.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		proxyMgr, err := NewProxyManager(&cfg.Proxy, logger)
		if err != nil {
			return nil, err
		}
		transport.Proxy = proxyMgr.ProxyFunc()
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.Fetcher.Timeout,
	}

	return &HTTPFetcher{
		client:  client,
		cfg:     &cfg.Fetcher,
		logger:  logger.With("component", "http_fetcher"),
		metrics: metrics,
	}, nil
}

// Fetch retrieves a page, retrying failed attempts with a fixed delay
// between them. Any outcome other than HTTP 200 counts as a failed
// attempt. After the last attempt the accumulated failure is returned
// as a *types.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*types.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			f.metrics.IncFetchRetry()
			select {
			case <-ctx.Done():
				f.metrics.IncPageFetched("failed")
				return nil, &types.FetchError{URL: url, StatusCode: lastStatus, Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(f.cfg.RetryDelay):
			}
		}

		resp, err := f.do(ctx, url)
		if err == nil && resp.StatusCode == http.StatusOK {
			f.metrics.IncPageFetched("ok")
			f.metrics.ObserveFetchDuration(resp.FetchDuration)
			f.logger.Debug("fetch complete",
				"url", url,
				"status", resp.StatusCode,
				"size", len(resp.Body),
				"duration", resp.FetchDuration,
			)
			return resp, nil
		}

		if err != nil {
			lastStatus = 0
			lastErr = err
		} else {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		if ctx.Err() != nil {
			f.metrics.IncPageFetched("failed")
			return nil, &types.FetchError{URL: url, StatusCode: lastStatus, Attempts: attempt, Err: lastErr}
		}

		f.logger.Warn("fetch attempt failed",
			"url", url,
			"status", lastStatus,
			"attempt", attempt,
			"max_retries", f.cfg.MaxRetries,
			"error", lastErr,
		)
	}

	f.metrics.IncPageFetched("failed")
	return nil, &types.FetchError{URL: url, StatusCode: lastStatus, Attempts: f.cfg.MaxRetries, Err: lastErr}
}

// do executes a single GET. A non-200 response is not an error here;
// the retry loop inspects the status code.
func (f *HTTPFetcher) do(ctx context.Context, url string) (*types.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", f.cfg.UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	httpReq.Header.Set("Connection", "keep-alive")

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var reader io.Reader = httpResp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return types.NewResponse(url, httpResp, body, duration), nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
