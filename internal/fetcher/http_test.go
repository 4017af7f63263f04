package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"

	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

const pageURL = "https://shop.example.com/shop/?page=1"

func newTestFetcher(t *testing.T) (*HTTPFetcher, *httpmock.MockTransport) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Fetcher.MaxRetries = 3
	cfg.Fetcher.RetryDelay = time.Millisecond

	f, err := NewHTTPFetcher(cfg, testLogger, nil)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}

	mock := httpmock.NewMockTransport()
	f.client.Transport = mock
	return f, mock
}

// --- HTTPFetcher Tests ---

func TestFetchSuccess(t *testing.T) {
	f, mock := newTestFetcher(t)
	mock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewStringResponder(http.StatusOK, "<html><body>ok</body></html>"))

	resp, err := f.Fetch(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "<html><body>ok</body></html>" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if mock.GetTotalCallCount() != 1 {
		t.Errorf("call count = %d, want 1", mock.GetTotalCallCount())
	}
}

func TestFetchNon200ExhaustsRetries(t *testing.T) {
	f, mock := newTestFetcher(t)

	calls := 0
	mock.RegisterResponder(http.MethodGet, pageURL, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(http.StatusInternalServerError, "boom"), nil
	})

	_, err := f.Fetch(context.Background(), pageURL)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *types.FetchError", err)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", fetchErr.Attempts)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", fetchErr.StatusCode)
	}
	if calls != 3 {
		t.Errorf("attempts made = %d, want exactly 3", calls)
	}
}

func TestFetchNotFoundIsFailure(t *testing.T) {
	// Anything other than 200 is a failed attempt, including 404.
	f, mock := newTestFetcher(t)
	mock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewStringResponder(http.StatusNotFound, "gone"))

	_, err := f.Fetch(context.Background(), pageURL)

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *types.FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
}

func TestFetchRecoversWithinBudget(t *testing.T) {
	f, mock := newTestFetcher(t)

	calls := 0
	mock.RegisterResponder(http.MethodGet, pageURL, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(http.StatusServiceUnavailable, "busy"), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, "recovered"), nil
	})

	resp, err := f.Fetch(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "recovered" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if calls != 3 {
		t.Errorf("attempts made = %d, want 3", calls)
	}
}

func TestFetchNetworkError(t *testing.T) {
	f, mock := newTestFetcher(t)
	mock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewErrorResponder(errors.New("connection reset")))

	_, err := f.Fetch(context.Background(), pageURL)

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *types.FetchError", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for network error", fetchErr.StatusCode)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", fetchErr.Attempts)
	}
}

func TestFetchContextCanceled(t *testing.T) {
	f, mock := newTestFetcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	mock.RegisterResponder(http.MethodGet, pageURL, func(req *http.Request) (*http.Response, error) {
		cancel() // fail the first attempt and stop the retry loop
		return httpmock.NewStringResponse(http.StatusInternalServerError, "boom"), nil
	})

	_, err := f.Fetch(ctx, pageURL)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if mock.GetTotalCallCount() != 1 {
		t.Errorf("call count = %d, want 1 (no retries after cancel)", mock.GetTotalCallCount())
	}
}

func TestFetchDecompressesBrotli(t *testing.T) {
	f, mock := newTestFetcher(t)

	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte("<html>compressed</html>")); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}

	mock.RegisterResponder(http.MethodGet, pageURL, func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(http.StatusOK, buf.Bytes())
		resp.Header.Set("Content-Encoding", "br")
		return resp, nil
	})

	resp, err := f.Fetch(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(resp.Body) != "<html>compressed</html>" {
		t.Errorf("body not decompressed: %q", resp.Body)
	}
}

func TestFetchSendsHeaders(t *testing.T) {
	f, mock := newTestFetcher(t)

	var gotUA, gotEncoding string
	mock.RegisterResponder(http.MethodGet, pageURL, func(req *http.Request) (*http.Response, error) {
		gotUA = req.Header.Get("User-Agent")
		gotEncoding = req.Header.Get("Accept-Encoding")
		return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
	})

	if _, err := f.Fetch(context.Background(), pageURL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != config.DefaultConfig().Fetcher.UserAgent {
		t.Errorf("User-Agent = %q, want configured agent", gotUA)
	}
	if gotEncoding != "gzip, deflate, br" {
		t.Errorf("Accept-Encoding = %q", gotEncoding)
	}
}

// --- Factory Tests ---

func TestNewFetcherTypes(t *testing.T) {
	cfg := config.DefaultConfig()

	f, err := New(cfg, testLogger, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()
	if f.Type() != "http" {
		t.Errorf("Type() = %q, want http", f.Type())
	}

	cfg.Fetcher.Type = "carrier-pigeon"
	if _, err := New(cfg, testLogger, nil); err == nil {
		t.Error("expected error for unknown fetcher type")
	}
}

// --- ProxyManager Tests ---

func TestProxyManagerRoundRobin(t *testing.T) {
	pm, err := NewProxyManager(&config.ProxyConfig{
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "http://p2:8080", "http://p3:8080"},
	}, testLogger)
	if err != nil {
		t.Fatalf("NewProxyManager: %v", err)
	}
	if pm.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", pm.Count())
	}

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		seen[pm.Next().Host] = true
	}
	if len(seen) != 3 {
		t.Errorf("round robin visited %d distinct proxies in 3 calls, want 3", len(seen))
	}
}

func TestProxyManagerRandom(t *testing.T) {
	pm, err := NewProxyManager(&config.ProxyConfig{
		Rotation: "random",
		URLs:     []string{"http://p1:8080", "http://p2:8080"},
	}, testLogger)
	if err != nil {
		t.Fatalf("NewProxyManager: %v", err)
	}

	hosts := map[string]bool{"p1:8080": true, "p2:8080": true}
	for i := 0; i < 10; i++ {
		if u := pm.Next(); !hosts[u.Host] {
			t.Fatalf("Next() returned unknown proxy %q", u.Host)
		}
	}
}

func TestProxyManagerSkipsInvalidURLs(t *testing.T) {
	pm, err := NewProxyManager(&config.ProxyConfig{
		Rotation: "round_robin",
		URLs:     []string{"://not-a-url", "http://p1:8080"},
	}, testLogger)
	if err != nil {
		t.Fatalf("NewProxyManager: %v", err)
	}
	if pm.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after skipping invalid URL", pm.Count())
	}
}

func TestProxyManagerEmpty(t *testing.T) {
	_, err := NewProxyManager(&config.ProxyConfig{
		Rotation: "round_robin",
		URLs:     []string{"://not-a-url"},
	}, testLogger)
	if !errors.Is(err, types.ErrNoProxies) {
		t.Errorf("err = %v, want ErrNoProxies", err)
	}
}
