package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/observability"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
//
// Fetch retries failed attempts internally with a fixed delay between
// them, so an error from Fetch means the retry budget is exhausted and
// the page should be skipped.
type Fetcher interface {
	// Fetch retrieves the content at the given URL. Only an HTTP 200
	// counts as success.
	Fetch(ctx context.Context, url string) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New creates a fetcher of the configured type.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "http", "":
		return NewHTTPFetcher(cfg, logger, metrics)
	case "browser":
		return NewBrowserFetcher(cfg, logger, metrics)
	default:
		return nil, fmt.Errorf("unknown fetcher type: %q", cfg.Fetcher.Type)
	}
}
