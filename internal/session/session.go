package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/fetcher"
	"github.com/IshaanNene/shelfwatch/internal/notify"
	"github.com/IshaanNene/shelfwatch/internal/observability"
	"github.com/IshaanNene/shelfwatch/internal/parser"
	"github.com/IshaanNene/shelfwatch/internal/storage"
)

// Session runs crawl sessions against the configured catalogue site.
//
// A session walks pages 1..N in order, reconciles each page against the
// catalogue loaded at the start, and persists the result exactly once
// at the end. A page that cannot be fetched is skipped; the session
// carries on with the remaining pages.
type Session struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	parser   parser.Parser
	store    storage.RecordStore
	recon    *catalog.Reconciler
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New wires a session from its components.
func New(
	cfg *config.Config,
	f fetcher.Fetcher,
	p parser.Parser,
	store storage.RecordStore,
	recon *catalog.Reconciler,
	notifier notify.Notifier,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Session {
	return &Session{
		cfg:      cfg,
		fetcher:  f,
		parser:   p,
		store:    store,
		recon:    recon,
		notifier: notifier,
		logger:   logger.With("component", "session"),
		metrics:  metrics,
	}
}

// Run crawls the first pages catalogue pages and returns the session
// totals. The persisted catalogue is written once, after the last page;
// a failed write is returned to the caller and suppresses the summary
// notification.
func (s *Session) Run(ctx context.Context, pages int) (catalog.Stats, error) {
	var total catalog.Stats

	if err := config.ValidatePages(pages, s.cfg.Crawl.MaxPages); err != nil {
		return total, err
	}

	s.metrics.IncSessions()
	s.logger.Info("session starting", "pages", pages, "base_url", s.cfg.Crawl.BaseURL)

	baseline, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("could not load existing catalogue, starting fresh",
			"backend", s.store.Name(), "error", err)
		baseline = nil
	}
	cat := catalog.FromProducts(baseline)

	for page := 1; page <= pages; page++ {
		if page > 1 {
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			case <-time.After(s.cfg.Crawl.PageDelay):
			}
		}

		pageURL := s.pageURL(page)

		resp, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.logger.Warn("page fetch failed, skipping", "page", page, "url", pageURL, "error", err)
			continue
		}

		raws, err := s.parser.Parse(resp)
		if err != nil {
			s.logger.Warn("page parse failed, treating as empty", "page", page, "url", pageURL, "error", err)
			raws = nil
		}

		delta := s.recon.Reconcile(ctx, cat, raws)
		total.Merge(delta)

		s.metrics.AddProducts("inserted", delta.Inserted)
		s.metrics.AddProducts("updated", delta.Updated)
		s.metrics.AddProducts("skipped", delta.Skipped)

		s.notifier.Notify(ctx, fmt.Sprintf("%d products scraped from page %d.", len(raws), page))
	}

	if err := s.store.Save(ctx, cat.Products()); err != nil {
		s.logger.Error("failed to persist catalogue", "backend", s.store.Name(), "error", err)
		return total, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf(
		"Scraping session complete: %d new products, %d price updates across %d page(s).",
		total.Inserted, total.Updated, pages))

	s.logger.Info("session complete",
		"pages", pages,
		"inserted", total.Inserted,
		"updated", total.Updated,
		"skipped", total.Skipped,
		"catalogue_size", cat.Len(),
	)

	return total, nil
}

// pageURL builds the URL for one catalogue page.
func (s *Session) pageURL(page int) string {
	u, err := url.Parse(s.cfg.Crawl.BaseURL)
	if err != nil {
		// Validate rejects unparseable base URLs before a session starts.
		return s.cfg.Crawl.BaseURL
	}
	q := u.Query()
	q.Set(s.cfg.Crawl.PageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
