// Package shelfwatch provides a public API for embedding the catalogue
// crawler as a library.
//
// Example usage:
//
//	crawler := shelfwatch.NewCrawler(
//	    shelfwatch.WithBaseURL("https://dentalstall.com/shop/"),
//	    shelfwatch.WithPages(3),
//	    shelfwatch.WithStorage("json", "./scraped_data.json"),
//	    shelfwatch.WithImagesDir("./product_images"),
//	)
//
//	stats, err := crawler.Run(context.Background())
package shelfwatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/fetcher"
	"github.com/IshaanNene/shelfwatch/internal/media"
	"github.com/IshaanNene/shelfwatch/internal/notify"
	"github.com/IshaanNene/shelfwatch/internal/parser"
	"github.com/IshaanNene/shelfwatch/internal/session"
	"github.com/IshaanNene/shelfwatch/internal/storage"
)

// Stats reports the outcome of one crawl session.
type Stats struct {
	// Inserted counts products seen for the first time.
	Inserted int
	// Updated counts products whose price changed.
	Updated int
	// Skipped counts products re-observed with an unchanged price.
	Skipped int
}

// Product is one persisted catalogue entry.
type Product struct {
	Title     string
	Price     float64
	ImagePath string
}

// Profile describes the selectors for one target site's markup.
// Selector strings are written in the dialect of the configured engine
// (CSS by default).
type Profile struct {
	Container       string
	Entry           string
	Title           string
	TitleAttr       string
	Image           string
	ImageAttr       string
	Price           string
	PricePrefixes   []string
	CurrencySymbols []string
}

// Option configures a Crawler.
type Option func(*config.Config)

// WithBaseURL sets the catalogue listing URL to paginate.
func WithBaseURL(rawURL string) Option {
	return func(c *config.Config) { c.Crawl.BaseURL = rawURL }
}

// WithPages sets how many pages one Run crawls.
func WithPages(n int) Option {
	return func(c *config.Config) { c.Crawl.Pages = n }
}

// WithPageDelay sets the politeness delay between pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *config.Config) { c.Crawl.PageDelay = d }
}

// WithRetry sets the fetch retry budget and the fixed delay between
// attempts.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *config.Config) {
		c.Fetcher.MaxRetries = maxRetries
		c.Fetcher.RetryDelay = delay
	}
}

// WithProxy routes page fetches through the given proxies.
func WithProxy(urls ...string) Option {
	return func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = urls
	}
}

// WithUserAgent sets a custom User-Agent for page fetches.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgent = ua }
}

// WithBrowser switches page fetching to a headless browser for
// JS-rendered catalogues.
func WithBrowser() Option {
	return func(c *config.Config) { c.Fetcher.Type = "browser" }
}

// WithStorage selects the persistence backend ("json", "sqlite") and
// its path.
func WithStorage(backend, path string) Option {
	return func(c *config.Config) {
		c.Storage.Type = backend
		c.Storage.Path = path
	}
}

// WithMongoStorage persists the catalogue to MongoDB.
func WithMongoStorage(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Storage.Type = "mongo"
		c.Storage.MongoURI = uri
		c.Storage.Database = database
		c.Storage.Collection = collection
	}
}

// WithImagesDir sets the directory for downloaded product images.
func WithImagesDir(dir string) Option {
	return func(c *config.Config) { c.Images.Dir = dir }
}

// WithProfile replaces the site selector profile.
func WithProfile(p Profile) Option {
	return func(c *config.Config) {
		c.Parser.Profile = config.SiteProfile{
			Container:       p.Container,
			Entry:           p.Entry,
			Title:           p.Title,
			TitleAttr:       p.TitleAttr,
			Image:           p.Image,
			ImageAttr:       p.ImageAttr,
			Price:           p.Price,
			PricePrefixes:   p.PricePrefixes,
			CurrencySymbols: p.CurrencySymbols,
		}
	}
}

// WithXPath switches selector evaluation to the XPath engine.
func WithXPath() Option {
	return func(c *config.Config) { c.Parser.Engine = "xpath" }
}

// WithWebhook sends session notifications to an HTTP endpoint instead
// of the console.
func WithWebhook(url string) Option {
	return func(c *config.Config) {
		c.Notify.Channel = "webhook"
		c.Notify.WebhookURL = url
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Crawler is the high-level API for running crawl sessions.
type Crawler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewCrawler creates a Crawler with the given options applied over the
// defaults.
func NewCrawler(opts ...Option) *Crawler {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Crawler{cfg: cfg, logger: logger}
}

// Run executes one crawl session over the configured page range and
// returns the reconciliation totals. Each Run loads the persisted
// baseline, walks the pages sequentially, and saves the catalogue once.
func (c *Crawler) Run(ctx context.Context) (Stats, error) {
	if err := config.Validate(c.cfg); err != nil {
		return Stats{}, fmt.Errorf("invalid config: %w", err)
	}

	store, err := storage.New(c.cfg.Storage, c.logger)
	if err != nil {
		return Stats{}, fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	f, err := fetcher.New(c.cfg, c.logger, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	p, err := parser.New(c.cfg.Parser, c.logger)
	if err != nil {
		return Stats{}, fmt.Errorf("create parser: %w", err)
	}

	images, err := media.NewImageStore(c.cfg.Images, c.logger, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("create image store: %w", err)
	}

	notifier, err := notify.New(c.cfg.Notify, c.logger)
	if err != nil {
		return Stats{}, fmt.Errorf("create notifier: %w", err)
	}

	recon := catalog.NewReconciler(images, c.logger)
	sess := session.New(c.cfg, f, p, store, recon, notifier, c.logger, nil)

	stats, err := sess.Run(ctx, c.cfg.Crawl.Pages)
	return Stats{Inserted: stats.Inserted, Updated: stats.Updated, Skipped: stats.Skipped}, err
}

// Catalogue returns the currently persisted catalogue in stored order.
func (c *Crawler) Catalogue(ctx context.Context) ([]Product, error) {
	store, err := storage.New(c.cfg.Storage, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	records, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(records))
	for _, r := range records {
		products = append(products, Product{Title: r.Title, Price: r.Price, ImagePath: r.ImagePath})
	}
	return products, nil
}
