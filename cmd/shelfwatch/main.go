package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/shelfwatch/internal/api"
	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/fetcher"
	"github.com/IshaanNene/shelfwatch/internal/media"
	"github.com/IshaanNene/shelfwatch/internal/notify"
	"github.com/IshaanNene/shelfwatch/internal/observability"
	"github.com/IshaanNene/shelfwatch/internal/parser"
	"github.com/IshaanNene/shelfwatch/internal/session"
	"github.com/IshaanNene/shelfwatch/internal/storage"
)

var (
	cfgFile string
	verbose bool

	pages     int
	proxyURL  string
	baseURL   string
	storeType string
	storePath string
	imagesDir string
	pageDelay string
	channel   string

	serveAddr  string
	serveToken string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shelfwatch",
		Short: "shelfwatch — catalogue crawler with change-aware caching",
		Long: `shelfwatch paginates a product listing site, extracts product records
(title, price, image), and reconciles them against the persisted
catalogue: new products are inserted and their images downloaded,
changed prices are updated in place, unchanged products are skipped
without a single write or network call.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl session",
		Long:  "Crawl catalogue pages 1..N, reconcile against the stored catalogue, and persist the result.",
		RunE:  runCrawl,
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 0, "number of pages to crawl (0 = config default)")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "forward proxy URL for page fetches")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "catalogue listing base URL")
	cmd.Flags().StringVarP(&storeType, "store", "s", "", "storage backend: json, sqlite, mongo")
	cmd.Flags().StringVarP(&storePath, "output", "o", "", "storage path (json file or sqlite db)")
	cmd.Flags().StringVar(&imagesDir, "images-dir", "", "directory for downloaded product images")
	cmd.Flags().StringVar(&pageDelay, "delay", "", "inter-page politeness delay (e.g. 1s)")
	cmd.Flags().StringVar(&channel, "notify", "", "notification channel: console, log, webhook")

	return cmd
}

// runCrawl executes the crawl command.
func runCrawl(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	metrics := setupMetrics(cfg, logger)

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	sess, closeSession, err := buildSession(cfg, store, logger, metrics)
	if err != nil {
		return err
	}
	defer closeSession()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting crawl",
		"base_url", cfg.Crawl.BaseURL,
		"pages", cfg.Crawl.Pages,
		"store", store.Name(),
	)

	start := time.Now()
	stats, err := sess.Run(ctx, cfg.Crawl.Pages)
	if err != nil {
		return fmt.Errorf("crawl session: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("\nCrawl complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:     %d\n", cfg.Crawl.Pages)
	fmt.Printf("   Inserted:  %d new products\n", stats.Inserted)
	fmt.Printf("   Updated:   %d price changes\n", stats.Updated)
	fmt.Printf("   Skipped:   %d unchanged\n", stats.Skipped)
	fmt.Printf("   Output:    %s (%s)\n", cfg.Storage.Path, store.Name())

	return nil
}

// serveCmd creates the "serve" subcommand, exposing the HTTP trigger
// surface.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Serve the token-gated scrape trigger and catalogue endpoints over HTTP.",
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (e.g. :8000)")
	cmd.Flags().StringVar(&serveToken, "token", "", "static access token for the API")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if serveAddr != "" {
		cfg.API.Addr = serveAddr
	}
	if serveToken != "" {
		cfg.API.Token = serveToken
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	metrics := setupMetrics(cfg, logger)

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	// Each scrape request gets its own session so a per-request proxy
	// override never leaks into the next request's fetcher.
	factory := func(proxy string) (api.Runner, error) {
		sessCfg := *cfg
		if proxy != "" {
			sessCfg.Proxy = config.ProxyConfig{
				Enabled:  true,
				Rotation: cfg.Proxy.Rotation,
				URLs:     []string{proxy},
			}
		}
		sess, closeSession, err := buildSession(&sessCfg, store, logger, metrics)
		if err != nil {
			return nil, err
		}
		return &closableRunner{sess: sess, close: closeSession}, nil
	}

	server := api.NewServer(cfg, factory, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// closableRunner runs one session then releases its fetcher.
type closableRunner struct {
	sess  *session.Session
	close func()
}

func (r *closableRunner) Run(ctx context.Context, pages int) (catalog.Stats, error) {
	defer r.close()
	return r.sess.Run(ctx, pages)
}

// buildSession wires the fetch → parse → reconcile → persist pipeline.
// The returned func releases the fetcher's resources.
func buildSession(cfg *config.Config, store storage.RecordStore, logger *slog.Logger, metrics *observability.Metrics) (*session.Session, func(), error) {
	f, err := fetcher.New(cfg, logger, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	p, err := parser.New(cfg.Parser, logger)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create parser: %w", err)
	}

	images, err := media.NewImageStore(cfg.Images, logger, metrics)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create image store: %w", err)
	}

	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create notifier: %w", err)
	}

	recon := catalog.NewReconciler(images, logger)
	sess := session.New(cfg, f, p, store, recon, notifier, logger, metrics)

	return sess, func() { f.Close() }, nil
}

// setupMetrics starts the standalone metrics server when enabled.
func setupMetrics(cfg *config.Config, logger *slog.Logger) *observability.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	metrics := observability.New(logger)
	if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
		logger.Warn("failed to start metrics server", "error", err)
	}
	return metrics
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shelfwatch %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)
			fmt.Printf("Crawl:\n")
			fmt.Printf("  Base URL:         %s\n", cfg.Crawl.BaseURL)
			fmt.Printf("  Pages:            %d (max %d)\n", cfg.Crawl.Pages, cfg.Crawl.MaxPages)
			fmt.Printf("  Page Delay:       %s\n", cfg.Crawl.PageDelay)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:             %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Max Retries:      %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Retry Delay:      %s\n", cfg.Fetcher.RetryDelay)
			fmt.Printf("  Timeout:          %s\n", cfg.Fetcher.Timeout)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Rotation:         %s\n", cfg.Proxy.Rotation)
			fmt.Printf("  Count:            %d\n", len(cfg.Proxy.URLs))
			fmt.Printf("\nParser:\n")
			fmt.Printf("  Engine:           %s\n", cfg.Parser.Engine)
			fmt.Printf("  Container:        %s\n", cfg.Parser.Profile.Container)
			fmt.Printf("\nImages:\n")
			fmt.Printf("  Directory:        %s\n", cfg.Images.Dir)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:             %s\n", cfg.Storage.Type)
			fmt.Printf("  Path:             %s\n", cfg.Storage.Path)
			fmt.Printf("\nNotify:\n")
			fmt.Printf("  Channel:          %s\n", cfg.Notify.Channel)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Addr:             %s\n", cfg.API.Addr)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:             %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if pages > 0 {
		cfg.Crawl.Pages = pages
	}
	if baseURL != "" {
		cfg.Crawl.BaseURL = baseURL
	}
	if pageDelay != "" {
		if d, err := time.ParseDuration(pageDelay); err == nil {
			cfg.Crawl.PageDelay = d
		}
	}
	if proxyURL != "" {
		cfg.Proxy.Enabled = true
		cfg.Proxy.URLs = []string{proxyURL}
	}
	if storeType != "" {
		cfg.Storage.Type = storeType
	}
	if storePath != "" {
		cfg.Storage.Path = storePath
	}
	if imagesDir != "" {
		cfg.Images.Dir = imagesDir
	}
	if channel != "" {
		cfg.Notify.Channel = channel
	}
}
