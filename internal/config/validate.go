package config

import (
	"fmt"
	"net/url"

	"github.com/IshaanNene/shelfwatch/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Crawl.BaseURL); err != nil {
		return fmt.Errorf("crawl.base_url: %w", err)
	}
	if cfg.Crawl.PageParam == "" {
		return fmt.Errorf("crawl.page_param must not be empty")
	}
	if cfg.Crawl.MaxPages < 1 {
		return fmt.Errorf("crawl.max_pages must be >= 1, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Pages < 1 || cfg.Crawl.Pages > cfg.Crawl.MaxPages {
		return fmt.Errorf("crawl.pages must be 1-%d, got %d", cfg.Crawl.MaxPages, cfg.Crawl.Pages)
	}
	if cfg.Crawl.PageDelay < 0 {
		return fmt.Errorf("crawl.page_delay must be >= 0")
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 1 {
		return fmt.Errorf("fetcher.max_retries must be >= 1, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryDelay < 0 {
		return fmt.Errorf("fetcher.retry_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		if len(cfg.Proxy.URLs) == 0 {
			return fmt.Errorf("proxy.enabled requires at least one proxy URL")
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Parser.Engine != "css" && cfg.Parser.Engine != "xpath" {
		return fmt.Errorf("parser.engine must be 'css' or 'xpath', got %q", cfg.Parser.Engine)
	}
	if cfg.Parser.Profile.Container == "" {
		return fmt.Errorf("parser.profile.container must not be empty")
	}
	if cfg.Parser.Profile.Entry == "" {
		return fmt.Errorf("parser.profile.entry must not be empty")
	}

	if cfg.Images.Dir == "" {
		return fmt.Errorf("images.dir must not be empty")
	}
	if cfg.Images.CacheSize < 1 {
		return fmt.Errorf("images.cache_size must be >= 1, got %d", cfg.Images.CacheSize)
	}

	validStorageTypes := map[string]bool{
		"json": true, "sqlite": true, "mongo": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, sqlite, mongo)", cfg.Storage.Type)
	}
	if cfg.Storage.Type != "mongo" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty for %s storage", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongo" {
		if cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri must not be empty for mongo storage")
		}
		if cfg.Storage.Database == "" || cfg.Storage.Collection == "" {
			return fmt.Errorf("storage.database and storage.collection must not be empty for mongo storage")
		}
	}

	validChannels := map[string]bool{
		"console": true, "log": true, "webhook": true,
	}
	if !validChannels[cfg.Notify.Channel] {
		return fmt.Errorf("notify.channel %q is not supported (valid: console, log, webhook)", cfg.Notify.Channel)
	}
	if cfg.Notify.Channel == "webhook" {
		if _, err := url.Parse(cfg.Notify.WebhookURL); err != nil || cfg.Notify.WebhookURL == "" {
			return fmt.Errorf("notify.webhook_url must be a valid URL for webhook channel")
		}
	}

	if cfg.API.Token == "" {
		return fmt.Errorf("api.token must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a crawl target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidatePages checks a requested page count against the configured bound.
// It guards the trigger surfaces: a violation must reject the request
// before any scraping starts.
func ValidatePages(pages, maxPages int) error {
	if pages < 1 || pages > maxPages {
		return fmt.Errorf("%w: requested %d, allowed 1-%d", types.ErrPageBounds, pages, maxPages)
	}
	return nil
}
