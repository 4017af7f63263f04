package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty base url",
			mutate:  func(c *Config) { c.Crawl.BaseURL = "" },
			wantErr: "crawl.base_url",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Crawl.BaseURL = "ftp://example.com/shop" },
			wantErr: "scheme",
		},
		{
			name:    "pages below bound",
			mutate:  func(c *Config) { c.Crawl.Pages = 0 },
			wantErr: "crawl.pages",
		},
		{
			name:    "pages above bound",
			mutate:  func(c *Config) { c.Crawl.Pages = 500 },
			wantErr: "crawl.pages",
		},
		{
			name:    "negative page delay",
			mutate:  func(c *Config) { c.Crawl.PageDelay = -time.Second },
			wantErr: "page_delay",
		},
		{
			name:    "unknown fetcher type",
			mutate:  func(c *Config) { c.Fetcher.Type = "carrier_pigeon" },
			wantErr: "fetcher.type",
		},
		{
			name:    "zero retries",
			mutate:  func(c *Config) { c.Fetcher.MaxRetries = 0 },
			wantErr: "max_retries",
		},
		{
			name: "proxy enabled without urls",
			mutate: func(c *Config) {
				c.Proxy.Enabled = true
				c.Proxy.URLs = nil
			},
			wantErr: "at least one proxy",
		},
		{
			name: "bad proxy rotation",
			mutate: func(c *Config) {
				c.Proxy.Enabled = true
				c.Proxy.URLs = []string{"http://127.0.0.1:8080"}
				c.Proxy.Rotation = "zigzag"
			},
			wantErr: "proxy.rotation",
		},
		{
			name:    "unknown parser engine",
			mutate:  func(c *Config) { c.Parser.Engine = "divination" },
			wantErr: "parser.engine",
		},
		{
			name:    "empty container selector",
			mutate:  func(c *Config) { c.Parser.Profile.Container = "" },
			wantErr: "container",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "papyrus" },
			wantErr: "storage.type",
		},
		{
			name: "mongo without collection",
			mutate: func(c *Config) {
				c.Storage.Type = "mongo"
				c.Storage.Collection = ""
			},
			wantErr: "collection",
		},
		{
			name:    "unknown notify channel",
			mutate:  func(c *Config) { c.Notify.Channel = "smoke_signal" },
			wantErr: "notify.channel",
		},
		{
			name: "webhook channel without url",
			mutate: func(c *Config) {
				c.Notify.Channel = "webhook"
				c.Notify.WebhookURL = ""
			},
			wantErr: "webhook_url",
		},
		{
			name:    "empty token",
			mutate:  func(c *Config) { c.API.Token = "" },
			wantErr: "api.token",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name: "metrics port out of range",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			wantErr: "metrics.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidatePages(t *testing.T) {
	tests := []struct {
		pages   int
		max     int
		wantErr bool
	}{
		{1, 119, false},
		{119, 119, false},
		{0, 119, true},
		{120, 119, true},
		{-3, 119, true},
	}

	for _, tt := range tests {
		err := ValidatePages(tt.pages, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePages(%d, %d): got err=%v, wantErr=%v", tt.pages, tt.max, err, tt.wantErr)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelfwatch.yaml")
	yaml := `
crawl:
  base_url: "https://shop.example.com/catalogue/"
  pages: 4
  page_delay: 2s
fetcher:
  max_retries: 5
  retry_delay: 100ms
storage:
  type: sqlite
  path: catalogue.db
notify:
  channel: log
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Crawl.BaseURL != "https://shop.example.com/catalogue/" {
		t.Errorf("base_url not loaded, got %q", cfg.Crawl.BaseURL)
	}
	if cfg.Crawl.Pages != 4 {
		t.Errorf("pages: expected 4, got %d", cfg.Crawl.Pages)
	}
	if cfg.Crawl.PageDelay != 2*time.Second {
		t.Errorf("page_delay: expected 2s, got %v", cfg.Crawl.PageDelay)
	}
	if cfg.Fetcher.MaxRetries != 5 {
		t.Errorf("max_retries: expected 5, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryDelay != 100*time.Millisecond {
		t.Errorf("retry_delay: expected 100ms, got %v", cfg.Fetcher.RetryDelay)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "catalogue.db" {
		t.Errorf("storage not loaded, got %+v", cfg.Storage)
	}
	if cfg.Notify.Channel != "log" {
		t.Errorf("notify.channel: expected log, got %q", cfg.Notify.Channel)
	}
	// Untouched sections keep their defaults
	if cfg.Fetcher.Type != "http" {
		t.Errorf("fetcher.type default lost, got %q", cfg.Fetcher.Type)
	}
	if cfg.Parser.Profile.Price != "span.price" {
		t.Errorf("default profile lost, got %q", cfg.Parser.Profile.Price)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHELFWATCH_CRAWL_PAGES", "7")
	t.Setenv("SHELFWATCH_STORAGE_TYPE", "sqlite")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawl.Pages != 7 {
		t.Errorf("env override for pages not applied, got %d", cfg.Crawl.Pages)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("env override for storage type not applied, got %q", cfg.Storage.Type)
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
