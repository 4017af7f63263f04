package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for shelfwatch.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Proxy   ProxyConfig   `mapstructure:"proxy"   yaml:"proxy"`
	Parser  ParserConfig  `mapstructure:"parser"  yaml:"parser"`
	Images  ImagesConfig  `mapstructure:"images"  yaml:"images"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Notify  NotifyConfig  `mapstructure:"notify"  yaml:"notify"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CrawlConfig controls pagination and session pacing.
type CrawlConfig struct {
	BaseURL   string        `mapstructure:"base_url"   yaml:"base_url"`
	PageParam string        `mapstructure:"page_param" yaml:"page_param"`
	Pages     int           `mapstructure:"pages"      yaml:"pages"`
	MaxPages  int           `mapstructure:"max_pages"  yaml:"max_pages"`
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http, browser
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       yaml:"retry_delay"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
}

// ProxyConfig controls forward-proxy routing for page fetches.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"` // round_robin, random
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// ParserConfig selects the extraction engine and the site profile.
type ParserConfig struct {
	Engine  string      `mapstructure:"engine"  yaml:"engine"` // css, xpath
	Profile SiteProfile `mapstructure:"profile" yaml:"profile"`
}

// SiteProfile holds the selectors for one target site's markup. Selector
// strings are written in the dialect of the configured engine. Keeping
// them here, not in code, is what makes the parser swappable per site.
type SiteProfile struct {
	Container       string   `mapstructure:"container"        yaml:"container"`
	Entry           string   `mapstructure:"entry"            yaml:"entry"`
	Title           string   `mapstructure:"title"            yaml:"title"`
	TitleAttr       string   `mapstructure:"title_attr"       yaml:"title_attr"`
	Image           string   `mapstructure:"image"            yaml:"image"`
	ImageAttr       string   `mapstructure:"image_attr"       yaml:"image_attr"`
	Price           string   `mapstructure:"price"            yaml:"price"`
	PricePrefixes   []string `mapstructure:"price_prefixes"   yaml:"price_prefixes"`
	CurrencySymbols []string `mapstructure:"currency_symbols" yaml:"currency_symbols"`
}

// ImagesConfig controls local image storage.
type ImagesConfig struct {
	Dir       string `mapstructure:"dir"        yaml:"dir"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
}

// StorageConfig selects and parameterizes the record store backend.
type StorageConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"` // json, sqlite, mongo
	Path       string `mapstructure:"path"       yaml:"path"`
	MongoURI   string `mapstructure:"mongo_uri"  yaml:"mongo_uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// NotifyConfig selects the notification channel.
type NotifyConfig struct {
	Channel    string `mapstructure:"channel"     yaml:"channel"` // console, log, webhook
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// APIConfig controls the HTTP trigger surface.
type APIConfig struct {
	Addr  string `mapstructure:"addr"  yaml:"addr"`
	Token string `mapstructure:"token" yaml:"token"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults. The crawl target
// and selectors default to the dentalstall shop profile.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			BaseURL:   "https://dentalstall.com/shop/",
			PageParam: "page",
			Pages:     1,
			MaxPages:  119,
			PageDelay: 1 * time.Second,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			Timeout:         30 * time.Second,
			MaxRetries:      3,
			RetryDelay:      5 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Parser: ParserConfig{
			Engine:  "css",
			Profile: DefaultProfile(),
		},
		Images: ImagesConfig{
			Dir:       "product_images",
			CacheSize: 256,
		},
		Storage: StorageConfig{
			Type:       "json",
			Path:       "scraped_data.json",
			MongoURI:   "mongodb://localhost:27017",
			Database:   "shelfwatch",
			Collection: "products",
		},
		Notify: NotifyConfig{
			Channel: "console",
		},
		API: APIConfig{
			Addr:  ":8000",
			Token: "my_static_token",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// DefaultProfile returns the CSS selector profile for the default target,
// a WooCommerce product grid.
func DefaultProfile() SiteProfile {
	return SiteProfile{
		Container:       "ul.products.columns-4",
		Entry:           "li",
		Title:           "a.button",
		TitleAttr:       "data-title",
		Image:           "img.attachment-woocommerce_thumbnail",
		ImageAttr:       "src",
		Price:           "span.price",
		PricePrefixes:   []string{"Starting at:"},
		CurrencySymbols: []string{"₹"},
	}
}
