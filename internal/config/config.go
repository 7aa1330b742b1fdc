package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to run the crawler.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Worker    WorkerConfig    `yaml:"worker"`
	Output    OutputConfig    `yaml:"output"`
	Rendering RenderingConfig `yaml:"rendering"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig identifies the target catalog site.
type SiteConfig struct {
	BaseURL   string            `yaml:"base_url"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`
}

// CrawlConfig controls fetching, retries, and pagination limits.
type CrawlConfig struct {
	RequestTimeout  Duration `yaml:"request_timeout"`
	Retries         int      `yaml:"retries"`
	RetryBackoff    Duration `yaml:"retry_backoff"`
	MinRequestDelay Duration `yaml:"min_request_delay"`
	MaxOngoingPages int      `yaml:"max_ongoing_pages"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// WorkerConfig controls crawl concurrency.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig locates the on-disk page store.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// RenderingConfig controls the browser fallback used when the site serves an
// anti-bot challenge instead of the page.
type RenderingConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Engine             string   `yaml:"engine"`
	Timeout            Duration `yaml:"timeout"`
	WaitForSelector    string   `yaml:"wait_for_selector"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
}

// LedgerConfig enables the optional sqlite run ledger.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults. The crawl pacing
// mirrors what the site tolerates: one request every 1.5 seconds.
func Default() Config {
	return Config{
		Site: SiteConfig{
			BaseURL:   "https://otakudesu.best",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36",
			Headers:   map[string]string{},
		},
		Crawl: CrawlConfig{
			RequestTimeout:  DurationFrom(20 * time.Second),
			Retries:         3,
			RetryBackoff:    DurationFrom(1 * time.Second),
			MinRequestDelay: DurationFrom(1500 * time.Millisecond),
			MaxOngoingPages: 200,
			MaxBodyBytes:    6 * 1024 * 1024,
		},
		Worker: WorkerConfig{
			Concurrency: 4,
		},
		Output: OutputConfig{
			Dir: "outputs",
		},
		Rendering: RenderingConfig{
			Enabled:            true,
			Engine:             "chromedp",
			Timeout:            DurationFrom(45 * time.Second),
			ConcurrentSessions: 1,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: false,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the crawler configuration.
func (c Config) Validate() error {
	if c.Site.BaseURL == "" {
		return errors.New("site.base_url must be set")
	}
	parsed, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("site.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("site.base_url must be http or https (got %q)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("site.base_url is missing a host")
	}
	if c.Site.UserAgent == "" {
		return errors.New("site.user_agent must be set")
	}
	if c.Crawl.RequestTimeout.IsZero() {
		return errors.New("crawl.request_timeout must be > 0")
	}
	if c.Crawl.Retries <= 0 {
		return fmt.Errorf("crawl.retries must be > 0 (got %d)", c.Crawl.Retries)
	}
	if c.Crawl.MinRequestDelay.Duration < 0 {
		return errors.New("crawl.min_request_delay must be >= 0")
	}
	if c.Crawl.MaxOngoingPages <= 0 {
		return fmt.Errorf("crawl.max_ongoing_pages must be > 0 (got %d)", c.Crawl.MaxOngoingPages)
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawl.max_body_bytes must be > 0 (got %d)", c.Crawl.MaxBodyBytes)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0 (got %d)", c.Worker.Concurrency)
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir must be set")
	}
	if c.Rendering.Enabled {
		switch strings.ToLower(c.Rendering.Engine) {
		case "chromedp", "chrome", "none":
		default:
			return fmt.Errorf("unsupported rendering engine %q", c.Rendering.Engine)
		}
	}
	if c.Ledger.Enabled && c.Ledger.Dir == "" {
		return errors.New("ledger.dir must be set when ledger.enabled is true")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) normalise() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	c.Site.UserAgent = strings.TrimSpace(c.Site.UserAgent)
	if c.Site.Headers == nil {
		c.Site.Headers = map[string]string{}
	}
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	c.Ledger.Dir = strings.TrimSpace(c.Ledger.Dir)
	c.Rendering.Engine = strings.TrimSpace(c.Rendering.Engine)
	if c.Rendering.Engine == "" {
		c.Rendering.Engine = "chromedp"
	}
	if c.Rendering.ConcurrentSessions <= 0 {
		c.Rendering.ConcurrentSessions = 1
	}
}
