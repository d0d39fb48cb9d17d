package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultUserAgent is the browser-like User-Agent sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config is the root configuration for presscorpus.
type Config struct {
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"  yaml:"scrape"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	Cleaner CleanerConfig `mapstructure:"cleaner" yaml:"cleaner"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// CrawlConfig controls the link crawler and its outputs.
type CrawlConfig struct {
	SitesFile string `mapstructure:"sites_file" yaml:"sites_file"`
	RawDir    string `mapstructure:"raw_dir"    yaml:"raw_dir"`
	LinksCSV  string `mapstructure:"links_csv"  yaml:"links_csv"`
	MaxPages  int    `mapstructure:"max_pages"  yaml:"max_pages"`
}

// ScrapeConfig controls the content scraper.
type ScrapeConfig struct {
	Extractor      string `mapstructure:"extractor"       yaml:"extractor"`
	Language       string `mapstructure:"language"        yaml:"language"`
	DetectLanguage bool   `mapstructure:"detect_language" yaml:"detect_language"`
	ContentCSV     string `mapstructure:"content_csv"     yaml:"content_csv"`
	ErrorsCSV      string `mapstructure:"errors_csv"      yaml:"errors_csv"`
}

// StoreConfig controls the SQLite store.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CleanerConfig controls outlier detection and removal.
type CleanerConfig struct {
	Threshold        float64 `mapstructure:"threshold"          yaml:"threshold"`
	GroupByNewspaper bool    `mapstructure:"group_by_newspaper" yaml:"group_by_newspaper"`
	DryRun           bool    `mapstructure:"dry_run"            yaml:"dry_run"`
}

// ReportConfig controls the exploratory reports.
type ReportConfig struct {
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
	Keywords  []string `mapstructure:"keywords"   yaml:"keywords"`
	TopWords  int      `mapstructure:"top_words"  yaml:"top_words"`
}

// ExportConfig controls the MongoDB mirror.
type ExportConfig struct {
	MongoURI   string `mapstructure:"mongo_uri"  yaml:"mongo_uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  30 * time.Second,
			UserAgent:       DefaultUserAgent,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
		},
		Crawl: CrawlConfig{
			SitesFile: "configs/sites.json",
			RawDir:    "data/raw",
			LinksCSV:  "data/all_links.csv",
			MaxPages:  DefaultEndPage,
		},
		Scrape: ScrapeConfig{
			Extractor:  "readability",
			Language:   "es",
			ContentCSV: "data/processed/all_content.csv",
			ErrorsCSV:  "data/processed/errors.csv",
		},
		Store: StoreConfig{
			Path: "data/processed/articles.db",
		},
		Cleaner: CleanerConfig{
			Threshold: 1.5,
		},
		Report: ReportConfig{
			OutputDir: "reports",
			Keywords:  []string{"inmigrantes", "refugiados", "asilo", "racismo"},
			TopWords:  150,
		},
		Export: ExportConfig{
			Database:   "presscorpus",
			Collection: "articles",
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
