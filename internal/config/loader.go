package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and .env.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller afterwards.
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("PRESSCORPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("presscorpus")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".presscorpus"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides work for
// keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	v.SetDefault("crawl.sites_file", cfg.Crawl.SitesFile)
	v.SetDefault("crawl.raw_dir", cfg.Crawl.RawDir)
	v.SetDefault("crawl.links_csv", cfg.Crawl.LinksCSV)
	v.SetDefault("crawl.max_pages", cfg.Crawl.MaxPages)

	v.SetDefault("scrape.extractor", cfg.Scrape.Extractor)
	v.SetDefault("scrape.language", cfg.Scrape.Language)
	v.SetDefault("scrape.detect_language", cfg.Scrape.DetectLanguage)
	v.SetDefault("scrape.content_csv", cfg.Scrape.ContentCSV)
	v.SetDefault("scrape.errors_csv", cfg.Scrape.ErrorsCSV)

	v.SetDefault("store.path", cfg.Store.Path)

	v.SetDefault("cleaner.threshold", cfg.Cleaner.Threshold)
	v.SetDefault("cleaner.group_by_newspaper", cfg.Cleaner.GroupByNewspaper)
	v.SetDefault("cleaner.dry_run", cfg.Cleaner.DryRun)

	v.SetDefault("report.output_dir", cfg.Report.OutputDir)
	v.SetDefault("report.keywords", cfg.Report.Keywords)
	v.SetDefault("report.top_words", cfg.Report.TopWords)

	v.SetDefault("export.mongo_uri", cfg.Export.MongoURI)
	v.SetDefault("export.database", cfg.Export.Database)
	v.SetDefault("export.collection", cfg.Export.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
