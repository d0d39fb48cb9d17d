package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/observability"
)

var (
	cfgFile string
	verbose bool
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "presscorpus",
		Short: "presscorpus builds a cleaned corpus of Spanish press articles",
		Long: `presscorpus collects news articles from paginated newspaper listings and
turns them into a cleaned SQLite corpus.

Stages:
  crawl      collect article links from each configured site
  scrape     fetch each link and extract title, date and text
  load       load links and content into SQLite
  clean      remove word-count outliers (IQR)
  normalize  write clean_text / clean_title columns
  report     render charts and summary tables
  validate   check CSV outputs and database integrity
  export     mirror articles to MongoDB or JSONL
  run        crawl, scrape, load, clean, normalize and report in one go`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides store.path)")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// env is what every stage needs: validated config, logger and counters.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// newEnv loads and validates the config, applies flag overrides and starts
// the metrics endpoint when enabled.
func newEnv(cmd *cobra.Command, overrides ...func(*config.Config)) (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	for _, o := range overrides {
		o(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg)
	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(cmd.Context(), cfg.Metrics.Port, cfg.Metrics.Path)
	}

	return &env{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("presscorpus %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Fetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Sites File:        %s\n", cfg.Crawl.SitesFile)
			fmt.Printf("  Max Pages:         %d\n", cfg.Crawl.MaxPages)
			fmt.Printf("  Links CSV:         %s\n", cfg.Crawl.LinksCSV)
			fmt.Printf("  Raw Dir:           %s\n", cfg.Crawl.RawDir)
			fmt.Printf("\nScrape:\n")
			fmt.Printf("  Extractor:         %s\n", cfg.Scrape.Extractor)
			fmt.Printf("  Language:          %s (detect: %v)\n", cfg.Scrape.Language, cfg.Scrape.DetectLanguage)
			fmt.Printf("  Content CSV:       %s\n", cfg.Scrape.ContentCSV)
			fmt.Printf("  Errors CSV:        %s\n", cfg.Scrape.ErrorsCSV)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Path:              %s\n", cfg.Store.Path)
			fmt.Printf("\nCleaner:\n")
			fmt.Printf("  Threshold:         %.2f\n", cfg.Cleaner.Threshold)
			fmt.Printf("  Per Newspaper:     %v\n", cfg.Cleaner.GroupByNewspaper)
			fmt.Printf("\nReport:\n")
			fmt.Printf("  Output Dir:        %s\n", cfg.Report.OutputDir)
			fmt.Printf("  Keywords:          %s\n", strings.Join(cfg.Report.Keywords, ", "))
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
	return cmd
}
