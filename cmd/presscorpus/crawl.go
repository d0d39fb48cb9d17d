package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/crawler"
	"github.com/IshaanNene/presscorpus/internal/fetcher"
	"github.com/IshaanNene/presscorpus/internal/parser"
	"github.com/IshaanNene/presscorpus/internal/pipeline"
	"github.com/IshaanNene/presscorpus/internal/scraper"
	"github.com/IshaanNene/presscorpus/internal/storage"
	"github.com/IshaanNene/presscorpus/internal/types"
)

var (
	sitesFile  string
	maxPages   int
	linksCSV   string
	contentCSV string
	errorsCSV  string
	extractor  string
	fetcherTyp string
)

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Collect article links from every configured site",
		Long: `Walk each site's paginated listing pages, extract article links and write
one <site>_links.json per site plus the consolidated links CSV.

A site stops at the first listing page answering with a non-200 status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, applyCrawlOverrides)
			if err != nil {
				return err
			}
			_, err = e.crawl(cmd.Context())
			e.metrics.WriteSummary(os.Stdout)
			return err
		},
	}

	addCrawlFlags(cmd)
	return cmd
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sitesFile, "sites", "", "sites file (JSON or YAML)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "default last page for sites without end_page")
	cmd.Flags().StringVar(&linksCSV, "links-csv", "", "consolidated links CSV path")
	cmd.Flags().StringVar(&fetcherTyp, "fetcher", "", "fetcher type: http or browser")
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch every link and extract title, date and text",
		Long: `Read the links CSV, fetch each article and extract its content. Successful
articles go to the content CSV (semicolon-delimited); failures go to the
errors CSV, which is only written when there are failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, applyScrapeOverrides)
			if err != nil {
				return err
			}
			links, err := storage.ReadLinksFile(e.cfg.Crawl.LinksCSV)
			if err != nil {
				return err
			}
			_, err = e.scrape(cmd.Context(), links)
			e.metrics.WriteSummary(os.Stdout)
			return err
		},
	}

	addScrapeFlags(cmd)
	cmd.Flags().StringVar(&linksCSV, "links-csv", "", "links CSV to read")
	return cmd
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&contentCSV, "content-csv", "", "content CSV path")
	cmd.Flags().StringVar(&errorsCSV, "errors-csv", "", "errors CSV path")
	cmd.Flags().StringVar(&extractor, "extractor", "", "article extractor: readability or trafilatura")
	if cmd.Flags().Lookup("fetcher") == nil {
		cmd.Flags().StringVar(&fetcherTyp, "fetcher", "", "fetcher type: http or browser")
	}
}

func applyCrawlOverrides(cfg *config.Config) {
	if sitesFile != "" {
		cfg.Crawl.SitesFile = sitesFile
	}
	if maxPages > 0 {
		cfg.Crawl.MaxPages = maxPages
	}
	if linksCSV != "" {
		cfg.Crawl.LinksCSV = linksCSV
	}
	if fetcherTyp != "" {
		cfg.Fetcher.Type = fetcherTyp
	}
}

func applyScrapeOverrides(cfg *config.Config) {
	if linksCSV != "" {
		cfg.Crawl.LinksCSV = linksCSV
	}
	if contentCSV != "" {
		cfg.Scrape.ContentCSV = contentCSV
	}
	if errorsCSV != "" {
		cfg.Scrape.ErrorsCSV = errorsCSV
	}
	if extractor != "" {
		cfg.Scrape.Extractor = extractor
	}
	if fetcherTyp != "" {
		cfg.Fetcher.Type = fetcherTyp
	}
}

// crawl runs the link crawler and writes the links CSV. On cancellation the
// links gathered so far are still written.
func (e *env) crawl(ctx context.Context) ([]types.LinkRow, error) {
	sites, err := config.LoadSites(e.cfg.Crawl.SitesFile, e.cfg.Crawl.MaxPages)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.New(e.cfg, e.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	e.logger.Info("starting crawl", "sites", len(sites), "fetcher", f.Type(), "links_csv", e.cfg.Crawl.LinksCSV)
	start := time.Now()

	res, crawlErr := crawler.New(f, e.cfg, e.metrics, e.logger).CrawlAll(ctx, sites)
	if res == nil {
		return nil, crawlErr
	}

	rows := res.Rows()
	if err := storage.WriteLinksFile(e.cfg.Crawl.LinksCSV, rows); err != nil {
		return rows, fmt.Errorf("write links CSV: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Crawl")
	t.AppendHeader(table.Row{"Site", "Links", "Pages", "Failed", "Stopped at", "Status"})
	for _, s := range res.Summaries {
		stopped := ""
		if s.StoppedAt > 0 {
			stopped = fmt.Sprintf("%d", s.StoppedAt)
		}
		status := ""
		if s.StopStatus > 0 {
			status = fmt.Sprintf("%d", s.StopStatus)
		}
		t.AppendRow(table.Row{s.Site, s.Links, s.PagesFetched, s.PagesFailed, stopped, status})
	}
	t.AppendFooter(table.Row{"Total", len(rows)})
	t.Render()

	e.logger.Info("crawl complete", "links", len(rows), "elapsed", time.Since(start).Round(time.Millisecond), "links_csv", e.cfg.Crawl.LinksCSV)
	return rows, crawlErr
}

// scrape extracts every link and writes the content and errors CSVs. On
// cancellation the articles scraped so far are still written.
func (e *env) scrape(ctx context.Context, links []types.LinkRow) ([]types.ContentRow, error) {
	ex, err := parser.NewExtractor(e.cfg.Scrape.Extractor, e.cfg.Scrape.Language, e.logger)
	if err != nil {
		return nil, err
	}

	var detector pipeline.LanguageDetector
	if e.cfg.Scrape.DetectLanguage {
		detector = parser.NewLanguageDetector()
	}

	f, err := fetcher.New(e.cfg, e.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	e.logger.Info("starting scrape", "links", len(links), "extractor", ex.Name(), "fetcher", f.Type())
	start := time.Now()

	p := pipeline.Default(detector, e.cfg.Scrape.Language, e.logger)
	res, scrapeErr := scraper.New(f, ex, p, e.cfg.Fetcher.RequestTimeout, e.metrics, e.logger).Scrape(ctx, links)
	if res == nil {
		return nil, scrapeErr
	}

	if err := storage.WriteContentFile(e.cfg.Scrape.ContentCSV, res.Articles); err != nil {
		return res.Articles, fmt.Errorf("write content CSV: %w", err)
	}
	wrote, err := storage.WriteErrorsFile(e.cfg.Scrape.ErrorsCSV, res.Failures)
	if err != nil {
		return res.Articles, fmt.Errorf("write errors CSV: %w", err)
	}

	e.logger.Info("scrape complete",
		"articles", len(res.Articles),
		"failures", len(res.Failures),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"content_csv", e.cfg.Scrape.ContentCSV,
	)
	if wrote {
		e.logger.Warn("some articles failed", "count", len(res.Failures), "errors_csv", e.cfg.Scrape.ErrorsCSV)
	}
	return res.Articles, scrapeErr
}
