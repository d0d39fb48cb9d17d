package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/fetcher"
	"github.com/IshaanNene/presscorpus/internal/observability"
	"github.com/IshaanNene/presscorpus/internal/parser"
	"github.com/IshaanNene/presscorpus/internal/storage"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// SiteSummary describes how one site's crawl went.
type SiteSummary struct {
	Site         string
	Links        int
	PagesFetched int
	PagesFailed  int
	// StoppedAt is the page whose non-200 status ended the crawl, or 0.
	StoppedAt  int
	StopStatus int
	// LinksFile is the per-site JSON file, when one was written.
	LinksFile string
}

// Result is the outcome of crawling every configured site.
type Result struct {
	Sites     []types.SiteLinks
	Summaries []SiteSummary
}

// Rows consolidates the crawl into link rows with dense ids.
func (r *Result) Rows() []types.LinkRow {
	return types.Consolidate(r.Sites)
}

// Crawler walks paginated listing pages and collects article links.
type Crawler struct {
	fetcher fetcher.Fetcher
	timeout time.Duration
	rawDir  string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a Crawler. When cfg.Crawl.RawDir is set each site's links are
// also written to <raw_dir>/<site>_links.json.
func New(f fetcher.Fetcher, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Crawler {
	return &Crawler{
		fetcher: f,
		timeout: cfg.Fetcher.RequestTimeout,
		rawDir:  cfg.Crawl.RawDir,
		metrics: metrics,
		logger:  logger.With("component", "crawler"),
	}
}

// CrawlAll crawls sites in order. A site's failure never affects the
// others. Only context cancellation or a failed per-site file write stops
// the crawl; the partial result is returned with the error.
func (c *Crawler) CrawlAll(ctx context.Context, sites []config.SiteConfig) (*Result, error) {
	res := &Result{}

	for _, site := range sites {
		links, summary, err := c.CrawlSite(ctx, site)
		res.Sites = append(res.Sites, links)

		if c.rawDir != "" {
			path, werr := storage.WriteSiteLinks(c.rawDir, site.Name, links.Links)
			if werr != nil {
				res.Summaries = append(res.Summaries, summary)
				return res, werr
			}
			summary.LinksFile = path
		}
		res.Summaries = append(res.Summaries, summary)

		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// CrawlSite visits pages start_page..end_page of one site. A non-200 page
// stops the site; a fetch or parse error skips only that page. The error
// return is non-nil only when ctx is cancelled, together with the links
// collected so far.
func (c *Crawler) CrawlSite(ctx context.Context, site config.SiteConfig) (types.SiteLinks, SiteSummary, error) {
	logger := c.logger.With("site", site.Name)
	summary := SiteSummary{Site: site.Name}
	set := NewLinkSet(256)

	finish := func(err error) (types.SiteLinks, SiteSummary, error) {
		summary.Links = set.Len()
		return types.SiteLinks{Site: site.Name, Links: set.Links()}, summary, err
	}

	extractor, err := parser.NewLinkExtractor(site.SelectorType, c.logger)
	if err != nil {
		logger.Error("site skipped", "error", err)
		return finish(nil)
	}

	first, last := site.StartPage, site.EndPage
	if site.PaginationPattern == "" {
		last = first
	}

	logger.Info("crawling site", "base_url", site.BaseURL, "start_page", first, "end_page", last)

	for page := first; page <= last; page++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		pageURL := EncodeURL(site.PageURL(page))
		hrefs, status, err := c.fetchListing(ctx, site, pageURL, extractor)
		if err != nil {
			if ctx.Err() != nil {
				return finish(ctx.Err())
			}
			summary.PagesFailed++
			c.metrics.PagesFailed.Add(1)
			logger.Warn("listing page failed, continuing", "page", page, "url", pageURL, "error", err)
			continue
		}
		if status != 0 {
			summary.StoppedAt = page
			summary.StopStatus = status
			c.metrics.SitesStopped.Add(1)
			logger.Info("non-200 listing page, stopping site", "page", page, "url", pageURL, "status", status)
			break
		}

		summary.PagesFetched++
		c.metrics.PagesFetched.Add(1)

		added := 0
		for _, href := range hrefs {
			if set.Add(parser.Absolutize(site.BaseURL, href)) {
				added++
			}
		}
		c.metrics.LinksFound.Add(int64(added))
		logger.Debug("listing page parsed", "page", page, "found", len(hrefs), "new", added)
	}

	logger.Info("site crawled",
		"links", set.Len(),
		"pages_fetched", summary.PagesFetched,
		"pages_failed", summary.PagesFailed,
	)
	return finish(nil)
}

// fetchListing returns the hrefs of one listing page. A non-zero status
// means the page answered with something other than 200.
func (c *Crawler) fetchListing(ctx context.Context, site config.SiteConfig, pageURL string, extractor parser.LinkExtractor) ([]string, int, error) {
	req, err := types.NewRequest(pageURL)
	if err != nil {
		return nil, 0, err
	}
	req.Timeout = c.timeout
	req.Tag = types.TagListing
	req.Site = site.Name

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	c.metrics.RecordResponse(resp.StatusCode, len(resp.Body))

	if !resp.IsOK() {
		return nil, resp.StatusCode, nil
	}

	hrefs, err := extractor.ExtractLinks(resp, site.ArticleLinkSelector)
	if err != nil {
		var pe *types.ParseError
		if errors.As(err, &pe) {
			return nil, 0, err
		}
		return nil, 0, &types.ParseError{URL: pageURL, Selector: site.ArticleLinkSelector, Err: err}
	}
	return hrefs, 0, nil
}

// String renders a one-line description of the summary.
func (s SiteSummary) String() string {
	out := fmt.Sprintf("%s: %d links, %d pages fetched, %d failed", s.Site, s.Links, s.PagesFetched, s.PagesFailed)
	if s.StoppedAt > 0 {
		out += fmt.Sprintf(", stopped at page %d (status %d)", s.StoppedAt, s.StopStatus)
	}
	return out
}
