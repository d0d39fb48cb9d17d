package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/presscorpus/internal/fetcher"
	"github.com/IshaanNene/presscorpus/internal/observability"
	"github.com/IshaanNene/presscorpus/internal/parser"
	"github.com/IshaanNene/presscorpus/internal/pipeline"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// Result is the fold of a scrape over its input links. Every input row ends
// up in exactly one of the two slices.
type Result struct {
	Articles []types.ContentRow
	Failures []types.Failure
}

// Scraper fetches article pages and extracts their content, one link at a
// time.
type Scraper struct {
	fetcher   fetcher.Fetcher
	extractor parser.Extractor
	pipeline  *pipeline.Pipeline
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Scraper. timeout bounds each article request.
func New(f fetcher.Fetcher, extractor parser.Extractor, p *pipeline.Pipeline, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetcher:   f,
		extractor: extractor,
		pipeline:  p,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger.With("component", "scraper"),
	}
}

// Scrape processes links in order. A failing link is recorded and the batch
// continues. When ctx is cancelled the links processed so far are returned
// with ctx's error.
func (s *Scraper) Scrape(ctx context.Context, links []types.LinkRow) (*Result, error) {
	res := &Result{}
	start := time.Now()

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scrape interrupted", "done", i, "total", len(links))
			return res, err
		}

		row, err := s.ScrapeOne(ctx, link)
		if err != nil {
			res.Failures = append(res.Failures, types.Failure{URL: link.URL, Error: err.Error()})
			s.metrics.ArticlesFailed.Add(1)
			s.logger.Warn("article failed", "id", link.ID, "url", link.URL, "error", err)
			continue
		}

		res.Articles = append(res.Articles, row)
		s.metrics.ArticlesScraped.Add(1)
		s.logger.Debug("article scraped", "id", link.ID, "url", link.URL, "title", row.Title)

		if (i+1)%100 == 0 {
			s.logger.Info("scrape progress", "done", i+1, "total", len(links), "failed", len(res.Failures))
		}
	}

	s.logger.Info("scrape complete",
		"articles", len(res.Articles),
		"failures", len(res.Failures),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// ScrapeOne fetches and extracts a single article.
func (s *Scraper) ScrapeOne(ctx context.Context, link types.LinkRow) (types.ContentRow, error) {
	req, err := types.NewRequest(link.URL)
	if err != nil {
		return types.ContentRow{}, err
	}
	req.Timeout = s.timeout
	req.Tag = types.TagArticle
	req.Site = link.Newspaper

	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return types.ContentRow{}, err
	}
	s.metrics.RecordResponse(resp.StatusCode, len(resp.Body))

	if !resp.IsOK() {
		return types.ContentRow{}, &types.FetchError{
			URL:        link.URL,
			StatusCode: resp.StatusCode,
			Err:        types.ErrNonOKStatus,
		}
	}

	article, err := s.extractor.Extract(resp)
	if err != nil {
		return types.ContentRow{}, err
	}

	item := types.NewItem(link)
	item.Set(types.FieldTitle, article.Title)
	item.Set(types.FieldText, article.Text)
	item.Set(types.FieldDate, article.Date)

	out, err := s.pipeline.Process(item)
	if err != nil {
		return types.ContentRow{}, err
	}
	if out == nil {
		return types.ContentRow{}, fmt.Errorf("article dropped by pipeline: %w", types.ErrEmptyArticle)
	}

	words := out.GetInt(types.FieldWordCount)
	s.metrics.WordsScraped.Add(int64(words))
	s.logger.Debug("article extracted", "id", link.ID, "words", words)
	return out.ContentRow(), nil
}
