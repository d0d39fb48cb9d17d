package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Metrics tracks counters for one presscorpus run.
type Metrics struct {
	// Crawl metrics
	PagesFetched atomic.Int64
	PagesFailed  atomic.Int64
	SitesStopped atomic.Int64
	LinksFound   atomic.Int64

	// Response metrics
	Responses2xx atomic.Int64
	Responses3xx atomic.Int64
	Responses4xx atomic.Int64
	Responses5xx atomic.Int64

	BytesDownloaded atomic.Int64

	// Scrape metrics
	ArticlesScraped atomic.Int64
	ArticlesFailed  atomic.Int64
	WordsScraped    atomic.Int64

	// Store metrics
	RowsInserted atomic.Int64
	RowsIgnored  atomic.Int64
	RowsOrphaned atomic.Int64

	// Cleaner metrics
	OutliersFlagged atomic.Int64
	ContentDeleted  atomic.Int64
	LinksDeleted    atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// RecordResponse counts a response by status class and size.
func (m *Metrics) RecordResponse(status int, size int) {
	switch {
	case status >= 500:
		m.Responses5xx.Add(1)
	case status >= 400:
		m.Responses4xx.Add(1)
	case status >= 300:
		m.Responses3xx.Add(1)
	case status >= 200:
		m.Responses2xx.Add(1)
	}
	m.BytesDownloaded.Add(int64(size))
}

type metric struct {
	name  string
	help  string
	value int64
}

func (m *Metrics) all() []metric {
	return []metric{
		{"presscorpus_pages_fetched_total", "Listing pages fetched", m.PagesFetched.Load()},
		{"presscorpus_pages_failed_total", "Listing pages that failed to fetch or parse", m.PagesFailed.Load()},
		{"presscorpus_sites_stopped_total", "Sites stopped early by a non-200 page", m.SitesStopped.Load()},
		{"presscorpus_links_found_total", "Unique article links found", m.LinksFound.Load()},
		{"presscorpus_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"presscorpus_responses_3xx_total", "Total 3xx responses", m.Responses3xx.Load()},
		{"presscorpus_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"presscorpus_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"presscorpus_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"presscorpus_articles_scraped_total", "Articles scraped", m.ArticlesScraped.Load()},
		{"presscorpus_articles_failed_total", "Articles that failed to scrape", m.ArticlesFailed.Load()},
		{"presscorpus_words_scraped_total", "Words in scraped article bodies", m.WordsScraped.Load()},
		{"presscorpus_rows_inserted_total", "Rows inserted into the store", m.RowsInserted.Load()},
		{"presscorpus_rows_ignored_total", "Rows ignored as duplicates", m.RowsIgnored.Load()},
		{"presscorpus_rows_orphaned_total", "Content rows skipped for lack of a link", m.RowsOrphaned.Load()},
		{"presscorpus_outliers_flagged_total", "Articles flagged as length outliers", m.OutliersFlagged.Load()},
		{"presscorpus_content_deleted_total", "Content rows deleted by cleanup", m.ContentDeleted.Load()},
		{"presscorpus_links_deleted_total", "Link rows deleted by cleanup", m.LinksDeleted.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.all() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server. It shuts down when ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Snapshot returns the non-zero metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, metric := range m.all() {
		if metric.value != 0 {
			out[metric.name] = metric.value
		}
	}
	return out
}

// WriteSummary renders the non-zero counters as a table.
func (m *Metrics) WriteSummary(w io.Writer) {
	snap := m.Snapshot()
	if len(snap) == 0 {
		return
	}
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, name := range names {
		t.AppendRow(table.Row{name, snap[name]})
	}
	t.Render()
}
