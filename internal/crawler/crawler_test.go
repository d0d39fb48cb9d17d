package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/fetcher"
	"github.com/IshaanNene/presscorpus/internal/observability"
	"github.com/IshaanNene/presscorpus/internal/storage"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// newsSite serves /listado/<n>/ pages. Pages above lastPage return 404.
// Every page links two articles of its own plus one shared by all pages.
func newsSite(t *testing.T, lastPage int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var page int
		if _, err := fmt.Sscanf(r.URL.Path, "/listado/%d/", &page); err != nil || page > lastPage {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body>
<article><h2><a href="/noticia-%d-a.html">A</a></h2></article>
<article><h2><a href="/noticia-%d-b.html">B</a></h2></article>
<article><h2><a href="/destacada.html">Destacada</a></h2></article>
<aside><a href="/publicidad.html">Anuncio</a></aside>
</body></html>`, page, page)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestCrawler(t *testing.T, rawDir string) (*Crawler, *observability.Metrics) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = 5 * time.Second
	cfg.Crawl.RawDir = rawDir

	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	m := observability.NewMetrics(testLogger)
	return New(f, cfg, m, testLogger), m
}

func site(name, baseURL string, end int) config.SiteConfig {
	return config.SiteConfig{
		Name:                name,
		BaseURL:             baseURL,
		PaginationPattern:   "/listado/{page_number}/",
		ArticleLinkSelector: "article h2 a",
		SelectorType:        config.SelectorCSS,
		StartPage:           1,
		EndPage:             end,
	}
}

func TestCrawlSiteStopsAtNonOK(t *testing.T) {
	srv, hits := newsSite(t, 4)
	c, m := newTestCrawler(t, "")

	links, summary, err := c.CrawlSite(context.Background(), site("Diario", srv.URL, 30))
	require.NoError(t, err)

	// 2 per page for pages 1-4, plus the shared link once
	assert.Len(t, links.Links, 9)
	assert.Equal(t, srv.URL+"/noticia-1-a.html", links.Links[0])
	assert.Equal(t, srv.URL+"/destacada.html", links.Links[2])
	assert.Equal(t, srv.URL+"/noticia-4-b.html", links.Links[8])

	assert.Equal(t, 4, summary.PagesFetched)
	assert.Equal(t, 5, summary.StoppedAt)
	assert.Equal(t, http.StatusNotFound, summary.StopStatus)
	assert.EqualValues(t, 5, hits.Load(), "pages after the 404 must not be requested")
	assert.EqualValues(t, 1, m.SitesStopped.Load())
}

func TestCrawlSiteContinuesAfterFetchError(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n == 2 {
			// outlive the request timeout
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		fmt.Fprintf(w, `<a href="/n%d.html">n</a>`, n)
	}))
	defer srv.Close()

	c, m := newTestCrawler(t, "")
	c.timeout = 200 * time.Millisecond
	s := site("Diario", srv.URL, 3)
	s.ArticleLinkSelector = "a"

	links, summary, err := c.CrawlSite(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/n1.html", srv.URL + "/n3.html"}, links.Links)
	assert.Equal(t, 1, summary.PagesFailed)
	assert.Equal(t, 2, summary.PagesFetched)
	assert.EqualValues(t, 1, m.PagesFailed.Load())
}

func TestCrawlAllSitesAreIndependent(t *testing.T) {
	good, _ := newsSite(t, 2)
	rawDir := t.TempDir()
	c, _ := newTestCrawler(t, rawDir)

	sites := []config.SiteConfig{
		site("Caido", "http://127.0.0.1:1", 3),
		site("Diario", good.URL, 30),
	}

	res, err := c.CrawlAll(context.Background(), sites)
	require.NoError(t, err)
	require.Len(t, res.Sites, 2)

	assert.Equal(t, "Caido", res.Sites[0].Site)
	assert.Empty(t, res.Sites[0].Links)
	assert.Equal(t, 3, res.Summaries[0].PagesFailed)

	assert.Len(t, res.Sites[1].Links, 5)

	rows := res.Rows()
	require.Len(t, rows, 5)
	for i, r := range rows {
		assert.Equal(t, i+1, r.ID, "ids must be dense and 1-based")
		assert.Equal(t, "Diario", r.Newspaper)
	}

	// per-site files exist for both sites, including the empty one
	empty, err := storage.ReadSiteLinks(rawDir, "Caido")
	require.NoError(t, err)
	assert.Empty(t, empty)
	diario, err := storage.ReadSiteLinks(rawDir, "Diario")
	require.NoError(t, err)
	assert.Equal(t, res.Sites[1].Links, diario)
	assert.Equal(t, filepath.Join(rawDir, "Diario_links.json"), res.Summaries[1].LinksFile)
}

func TestLinksCSVRowsMatchPerSiteCounts(t *testing.T) {
	a, _ := newsSite(t, 3)
	b, _ := newsSite(t, 1)
	c, _ := newTestCrawler(t, "")

	res, err := c.CrawlAll(context.Background(), []config.SiteConfig{site("A", a.URL, 30), site("B", b.URL, 30)})
	require.NoError(t, err)

	total := 0
	for _, s := range res.Sites {
		total += len(s.Links)
	}
	assert.Equal(t, 7+3, total)
	assert.Len(t, res.Rows(), total)
}

func TestCrawlSiteWithoutPagination(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `<a href="/x.html">x</a><a href="https://otro.example/y.html">y</a>`)
	}))
	defer srv.Close()

	c, _ := newTestCrawler(t, "")
	s := config.SiteConfig{Name: "Portada", BaseURL: srv.URL, ArticleLinkSelector: "a", SelectorType: "css", StartPage: 1, EndPage: 30}

	links, _, err := c.CrawlSite(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/x.html", "https://otro.example/y.html"}, links.Links)
	assert.EqualValues(t, 1, hits.Load())
}

func TestCrawlSiteXPath(t *testing.T) {
	srv, _ := newsSite(t, 1)
	c, _ := newTestCrawler(t, "")

	s := site("Diario", srv.URL, 1)
	s.SelectorType = config.SelectorXPath
	s.ArticleLinkSelector = "//aside/a/@href"

	links, _, err := c.CrawlSite(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/publicidad.html"}, links.Links)
}

func TestCrawlSiteCancelled(t *testing.T) {
	srv, _ := newsSite(t, 30)
	c, _ := newTestCrawler(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	links, _, err := c.CrawlSite(ctx, site("Diario", srv.URL, 30))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, links.Links)
}

func TestEncodeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://elpais.com/noticias/inmigracion/2/", "https://elpais.com/noticias/inmigracion/2/"},
		{"https://www.abc.es/buscar?q=inmigración&page=2", "https://www.abc.es/buscar?q=inmigraci%C3%B3n&page=2"},
		{"https://a.example/tag/asilo político", "https://a.example/tag/asilo%20pol%C3%ADtico"},
		{"https://a.example/ya%20codificado", "https://a.example/ya%20codificado"},
		{"https://a.example/100%", "https://a.example/100%25"},
		{"https://a.example/#ancla", "https://a.example/%23ancla"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeURL(tt.in), tt.in)
	}
}

func TestLinkSetKeepsFirstSeenOrder(t *testing.T) {
	s := NewLinkSet(4)
	for _, l := range strings.Fields("c a c b a") {
		s.Add(l)
	}
	assert.Equal(t, []string{"c", "a", "b"}, s.Links())
	assert.True(t, s.Has("b"))
	assert.Equal(t, 3, s.Len())
}
