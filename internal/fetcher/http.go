package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// browserHeaders are sent with every request so newspaper sites serve the
// same HTML a desktop browser would get. Accept-Language comes from the
// scrape language hint.
var browserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Encoding": "gzip, deflate, br",
}

// AcceptLanguage builds an Accept-Language value preferring lang, an ISO
// 639-1 code optionally followed by a region ("es", "es-ES"). English is
// kept as a fallback.
func AcceptLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en;q=0.8"
	}
	base, _, hasRegion := strings.Cut(lang, "-")
	base = strings.ToLower(base)
	var parts []string
	if hasRegion {
		parts = append(parts, lang, base+";q=0.9")
	} else {
		parts = append(parts, base)
	}
	if base != "en" {
		parts = append(parts, "en;q=0.8")
	}
	return strings.Join(parts, ",")
}

// HTTPFetcher fetches pages with net/http. Bodies are decompressed and
// decoded to UTF-8 before they reach the parsers.
type HTTPFetcher struct {
	client         *http.Client
	cfg            *config.FetcherConfig
	acceptLanguage string
	logger         *slog.Logger
}

// NewHTTPFetcher creates an HTTP fetcher from the fetcher config section.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	fc := &cfg.Fetcher
	f := &HTTPFetcher{
		cfg:            fc,
		acceptLanguage: AcceptLanguage(cfg.Scrape.Language),
		logger:         logger.With("component", "http_fetcher"),
	}
	f.client = &http.Client{
		Transport:     newTransport(fc),
		Timeout:       fc.RequestTimeout,
		CheckRedirect: f.checkRedirect,
	}
	return f, nil
}

func newTransport(fc *config.FetcherConfig) *http.Transport {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        fc.MaxIdleConns,
		MaxIdleConnsPerHost: fc.MaxIdleConns / 2,
		IdleConnTimeout:     fc.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: fc.TLSInsecure},
		// bodies are decompressed in readBody, brotli included
		DisableCompression: true,
	}
}

func (f *HTTPFetcher) checkRedirect(_ *http.Request, via []*http.Request) error {
	if !f.cfg.FollowRedirects {
		return http.ErrUseLastResponse
	}
	if len(via) >= f.cfg.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", f.cfg.MaxRedirects)
	}
	return nil
}

// Fetch performs a GET for req. A non-200 status is returned as a normal
// Response; only transport and decoding failures are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target := req.URLString()
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, nil)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	httpReq.Header.Set("User-Agent", f.userAgent())
	for k, v := range browserHeaders {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Accept-Language", f.acceptLanguage)
	for k, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(k, v)
		}
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := f.readBody(httpResp)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: target, StatusCode: httpResp.StatusCode, Err: err}
	}

	f.logger.Debug("fetched",
		"url", target,
		"site", req.Site,
		"status", httpResp.StatusCode,
		"bytes", len(body),
		"elapsed", elapsed,
	)
	return types.NewResponse(req, httpResp, body, elapsed), nil
}

// readBody applies the size limit, undoes Content-Encoding and converts the
// charset to UTF-8. A body whose charset cannot be decoded is kept raw.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		r = io.LimitReader(r, f.cfg.MaxBodySize)
	}

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		r = flate.NewReader(r)
	case "br":
		r = brotli.NewReader(r)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		f.logger.Debug("unknown charset, keeping raw body", "url", resp.Request.URL.String(), "error", err)
		return raw, nil
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return raw, nil
	}
	return body, nil
}

// Close drops idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns "http".
func (f *HTTPFetcher) Type() string { return "http" }

func (f *HTTPFetcher) userAgent() string {
	if f.cfg.UserAgent == "" {
		return config.DefaultUserAgent
	}
	return f.cfg.UserAgent
}
