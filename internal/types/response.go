package types

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fetched listing or article page.
type Response struct {
	StatusCode int
	// Body is decoded to UTF-8.
	Body    []byte
	Request *Request
	// ContentType is the MIME type reported by the server.
	ContentType string
	// FinalURL is the page URL after redirects; links resolve against it.
	FinalURL string
	Elapsed  time.Duration

	doc *goquery.Document
}

// NewResponse builds a Response from an HTTP round trip.
func NewResponse(req *Request, httpResp *http.Response, body []byte, elapsed time.Duration) *Response {
	final := req.URLString()
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		final = httpResp.Request.URL.String()
	}
	return &Response{
		StatusCode:  httpResp.StatusCode,
		Body:        body,
		Request:     req,
		ContentType: httpResp.Header.Get("Content-Type"),
		FinalURL:    final,
		Elapsed:     elapsed,
	}
}

// NewBrowserResponse builds a Response from a rendered browser page.
func NewBrowserResponse(req *Request, statusCode int, html []byte, finalURL string, elapsed time.Duration) *Response {
	return &Response{
		StatusCode:  statusCode,
		Body:        html,
		Request:     req,
		ContentType: "text/html; charset=utf-8",
		FinalURL:    finalURL,
		Elapsed:     elapsed,
	}
}

// PageURL returns FinalURL, falling back to the requested URL.
func (r *Response) PageURL() (*url.URL, error) {
	raw := r.FinalURL
	if raw == "" && r.Request != nil {
		raw = r.Request.URLString()
	}
	return url.Parse(raw)
}

// Document parses Body once and caches the result.
func (r *Response) Document() (*goquery.Document, error) {
	if r.doc == nil {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			return nil, err
		}
		r.doc = doc
	}
	return r.doc, nil
}

// IsOK reports a 200 status. A listing page with any other status ends the
// site's crawl, and an article with any other status is a failure.
func (r *Response) IsOK() bool {
	return r.StatusCode == http.StatusOK
}
