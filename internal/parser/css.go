package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// CSSLinkExtractor selects link elements with CSS selectors via goquery.
type CSSLinkExtractor struct {
	logger *slog.Logger
}

// NewCSSLinkExtractor creates a new CSS link extractor.
func NewCSSLinkExtractor(logger *slog.Logger) *CSSLinkExtractor {
	return &CSSLinkExtractor{
		logger: logger.With("component", "css_parser"),
	}
}

// ExtractLinks implements LinkExtractor.
func (p *CSSLinkExtractor) ExtractLinks(resp *types.Response, selector string) ([]string, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: resp.Request.URLString(), Selector: selector, Err: err}
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &types.ParseError{URL: resp.Request.URLString(), Selector: selector, Err: err}
	}

	var hrefs []string
	doc.FindMatcher(matcher).Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href != "" {
			hrefs = append(hrefs, href)
		}
	})

	p.logger.Debug("links selected", "url", resp.Request.URLString(), "selector", selector, "count", len(hrefs))
	return hrefs, nil
}
