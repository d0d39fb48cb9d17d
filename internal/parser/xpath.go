package parser

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// XPathLinkExtractor selects link elements with XPath expressions.
type XPathLinkExtractor struct {
	logger *slog.Logger
}

// NewXPathLinkExtractor creates a new XPath link extractor.
func NewXPathLinkExtractor(logger *slog.Logger) *XPathLinkExtractor {
	return &XPathLinkExtractor{
		logger: logger.With("component", "xpath_parser"),
	}
}

// ExtractLinks implements LinkExtractor. The expression may select elements
// (their href is read) or href attributes directly (//a/@href).
func (p *XPathLinkExtractor) ExtractLinks(resp *types.Response, selector string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &types.ParseError{URL: resp.Request.URLString(), Selector: selector, Err: err}
	}

	nodes, err := htmlquery.QueryAll(doc, selector)
	if err != nil {
		return nil, &types.ParseError{URL: resp.Request.URLString(), Selector: selector, Err: err}
	}

	var hrefs []string
	for _, node := range nodes {
		var href string
		if node.Data == "href" && node.FirstChild != nil && node.FirstChild.Type == html.TextNode {
			href = node.FirstChild.Data
		} else {
			href = htmlquery.SelectAttr(node, "href")
		}
		href = strings.TrimSpace(href)
		if href != "" {
			hrefs = append(hrefs, href)
		}
	}

	p.logger.Debug("links selected", "url", resp.Request.URLString(), "selector", selector, "count", len(hrefs))
	return hrefs, nil
}
