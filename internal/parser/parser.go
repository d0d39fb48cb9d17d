package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// LinkExtractor pulls article hrefs out of a listing page.
type LinkExtractor interface {
	// ExtractLinks returns the raw href values of the elements matched by
	// selector, in document order. Elements without an href are skipped.
	ExtractLinks(resp *types.Response, selector string) ([]string, error)
}

// NewLinkExtractor returns the extractor for a site's selector type.
func NewLinkExtractor(selectorType string, logger *slog.Logger) (LinkExtractor, error) {
	switch selectorType {
	case config.SelectorCSS, "":
		return NewCSSLinkExtractor(logger), nil
	case config.SelectorXPath:
		return NewXPathLinkExtractor(logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown selector type %q", types.ErrInvalidSite, selectorType)
	}
}

// Absolutize turns an href found on a listing page into an absolute URL.
// Hrefs starting with "http" are kept as is; anything else is appended to
// baseURL, collapsing a doubled slash at the join.
func Absolutize(baseURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasSuffix(baseURL, "/") && strings.HasPrefix(href, "/") {
		return baseURL + href[1:]
	}
	return baseURL + href
}
