package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// Extractor names.
const (
	ExtractorReadability = "readability"
	ExtractorTrafilatura = "trafilatura"
)

// Article is the title, main text and publish date extracted from one page.
type Article struct {
	Title string
	Text  string
	// Date is the raw publish date as found on the page, possibly empty.
	Date string
}

// Extractor turns a fetched article page into an Article.
type Extractor interface {
	Extract(resp *types.Response) (*Article, error)
	Name() string
}

// NewExtractor returns the named extractor configured for a language hint
// (ISO 639-1, e.g. "es").
func NewExtractor(name, language string, logger *slog.Logger) (Extractor, error) {
	switch name {
	case ExtractorReadability, "":
		return NewReadabilityExtractor(language, logger), nil
	case ExtractorTrafilatura:
		return NewTrafilaturaExtractor(language, logger), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}

// ReadabilityExtractor extracts articles with go-readability. Readability
// scoring is language independent; the hint is checked against the page's
// declared language.
type ReadabilityExtractor struct {
	language string
	logger   *slog.Logger
}

// NewReadabilityExtractor creates a readability based extractor.
func NewReadabilityExtractor(language string, logger *slog.Logger) *ReadabilityExtractor {
	return &ReadabilityExtractor{
		language: strings.ToLower(language),
		logger:   logger.With("component", "readability"),
	}
}

// Name implements Extractor.
func (e *ReadabilityExtractor) Name() string { return ExtractorReadability }

// Extract implements Extractor.
func (e *ReadabilityExtractor) Extract(resp *types.Response) (*Article, error) {
	pageURL, err := resp.PageURL()
	if err != nil {
		return nil, &types.ExtractError{URL: resp.Request.URLString(), Extractor: e.Name(), Err: err}
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body), pageURL)
	if err != nil {
		return nil, &types.ExtractError{URL: resp.Request.URLString(), Extractor: e.Name(), Err: err}
	}

	a := &Article{
		Title: strings.TrimSpace(article.Title),
		Text:  strings.TrimSpace(article.TextContent),
	}
	if a.Text == "" {
		return nil, &types.ExtractError{URL: resp.Request.URLString(), Extractor: e.Name(), Err: types.ErrEmptyArticle}
	}
	a.Date = PublishDate(resp)
	if lang := PageLanguage(resp); lang != "" && e.language != "" && !MatchesLanguage(lang, e.language) {
		e.logger.Debug("page language differs from hint", "url", resp.Request.URLString(), "page", lang, "hint", e.language)
	}
	return a, nil
}

// PageLanguage returns the lowercased lang attribute of the page's html
// element, or "" when it is absent.
func PageLanguage(resp *types.Response) string {
	doc, err := resp.Document()
	if err != nil {
		return ""
	}
	lang, _ := doc.Find("html").First().Attr("lang")
	return strings.ToLower(strings.TrimSpace(lang))
}

// MatchesLanguage reports whether two language tags share a primary
// subtag, so "es-ES" matches "es".
func MatchesLanguage(a, b string) bool {
	pa, _, _ := strings.Cut(strings.ToLower(a), "-")
	pb, _, _ := strings.Cut(strings.ToLower(b), "-")
	return pa == pb
}

// TrafilaturaExtractor extracts articles with go-trafilatura.
type TrafilaturaExtractor struct {
	language string
	logger   *slog.Logger
}

// NewTrafilaturaExtractor creates a trafilatura based extractor.
func NewTrafilaturaExtractor(language string, logger *slog.Logger) *TrafilaturaExtractor {
	return &TrafilaturaExtractor{
		language: language,
		logger:   logger.With("component", "trafilatura"),
	}
}

// Name implements Extractor.
func (e *TrafilaturaExtractor) Name() string { return ExtractorTrafilatura }

// Extract implements Extractor.
func (e *TrafilaturaExtractor) Extract(resp *types.Response) (*Article, error) {
	pageURL, err := resp.PageURL()
	if err != nil {
		return nil, &types.ExtractError{URL: resp.Request.URLString(), Extractor: e.Name(), Err: err}
	}

	result, err := trafilatura.Extract(bytes.NewReader(resp.Body), trafilatura.Options{
		OriginalURL:    pageURL,
		TargetLanguage: e.language,
		EnableFallback: true,
	})
	if err != nil {
		return nil, &types.ExtractError{URL: resp.Request.URLString(), Extractor: e.Name(), Err: err}
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return nil, &types.ExtractError{URL: resp.Request.URLString(), Extractor: e.Name(), Err: types.ErrEmptyArticle}
	}

	a := &Article{
		Title: strings.TrimSpace(result.Metadata.Title),
		Text:  strings.TrimSpace(result.ContentText),
	}
	if !result.Metadata.Date.IsZero() {
		a.Date = result.Metadata.Date.Format(time.RFC3339)
	} else {
		a.Date = PublishDate(resp)
	}
	return a, nil
}
