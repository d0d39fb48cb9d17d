// Package pipeline post-processes extracted articles through an ordered
// chain of middleware before they are written to the content CSV.
package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// Middleware is one step of the article chain. Process returns the item to
// hand to the next step, nil to drop it, or an error to fail it.
type Middleware interface {
	Name() string
	Process(item *types.Item) (*types.Item, error)
}

// Pipeline runs articles through its middleware in registration order.
type Pipeline struct {
	chain  []Middleware
	logger *slog.Logger
}

// New returns an empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger.With("component", "pipeline")}
}

// Use appends mw to the chain.
func (p *Pipeline) Use(mw Middleware) {
	p.chain = append(p.chain, mw)
}

// Stages lists middleware names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.chain))
	for i, mw := range p.chain {
		names[i] = mw.Name()
	}
	return names
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int { return len(p.chain) }

// Process runs item through the chain. A middleware error is wrapped in a
// PipelineError naming the stage; a dropped item yields (nil, nil).
func (p *Pipeline) Process(item *types.Item) (*types.Item, error) {
	for _, mw := range p.chain {
		next, err := mw.Process(item)
		if err != nil {
			return nil, &types.PipelineError{Stage: mw.Name(), Item: item, Err: err}
		}
		if next == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "id", item.ID, "url", item.URL)
			return nil, nil
		}
		item = next
	}
	return item, nil
}

// RequiredFieldsMiddleware rejects articles with a blank required field. The
// article is dropped, or failed with Err when Err is set.
type RequiredFieldsMiddleware struct {
	Fields []string
	Err    error
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(item *types.Item) (*types.Item, error) {
	for _, f := range m.Fields {
		if strings.TrimSpace(item.GetString(f)) != "" {
			continue
		}
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, nil
	}
	return item, nil
}

// DefaultValueMiddleware fills absent fields so every article carries the
// full content CSV column set.
type DefaultValueMiddleware struct {
	Defaults map[string]string
}

func (m *DefaultValueMiddleware) Name() string { return "default_values" }

func (m *DefaultValueMiddleware) Process(item *types.Item) (*types.Item, error) {
	for k, v := range m.Defaults {
		if !item.Has(k) {
			item.Set(k, v)
		}
	}
	return item, nil
}

// TrimMiddleware strips surrounding whitespace from every string field.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(item *types.Item) (*types.Item, error) {
	for _, k := range item.Keys() {
		v, _ := item.Get(k)
		if str, ok := v.(string); ok {
			item.Set(k, strings.TrimSpace(str))
		}
	}
	return item, nil
}

// Default builds the article pipeline used by the scraper: trim, sanitize,
// date normalization, required text, word count, and the optional language
// check when detector is non-nil.
func Default(detector LanguageDetector, languageHint string, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&DefaultValueMiddleware{Defaults: map[string]string{
		types.FieldTitle: "",
		types.FieldDate:  "",
	}})
	p.Use(&TrimMiddleware{})
	p.Use(NewHTMLSanitizeMiddleware(types.FieldTitle, types.FieldText))
	p.Use(NewDateNormalizeMiddleware([]string{types.FieldDate}, logger))
	p.Use(&RequiredFieldsMiddleware{Fields: []string{types.FieldText}, Err: types.ErrEmptyArticle})
	p.Use(NewWordCountMiddleware())
	if detector != nil {
		p.Use(NewLanguageCheckMiddleware(detector, languageHint, logger))
	}
	return p
}
