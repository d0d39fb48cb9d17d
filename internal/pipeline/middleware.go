package pipeline

import (
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// --- Article Middleware ---

// markupRe matches a complete HTML tag or comment. A bare '<' in running
// text ("a<b") does not match.
var markupRe = regexp.MustCompile(`<!--|</?[a-zA-Z][a-zA-Z0-9-]*(\s+[a-zA-Z_:][-a-zA-Z0-9_:.]*(\s*=\s*("[^"]*"|'[^']*'|[^\s"'<>=]+))?)*\s*/?>`)

// HTMLSanitizeMiddleware strips markup left in extracted fields. Values with
// no tags are plain text and only have their spacing normalized. Line breaks
// are kept; runs of spaces within a line collapse to one.
type HTMLSanitizeMiddleware struct {
	fields []string
	policy *bluemonday.Policy
}

func NewHTMLSanitizeMiddleware(fields ...string) *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		fields: fields,
		policy: bluemonday.StrictPolicy(),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(item *types.Item) (*types.Item, error) {
	fields := m.fields
	if len(fields) == 0 {
		fields = item.Keys()
	}
	for _, key := range fields {
		s := item.GetString(key)
		if s == "" {
			continue
		}
		if markupRe.MatchString(s) {
			// StrictPolicy escapes entities in the text it keeps.
			s = html.UnescapeString(m.policy.Sanitize(s))
		}
		item.Set(key, collapseSpaces(s))
	}
	return item, nil
}

func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// DateNormalizeMiddleware rewrites date fields to RFC 3339. Known layouts
// are tried first, then dateparse. Unparseable values are cleared so the
// stored date is either ISO-8601 or empty.
type DateNormalizeMiddleware struct {
	fields    []string
	inFormats []string
	logger    *slog.Logger
}

func NewDateNormalizeMiddleware(fields []string, logger *slog.Logger) *DateNormalizeMiddleware {
	return &DateNormalizeMiddleware{
		fields: fields,
		inFormats: []string{
			time.RFC3339,
			time.RFC3339Nano,
			time.RFC1123,
			time.RFC1123Z,
			"2006-01-02",
			"2006-01-02T15:04:05",
			"2006-01-02T15:04:05Z0700",
			"2006-01-02 15:04:05",
			"2006-01-02 15:04:05-07:00",
			"02/01/2006",
			"02-01-2006",
			"2006/01/02",
		},
		logger: logger.With("component", "date_normalize"),
	}
}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(item *types.Item) (*types.Item, error) {
	for _, field := range m.fields {
		s := strings.TrimSpace(item.GetString(field))
		if s == "" {
			continue
		}

		t, ok := m.parse(s)
		if !ok {
			m.logger.Debug("unparseable date cleared", "url", item.URL, "value", s)
			item.Set(field, "")
			continue
		}
		item.Set(field, t.Format(time.RFC3339))
	}
	return item, nil
}

func (m *DateNormalizeMiddleware) parse(s string) (time.Time, bool) {
	for _, format := range m.inFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WordCountMiddleware records the whitespace token count of the text field.
type WordCountMiddleware struct{}

func NewWordCountMiddleware() *WordCountMiddleware {
	return &WordCountMiddleware{}
}

func (m *WordCountMiddleware) Name() string { return "word_count" }

func (m *WordCountMiddleware) Process(item *types.Item) (*types.Item, error) {
	item.Set(types.FieldWordCount, len(strings.Fields(item.GetString(types.FieldText))))
	return item, nil
}

// LanguageDetector reports the ISO 639-1 language of a text.
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

// LanguageCheckMiddleware records the detected language and warns when it
// differs from the expected one. It never drops an item.
type LanguageCheckMiddleware struct {
	detector LanguageDetector
	expected string
	logger   *slog.Logger
}

func NewLanguageCheckMiddleware(detector LanguageDetector, expected string, logger *slog.Logger) *LanguageCheckMiddleware {
	return &LanguageCheckMiddleware{
		detector: detector,
		expected: strings.ToLower(expected),
		logger:   logger.With("component", "language_check"),
	}
}

func (m *LanguageCheckMiddleware) Name() string { return "language_check" }

func (m *LanguageCheckMiddleware) Process(item *types.Item) (*types.Item, error) {
	lang, ok := m.detector.Detect(item.GetString(types.FieldText))
	if !ok {
		return item, nil
	}
	item.Set(types.FieldLanguage, lang)
	if m.expected != "" && lang != m.expected {
		m.logger.Warn("article language differs from hint",
			"url", item.URL,
			"detected", lang,
			"expected", m.expected,
		)
	}
	return item, nil
}
