package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/presscorpus/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newItem() *types.Item {
	return types.NewItem(types.LinkRow{ID: 1, Newspaper: "ElPais", URL: "https://elpais.com/a.html"})
}

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	item := newItem()
	item.Set("title", "  Hola Mundo  ")
	item.Set("extra", " espacios ")

	result, err := p.Process(item)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.GetString("title") != "Hola Mundo" {
		t.Errorf("expected trimmed title, got %q", result.GetString("title"))
	}
	if result.GetString("extra") != "espacios" {
		t.Errorf("expected trimmed extra, got %q", result.GetString("extra"))
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{Fields: []string{"title"}}

	item1 := newItem()
	item1.Set("title", "Hola")
	result, err := m.Process(item1)
	if err != nil || result == nil {
		t.Error("item with required field should pass")
	}

	// dropped without Err
	item2 := newItem()
	item2.Set("title", "   ")
	result, _ = m.Process(item2)
	if result != nil {
		t.Error("item with blank required field should be dropped (nil)")
	}

	// rejected with Err
	m.Err = types.ErrEmptyArticle
	_, err = m.Process(newItem())
	if !errors.Is(err, types.ErrEmptyArticle) {
		t.Errorf("expected ErrEmptyArticle, got %v", err)
	}
}

func TestHTMLSanitizeMiddleware(t *testing.T) {
	m := NewHTMLSanitizeMiddleware("content")
	item := newItem()
	item.Set("content", "<p>Hola <b>Mundo</b></p> &amp; <a href=\"x\">enlace</a>\n\n<p>Segundo   párrafo</p>")

	result, err := m.Process(item)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	cleaned := result.GetString("content")
	if cleaned != "Hola Mundo & enlace\nSegundo párrafo" {
		t.Errorf("unexpected sanitized content %q", cleaned)
	}
}

func TestHTMLSanitizeKeepsPlainTextComparisons(t *testing.T) {
	tests := []string{
		"Si a<b entonces el gasto sube y la deuda baja.",
		"El déficit fue <3% y la inflación >2%.",
		"Cotización: 1 < 2 && 3 > 2",
	}
	for _, text := range tests {
		item := newItem()
		item.Set(types.FieldText, text)

		result, err := Default(nil, "es", testLogger).Process(item)
		if err != nil {
			t.Fatalf("error for %q: %v", text, err)
		}
		if got := result.GetString(types.FieldText); got != text {
			t.Errorf("plain text altered: got %q, want %q", got, text)
		}
	}
}

func TestDateNormalizeMiddleware(t *testing.T) {
	m := NewDateNormalizeMiddleware([]string{"date"}, testLogger)

	tests := []struct {
		input    string
		expected string
	}{
		{"2023-05-01T10:00:00+02:00", "2023-05-01T10:00:00+02:00"},
		{"2024-01-15", "2024-01-15T00:00:00Z"},
		{"15/01/2024", "2024-01-15T00:00:00Z"},
		{"January 15, 2024", "2024-01-15T00:00:00Z"},
		{"no es una fecha", ""},
	}

	for _, tt := range tests {
		item := newItem()
		item.Set("date", tt.input)

		result, _ := m.Process(item)
		got := result.GetString("date")
		if got != tt.expected {
			t.Errorf("date %q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestWordCountMiddleware(t *testing.T) {
	m := NewWordCountMiddleware()

	item := newItem()
	item.Set(types.FieldText, "El rápido zorro marrón\nsalta sobre el perro perezoso")

	result, _ := m.Process(item)
	if wc := result.GetInt(types.FieldWordCount); wc != 9 {
		t.Errorf("expected 9 words, got %d", wc)
	}
}

type fixedDetector struct{ lang string }

func (d fixedDetector) Detect(string) (string, bool) { return d.lang, d.lang != "" }

func TestLanguageCheckMiddlewareNeverDrops(t *testing.T) {
	m := NewLanguageCheckMiddleware(fixedDetector{lang: "en"}, "es", testLogger)

	item := newItem()
	item.Set(types.FieldText, "This is English")
	result, err := m.Process(item)
	if err != nil || result == nil {
		t.Fatal("language mismatch must not drop the item")
	}
	if result.GetString(types.FieldLanguage) != "en" {
		t.Errorf("expected detected language recorded, got %q", result.GetString(types.FieldLanguage))
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := Default(nil, "es", testLogger)

	item := newItem()
	item.Set(types.FieldTitle, "  <h1>Llegan   cayucos</h1> ")
	item.Set(types.FieldText, "  Uno dos tres.\n  Cuatro cinco.  ")
	item.Set(types.FieldDate, "2023-05-01")

	result, err := p.Process(item)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	row := result.ContentRow()
	if row.Title != "Llegan cayucos" {
		t.Errorf("unexpected title %q", row.Title)
	}
	if row.Date != "2023-05-01T00:00:00Z" {
		t.Errorf("unexpected date %q", row.Date)
	}
	if result.GetInt(types.FieldWordCount) != 5 {
		t.Errorf("expected 5 words, got %d", result.GetInt(types.FieldWordCount))
	}
}

func TestDefaultPipelineRejectsEmptyText(t *testing.T) {
	p := Default(nil, "es", testLogger)

	item := newItem()
	item.Set(types.FieldTitle, "Solo título")
	item.Set(types.FieldText, " <div></div> ")

	_, err := p.Process(item)
	if !errors.Is(err, types.ErrEmptyArticle) {
		t.Fatalf("expected ErrEmptyArticle, got %v", err)
	}
	var pe *types.PipelineError
	if !errors.As(err, &pe) || pe.Stage != "required_fields" {
		t.Errorf("expected failure at required_fields, got %v", err)
	}
}

func BenchmarkPipeline(b *testing.B) {
	p := Default(nil, "es", testLogger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		item := newItem()
		item.Set(types.FieldTitle, "  Hola <b>Mundo</b>  ")
		item.Set(types.FieldText, "  <p>Contenido del artículo</p>  ")
		item.Set(types.FieldDate, "2024-01-15")
		_, _ = p.Process(item)
	}
}
