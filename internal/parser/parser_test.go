package parser

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/presscorpus/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<!DOCTYPE html>
<html>
<head><title>Inmigración | Diario</title></head>
<body>
    <article><h2><a href="/espana/2023-05-01/llegan-cayucos.html">Llegan cayucos</a></h2></article>
    <article><h2><a href="https://diario.example/sociedad/asilo.html">Asilo</a></h2></article>
    <article><h2><a>Sin enlace</a></h2></article>
    <article><h2><a href="   ">Vacío</a></h2></article>
    <nav><a href="/pagina-2">Siguiente</a></nav>
</body>
</html>`

func makeResp(rawURL, body string) *types.Response {
	req, _ := types.NewRequest(rawURL)
	return &types.Response{
		Request:     req,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
		FinalURL:    rawURL,
	}
}

func TestCSSLinkExtractor(t *testing.T) {
	p := NewCSSLinkExtractor(testLogger)
	hrefs, err := p.ExtractLinks(makeResp("https://diario.example/tag/inmigracion", listingHTML), "article h2 a")
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}

	want := []string{"/espana/2023-05-01/llegan-cayucos.html", "https://diario.example/sociedad/asilo.html"}
	if len(hrefs) != len(want) {
		t.Fatalf("expected %d hrefs, got %d: %v", len(want), len(hrefs), hrefs)
	}
	for i := range want {
		if hrefs[i] != want[i] {
			t.Errorf("href %d: expected %q, got %q", i, want[i], hrefs[i])
		}
	}
}

func TestCSSLinkExtractorDefaultSelector(t *testing.T) {
	p := NewCSSLinkExtractor(testLogger)
	hrefs, err := p.ExtractLinks(makeResp("https://diario.example", listingHTML), "a")
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if len(hrefs) != 3 {
		t.Errorf("expected 3 hrefs with selector 'a', got %d: %v", len(hrefs), hrefs)
	}
}

func TestCSSLinkExtractorInvalidSelector(t *testing.T) {
	p := NewCSSLinkExtractor(testLogger)
	_, err := p.ExtractLinks(makeResp("https://diario.example", listingHTML), "a[[")

	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Selector != "a[[" {
		t.Errorf("expected selector in error, got %q", pe.Selector)
	}
}

func TestXPathLinkExtractor(t *testing.T) {
	p := NewXPathLinkExtractor(testLogger)
	resp := makeResp("https://diario.example", listingHTML)

	hrefs, err := p.ExtractLinks(resp, "//article//a")
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if len(hrefs) != 2 {
		t.Fatalf("expected 2 hrefs, got %d: %v", len(hrefs), hrefs)
	}

	attrs, err := p.ExtractLinks(resp, "//article//a/@href")
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if len(attrs) != 2 || attrs[0] != hrefs[0] {
		t.Errorf("attribute selection should match element selection, got %v", attrs)
	}
}

func TestXPathLinkExtractorInvalidExpression(t *testing.T) {
	p := NewXPathLinkExtractor(testLogger)
	if _, err := p.ExtractLinks(makeResp("https://diario.example", listingHTML), "//a[@href"); err == nil {
		t.Error("expected error for malformed xpath")
	}
}

func TestNewLinkExtractor(t *testing.T) {
	if _, err := NewLinkExtractor("css", testLogger); err != nil {
		t.Errorf("css: %v", err)
	}
	if _, err := NewLinkExtractor("xpath", testLogger); err != nil {
		t.Errorf("xpath: %v", err)
	}
	if _, err := NewLinkExtractor("regex", testLogger); !errors.Is(err, types.ErrInvalidSite) {
		t.Errorf("expected ErrInvalidSite, got %v", err)
	}
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://elpais.com", "/espana/noticia.html", "https://elpais.com/espana/noticia.html"},
		{"https://elpais.com/", "/espana/noticia.html", "https://elpais.com/espana/noticia.html"},
		{"https://elpais.com", "https://otro.example/a", "https://otro.example/a"},
		{"https://elpais.com", "http://otro.example/a", "http://otro.example/a"},
	}
	for _, tt := range tests {
		if got := Absolutize(tt.base, tt.href); got != tt.want {
			t.Errorf("Absolutize(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestPublishDate(t *testing.T) {
	tests := []struct {
		name string
		head string
		body string
		want string
	}{
		{
			name: "open graph",
			head: `<meta property="article:published_time" content="2023-05-01T10:00:00+02:00">`,
			want: "2023-05-01T10:00:00+02:00",
		},
		{
			name: "json-ld graph",
			head: `<script type="application/ld+json">{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","datePublished":"2022-11-30"}]}</script>`,
			want: "2022-11-30",
		},
		{
			name: "json-ld array",
			head: `<script type="application/ld+json">[{"@type":"NewsArticle","datePublished":"2021-01-02T03:04:05Z"}]</script>`,
			want: "2021-01-02T03:04:05Z",
		},
		{
			name: "time element",
			body: `<time datetime="2020-02-29">29 de febrero</time>`,
			want: "2020-02-29",
		},
		{
			name: "none",
			body: `<p>sin fecha</p>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := "<html><head>" + tt.head + "</head><body>" + tt.body + "</body></html>"
			if got := PublishDate(makeResp("https://diario.example/a", page)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func articleHTML() string {
	para := "El Gobierno ha anunciado hoy un nuevo plan de acogida para las personas migrantes que llegan a las costas de Canarias, " +
		"con más plazas en los centros de primera atención y un refuerzo de los equipos de salvamento marítimo durante los próximos meses. "
	var body strings.Builder
	for i := 0; i < 6; i++ {
		body.WriteString("<p>" + para + "</p>\n")
	}
	return `<!DOCTYPE html>
<html lang="es">
<head>
    <title>Nuevo plan de acogida en Canarias</title>
    <meta property="og:title" content="Nuevo plan de acogida en Canarias">
    <meta property="article:published_time" content="2023-05-01T10:00:00+02:00">
</head>
<body>
    <header><nav><a href="/">Portada</a></nav></header>
    <article>
        <h1>Nuevo plan de acogida en Canarias</h1>
        ` + body.String() + `
    </article>
    <footer>Todos los derechos reservados</footer>
</body>
</html>`
}

func TestReadabilityExtractor(t *testing.T) {
	e := NewReadabilityExtractor("es", testLogger)
	a, err := e.Extract(makeResp("https://diario.example/canarias/plan.html", articleHTML()))
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if a.Title != "Nuevo plan de acogida en Canarias" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if !strings.Contains(a.Text, "salvamento marítimo") {
		t.Errorf("main text missing from extraction: %q", a.Text)
	}
	if a.Date != "2023-05-01T10:00:00+02:00" {
		t.Errorf("unexpected date %q", a.Date)
	}
}

func TestPageLanguage(t *testing.T) {
	resp := makeResp("https://diario.example/a.html", `<html lang="es-ES"><body><p>Hola</p></body></html>`)
	if got := PageLanguage(resp); got != "es-es" {
		t.Errorf("expected es-es, got %q", got)
	}
	if !MatchesLanguage(PageLanguage(resp), "es") {
		t.Error("es-ES should match the es hint")
	}
	if MatchesLanguage("ca", "es") {
		t.Error("ca should not match es")
	}
	if got := PageLanguage(makeResp("https://diario.example/b.html", "<html><body></body></html>")); got != "" {
		t.Errorf("expected no language, got %q", got)
	}
}

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor("", "es", testLogger)
	if err != nil || e.Name() != ExtractorReadability {
		t.Errorf("default extractor should be readability, got %v, %v", e, err)
	}
	e, err = NewExtractor("trafilatura", "es", testLogger)
	if err != nil || e.Name() != ExtractorTrafilatura {
		t.Errorf("expected trafilatura, got %v, %v", e, err)
	}
	if _, err := NewExtractor("newspaper", "es", testLogger); err == nil {
		t.Error("expected error for unknown extractor")
	}
}

func TestLanguageDetector(t *testing.T) {
	d := NewLanguageDetector()
	lang, ok := d.Detect("Los solicitantes de asilo esperan durante meses una respuesta de la administración.")
	if !ok || lang != "es" {
		t.Errorf("expected es, got %q (ok=%v)", lang, ok)
	}
}
