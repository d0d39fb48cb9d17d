package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// dateMetaSelectors are checked in order; the first non-empty value wins.
var dateMetaSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[name="pubdate"]`, "content"},
	{`meta[name="DC.date.issued"]`, "content"},
}

// PublishDate returns the raw publish date declared by the page's metadata:
// article:published_time and friends, then JSON-LD datePublished, then the
// first <time datetime>. It returns "" when none is present.
func PublishDate(resp *types.Response) string {
	doc, err := resp.Document()
	if err != nil {
		return ""
	}

	for _, m := range dateMetaSelectors {
		if v, ok := doc.Find(m.selector).First().Attr(m.attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	if v := jsonLDDatePublished(doc); v != "" {
		return v
	}

	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// jsonLDDatePublished scans <script type="application/ld+json"> blocks,
// including arrays and @graph containers.
func jsonLDDatePublished(doc *goquery.Document) string {
	var found string

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}

		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return true
		}
		found = findDatePublished(data)
		return found == ""
	})

	return found
}

func findDatePublished(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t["datePublished"].(string); ok && s != "" {
			return strings.TrimSpace(s)
		}
		if graph, ok := t["@graph"]; ok {
			return findDatePublished(graph)
		}
	case []any:
		for _, el := range t {
			if s := findDatePublished(el); s != "" {
				return s
			}
		}
	}
	return ""
}
