package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/presscorpus/internal/types"
)

const sitesJSON = `{
    "ElPais": {
        "base_url": "https://elpais.com",
        "pagination_pattern": "/noticias/inmigracion/{page_number}/",
        "article_link_selector": "h2 a"
    },
    "ABC": {
        "base_url": "https://www.abc.es",
        "pagination_pattern": "/espana/pagina-{page}.html",
        "article_link_selector": "//article//a",
        "selector_type": "XPath",
        "start_page": 2,
        "end_page": 4
    }
}`

func TestParseSitesMappingKeepsOrderAndCase(t *testing.T) {
	sites, err := ParseSites([]byte(sitesJSON), 30)
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "ElPais", sites[0].Name)
	assert.Equal(t, "ABC", sites[1].Name)

	assert.Equal(t, "h2 a", sites[0].ArticleLinkSelector)
	assert.Equal(t, SelectorCSS, sites[0].SelectorType)
	assert.Equal(t, 1, sites[0].StartPage)
	assert.Equal(t, 30, sites[0].EndPage)

	assert.Equal(t, SelectorXPath, sites[1].SelectorType)
	assert.Equal(t, 2, sites[1].StartPage)
	assert.Equal(t, 4, sites[1].EndPage)
	assert.Equal(t, 3, sites[1].Pages())
}

func TestParseSitesList(t *testing.T) {
	data := `
- name: diario
  base_url: https://diario.example
- name: gaceta
  base_url: https://gaceta.example
  pagination_pattern: "?p={page}"
  end_page: 3
`
	sites, err := ParseSites([]byte(data), 10)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "diario", sites[0].Name)
	assert.Equal(t, 10, sites[0].EndPage)
	assert.Equal(t, 1, sites[0].Pages())
	assert.Equal(t, "https://gaceta.example?p=2", sites[1].PageURL(2))
}

func TestPageURL(t *testing.T) {
	s := SiteConfig{BaseURL: "https://elpais.com", PaginationPattern: "/tag/inmigracion/{page_number}/"}
	assert.Equal(t, "https://elpais.com/tag/inmigracion/7/", s.PageURL(7))

	s = SiteConfig{BaseURL: "https://elpais.com/portada"}
	assert.Equal(t, "https://elpais.com/portada", s.PageURL(3))
}

func TestParseSitesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing base_url", `{"a": {"pagination_pattern": "/{page_number}"}}`},
		{"bad scheme", `{"a": {"base_url": "ftp://a.example"}}`},
		{"end before start", `{"a": {"base_url": "https://a.example", "start_page": 5, "end_page": 2}}`},
		{"unknown selector type", `{"a": {"base_url": "https://a.example", "selector_type": "regex"}}`},
		{"pattern without placeholder", `{"a": {"base_url": "https://a.example", "pagination_pattern": "/page/1"}}`},
		{"duplicate names", `[{"name": "a", "base_url": "https://a.example"}, {"name": "a", "base_url": "https://b.example"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSites([]byte(tt.data), 30)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidSite)
		})
	}
}

func TestParseSitesEmpty(t *testing.T) {
	_, err := ParseSites([]byte(`{}`), 30)
	assert.ErrorIs(t, err, ErrNoSites)
}

func TestLoadSitesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.json")
	require.NoError(t, os.WriteFile(path, []byte(sitesJSON), 0o644))

	sites, err := LoadSites(path, 30)
	require.NoError(t, err)
	assert.Len(t, sites, 2)

	_, err = LoadSites(filepath.Join(t.TempDir(), "missing.json"), 30)
	assert.Error(t, err)
}
