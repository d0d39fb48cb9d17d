package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// Pagination placeholders. PagePlaceholder is the canonical form.
const (
	PagePlaceholder      = "{page_number}"
	PagePlaceholderAlias = "{page}"
)

// Site defaults.
const (
	DefaultSelector     = "a"
	DefaultSelectorType = SelectorCSS
	DefaultStartPage    = 1
	DefaultEndPage      = 30
)

// Selector types.
const (
	SelectorCSS   = "css"
	SelectorXPath = "xpath"
)

// ErrNoSites is returned when a sites file defines no sites.
var ErrNoSites = errors.New("no sites found in sites file")

// SiteConfig describes one news outlet's paginated listing.
type SiteConfig struct {
	Name                string `yaml:"name"`
	BaseURL             string `yaml:"base_url"`
	PaginationPattern   string `yaml:"pagination_pattern"`
	ArticleLinkSelector string `yaml:"article_link_selector"`
	SelectorType        string `yaml:"selector_type"`
	StartPage           int    `yaml:"start_page"`
	EndPage             int    `yaml:"end_page"`
}

// PageURL returns the raw (unencoded) listing URL for the given page.
func (s SiteConfig) PageURL(page int) string {
	if s.PaginationPattern == "" {
		return s.BaseURL
	}
	n := strconv.Itoa(page)
	path := strings.ReplaceAll(s.PaginationPattern, PagePlaceholder, n)
	path = strings.ReplaceAll(path, PagePlaceholderAlias, n)
	return s.BaseURL + path
}

// Pages returns the number of listing pages configured for the site.
func (s SiteConfig) Pages() int {
	if s.PaginationPattern == "" {
		return 1
	}
	return s.EndPage - s.StartPage + 1
}

// applyDefaults fills unset fields. maxPages is the default end page.
func (s *SiteConfig) applyDefaults(maxPages int) {
	if s.ArticleLinkSelector == "" {
		s.ArticleLinkSelector = DefaultSelector
	}
	if s.SelectorType == "" {
		s.SelectorType = DefaultSelectorType
	}
	s.SelectorType = strings.ToLower(s.SelectorType)
	if s.StartPage == 0 {
		s.StartPage = DefaultStartPage
	}
	if s.EndPage == 0 {
		if maxPages <= 0 {
			maxPages = DefaultEndPage
		}
		s.EndPage = maxPages
	}
}

// Validate checks a single site record.
func (s SiteConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: site name is required", types.ErrInvalidSite)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("%w: %s: base_url is required", types.ErrInvalidSite, s.Name)
	}
	if err := ValidateURL(s.BaseURL); err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrInvalidSite, s.Name, err)
	}
	if s.StartPage < 1 {
		return fmt.Errorf("%w: %s: start_page must be >= 1, got %d", types.ErrInvalidSite, s.Name, s.StartPage)
	}
	if s.EndPage < s.StartPage {
		return fmt.Errorf("%w: %s: end_page %d is before start_page %d", types.ErrInvalidSite, s.Name, s.EndPage, s.StartPage)
	}
	if s.SelectorType != SelectorCSS && s.SelectorType != SelectorXPath {
		return fmt.Errorf("%w: %s: selector_type must be 'css' or 'xpath', got %q", types.ErrInvalidSite, s.Name, s.SelectorType)
	}
	if s.PaginationPattern != "" &&
		!strings.Contains(s.PaginationPattern, PagePlaceholder) &&
		!strings.Contains(s.PaginationPattern, PagePlaceholderAlias) {
		return fmt.Errorf("%w: %s: pagination_pattern %q has no %s placeholder",
			types.ErrInvalidSite, s.Name, s.PaginationPattern, PagePlaceholder)
	}
	return nil
}

// ValidateSites validates every site and rejects duplicate names.
func ValidateSites(sites []SiteConfig) error {
	if len(sites) == 0 {
		return ErrNoSites
	}
	seen := make(map[string]bool, len(sites))
	for _, s := range sites {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate site name %q", types.ErrInvalidSite, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// LoadSites reads a JSON or YAML sites file. The file is either a mapping of
// site name to record or a list of records with a name field. File order is
// kept. maxPages is the end page used when a site omits end_page.
func LoadSites(path string, maxPages int) ([]SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}
	return ParseSites(data, maxPages)
}

// ParseSites decodes sites from JSON or YAML bytes. See LoadSites.
func ParseSites(data []byte, maxPages int) ([]SiteConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sites file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNoSites
	}

	root := doc.Content[0]
	var sites []SiteConfig

	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			var site SiteConfig
			if err := root.Content[i+1].Decode(&site); err != nil {
				return nil, fmt.Errorf("failed to decode site %q: %w", root.Content[i].Value, err)
			}
			site.Name = root.Content[i].Value
			sites = append(sites, site)
		}
	case yaml.SequenceNode:
		if err := root.Decode(&sites); err != nil {
			return nil, fmt.Errorf("failed to decode sites list: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: sites file must be a mapping or a list", types.ErrInvalidSite)
	}

	for i := range sites {
		sites[i].applyDefaults(maxPages)
	}
	if err := ValidateSites(sites); err != nil {
		return nil, err
	}
	return sites, nil
}
