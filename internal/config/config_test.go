package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, DefaultUserAgent, cfg.Fetcher.UserAgent)
	assert.Equal(t, 1.5, cfg.Cleaner.Threshold)
	assert.Equal(t, "es", cfg.Scrape.Language)
	assert.Equal(t, 30, cfg.Crawl.MaxPages)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fetcher type", func(c *Config) { c.Fetcher.Type = "ftp" }},
		{"timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"max pages", func(c *Config) { c.Crawl.MaxPages = 0 }},
		{"extractor", func(c *Config) { c.Scrape.Extractor = "newspaper" }},
		{"language", func(c *Config) { c.Scrape.Language = "spanish" }},
		{"threshold", func(c *Config) { c.Cleaner.Threshold = -1 }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presscorpus.yaml")
	content := `
fetcher:
  request_timeout: 5s
cleaner:
  threshold: 3
scrape:
  extractor: trafilatura
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("PRESSCORPUS_STORE_PATH", filepath.Join(dir, "corpus.db"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Fetcher.RequestTimeout)
	assert.Equal(t, 3.0, cfg.Cleaner.Threshold)
	assert.Equal(t, "trafilatura", cfg.Scrape.Extractor)
	assert.Equal(t, filepath.Join(dir, "corpus.db"), cfg.Store.Path)
	// untouched keys keep their defaults
	assert.Equal(t, "es", cfg.Scrape.Language)
	assert.Equal(t, DefaultUserAgent, cfg.Fetcher.UserAgent)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://elpais.com/noticias"))
	assert.Error(t, ValidateURL("mailto:someone@example.com"))
	assert.Error(t, ValidateURL("https://"))
}
