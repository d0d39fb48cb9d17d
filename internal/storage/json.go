package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// SiteLinksPath returns the per-site links file inside dir.
func SiteLinksPath(dir, site string) string {
	return filepath.Join(dir, site+"_links.json")
}

// WriteSiteLinks writes one site's links as an indented JSON array.
func WriteSiteLinks(dir, site string, links []string) (string, error) {
	if links == nil {
		links = []string{}
	}
	path := SiteLinksPath(dir, site)
	err := writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		return enc.Encode(links)
	})
	if err != nil {
		return "", fmt.Errorf("write %s links: %w", site, err)
	}
	return path, nil
}

// ReadSiteLinks reads a per-site links file.
func ReadSiteLinks(dir, site string) ([]string, error) {
	data, err := os.ReadFile(SiteLinksPath(dir, site))
	if err != nil {
		return nil, err
	}
	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("decode %s links: %w", site, err)
	}
	return links, nil
}

// --- JSONL Storage ---

// JSONLStorage writes articles as newline-delimited JSON (one object per
// line).
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage (streaming writes).
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    enc,
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(ctx context.Context, articles []types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.enc.Encode(a); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "articles", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
