package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// Integrity summarizes the referential state of the two tables.
type Integrity struct {
	Links   int `db:"links"`
	Content int `db:"content"`
	// ContentWithoutLink counts content ids absent from links.
	ContentWithoutLink int `db:"content_without_link"`
	// LinksWithoutContent counts links that have no content row.
	LinksWithoutContent int `db:"links_without_content"`
}

// OK reports whether every content row references an existing link.
func (i Integrity) OK() bool {
	return i.ContentWithoutLink == 0
}

// CheckIntegrity counts rows and orphans in both directions.
func (s *Store) CheckIntegrity(ctx context.Context) (Integrity, error) {
	var in Integrity
	err := s.db.GetContext(ctx, &in, `
		SELECT
			(SELECT COUNT(*) FROM links) AS links,
			(SELECT COUNT(*) FROM content) AS content,
			(SELECT COUNT(*) FROM content WHERE id NOT IN (SELECT id FROM links)) AS content_without_link,
			(SELECT COUNT(*) FROM links WHERE id NOT IN (SELECT id FROM content)) AS links_without_content`)
	if err != nil {
		return in, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("check integrity: %w", err)}
	}
	return in, nil
}

// Articles returns every content row joined with its link, ordered by id.
// Clean columns read as empty until the normalizer has run.
func (s *Store) Articles(ctx context.Context) ([]types.Article, error) {
	cols := []string{
		"content.id AS id",
		"links.newspaper AS newspaper",
		"links.url AS url",
		"COALESCE(content.title, '') AS title",
		"COALESCE(content.publish_date, '') AS publish_date",
		"COALESCE(content.text, '') AS text",
	}
	for _, c := range []string{ColumnCleanTitle, ColumnCleanText} {
		has, err := HasColumn(ctx, s.db, "content", c)
		if err != nil {
			return nil, err
		}
		if has {
			cols = append(cols, fmt.Sprintf("COALESCE(content.%s, '') AS %s", c, c))
		} else {
			cols = append(cols, fmt.Sprintf("'' AS %s", c))
		}
	}

	query := "SELECT " + strings.Join(cols, ", ") +
		" FROM content JOIN links ON content.id = links.id ORDER BY content.id"

	var articles []types.Article
	if err := s.db.SelectContext(ctx, &articles, query); err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("select articles: %w", err)}
	}
	return articles, nil
}
