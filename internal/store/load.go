package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// LoadStats counts what happened to each input row of a load.
type LoadStats struct {
	Inserted int
	Ignored  int
	// Orphaned counts content rows whose URL is not in links.
	Orphaned int
	Failed   int
}

// LoadLinks inserts (newspaper, url) pairs. URLs already present are
// ignored, so loading the same rows twice leaves the table unchanged.
func (s *Store) LoadLinks(ctx context.Context, rows []types.LinkRow) (LoadStats, error) {
	var stats LoadStats

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, "INSERT OR IGNORE INTO links (newspaper, url) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("prepare link insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx, r.Newspaper, r.URL)
			if err != nil {
				stats.Failed++
				s.logger.Error("link insert failed", "url", r.URL, "error", err)
				continue
			}
			if n, _ := res.RowsAffected(); n > 0 {
				stats.Inserted++
			} else {
				stats.Ignored++
			}
		}
		return nil
	})
	if err != nil {
		return stats, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("load links: %w", err)}
	}

	s.logger.Info("links loaded", "inserted", stats.Inserted, "ignored", stats.Ignored, "failed", stats.Failed)
	return stats, nil
}

// LoadContent inserts content rows keyed by the id of their URL in links.
// Rows whose URL is unknown are skipped and logged.
func (s *Store) LoadContent(ctx context.Context, rows []types.ContentRow) (LoadStats, error) {
	var stats LoadStats

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		lookup, err := tx.PreparexContext(ctx, "SELECT id FROM links WHERE url = ?")
		if err != nil {
			return fmt.Errorf("prepare link lookup: %w", err)
		}
		defer lookup.Close()

		insert, err := tx.PreparexContext(ctx,
			"INSERT OR IGNORE INTO content (id, title, publish_date, text) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare content insert: %w", err)
		}
		defer insert.Close()

		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			var id int64
			if err := lookup.GetContext(ctx, &id, r.URL); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					stats.Orphaned++
					s.logger.Warn("content row has no matching link, skipped", "url", r.URL)
					continue
				}
				stats.Failed++
				s.logger.Error("link lookup failed", "url", r.URL, "error", err)
				continue
			}

			res, err := insert.ExecContext(ctx, id, r.Title, nullable(r.Date), r.Text)
			if err != nil {
				stats.Failed++
				s.logger.Error("content insert failed", "url", r.URL, "id", id, "error", err)
				continue
			}
			if n, _ := res.RowsAffected(); n > 0 {
				stats.Inserted++
			} else {
				stats.Ignored++
			}
		}
		return nil
	})
	if err != nil {
		return stats, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("load content: %w", err)}
	}

	s.logger.Info("content loaded",
		"inserted", stats.Inserted,
		"ignored", stats.Ignored,
		"orphaned", stats.Orphaned,
		"failed", stats.Failed,
	)
	return stats, nil
}

// PopulateStats reports both halves of a Populate.
type PopulateStats struct {
	Links   LoadStats
	Content LoadStats
}

// Populate initializes the schema and loads links, then content.
func (s *Store) Populate(ctx context.Context, links []types.LinkRow, content []types.ContentRow) (PopulateStats, error) {
	var stats PopulateStats

	if err := s.InitializeSchema(ctx); err != nil {
		return stats, err
	}

	var err error
	if stats.Links, err = s.LoadLinks(ctx, links); err != nil {
		return stats, err
	}
	if stats.Content, err = s.LoadContent(ctx, content); err != nil {
		return stats, err
	}
	return stats, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
