package textnorm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/IshaanNene/presscorpus/internal/store"
	"github.com/IshaanNene/presscorpus/internal/types"
)

type contentText struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
	Text  string `db:"text"`
}

// Apply writes clean_title and clean_text for every content row in a single
// transaction, adding the columns when missing. It returns the number of
// rows updated.
func Apply(ctx context.Context, s *store.Store, n *Normalizer, logger *slog.Logger) (int, error) {
	logger = logger.With("component", "textnorm")

	var rows []contentText
	err := s.DB().SelectContext(ctx, &rows,
		"SELECT id, COALESCE(title, '') AS title, COALESCE(text, '') AS text FROM content ORDER BY id")
	if err != nil {
		return 0, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("fetch content: %w", err)}
	}

	updated := 0
	err = s.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, col := range []string{store.ColumnCleanText, store.ColumnCleanTitle} {
			if _, err := store.EnsureColumn(ctx, tx, "content", col, "TEXT"); err != nil {
				return err
			}
		}

		stmt, err := tx.PreparexContext(ctx, "UPDATE content SET clean_text = ?, clean_title = ? WHERE id = ?")
		if err != nil {
			return fmt.Errorf("prepare update: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, n.Clean(r.Text), n.Clean(r.Title), r.ID); err != nil {
				return fmt.Errorf("update content %d: %w", r.ID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("normalize content: %w", err)}
	}

	logger.Info("clean columns updated", "rows", updated)
	return updated, nil
}
