package outlier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/IshaanNene/presscorpus/internal/observability"
	"github.com/IshaanNene/presscorpus/internal/store"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// Options configures a cleaner run.
type Options struct {
	Threshold        float64
	GroupByNewspaper bool
	DryRun           bool
}

// Report summarizes one cleaner run.
type Report struct {
	Rows           int
	Outliers       []int
	Bounds         map[string]Bounds
	ContentDeleted int64
	LinksDeleted   int64
	DryRun         bool
}

// Cleaner flags word-count outliers in the content table and removes them,
// together with every link left without content, in a single transaction.
type Cleaner struct {
	store   *store.Store
	opts    Options
	metrics *observability.Metrics
	logger  *slog.Logger

	// betweenDeletes runs after content rows are deleted and before links
	// are. A non-nil error aborts the transaction.
	betweenDeletes func() error
}

// New creates a Cleaner. metrics may be nil.
func New(s *store.Store, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Cleaner {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Cleaner{
		store:   s,
		opts:    opts,
		metrics: metrics,
		logger:  logger.With("component", "outlier"),
	}
}

// Fetch reads every content row joined with its newspaper and derives word
// and character counts.
func Fetch(ctx context.Context, q sqlx.QueryerContext) ([]Row, error) {
	var rows []Row
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT content.id AS id, links.newspaper AS newspaper,
			COALESCE(content.publish_date, '') AS publish_date, COALESCE(content.text, '') AS text
		FROM content JOIN links ON content.id = links.id
		ORDER BY content.id`)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("fetch content: %w", err)}
	}
	for i := range rows {
		rows[i].WordCount = len(strings.Fields(rows[i].Text))
		rows[i].CharCount = utf8.RuneCountInString(rows[i].Text)
	}
	return rows, nil
}

// Run detects outliers and, unless in dry-run mode, persists flags and
// deletes flagged rows. Reads and writes share one transaction, so the rows
// flagged are the rows deleted. On any error nothing is changed.
func (c *Cleaner) Run(ctx context.Context) (*Report, error) {
	var report *Report
	err := c.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := Fetch(ctx, tx)
		if err != nil {
			return err
		}

		det := Detect(rows, c.opts.Threshold, c.opts.GroupByNewspaper)
		report = &Report{
			Rows:     len(rows),
			Outliers: det.Outliers,
			Bounds:   det.Bounds,
			DryRun:   c.opts.DryRun,
		}
		for key, b := range det.Bounds {
			group := key
			if group == "" {
				group = "all"
			}
			c.logger.Info("bounds computed", "group", group, "q1", b.Q1, "q3", b.Q3, "iqr", b.IQR, "lower", b.Lower, "upper", b.Upper)
		}
		c.logger.Info("outliers detected", "rows", len(rows), "outliers", len(det.Outliers))

		if c.opts.DryRun {
			return nil
		}
		return c.remove(ctx, tx, rows, det, report)
	})
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("clean outliers: %w", err)}
	}
	if report.DryRun {
		return report, nil
	}

	if c.metrics != nil {
		c.metrics.OutliersFlagged.Add(int64(len(report.Outliers)))
		c.metrics.ContentDeleted.Add(report.ContentDeleted)
		c.metrics.LinksDeleted.Add(report.LinksDeleted)
	}
	c.logger.Info("outliers removed", "content_deleted", report.ContentDeleted, "links_deleted", report.LinksDeleted)
	return report, nil
}

func (c *Cleaner) remove(ctx context.Context, tx *sqlx.Tx, rows []Row, det Detection, report *Report) error {
	if _, err := store.EnsureColumn(ctx, tx, "content", store.ColumnOutlier, "INTEGER"); err != nil {
		return err
	}

	update, err := tx.PreparexContext(ctx, "UPDATE content SET outlier = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("prepare flag update: %w", err)
	}
	defer update.Close()

	for _, r := range rows {
		flag := 0
		if det.Flags[r.ID] {
			flag = 1
		}
		if _, err := update.ExecContext(ctx, flag, r.ID); err != nil {
			return fmt.Errorf("flag content %d: %w", r.ID, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM content WHERE outlier = 1")
	if err != nil {
		return fmt.Errorf("delete outlier content: %w", err)
	}
	report.ContentDeleted, _ = res.RowsAffected()

	if c.betweenDeletes != nil {
		if err := c.betweenDeletes(); err != nil {
			return err
		}
	}

	res, err = tx.ExecContext(ctx, "DELETE FROM links WHERE id NOT IN (SELECT id FROM content)")
	if err != nil {
		return fmt.Errorf("delete orphaned links: %w", err)
	}
	report.LinksDeleted, _ = res.RowsAffected()
	return nil
}
