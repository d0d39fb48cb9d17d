package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Lazily added content columns.
const (
	ColumnOutlier    = "outlier"
	ColumnCleanText  = "clean_text"
	ColumnCleanTitle = "clean_title"
)

type columnInfo struct {
	CID        int     `db:"cid"`
	Name       string  `db:"name"`
	Type       string  `db:"type"`
	NotNull    int     `db:"notnull"`
	Default    *string `db:"dflt_value"`
	PrimaryKey int     `db:"pk"`
}

// Columns lists the column names of table.
func Columns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var cols []columnInfo
	if err := sqlx.SelectContext(ctx, q, &cols, fmt.Sprintf("PRAGMA table_info(%s)", table)); err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// HasColumn reports whether table has column.
func HasColumn(ctx context.Context, q sqlx.QueryerContext, table, column string) (bool, error) {
	cols, err := Columns(ctx, q, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

// EnsureColumn adds column to table unless it already exists. It reports
// whether the column was added. Works inside a transaction.
func EnsureColumn(ctx context.Context, db sqlx.ExtContext, table, column, columnType string) (bool, error) {
	if !identRe.MatchString(column) {
		return false, fmt.Errorf("invalid column name %q", column)
	}
	if !identRe.MatchString(columnType) {
		return false, fmt.Errorf("invalid column type %q", columnType)
	}

	exists, err := HasColumn(ctx, db, table, column)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnType)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return true, nil
}

// EnsureColumn adds column to table on the store's connection.
func (s *Store) EnsureColumn(ctx context.Context, table, column, columnType string) (bool, error) {
	added, err := EnsureColumn(ctx, s.db, table, column, columnType)
	if added {
		s.logger.Info("column added", "table", table, "column", column, "type", columnType)
	}
	return added, err
}
