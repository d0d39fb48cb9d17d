package outlier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/presscorpus/internal/observability"
	"github.com/IshaanNene/presscorpus/internal/store"
	"github.com/IshaanNene/presscorpus/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var sampleCounts = []int{10, 12, 11, 13, 9, 500}

func TestQuantileLinear(t *testing.T) {
	values := []float64{10, 12, 11, 13, 9, 500}

	assert.InDelta(t, 10.25, Quantile(values, 0.25), 1e-9)
	assert.InDelta(t, 12.75, Quantile(values, 0.75), 1e-9)
	assert.InDelta(t, 11.5, Quantile(values, 0.5), 1e-9)
	assert.Equal(t, 9.0, Quantile(values, 0))
	assert.Equal(t, 500.0, Quantile(values, 1))
	assert.True(t, Quantile(nil, 0.5) != Quantile(nil, 0.5), "empty input is NaN")

	// input is not reordered
	assert.Equal(t, []float64{10, 12, 11, 13, 9, 500}, values)
}

func TestComputeBounds(t *testing.T) {
	b := ComputeBounds([]float64{10, 12, 11, 13, 9, 500}, 1.5)

	assert.InDelta(t, 10.25, b.Q1, 1e-9)
	assert.InDelta(t, 12.75, b.Q3, 1e-9)
	assert.InDelta(t, 2.5, b.IQR, 1e-9)
	assert.InDelta(t, 6.5, b.Lower, 1e-9)
	assert.InDelta(t, 16.5, b.Upper, 1e-9)
	assert.True(t, b.Contains(16.5))
	assert.False(t, b.Contains(500))
}

func sampleRows() []Row {
	rows := make([]Row, len(sampleCounts))
	for i, n := range sampleCounts {
		rows[i] = Row{ID: i + 1, Newspaper: "ElPais", WordCount: n}
	}
	return rows
}

func TestDetectFlagsOnlyExtreme(t *testing.T) {
	det := Detect(sampleRows(), 1.5, false)

	assert.Equal(t, []int{6}, det.Outliers)
	assert.Len(t, det.Flags, 6)
	assert.True(t, det.Flags[6])
	assert.False(t, det.Flags[1])
	assert.Contains(t, det.Bounds, "")
}

func TestDetectDeterministic(t *testing.T) {
	first := Detect(sampleRows(), 1.5, false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Detect(sampleRows(), 1.5, false))
	}
}

func TestDetectByNewspaper(t *testing.T) {
	rows := sampleRows()
	// A second paper whose articles are all long: global fences would flag
	// them, per-paper fences do not.
	for i, n := range []int{400, 410, 420, 430} {
		rows = append(rows, Row{ID: 100 + i, Newspaper: "ABC", WordCount: n})
	}

	det := Detect(rows, 1.5, true)
	assert.Equal(t, []int{6}, det.Outliers)
	assert.Len(t, det.Bounds, 2)
	assert.InDelta(t, 16.5, det.Bounds["ElPais"].Upper, 1e-9)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("palabra ", n))
}

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var links []types.LinkRow
	var content []types.ContentRow
	for i, n := range sampleCounts {
		url := fmt.Sprintf("https://elpais.com/%d.html", i+1)
		links = append(links, types.LinkRow{ID: i + 1, Newspaper: "ElPais", URL: url})
		content = append(content, types.ContentRow{URL: url, Title: "t", Text: words(n)})
	}
	// a link whose scrape failed
	links = append(links, types.LinkRow{ID: 7, Newspaper: "ElPais", URL: "https://elpais.com/failed.html"})

	_, err = s.Populate(context.Background(), links, content)
	require.NoError(t, err)
	return s
}

func tableCount(t *testing.T, s *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestCleanerRemovesOutliers(t *testing.T) {
	s := seedStore(t)
	metrics := observability.NewMetrics(testLogger)

	report, err := New(s, Options{Threshold: 1.5}, metrics, testLogger).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.Rows)
	assert.Equal(t, []int{6}, report.Outliers)
	assert.EqualValues(t, 1, report.ContentDeleted)
	assert.EqualValues(t, 2, report.LinksDeleted)

	assert.Equal(t, 5, tableCount(t, s, "content"))
	assert.Equal(t, 5, tableCount(t, s, "links"))

	var flagged int
	require.NoError(t, s.DB().Get(&flagged, "SELECT COUNT(*) FROM content WHERE outlier = 1"))
	assert.Zero(t, flagged)

	in, err := s.CheckIntegrity(context.Background())
	require.NoError(t, err)
	assert.True(t, in.OK())
	assert.Zero(t, in.LinksWithoutContent)

	assert.EqualValues(t, 1, metrics.OutliersFlagged.Load())
	assert.EqualValues(t, 2, metrics.LinksDeleted.Load())
}

func TestFetchInsideTransactionSeesPendingRows(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	var rows []Row
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO content (id, title, publish_date, text) VALUES (7, 't', '2024-03-01T00:00:00Z', 'uno dos tres')`); err != nil {
			return err
		}
		var err error
		rows, err = Fetch(ctx, tx)
		if err != nil {
			return err
		}
		return types.ErrInjectedFailure
	})
	require.ErrorIs(t, err, types.ErrInjectedFailure)

	require.Len(t, rows, 7)
	last := rows[6]
	assert.Equal(t, 7, last.ID)
	assert.Equal(t, "ElPais", last.Newspaper)
	assert.Equal(t, "2024-03-01T00:00:00Z", last.PublishDate)
	assert.Equal(t, 3, last.WordCount)
	assert.Empty(t, rows[0].PublishDate)

	assert.Equal(t, 6, tableCount(t, s, "content"))
}

func TestCleanerRerunIsNoop(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	_, err := New(s, Options{}, nil, testLogger).Run(ctx)
	require.NoError(t, err)

	report, err := New(s, Options{}, nil, testLogger).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Outliers)
	assert.Zero(t, report.ContentDeleted)
	assert.Zero(t, report.LinksDeleted)
}

func TestCleanerDryRun(t *testing.T) {
	s := seedStore(t)

	report, err := New(s, Options{Threshold: 1.5, DryRun: true}, nil, testLogger).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, []int{6}, report.Outliers)

	assert.Equal(t, 6, tableCount(t, s, "content"))
	assert.Equal(t, 7, tableCount(t, s, "links"))
	has, err := store.HasColumn(context.Background(), s.DB(), "content", store.ColumnOutlier)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCleanerRollsBackOnFailure(t *testing.T) {
	s := seedStore(t)

	c := New(s, Options{Threshold: 1.5}, nil, testLogger)
	c.betweenDeletes = func() error { return types.ErrInjectedFailure }

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInjectedFailure))

	assert.Equal(t, 6, tableCount(t, s, "content"))
	assert.Equal(t, 7, tableCount(t, s, "links"))

	// the column added inside the aborted transaction is gone too
	has, err := store.HasColumn(context.Background(), s.DB(), "content", store.ColumnOutlier)
	require.NoError(t, err)
	assert.False(t, has)
}
