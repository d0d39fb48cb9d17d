// Package report renders descriptive charts and summary tables from the
// article database.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/IshaanNene/presscorpus/internal/outlier"
	"github.com/IshaanNene/presscorpus/internal/textnorm"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// DefaultKeywords are tracked when no keywords are configured.
var DefaultKeywords = []string{"inmigrantes", "refugiados", "asilo", "racismo"}

// Options configures a Reporter.
type Options struct {
	OutputDir string
	Keywords  []string
	TopWords  int
	// Threshold is the IQR multiplier for boxplot fences.
	Threshold float64
}

// Reporter writes chart pages and summary tables.
type Reporter struct {
	opts       Options
	normalizer *textnorm.Normalizer
	logger     *slog.Logger
}

// New creates a Reporter. The normalizer supplies stopwords for the word
// cloud.
func New(o Options, n *textnorm.Normalizer, logger *slog.Logger) *Reporter {
	if len(o.Keywords) == 0 {
		o.Keywords = DefaultKeywords
	}
	if o.TopWords <= 0 {
		o.TopWords = 150
	}
	if o.Threshold <= 0 {
		o.Threshold = outlier.DefaultThreshold
	}
	return &Reporter{
		opts:       o,
		normalizer: n,
		logger:     logger.With("component", "report"),
	}
}

// Generate writes every chart page into the output directory and returns
// the written paths.
func (r *Reporter) Generate(articles []types.Article) ([]string, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	stats := ByNewspaper(articles, r.opts.Threshold)

	pages := []struct {
		file  string
		chart components.Charter
	}{
		{FileContribution, contributionChart(stats, len(articles))},
		{FileDates, datesChart(articles)},
		{FileBoxplot, boxplotChart(stats, articles)},
		{FileWordCloud, wordCloudChart(r.normalizer.TopWords(wordSources(articles), r.opts.TopWords))},
		{FileKeywords, keywordChart(articles, r.opts.Keywords)},
	}

	written := make([]string, 0, len(pages))
	for _, p := range pages {
		path := filepath.Join(r.opts.OutputDir, p.file)
		if err := renderPage(path, p.chart); err != nil {
			return written, err
		}
		r.logger.Debug("chart written", "path", path)
		written = append(written, path)
	}

	r.logger.Info("report generated", "dir", r.opts.OutputDir, "charts", len(written), "articles", len(articles))
	return written, nil
}

// wordSources prefers clean_text and falls back to the raw text.
func wordSources(articles []types.Article) []string {
	texts := make([]string, len(articles))
	for i, a := range articles {
		if a.CleanText != "" {
			texts[i] = a.CleanText
		} else {
			texts[i] = a.Text
		}
	}
	return texts
}

func renderPage(path string, chart components.Charter) error {
	page := components.NewPage()
	page.AddCharts(chart)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeAndClose(f, func(w io.Writer) error { return page.Render(w) }); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// writeAndClose runs write against wc and always closes it. The close error
// is returned when write succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

// WriteSummary prints the per-newspaper table and the keyword table.
func (r *Reporter) WriteSummary(w io.Writer, articles []types.Article) {
	stats := ByNewspaper(articles, r.opts.Threshold)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Articles per newspaper")
	t.AppendHeader(table.Row{"Newspaper", "Articles", "Share", "Min", "Median", "Mean", "Max", "Lower", "Upper", "Outliers", "Undated", "First", "Last"})
	for _, st := range stats {
		share := float64(st.Articles) / float64(len(articles)) * 100
		t.AppendRow(table.Row{
			st.Newspaper, st.Articles, fmt.Sprintf("%.1f%%", share), st.MinWords,
			fmt.Sprintf("%.1f", st.Median), fmt.Sprintf("%.1f", st.MeanWords), st.MaxWords,
			fmt.Sprintf("%.1f", st.Bounds.Lower), fmt.Sprintf("%.1f", st.Bounds.Upper),
			st.Outliers, st.Undated, st.First, st.Last,
		})
	}
	t.AppendFooter(table.Row{"Total", len(articles)})
	t.SetStyle(table.StyleLight)
	t.Render()

	years, series := KeywordMentions(articles, r.opts.Keywords)
	if len(years) == 0 {
		return
	}
	kt := table.NewWriter()
	kt.SetOutputMirror(w)
	kt.SetTitle("Keyword mentions per year")
	header := table.Row{"Keyword"}
	for _, y := range years {
		header = append(header, y)
	}
	kt.AppendHeader(header)
	for _, kw := range r.opts.Keywords {
		row := table.Row{kw}
		for _, c := range series[kw] {
			row = append(row, c)
		}
		kt.AppendRow(row)
	}
	kt.SetStyle(table.StyleLight)
	kt.Render()
}
