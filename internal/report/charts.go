package report

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/IshaanNene/presscorpus/internal/textnorm"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// Chart file names written into the report directory.
const (
	FileContribution = "newspaper_contribution.html"
	FileDates        = "publication_dates.html"
	FileBoxplot      = "word_count_boxplot.html"
	FileWordCloud    = "wordcloud.html"
	FileKeywords     = "keyword_mentions.html"
)

func titleOpts(title, subtitle string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle})
}

func tooltipOpts() charts.GlobalOpts {
	return charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"})
}

func contributionChart(stats []NewspaperStats, total int) *charts.Bar {
	names := make([]string, 0, len(stats))
	values := make([]opts.BarData, 0, len(stats))
	for _, st := range stats {
		names = append(names, st.Newspaper)
		values = append(values, opts.BarData{
			Value: st.Articles,
			Label: &opts.Label{Show: opts.Bool(true), Position: "top"},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		titleOpts("Articles per newspaper", fmt.Sprintf("%d articles", total)),
		tooltipOpts(),
	)
	bar.SetXAxis(names).AddSeries("Articles", values)
	return bar
}

func datesChart(articles []types.Article) *charts.Line {
	days, counts := ArticlesPerDay(articles)
	values := make([]opts.LineData, len(counts))
	for i, c := range counts {
		values[i] = opts.LineData{Value: c}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		titleOpts("Articles per publication day", ""),
		tooltipOpts(),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(days).AddSeries("Articles", values)
	return line
}

func boxplotChart(stats []NewspaperStats, articles []types.Article) *charts.BoxPlot {
	counts := make(map[string][]float64)
	for _, a := range articles {
		counts[a.Newspaper] = append(counts[a.Newspaper], float64(a.WordCount()))
	}

	names := make([]string, 0, len(stats))
	values := make([]opts.BoxPlotData, 0, len(stats))
	for _, st := range stats {
		// whiskers are clamped to the fences
		lower := st.Bounds.Lower
		if float64(st.MinWords) > lower {
			lower = float64(st.MinWords)
		}
		upper := st.Bounds.Upper
		if float64(st.MaxWords) < upper {
			upper = float64(st.MaxWords)
		}
		names = append(names, st.Newspaper)
		values = append(values, opts.BoxPlotData{
			Name:  st.Newspaper,
			Value: []float64{lower, st.Bounds.Q1, st.Median, st.Bounds.Q3, upper},
		})
	}

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		titleOpts("Word count per newspaper", "whiskers at Q1-k*IQR and Q3+k*IQR"),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	box.SetXAxis(names).AddSeries("Word count", values)
	return box
}

func wordCloudChart(words []textnorm.WordFreq) *charts.WordCloud {
	values := make([]opts.WordCloudData, len(words))
	for i, w := range words {
		values[i] = opts.WordCloudData{Name: w.Word, Value: w.Count}
	}

	wc := charts.NewWordCloud()
	wc.SetGlobalOptions(titleOpts("Most frequent words", fmt.Sprintf("top %d", len(words))))
	wc.AddSeries("Words", values,
		charts.WithWorldCloudChartOpts(opts.WordCloudChart{
			SizeRange: []float32{12, 80},
			Shape:     "circle",
		}),
	)
	return wc
}

func keywordChart(articles []types.Article, keywords []string) *charts.Line {
	years, series := KeywordMentions(articles, keywords)

	line := charts.NewLine()
	line.SetGlobalOptions(
		titleOpts("Keyword mentions per year", ""),
		tooltipOpts(),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	line.SetXAxis(years)
	for _, kw := range keywords {
		values := make([]opts.LineData, len(series[kw]))
		for i, c := range series[kw] {
			values[i] = opts.LineData{Value: c}
		}
		line.AddSeries(kw, values)
	}
	return line
}
