package report

import (
	"sort"
	"strings"
	"time"

	"github.com/IshaanNene/presscorpus/internal/outlier"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// NewspaperStats summarizes one newspaper's articles.
type NewspaperStats struct {
	Newspaper string
	Articles  int
	MinWords  int
	MaxWords  int
	MeanWords float64
	Median    float64
	Bounds    outlier.Bounds
	// Outliers counts articles outside Bounds.
	Outliers int
	Undated  int
	First    string
	Last     string
}

// ByNewspaper groups articles and computes per-newspaper word count
// statistics with IQR fences using multiplier k. Results are sorted by
// article count, then name.
func ByNewspaper(articles []types.Article, k float64) []NewspaperStats {
	groups := make(map[string][]types.Article)
	for _, a := range articles {
		groups[a.Newspaper] = append(groups[a.Newspaper], a)
	}

	stats := make([]NewspaperStats, 0, len(groups))
	for name, group := range groups {
		counts := make([]float64, len(group))
		st := NewspaperStats{Newspaper: name, Articles: len(group)}
		total := 0
		for i, a := range group {
			wc := a.WordCount()
			counts[i] = float64(wc)
			total += wc
			if i == 0 || wc < st.MinWords {
				st.MinWords = wc
			}
			if wc > st.MaxWords {
				st.MaxWords = wc
			}

			day := dayOf(a.PublishDate)
			if day == "" {
				st.Undated++
				continue
			}
			if st.First == "" || day < st.First {
				st.First = day
			}
			if day > st.Last {
				st.Last = day
			}
		}
		st.MeanWords = float64(total) / float64(len(group))
		st.Median = outlier.Quantile(counts, 0.5)
		st.Bounds = outlier.ComputeBounds(counts, k)
		for _, c := range counts {
			if !st.Bounds.Contains(c) {
				st.Outliers++
			}
		}
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Articles != stats[j].Articles {
			return stats[i].Articles > stats[j].Articles
		}
		return stats[i].Newspaper < stats[j].Newspaper
	})
	return stats
}

// dayOf returns the YYYY-MM-DD part of an ISO-8601 date, or "" when the
// date is empty or malformed.
func dayOf(date string) string {
	if len(date) < 10 {
		return ""
	}
	day := date[:10]
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return ""
	}
	return day
}

// ArticlesPerDay counts dated articles per day, in chronological order.
func ArticlesPerDay(articles []types.Article) ([]string, []int) {
	counts := make(map[string]int)
	for _, a := range articles {
		if day := dayOf(a.PublishDate); day != "" {
			counts[day]++
		}
	}
	return sortedCounts(counts)
}

// KeywordMentions counts, per year, the articles whose text contains each
// keyword case-insensitively. An article counts once per keyword.
func KeywordMentions(articles []types.Article, keywords []string) ([]string, map[string][]int) {
	perYear := make(map[string]map[string]int)
	for _, a := range articles {
		day := dayOf(a.PublishDate)
		if day == "" {
			continue
		}
		year := day[:4]
		text := strings.ToLower(a.Text)
		for _, kw := range keywords {
			if !strings.Contains(text, strings.ToLower(kw)) {
				continue
			}
			if perYear[year] == nil {
				perYear[year] = make(map[string]int)
			}
			perYear[year][kw]++
		}
	}

	years := make([]string, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	sort.Strings(years)

	series := make(map[string][]int, len(keywords))
	for _, kw := range keywords {
		values := make([]int, len(years))
		for i, y := range years {
			values[i] = perYear[y][kw]
		}
		series[kw] = values
	}
	return years, series
}

func sortedCounts(counts map[string]int) ([]string, []int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]int, len(keys))
	for i, k := range keys {
		values[i] = counts[k]
	}
	return keys, values
}
