// Package outlier flags and removes articles whose word count falls outside
// the interquartile range fences.
package outlier

import (
	"fmt"
	"math"
	"sort"
)

// DefaultThreshold is the IQR multiplier used when none is configured.
const DefaultThreshold = 1.5

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks. values need not be sorted. It returns NaN for an
// empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	switch {
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*frac
}

// Bounds are the fences of one distribution.
type Bounds struct {
	Q1    float64
	Q3    float64
	IQR   float64
	Lower float64
	Upper float64
}

// Contains reports whether v lies inside the inclusive fences.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

func (b Bounds) String() string {
	return fmt.Sprintf("Q1=%.2f Q3=%.2f IQR=%.2f bounds=[%.2f, %.2f]", b.Q1, b.Q3, b.IQR, b.Lower, b.Upper)
}

// ComputeBounds returns the fences [Q1-k*IQR, Q3+k*IQR] for values.
func ComputeBounds(values []float64, k float64) Bounds {
	if len(values) == 0 {
		return Bounds{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1
	return Bounds{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: q1 - k*iqr,
		Upper: q3 + k*iqr,
	}
}

// Row is one article's derived statistics.
type Row struct {
	ID          int    `db:"id"`
	Newspaper   string `db:"newspaper"`
	PublishDate string `db:"publish_date"`
	Text        string `db:"text"`
	WordCount   int    `db:"-"`
	CharCount   int    `db:"-"`
}

// Detection is the outcome of running Detect over a set of rows.
type Detection struct {
	// Bounds is keyed by newspaper, or by "" for global detection.
	Bounds map[string]Bounds
	// Flags maps every row id to whether it is an outlier.
	Flags map[int]bool
	// Outliers lists flagged ids in ascending order.
	Outliers []int
}

// Detect flags rows whose word count falls outside the fences. With
// byNewspaper the fences are computed per newspaper. Detect does not modify
// rows and always yields the same result for the same input.
func Detect(rows []Row, k float64, byNewspaper bool) Detection {
	groups := make(map[string][]float64)
	for _, r := range rows {
		key := ""
		if byNewspaper {
			key = r.Newspaper
		}
		groups[key] = append(groups[key], float64(r.WordCount))
	}

	det := Detection{
		Bounds: make(map[string]Bounds, len(groups)),
		Flags:  make(map[int]bool, len(rows)),
	}
	for key, values := range groups {
		det.Bounds[key] = ComputeBounds(values, k)
	}

	for _, r := range rows {
		key := ""
		if byNewspaper {
			key = r.Newspaper
		}
		out := !det.Bounds[key].Contains(float64(r.WordCount))
		det.Flags[r.ID] = out
		if out {
			det.Outliers = append(det.Outliers, r.ID)
		}
	}
	sort.Ints(det.Outliers)
	return det
}
