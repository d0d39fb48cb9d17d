// Package validate checks pipeline outputs for missing fields, duplicates
// and referential integrity. It never modifies what it inspects.
package validate

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/IshaanNene/presscorpus/internal/storage"
	"github.com/IshaanNene/presscorpus/internal/store"
	"github.com/IshaanNene/presscorpus/internal/types"
)

// LinksReport is the result of checking a links CSV.
type LinksReport struct {
	Total      int
	Unique     int
	Missing    []types.LinkRow
	Duplicates []types.LinkRow
}

// OK reports whether no problems were found.
func (r LinksReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Duplicates) == 0
}

// ContentReport is the result of checking a content CSV.
type ContentReport struct {
	Total      int
	Unique     int
	Duplicates []types.ContentRow
	NoTitle    int
	NoDate     int
	NoText     int
}

// OK reports whether no duplicate URLs were found.
func (r ContentReport) OK() bool {
	return len(r.Duplicates) == 0
}

// CheckLinks reports rows with an empty field and rows repeating an earlier
// link.
func CheckLinks(rows []types.LinkRow) LinksReport {
	rep := LinksReport{Total: len(rows)}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Newspaper) == "" || strings.TrimSpace(r.URL) == "" {
			rep.Missing = append(rep.Missing, r)
		}
		if seen[r.URL] {
			rep.Duplicates = append(rep.Duplicates, r)
			continue
		}
		seen[r.URL] = true
	}
	rep.Unique = len(seen)
	return rep
}

// CheckLinksCSV reads and checks the links CSV at path.
func CheckLinksCSV(path string) (LinksReport, error) {
	rows, err := storage.ReadLinksFile(path)
	if err != nil {
		return LinksReport{}, err
	}
	return CheckLinks(rows), nil
}

// CheckContent reports rows repeating an earlier URL and counts empty
// fields.
func CheckContent(rows []types.ContentRow) ContentReport {
	rep := ContentReport{Total: len(rows)}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Title == "" {
			rep.NoTitle++
		}
		if r.Date == "" {
			rep.NoDate++
		}
		if strings.TrimSpace(r.Text) == "" {
			rep.NoText++
		}
		if seen[r.URL] {
			rep.Duplicates = append(rep.Duplicates, r)
			continue
		}
		seen[r.URL] = true
	}
	rep.Unique = len(seen)
	return rep
}

// CheckContentCSV reads and checks the content CSV at path.
func CheckContentCSV(path string) (ContentReport, error) {
	rows, err := storage.ReadContentFile(path)
	if err != nil {
		return ContentReport{}, err
	}
	return CheckContent(rows), nil
}

// WriteLinks renders a links report.
func WriteLinks(w io.Writer, rep LinksReport) {
	t := newTable(w, "Links CSV")
	t.AppendRows([]table.Row{
		{"Total links", rep.Total},
		{"Unique links", rep.Unique},
		{"Rows with missing data", len(rep.Missing)},
		{"Duplicate links", len(rep.Duplicates)},
	})
	t.Render()

	if len(rep.Missing) > 0 {
		writeLinkRows(w, "Missing data", rep.Missing)
	}
	if len(rep.Duplicates) > 0 {
		writeLinkRows(w, "Duplicate links", rep.Duplicates)
	}
}

// WriteContent renders a content report.
func WriteContent(w io.Writer, rep ContentReport) {
	t := newTable(w, "Content CSV")
	t.AppendRows([]table.Row{
		{"Total rows", rep.Total},
		{"Unique URLs", rep.Unique},
		{"Duplicate URLs", len(rep.Duplicates)},
		{"Without title", rep.NoTitle},
		{"Without date", rep.NoDate},
		{"Without text", rep.NoText},
	})
	t.Render()

	if len(rep.Duplicates) > 0 {
		dt := newTable(w, "Duplicate URLs")
		dt.AppendHeader(table.Row{"ID", "Newspaper", "URL"})
		for _, r := range rep.Duplicates {
			dt.AppendRow(table.Row{r.ID, r.Newspaper, r.URL})
		}
		dt.Render()
	}
}

// WriteIntegrity renders store integrity counts.
func WriteIntegrity(w io.Writer, in store.Integrity) {
	t := newTable(w, "Database")
	status := "ok"
	if !in.OK() {
		status = fmt.Sprintf("%d content rows without link", in.ContentWithoutLink)
	}
	t.AppendRows([]table.Row{
		{"Links", in.Links},
		{"Content", in.Content},
		{"Content without link", in.ContentWithoutLink},
		{"Links without content", in.LinksWithoutContent},
		{"Referential integrity", status},
	})
	t.Render()
}

func writeLinkRows(w io.Writer, title string, rows []types.LinkRow) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"ID", "Newspaper", "Link"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.ID, r.Newspaper, r.URL})
	}
	t.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}
