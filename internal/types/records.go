package types

import "strings"

// LinkRow is one row of the consolidated links CSV.
type LinkRow struct {
	ID        int
	Newspaper string
	URL       string
}

// ContentRow is one successfully scraped article, keyed by its link id.
type ContentRow struct {
	ID        int
	Newspaper string
	URL       string
	Title     string
	// Date is ISO-8601 or empty when the publish date is unknown.
	Date string
	Text string
}

// Failure records why one URL could not be scraped.
type Failure struct {
	URL   string
	Error string
}

// SiteLinks is the ordered, deduplicated list of article links found for one
// site.
type SiteLinks struct {
	Site  string
	Links []string
}

// Consolidate flattens per-site links into link rows with a dense 1-based id
// sequence spanning all sites in order.
func Consolidate(sites []SiteLinks) []LinkRow {
	var rows []LinkRow
	id := 1
	for _, s := range sites {
		for _, link := range s.Links {
			rows = append(rows, LinkRow{ID: id, Newspaper: s.Site, URL: link})
			id++
		}
	}
	return rows
}

// Article is a stored article joined with its link, as read back from the
// database for reporting and export.
type Article struct {
	ID          int    `db:"id"           bson:"_id"                   json:"id"`
	Newspaper   string `db:"newspaper"    bson:"newspaper"             json:"newspaper"`
	URL         string `db:"url"          bson:"url"                   json:"url"`
	Title       string `db:"title"        bson:"title"                 json:"title"`
	PublishDate string `db:"publish_date" bson:"publish_date,omitempty" json:"publish_date,omitempty"`
	Text        string `db:"text"         bson:"text"                  json:"text"`
	CleanTitle  string `db:"clean_title"  bson:"clean_title,omitempty" json:"clean_title,omitempty"`
	CleanText   string `db:"clean_text"   bson:"clean_text,omitempty"  json:"clean_text,omitempty"`
}

// WordCount returns the number of whitespace-separated tokens in Text.
func (a Article) WordCount() int {
	return len(strings.Fields(a.Text))
}
