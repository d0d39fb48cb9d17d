package types

import (
	"strconv"
	"time"
)

// Item is a scraped article moving through the pipeline before it becomes a
// ContentRow.
type Item struct {
	// Fields stores the extracted key-value data.
	Fields map[string]any

	// URL is the article URL this item was extracted from.
	URL string

	// ID is the link id the article was scraped for.
	ID int

	// Newspaper identifies which site produced the link.
	Newspaper string

	// Timestamp is when this item was created.
	Timestamp time.Time
}

// NewItem creates a new empty Item for a link row.
func NewItem(link LinkRow) *Item {
	return &Item{
		Fields:    make(map[string]any),
		URL:       link.URL,
		ID:        link.ID,
		Newspaper: link.Newspaper,
		Timestamp: time.Now(),
	}
}

// Set sets a field value.
func (i *Item) Set(key string, value any) {
	i.Fields[key] = value
}

// Get retrieves a field value.
func (i *Item) Get(key string) (any, bool) {
	v, ok := i.Fields[key]
	return v, ok
}

// GetString retrieves a field value as a string.
func (i *Item) GetString(key string) string {
	v, ok := i.Fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// GetInt retrieves a field value as an int. Strings holding integers are
// converted.
func (i *Item) GetInt(key string) int {
	switch v := i.Fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Has returns true if the field exists.
func (i *Item) Has(key string) bool {
	_, ok := i.Fields[key]
	return ok
}

// Delete removes a field.
func (i *Item) Delete(key string) {
	delete(i.Fields, key)
}

// Keys returns all field names.
func (i *Item) Keys() []string {
	keys := make([]string, 0, len(i.Fields))
	for k := range i.Fields {
		keys = append(keys, k)
	}
	return keys
}

// ContentRow converts the item into the row written to the content CSV.
func (i *Item) ContentRow() ContentRow {
	return ContentRow{
		ID:        i.ID,
		Newspaper: i.Newspaper,
		URL:       i.URL,
		Title:     i.GetString(FieldTitle),
		Date:      i.GetString(FieldDate),
		Text:      i.GetString(FieldText),
	}
}

// Item field names shared by extractors and middleware.
const (
	FieldTitle     = "title"
	FieldText      = "text"
	FieldDate      = "date"
	FieldLanguage  = "language"
	FieldWordCount = "text_word_count"
)
