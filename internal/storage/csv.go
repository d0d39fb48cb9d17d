package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// CSV headers.
var (
	LinksHeader   = []string{"ID", "Newspaper", "Link"}
	ContentHeader = []string{"ID", "Newspaper", "URL", "Title", "Date", "Text"}
	ErrorsHeader  = []string{"URL", "Error"}
)

// ContentDelimiter separates fields in the content CSV. Article text is full
// of commas.
const ContentDelimiter = ';'

// WriteLinks writes link rows as a comma-delimited CSV.
func WriteLinks(w io.Writer, rows []types.LinkRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LinksHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.ID), r.Newspaper, r.URL}); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLinksFile writes the links CSV to path, creating parent directories.
func WriteLinksFile(path string, rows []types.LinkRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteLinks(w, rows) })
}

// ReadLinks parses a links CSV. The header row is required.
func ReadLinks(r io.Reader) ([]types.LinkRow, error) {
	records, err := readAll(r, ',', LinksHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]types.LinkRow, 0, len(records))
	for i, rec := range records {
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("links CSV line %d: invalid ID %q: %w", i+2, rec[0], err)
		}
		rows = append(rows, types.LinkRow{ID: id, Newspaper: rec[1], URL: rec[2]})
	}
	return rows, nil
}

// ReadLinksFile reads the links CSV at path.
func ReadLinksFile(path string) ([]types.LinkRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open links CSV: %w", err)
	}
	defer f.Close()
	return ReadLinks(f)
}

// WriteContent writes content rows as a semicolon-delimited CSV.
func WriteContent(w io.Writer, rows []types.ContentRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = ContentDelimiter
	if err := cw.Write(ContentHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range rows {
		rec := []string{strconv.Itoa(r.ID), r.Newspaper, r.URL, r.Title, r.Date, r.Text}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteContentFile writes the content CSV to path.
func WriteContentFile(path string, rows []types.ContentRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteContent(w, rows) })
}

// ReadContent parses a semicolon-delimited content CSV.
func ReadContent(r io.Reader) ([]types.ContentRow, error) {
	records, err := readAll(r, ContentDelimiter, ContentHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]types.ContentRow, 0, len(records))
	for i, rec := range records {
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("content CSV line %d: invalid ID %q: %w", i+2, rec[0], err)
		}
		rows = append(rows, types.ContentRow{
			ID:        id,
			Newspaper: rec[1],
			URL:       rec[2],
			Title:     rec[3],
			Date:      rec[4],
			Text:      rec[5],
		})
	}
	return rows, nil
}

// ReadContentFile reads the content CSV at path.
func ReadContentFile(path string) ([]types.ContentRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open content CSV: %w", err)
	}
	defer f.Close()
	return ReadContent(f)
}

// WriteErrorsFile writes scrape failures to path. Nothing is written when
// failures is empty, and a stale file from an earlier run is removed.
func WriteErrorsFile(path string, failures []types.Failure) (bool, error) {
	if len(failures) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("remove stale errors CSV: %w", err)
		}
		return false, nil
	}

	err := writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(ErrorsHeader); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		for _, f := range failures {
			if err := cw.Write([]string{f.URL, f.Error}); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
	return err == nil, err
}

func readAll(r io.Reader, comma rune, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV is empty: missing header %v", header)
		}
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	for i, h := range header {
		if first[i] != h {
			return nil, fmt.Errorf("unexpected CSV header %v, want %v", first, header)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return records, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
