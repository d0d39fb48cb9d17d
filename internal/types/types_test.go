package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidateDenseIDs(t *testing.T) {
	rows := Consolidate([]SiteLinks{
		{Site: "ElPais", Links: []string{"https://elpais.com/a", "https://elpais.com/b"}},
		{Site: "Empty"},
		{Site: "ABC", Links: []string{"https://abc.es/c"}},
	})

	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, i+1, r.ID)
	}
	assert.Equal(t, "ElPais", rows[1].Newspaper)
	assert.Equal(t, "ABC", rows[2].Newspaper)
	assert.Empty(t, Consolidate(nil))
}

func TestNewRequestRejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"ftp://elpais.com/x", "mailto:a@b.es", "::bad"} {
		_, err := NewRequest(raw)
		assert.True(t, errors.Is(err, ErrInvalidURL), raw)
	}

	req, err := NewRequest("https://elpais.com/espana/")
	require.NoError(t, err)
	assert.Equal(t, "elpais.com", req.Domain())
}

func TestItemContentRow(t *testing.T) {
	item := NewItem(LinkRow{ID: 7, Newspaper: "ElPais", URL: "https://elpais.com/a"})
	item.Set(FieldTitle, "Título")
	item.Set(FieldText, "uno dos")
	item.Set(FieldDate, "2023-05-01T00:00:00Z")

	row := item.ContentRow()
	assert.Equal(t, ContentRow{
		ID:        7,
		Newspaper: "ElPais",
		URL:       "https://elpais.com/a",
		Title:     "Título",
		Date:      "2023-05-01T00:00:00Z",
		Text:      "uno dos",
	}, row)
}

func TestErrorsUnwrap(t *testing.T) {
	err := error(&FetchError{URL: "https://elpais.com/a", StatusCode: 404, Err: ErrNonOKStatus})
	assert.ErrorIs(t, err, ErrNonOKStatus)
	assert.Contains(t, err.Error(), "status 404")

	wrapped := &PipelineError{Stage: "required_fields", Err: ErrEmptyArticle}
	assert.ErrorIs(t, wrapped, ErrEmptyArticle)

	se := &StorageError{Backend: "sqlite", Err: ErrInjectedFailure}
	assert.ErrorIs(t, se, ErrInjectedFailure)
}

func TestArticleWordCount(t *testing.T) {
	assert.Equal(t, 3, Article{Text: " uno\ndos  tres "}.WordCount())
	assert.Zero(t, Article{}.WordCount())
}
