package library

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryEntry_DecodesAllBookShapes(t *testing.T) {
	payload := `[
		{"_id":"b1","book":{"title":"Dune","isbn":"123"},"totalQuantity":2},
		{"book":"b2","totalQuantity":1},
		{"book":{"_id":"b3","title":"Emma","isbn":"9"},"totalQuantity":4},
		{"_id":"b4","totalQuantity":5}
	]`

	var entries []SummaryEntry
	require.NoError(t, json.Unmarshal([]byte(payload), &entries))
	require.Len(t, entries, 4)

	assert.Equal(t, SummaryBook{ID: "b1", Title: "Dune", ISBN: "123"}, entries[0].Book)
	assert.Equal(t, "b2", entries[1].Book.ID)
	assert.Equal(t, "b3", entries[2].Book.ID)
	assert.Equal(t, "Emma", entries[2].Book.Title)
	assert.Equal(t, "b4", entries[3].Book.ID)
	assert.Equal(t, 12, TotalBorrowed(entries))
}

func TestSummaryEntry_RoundTripsThroughMarshal(t *testing.T) {
	in := SummaryEntry{Book: SummaryBook{ID: "b1", Title: "Dune", ISBN: "123"}, TotalQuantity: 3}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out SummaryEntry
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestBookInput_Normalize(t *testing.T) {
	in := BookInput{Title: "  Dune ", Author: " Herbert", Genre: " science ", ISBN: " 123 ", Copies: 3}
	got := in.Normalize()
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Herbert", got.Author)
	assert.Equal(t, GenreScience, got.Genre)
	assert.Equal(t, "123", got.ISBN)
}

func TestBook_ParsedTimestamps(t *testing.T) {
	b := Book{CreatedAt: "2025-06-20T10:11:12.345Z", UpdatedAt: "garbage"}
	created := b.ParsedCreatedAt()
	assert.Equal(t, 2025, created.Year())
	assert.Equal(t, time.June, created.Month())
	assert.True(t, b.ParsedUpdatedAt().IsZero())
}

func TestBook_InputCopiesWritableFields(t *testing.T) {
	b := Book{ID: "b1", Title: "Dune", Author: "Herbert", Genre: GenreScience, ISBN: "123", Copies: 3, Available: true}
	in := b.Input()
	assert.Equal(t, BookInput{Title: "Dune", Author: "Herbert", Genre: GenreScience, ISBN: "123", Copies: 3}, in)
}
