package library

import (
	"encoding/json"
	"strings"
	"time"
)

// Genre is one of the fixed catalog genres.
type Genre string

const (
	GenreFiction    Genre = "FICTION"
	GenreNonFiction Genre = "NON-FICTION"
	GenreScience    Genre = "SCIENCE"
	GenreHistory    Genre = "HISTORY"
	GenreBiography  Genre = "BIOGRAPHY"
	GenreFantasy    Genre = "FANTASY"
)

// Genres lists the genres in display order.
func Genres() []Genre {
	return []Genre{GenreFiction, GenreNonFiction, GenreScience, GenreHistory, GenreBiography, GenreFantasy}
}

// Envelope mirrors the wrapper every library service response uses.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Book mirrors a book document returned by /api/books.
type Book struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       Genre  `json:"genre"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
	Copies      int    `json:"copies"`
	Available   bool   `json:"available"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (b Book) ParsedCreatedAt() time.Time {
	return parseTime(b.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (b Book) ParsedUpdatedAt() time.Time {
	return parseTime(b.UpdatedAt)
}

// Input returns the writable fields of the book.
func (b Book) Input() BookInput {
	return BookInput{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		ISBN:        b.ISBN,
		Description: b.Description,
		Copies:      b.Copies,
	}
}

// BookInput is the body sent when creating or replacing a book.
type BookInput struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       Genre  `json:"genre" validate:"required,oneof=FICTION NON-FICTION SCIENCE HISTORY BIOGRAPHY FANTASY"`
	ISBN        string `json:"isbn" validate:"required"`
	Description string `json:"description"`
	Copies      int    `json:"copies" validate:"gte=0"`
}

// Normalize trims surrounding whitespace and upper-cases the genre.
func (in BookInput) Normalize() BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = Genre(strings.ToUpper(strings.TrimSpace(string(in.Genre))))
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// BorrowInput is the body sent to POST /api/borrow.
type BorrowInput struct {
	Book     string    `json:"book" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=1"`
	DueDate  time.Time `json:"dueDate"`
}

// BorrowRecord mirrors the record returned after a successful borrow.
type BorrowRecord struct {
	ID        string `json:"_id"`
	Book      string `json:"book"`
	Quantity  int    `json:"quantity"`
	DueDate   string `json:"dueDate"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ParsedDueDate returns the parsed due date.
func (r BorrowRecord) ParsedDueDate() time.Time {
	return parseTime(r.DueDate)
}

// SummaryBook identifies the book a summary row aggregates.
type SummaryBook struct {
	ID    string `json:"_id,omitempty"`
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
}

// SummaryEntry is one row of the borrow summary: the total quantity
// currently borrowed for a single book.
type SummaryEntry struct {
	Book          SummaryBook `json:"book"`
	TotalQuantity int         `json:"totalQuantity"`
}

// UnmarshalJSON accepts the book either as an id string or as an embedded
// document; a top-level _id names the book when the document omits it.
func (e *SummaryEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            string          `json:"_id"`
		Book          json.RawMessage `json:"book"`
		TotalQuantity int             `json:"totalQuantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var book SummaryBook
	trimmed := strings.TrimSpace(string(raw.Book))
	switch {
	case trimmed == "" || trimmed == "null":
	case strings.HasPrefix(trimmed, `"`):
		if err := json.Unmarshal(raw.Book, &book.ID); err != nil {
			return err
		}
	default:
		if err := json.Unmarshal(raw.Book, &book); err != nil {
			return err
		}
	}
	if book.ID == "" {
		book.ID = raw.ID
	}

	e.Book = book
	e.TotalQuantity = raw.TotalQuantity
	return nil
}

// TotalBorrowed sums the quantities across all summary rows.
func TotalBorrowed(entries []SummaryEntry) int {
	total := 0
	for _, e := range entries {
		total += e.TotalQuantity
	}
	return total
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
