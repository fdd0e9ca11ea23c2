// Package catalog exposes the library operations as typed calls on top of
// the data-synchronization cache.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shelfkeep/shelf/internal/cache"
	"github.com/shelfkeep/shelf/internal/library"
)

// API is the typed front of the catalog endpoints. Reads go through the
// cache; writes invalidate the tags they affect.
type API struct {
	cache *cache.Cache
	now   func() time.Time
}

// New wraps c. now defaults to time.Now and is used for due-date checks.
func New(c *cache.Cache, now func() time.Time) *API {
	if now == nil {
		now = time.Now
	}
	return &API{cache: c, now: now}
}

// Cache returns the underlying cache.
func (a *API) Cache() *cache.Cache {
	return a.cache
}

// CreateBook validates in and creates a book.
func (a *API) CreateBook(ctx context.Context, in library.BookInput) (library.Book, error) {
	in = in.Normalize()
	if err := library.ValidateBook(in); err != nil {
		return library.Book{}, err
	}
	resp, err := a.cache.Mutate(ctx, createBook, "", in)
	if err != nil {
		return library.Book{}, err
	}
	var book library.Book
	if err := resp.Decode(&book); err != nil {
		return library.Book{}, fmt.Errorf("decode created book: %w", err)
	}
	return book, nil
}

// ListBooks returns every book in the catalog.
func (a *API) ListBooks(ctx context.Context) ([]library.Book, error) {
	resp, err := a.cache.Query(ctx, listBooks, "")
	if err != nil {
		return nil, err
	}
	return decodeBooks(resp)
}

// GetBook returns the book with id.
func (a *API) GetBook(ctx context.Context, id string) (library.Book, error) {
	id, err := requireID(id)
	if err != nil {
		return library.Book{}, err
	}
	resp, err := a.cache.Query(ctx, getBookByID, id)
	if err != nil {
		return library.Book{}, err
	}
	return decodeBook(resp)
}

// UpdateBook replaces the writable fields of the book with id.
func (a *API) UpdateBook(ctx context.Context, id string, in library.BookInput) (library.Book, error) {
	id, err := requireID(id)
	if err != nil {
		return library.Book{}, err
	}
	in = in.Normalize()
	if err := library.ValidateBook(in); err != nil {
		return library.Book{}, err
	}
	resp, err := a.cache.Mutate(ctx, updateBook, id, in)
	if err != nil {
		return library.Book{}, err
	}
	var book library.Book
	if err := resp.Decode(&book); err != nil {
		return library.Book{}, fmt.Errorf("decode updated book: %w", err)
	}
	return book, nil
}

// DeleteBook removes the book with id.
func (a *API) DeleteBook(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	_, err = a.cache.Mutate(ctx, deleteBook, id, nil)
	return err
}

// BorrowBook borrows quantity copies of bookID until due. The server
// decides whether enough copies exist.
func (a *API) BorrowBook(ctx context.Context, bookID string, quantity int, due time.Time) (library.BorrowRecord, error) {
	in := library.BorrowInput{Book: strings.TrimSpace(bookID), Quantity: quantity, DueDate: due}
	if err := library.ValidateBorrow(in, a.now()); err != nil {
		return library.BorrowRecord{}, err
	}
	resp, err := a.cache.Mutate(ctx, borrowBook, "", in)
	if err != nil {
		return library.BorrowRecord{}, err
	}
	var record library.BorrowRecord
	if err := resp.Decode(&record); err != nil {
		return library.BorrowRecord{}, fmt.Errorf("decode borrow record: %w", err)
	}
	return record, nil
}

// BorrowSummary returns the total borrowed quantity per book.
func (a *API) BorrowSummary(ctx context.Context) ([]library.SummaryEntry, error) {
	resp, err := a.cache.Query(ctx, getBorrowSummary, "")
	if err != nil {
		return nil, err
	}
	return decodeSummary(resp)
}

// Refresh invalidates every cached query.
func (a *API) Refresh() {
	a.cache.Invalidate(QueryTags()...)
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &library.ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	return id, nil
}

func decodeBooks(resp cache.Response) ([]library.Book, error) {
	books := []library.Book{}
	if err := resp.Decode(&books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func decodeBook(resp cache.Response) (library.Book, error) {
	var book library.Book
	if err := resp.Decode(&book); err != nil {
		return library.Book{}, fmt.Errorf("decode book: %w", err)
	}
	return book, nil
}

func decodeSummary(resp cache.Response) ([]library.SummaryEntry, error) {
	entries := []library.SummaryEntry{}
	if err := resp.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode borrow summary: %w", err)
	}
	return entries, nil
}
