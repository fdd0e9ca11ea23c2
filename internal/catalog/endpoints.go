package catalog

import (
	"context"
	"net/http"

	"github.com/shelfkeep/shelf/internal/cache"
	"github.com/shelfkeep/shelf/internal/library"
)

// Tags attached to cached library data.
const (
	TagBooks   cache.Tag = "Books"
	TagBook    cache.Tag = "Book"
	TagBorrows cache.Tag = "Borrows"
)

var (
	createBook = cache.Endpoint{
		Name:        "createBook",
		Kind:        cache.KindMutation,
		Method:      http.MethodPost,
		Path:        "/api/books",
		Invalidates: []cache.Tag{TagBooks},
	}
	listBooks = cache.Endpoint{
		Name:     "listBooks",
		Kind:     cache.KindQuery,
		Method:   http.MethodGet,
		Path:     "/api/books",
		Provides: []cache.Tag{TagBooks},
	}
	getBookByID = cache.Endpoint{
		Name:     "getBookById",
		Kind:     cache.KindQuery,
		Method:   http.MethodGet,
		Path:     "/api/books/{id}",
		Provides: []cache.Tag{TagBook},
	}
	updateBook = cache.Endpoint{
		Name:        "updateBook",
		Kind:        cache.KindMutation,
		Method:      http.MethodPut,
		Path:        "/api/books/{id}",
		Invalidates: []cache.Tag{TagBooks, TagBook},
	}
	deleteBook = cache.Endpoint{
		Name:        "deleteBook",
		Kind:        cache.KindMutation,
		Method:      http.MethodDelete,
		Path:        "/api/books/{id}",
		Invalidates: []cache.Tag{TagBooks, TagBook},
	}
	borrowBook = cache.Endpoint{
		Name:        "borrowBook",
		Kind:        cache.KindMutation,
		Method:      http.MethodPost,
		Path:        "/api/borrow",
		Invalidates: []cache.Tag{TagBooks, TagBook, TagBorrows},
	}
	getBorrowSummary = cache.Endpoint{
		Name:     "getBorrowSummary",
		Kind:     cache.KindQuery,
		Method:   http.MethodGet,
		Path:     "/api/borrow",
		Provides: []cache.Tag{TagBorrows},
	}
)

// Endpoints returns the full endpoint table in declaration order.
func Endpoints() []cache.Endpoint {
	return []cache.Endpoint{
		createBook,
		listBooks,
		getBookByID,
		updateBook,
		deleteBook,
		borrowBook,
		getBorrowSummary,
	}
}

// QueryTags lists every tag a query provides.
func QueryTags() []cache.Tag {
	return []cache.Tag{TagBooks, TagBook, TagBorrows}
}

// NewTransport adapts a library client to the cache transport, unwrapping
// the response envelope.
func NewTransport(doer library.Doer) cache.Transport {
	return cache.TransportFunc(func(ctx context.Context, method, path string, body any) (cache.Response, error) {
		env, err := doer.Do(ctx, method, path, body)
		if err != nil {
			return cache.Response{}, err
		}
		return cache.Response{Data: env.Data, Message: env.Message}, nil
	})
}
