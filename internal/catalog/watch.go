package catalog

import (
	"time"

	"github.com/shelfkeep/shelf/internal/cache"
	"github.com/shelfkeep/shelf/internal/library"
)

// View is a decoded snapshot of a watched query.
type View[T any] struct {
	Data        T
	HasData     bool
	Loading     bool // first load in progress
	Fetching    bool
	Stale       bool
	Err         error
	Message     string
	FulfilledAt time.Time
}

// NotFound reports whether the last fetch failed with a 404.
func (v View[T]) NotFound() bool {
	return library.IsNotFound(v.Err)
}

// Watch follows one query while it is open.
type Watch[T any] struct {
	sub    *cache.Subscription
	decode func(cache.Response) (T, error)
}

func newWatch[T any](sub *cache.Subscription, decode func(cache.Response) (T, error)) *Watch[T] {
	return &Watch[T]{sub: sub, decode: decode}
}

// View decodes the current state of the query.
func (w *Watch[T]) View() View[T] {
	st := w.sub.State()
	v := View[T]{
		HasData:     st.HasData(),
		Loading:     st.IsLoading(),
		Fetching:    st.Fetching,
		Stale:       st.Stale,
		Err:         st.Err,
		Message:     st.Response.Message,
		FulfilledAt: st.FulfilledAt,
	}
	if v.HasData {
		data, err := w.decode(st.Response)
		if err != nil && v.Err == nil {
			v.Err = err
		}
		v.Data = data
	}
	return v
}

// Changes signals whenever the query state moves.
func (w *Watch[T]) Changes() <-chan struct{} {
	return w.sub.Changes()
}

// Refetch forces a new request.
func (w *Watch[T]) Refetch() {
	w.sub.Refetch()
}

// Close stops watching.
func (w *Watch[T]) Close() {
	w.sub.Close()
}

// WatchBooks follows the book list.
func (a *API) WatchBooks() *Watch[[]library.Book] {
	return newWatch(a.cache.Subscribe(listBooks, ""), decodeBooks)
}

// WatchBook follows a single book.
func (a *API) WatchBook(id string) *Watch[library.Book] {
	return newWatch(a.cache.Subscribe(getBookByID, id), decodeBook)
}

// WatchBorrowSummary follows the borrow summary.
func (a *API) WatchBorrowSummary() *Watch[[]library.SummaryEntry] {
	return newWatch(a.cache.Subscribe(getBorrowSummary, ""), decodeSummary)
}
