package catalog

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/shelf/internal/cache"
	"github.com/shelfkeep/shelf/internal/library"
	"github.com/shelfkeep/shelf/internal/testutil"
)

func newTestAPI(t *testing.T) (*API, *testutil.LibraryServer) {
	t.Helper()
	srv := testutil.NewLibraryServer(t)
	client, err := library.NewClient(library.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	c := cache.New(context.Background(), NewTransport(client), cache.Options{})
	t.Cleanup(c.Close)
	return New(c, nil), srv
}

func dune() library.BookInput {
	return library.BookInput{Title: "Dune", Author: "Herbert", Genre: library.GenreScience, ISBN: "123", Copies: 3}
}

func TestEndpoints_Table(t *testing.T) {
	names := make([]string, 0, 7)
	for _, ep := range Endpoints() {
		names = append(names, ep.Name)
		if ep.Kind == cache.KindQuery {
			assert.NotEmpty(t, ep.Provides, ep.Name)
			assert.Empty(t, ep.Invalidates, ep.Name)
		} else {
			assert.NotEmpty(t, ep.Invalidates, ep.Name)
			assert.Empty(t, ep.Provides, ep.Name)
		}
	}
	assert.Equal(t, []string{
		"createBook", "listBooks", "getBookById", "updateBook",
		"deleteBook", "borrowBook", "getBorrowSummary",
	}, names)
	assert.ElementsMatch(t, []cache.Tag{TagBooks, TagBook, TagBorrows}, borrowBook.Invalidates)
}

func TestCreateBook_ThenListIncludesItOnce(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	before, err := api.ListBooks(ctx)
	require.NoError(t, err)
	require.Empty(t, before)

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Available)

	after, err := api.ListBooks(ctx)
	require.NoError(t, err)
	matches := 0
	for _, b := range after {
		if b.ID == created.ID {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
	assert.Len(t, after, len(before)+1)
}

func TestCreateBook_ValidationHappensBeforeSending(t *testing.T) {
	api, srv := newTestAPI(t)

	_, err := api.CreateBook(context.Background(), library.BookInput{Title: "  ", Genre: library.GenreFantasy})
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
	assert.Zero(t, srv.Calls(http.MethodPost, "/api/books"))
}

func TestUpdateBook_ThenGetReturnsPatchedFields(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)
	_, err = api.GetBook(ctx, created.ID)
	require.NoError(t, err)

	patch := created.Input()
	patch.Title = "Dune Messiah"
	patch.Copies = 5
	updated, err := api.UpdateBook(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)

	got, err := api.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, 5, got.Copies)
	assert.Equal(t, "Herbert", got.Author)
}

func TestDeleteBook_ThenGetIsNotFound(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)
	_, err = api.GetBook(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, api.DeleteBook(ctx, created.ID))

	_, err = api.GetBook(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, library.IsNotFound(err))

	books, err := api.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestGetBook_RequiresID(t *testing.T) {
	api, _ := newTestAPI(t)
	_, err := api.GetBook(context.Background(), " ")
	assert.True(t, library.IsValidation(err))
	assert.True(t, library.IsValidation(api.DeleteBook(context.Background(), "")))
}

func TestBorrowBook_WithinCopiesIncreasesSummary(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)

	before, err := api.BorrowSummary(ctx)
	require.NoError(t, err)
	beforeTotal := library.TotalBorrowed(before)

	record, err := api.BorrowBook(ctx, created.ID, 2, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, created.ID, record.Book)
	assert.Equal(t, 2, record.Quantity)

	after, err := api.BorrowSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, beforeTotal+2, library.TotalBorrowed(after))
}

func TestBorrowBook_OverCopiesRejectedByServer(t *testing.T) {
	api, srv := newTestAPI(t)
	ctx := context.Background()

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)

	_, err = api.BorrowBook(ctx, created.ID, 4, time.Now().Add(24*time.Hour))
	require.Error(t, err)
	var serverErr *library.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.Status)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/api/borrow"), "the client does not pre-check copies")
}

func TestBorrowBook_RejectsPastDueDateLocally(t *testing.T) {
	api, srv := newTestAPI(t)

	_, err := api.BorrowBook(context.Background(), "b1", 1, time.Now().Add(-time.Hour))
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
	assert.Zero(t, srv.Calls(http.MethodPost, "/api/borrow"))
}

func TestListBooks_ConcurrentCallsShareOneRequest(t *testing.T) {
	api, srv := newTestAPI(t)
	srv.Seed(dune())
	srv.Delay(http.MethodGet, "/api/books", 100*time.Millisecond)

	var wg sync.WaitGroup
	results := make([][]library.Book, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = api.ListBooks(context.Background())
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/api/books"))
	assert.Equal(t, results[0], results[1])
	assert.Len(t, results[0], 1)
}

func TestWatchBooks_RefreshesAfterMutation(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	w := api.WatchBooks()
	t.Cleanup(w.Close)
	require.Eventually(t, func() bool { return w.View().HasData }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, w.View().Data)

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v := w.View()
		return len(v.Data) == 1 && v.Data[0].ID == created.ID && !v.Stale
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFailedMutation_KeepsCachedData(t *testing.T) {
	api, srv := newTestAPI(t)
	ctx := context.Background()
	seeded := srv.Seed(dune())

	w := api.WatchBook(seeded[0].ID)
	t.Cleanup(w.Close)
	require.Eventually(t, func() bool { return w.View().HasData }, 2*time.Second, 10*time.Millisecond)

	srv.FailNext(http.MethodPut, "/api/books/"+seeded[0].ID, 1)
	patch := seeded[0].Input()
	patch.Title = "Changed"
	_, err := api.UpdateBook(ctx, seeded[0].ID, patch)
	require.Error(t, err)

	v := w.View()
	assert.Equal(t, "Dune", v.Data.Title)
	assert.False(t, v.Stale)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/api/books/"+seeded[0].ID))
}

func TestWatchBook_MissingBookReportsNotFound(t *testing.T) {
	api, _ := newTestAPI(t)

	w := api.WatchBook("nope")
	t.Cleanup(w.Close)
	require.Eventually(t, func() bool { return w.View().Err != nil }, 2*time.Second, 10*time.Millisecond)

	v := w.View()
	assert.True(t, v.NotFound())
	assert.False(t, v.HasData)
}

func TestDuneScenario(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	before, err := api.ListBooks(ctx)
	require.NoError(t, err)

	created, err := api.CreateBook(ctx, dune())
	require.NoError(t, err)

	after, err := api.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	tomorrow := time.Now().Add(24 * time.Hour)
	_, err = api.BorrowBook(ctx, created.ID, 2, tomorrow)
	require.NoError(t, err)

	book, err := api.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, book.Copies, "copies is the owned total")
	assert.True(t, book.Available, "one copy is still on the shelf")

	summary, err := api.BorrowSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, created.ID, summary[0].Book.ID)
	assert.Equal(t, "Dune", summary[0].Book.Title)
	assert.Equal(t, 2, summary[0].TotalQuantity)
}
