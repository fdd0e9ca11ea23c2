// Package testutil provides an in-memory library service for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/shelfkeep/shelf/internal/library"
)

// LibraryServer mimics the library service: books CRUD, borrowing and the
// borrow summary, all wrapped in the {success, message, data} envelope.
type LibraryServer struct {
	*httptest.Server

	mu      sync.Mutex
	books   map[string]*library.Book
	order   []string
	borrows []library.BorrowRecord
	calls   map[string]int
	delay   map[string]time.Duration
	failing map[string]int
	now     func() time.Time
}

// NewLibraryServer starts a server that is closed when t finishes.
func NewLibraryServer(t testing.TB) *LibraryServer {
	t.Helper()
	s := &LibraryServer{
		books:   make(map[string]*library.Book),
		calls:   make(map[string]int),
		delay:   make(map[string]time.Duration),
		failing: make(map[string]int),
		now:     time.Now,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *LibraryServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", s.handleListBooks)
		r.Post("/", s.handleCreateBook)
		r.Get("/{id}", s.handleGetBook)
		r.Put("/{id}", s.handleUpdateBook)
		r.Delete("/{id}", s.handleDeleteBook)
	})
	r.Route("/api/borrow", func(r chi.Router) {
		r.Get("/", s.handleBorrowSummary)
		r.Post("/", s.handleBorrow)
	})
	return r
}

// Calls returns how many requests reached "METHOD /path".
func (s *LibraryServer) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Delay holds every request to "METHOD /path" for d before answering.
func (s *LibraryServer) Delay(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[method+" "+path] = d
}

// FailNext makes the next n requests to "METHOD /path" answer 500.
func (s *LibraryServer) FailNext(method, path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[method+" "+path] = n
}

// Seed stores books directly and returns them with ids assigned.
func (s *LibraryServer) Seed(inputs ...library.BookInput) []library.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]library.Book, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, *s.insertLocked(in))
	}
	return out
}

func (s *LibraryServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		d := s.delay[key]
		fail := s.failing[key] > 0
		if fail {
			s.failing[key]--
		}
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			writeEnvelope(w, http.StatusInternalServerError, false, "Internal server error", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *LibraryServer) handleListBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	books := make([]library.Book, 0, len(s.order))
	for _, id := range s.order {
		books = append(books, *s.books[id])
	}
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, true, "Books retrieved successfully", books)
}

func (s *LibraryServer) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var in library.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}
	if in.Title == "" || in.Author == "" || in.ISBN == "" || in.Copies < 0 {
		writeEnvelope(w, http.StatusBadRequest, false, "Validation failed", nil)
		return
	}

	s.mu.Lock()
	book := *s.insertLocked(in)
	s.mu.Unlock()
	writeEnvelope(w, http.StatusCreated, true, "Book created successfully", book)
}

func (s *LibraryServer) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	book, ok := s.books[id]
	var out library.Book
	if ok {
		out = *book
	}
	s.mu.Unlock()

	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "Book not found", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, true, "Book retrieved successfully", out)
}

func (s *LibraryServer) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in library.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	s.mu.Lock()
	book, ok := s.books[id]
	var out library.Book
	if ok {
		book.Title = in.Title
		book.Author = in.Author
		book.Genre = in.Genre
		book.ISBN = in.ISBN
		book.Description = in.Description
		book.Copies = in.Copies
		book.Available = in.Copies > 0
		book.UpdatedAt = s.now().UTC().Format(time.RFC3339Nano)
		out = *book
	}
	s.mu.Unlock()

	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "Book not found", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, true, "Book updated successfully", out)
}

func (s *LibraryServer) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.books[id]
	if ok {
		delete(s.books, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "Book not found", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, true, "Book deleted successfully", nil)
}

func (s *LibraryServer) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var in library.BorrowInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[in.Book]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "Book not found", nil)
		return
	}
	if in.Quantity < 1 || in.Quantity > book.Copies {
		writeEnvelope(w, http.StatusBadRequest, false, "Not enough copies available", nil)
		return
	}
	if !in.DueDate.After(s.now()) {
		writeEnvelope(w, http.StatusBadRequest, false, "Due date must be in the future", nil)
		return
	}

	// Copies is the owned total; availability drops once every copy is out.
	book.Available = s.borrowedLocked(book.ID)+in.Quantity < book.Copies

	stamp := s.now().UTC().Format(time.RFC3339Nano)
	record := library.BorrowRecord{
		ID:        gonanoid.Must(),
		Book:      book.ID,
		Quantity:  in.Quantity,
		DueDate:   in.DueDate.UTC().Format(time.RFC3339Nano),
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	s.borrows = append(s.borrows, record)
	writeEnvelope(w, http.StatusCreated, true, "Book borrowed successfully", record)
}

func (s *LibraryServer) handleBorrowSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	totals := make(map[string]int)
	for _, b := range s.borrows {
		totals[b.Book] += b.Quantity
	}
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type row struct {
		ID            string `json:"_id"`
		Book          any    `json:"book"`
		TotalQuantity int    `json:"totalQuantity"`
	}
	rows := make([]row, 0, len(ids))
	for _, id := range ids {
		var book any = map[string]string{"title": "", "isbn": ""}
		if b, ok := s.books[id]; ok {
			book = map[string]string{"title": b.Title, "isbn": b.ISBN}
		}
		rows = append(rows, row{ID: id, Book: book, TotalQuantity: totals[id]})
	}
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, true, "Borrowed books summary retrieved successfully", rows)
}

func (s *LibraryServer) insertLocked(in library.BookInput) *library.Book {
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	book := &library.Book{
		ID:          gonanoid.Must(),
		Title:       in.Title,
		Author:      in.Author,
		Genre:       in.Genre,
		ISBN:        in.ISBN,
		Description: in.Description,
		Copies:      in.Copies,
		Available:   in.Copies > 0,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	s.books[book.ID] = book
	s.order = append(s.order, book.ID)
	return book
}

func (s *LibraryServer) borrowedLocked(id string) int {
	total := 0
	for _, b := range s.borrows {
		if b.Book == id {
			total += b.Quantity
		}
	}
	return total
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	env := map[string]any{"success": success, "message": message}
	if data != nil {
		env["data"] = data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
