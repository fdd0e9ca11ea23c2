package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfkeep/shelf/internal/library"
)

func TestPageNumbers(t *testing.T) {
	seq := func(from, to int) []int {
		out := []int{}
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	}

	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 1, seq(1, 1)},
		{1, 3, seq(1, 3)},
		{3, 3, seq(1, 3)},
		{1, 20, seq(1, 10)},
		{6, 20, seq(1, 10)},
		{7, 20, seq(2, 11)},
		{15, 20, seq(10, 19)},
		{20, 20, seq(11, 20)},
		{18, 20, seq(11, 20)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.current, tt.total), func(t *testing.T) {
			got := pageNumbers(tt.current, tt.total)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxPageButtons)
			assert.Contains(t, got, tt.current)
		})
	}
	assert.Nil(t, pageNumbers(1, 0))
}

func TestPageCountAndSlice(t *testing.T) {
	assert.Equal(t, 1, pageCount(0))
	assert.Equal(t, 1, pageCount(6))
	assert.Equal(t, 2, pageCount(7))
	assert.Equal(t, 3, pageCount(13))

	books := make([]library.Book, 8)
	for i := range books {
		books[i].ID = fmt.Sprint(i)
	}
	assert.Len(t, pageSlice(books, 0), 6)
	assert.Len(t, pageSlice(books, 1), 2)
	assert.Equal(t, "6", pageSlice(books, 1)[0].ID)
	assert.Nil(t, pageSlice(books, 2))
	assert.Nil(t, pageSlice(books, -1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Dune", truncate("  Dune ", 10))
	assert.Equal(t, "The Lo...", truncate("The Lord of the Rings", 9))
	assert.Equal(t, "Th", truncate("The Hobbit", 2))
	assert.Equal(t, "http…8080", truncateMiddle("http://127.0.0.1:8080", 9))
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
}

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-5 * time.Second, "now"},
		{0, "now"},
		{12 * time.Second, "12s"},
		{61 * time.Second, "1m"},
		{2*time.Hour + 10*time.Minute, "2h"},
		{49 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeDuration(tt.in), tt.in.String())
	}
}

func TestClassifyConnectionError(t *testing.T) {
	refused := &library.NetworkError{Method: "GET", Path: "/api/books", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"refused", refused, "OFFLINE"},
		{"dns", errors.New("dial tcp: lookup library.invalid: no such host"), "HOST NOT FOUND"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), "TIMEOUT"},
		{"server", &library.ServerError{Method: "GET", Path: "/api/books", Status: 503}, "HTTP 503"},
		{"other", errors.New("boom"), "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyConnectionError(tt.err))
		})
	}
}

func TestBookColumns(t *testing.T) {
	wide := bookColumns(140)
	assert.True(t, wide.showISBN)
	narrow := bookColumns(80)
	assert.False(t, narrow.showISBN)
	assert.GreaterOrEqual(t, narrow.title, 12)

	row := wide.row("Dune", "Herbert", "SCIENCE", "123", "3", "available")
	assert.Contains(t, row, "Dune")
	assert.Contains(t, row, "123")
	assert.Contains(t, row, "available")
}
