package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/shelfkeep/shelf/internal/library"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
}

func availability(b library.Book) string {
	if b.Available {
		return "yes"
	}
	return "no"
}

func printBooks(w io.Writer, books []library.Book) error {
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books.")
		return err
	}
	t := newTable("ID", "TITLE", "AUTHOR", "GENRE", "ISBN", "COPIES", "AVAILABLE")
	for _, b := range books {
		t.Row(b.ID, b.Title, b.Author, string(b.Genre), b.ISBN, strconv.Itoa(b.Copies), availability(b))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printBook(w io.Writer, b library.Book) error {
	t := newTable().
		Row("ID", b.ID).
		Row("Title", b.Title).
		Row("Author", b.Author).
		Row("Genre", string(b.Genre)).
		Row("ISBN", b.ISBN).
		Row("Copies", strconv.Itoa(b.Copies)).
		Row("Available", availability(b))
	if b.Description != "" {
		t.Row("Description", b.Description)
	}
	if created := b.ParsedCreatedAt(); !created.IsZero() {
		t.Row("Added", created.Local().Format("2006-01-02 15:04"))
	}
	if updated := b.ParsedUpdatedAt(); !updated.IsZero() {
		t.Row("Updated", updated.Local().Format("2006-01-02 15:04"))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printSummary(w io.Writer, entries []library.SummaryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No books are currently borrowed.")
		return err
	}
	t := newTable("TITLE", "ISBN", "BORROWED")
	for _, e := range entries {
		t.Row(e.Book.Title, e.Book.ISBN, strconv.Itoa(e.TotalQuantity))
	}
	t.Row("Total", "", strconv.Itoa(library.TotalBorrowed(entries)))
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
