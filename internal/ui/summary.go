package ui

import (
	"strconv"
	"strings"

	"github.com/shelfkeep/shelf/internal/library"
)

// renderSummary renders the borrowed totals per book and the grand total.
func (m Model) renderSummary() string {
	styles := m.theme.Styles()
	view := m.summaryView

	switch {
	case view.Loading:
		return styles.MutedText.Render(m.spinner.View() + " Loading borrow summary...")
	case !view.HasData && view.Err != nil:
		return styles.DangerText.Render("Could not load borrow summary: " + view.Err.Error())
	case len(view.Data) == 0:
		return styles.MutedText.Render("No books are currently borrowed.")
	}

	titleW := max(m.width-34, 16)
	row := func(title, isbn, qty string) string {
		return padRight(truncate(title, titleW-1), titleW) + padRight(truncate(isbn, 19), 20) + qty
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Bold(true).Render(row("Title", "ISBN", "Borrowed")))
	b.WriteString("\n")
	for _, e := range view.Data {
		b.WriteString(styles.Text.Render(row(e.Book.Title, e.Book.ISBN, strconv.Itoa(e.TotalQuantity))))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", min(m.width, titleW+28))))
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render(row("Total", "", strconv.Itoa(library.TotalBorrowed(view.Data)))))

	if view.Fetching {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " updating"))
	} else if view.Err != nil {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render("refresh failed, showing last result"))
	}
	return b.String()
}
