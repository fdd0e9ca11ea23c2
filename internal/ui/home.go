package ui

import (
	"fmt"
	"strings"
)

// renderHome renders the landing view with its entry points.
func (m Model) renderHome() string {
	styles := m.theme.Styles()
	keyStyle := styles.WarningText.Width(6)

	var b strings.Builder
	b.WriteString(styles.Logo.Render("shelf"))
	b.WriteString(styles.MutedText.Render("  library catalog"))
	b.WriteString("\n\n")

	switch view := m.booksView; {
	case view.HasData:
		borrowable := 0
		for _, book := range view.Data {
			if book.Available {
				borrowable++
			}
		}
		b.WriteString(styles.Text.Render(fmt.Sprintf("%d books in the catalog, %d available to borrow.", len(view.Data), borrowable)))
	case view.Loading:
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " Loading catalog..."))
	case view.Err != nil:
		b.WriteString(styles.DangerText.Render("Catalog unavailable: " + view.Err.Error()))
	}
	b.WriteString("\n\n")

	entries := []struct{ key, desc string }{
		{"2", "Browse all books"},
		{"a", "Add a new book"},
		{"3", "Borrow summary"},
		{"4", "Activity log"},
		{"T", "Switch to " + ternary(m.theme.Dark, "light", "dark") + " theme"},
		{"?", "Keyboard shortcuts"},
	}
	for _, e := range entries {
		b.WriteString(keyStyle.Render(e.key))
		b.WriteString(styles.Text.Render(e.desc))
		b.WriteString("\n")
	}
	return b.String()
}
