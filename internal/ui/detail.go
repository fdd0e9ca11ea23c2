package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderDetail renders every field of the open book.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	view := m.detailView

	switch {
	case view.Loading:
		return styles.MutedText.Render(m.spinner.View() + " Loading book...")
	case view.NotFound():
		return styles.WarningText.Render("Book not found. It may have been deleted.")
	case !view.HasData && view.Err != nil:
		return styles.DangerText.Render("Could not load book: " + view.Err.Error())
	case !view.HasData:
		return ""
	}

	book := view.Data
	label := styles.MutedText.Width(14)

	rows := []struct {
		name  string
		value string
		style lipgloss.Style
	}{
		{"Author", book.Author, styles.Text},
		{"Genre", string(book.Genre), styles.AccentText},
		{"ISBN", book.ISBN, styles.Text},
		{"Copies", strconv.Itoa(book.Copies), styles.Text},
		{"Status", ternary(book.Available, "Available", "Unavailable"), styles.AvailabilityStyle(book.Available)},
		{"Added", formatDate(book.ParsedCreatedAt()), styles.FaintText},
		{"Updated", formatDate(book.ParsedUpdatedAt()), styles.FaintText},
		{"ID", book.ID, styles.FaintText},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(book.Title))
	if view.Fetching {
		b.WriteString("  ")
		b.WriteString(styles.MutedText.Render(m.spinner.View()))
	}
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(label.Render(r.name))
		b.WriteString(r.style.Render(r.value))
		b.WriteString("\n")
	}

	if desc := strings.TrimSpace(book.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(styles.Text.Width(min(max(m.width-2, 20), 100)).Render(desc))
		b.WriteString("\n")
	}
	if view.Err != nil {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render("refresh failed: " + view.Err.Error()))
	}
	return b.String()
}
