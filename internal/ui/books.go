package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shelfkeep/shelf/internal/library"
)

// pageCount returns the number of pages needed for n books. An empty list
// still has one page.
func pageCount(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + BooksPerPage - 1) / BooksPerPage
}

// pageNumbers returns the page buttons shown for the one-based current
// page: at most MaxPageButtons numbers, roughly centred on current.
func pageNumbers(current, total int) []int {
	if total <= 0 {
		return nil
	}
	start := max(1, current-MaxPageButtons/2)
	end := min(total, start+MaxPageButtons-1)
	if end-start+1 < MaxPageButtons {
		start = max(1, end-MaxPageButtons+1)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// pageSlice returns the books on the zero-based page.
func pageSlice(books []library.Book, page int) []library.Book {
	start := page * BooksPerPage
	if start >= len(books) || start < 0 {
		return nil
	}
	end := min(start+BooksPerPage, len(books))
	return books[start:end]
}

// pageRows returns the books on the current page.
func (m Model) pageRows() []library.Book {
	return pageSlice(m.booksView.Data, m.page)
}

// selectedBook returns the book under the cursor in the books view, or the
// open book in the detail view.
func (m Model) selectedBook() (library.Book, bool) {
	if m.currentView == ViewDetail {
		if m.detailView.HasData && m.detailView.Err == nil {
			return m.detailView.Data, true
		}
		return library.Book{}, false
	}
	rows := m.pageRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return library.Book{}, false
	}
	return rows[m.cursor], true
}

// clampPage keeps page and cursor inside the current list after it changed.
func (m *Model) clampPage() {
	pages := pageCount(len(m.booksView.Data))
	if m.page >= pages {
		m.page = pages - 1
	}
	if m.page < 0 {
		m.page = 0
	}
	rows := len(m.pageRows())
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handleBooksKey processes keyboard input for the books view.
func (m Model) handleBooksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := len(m.pageRows())
	pages := pageCount(len(m.booksView.Data))

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < rows-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(rows-1, 0)
	case key.Matches(msg, m.keys.NextPage):
		if m.page < pages-1 {
			m.page++
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.page > 0 {
			m.page--
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Refresh):
		m.api.Refresh()
		m.status = statusLine{text: "Refreshing...", level: statusInfo}
	default:
		return m.handleBookAction(msg)
	}
	return m, nil
}

// handleDetailKey processes keyboard input for the detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) && m.detail != nil {
		m.detail.Refetch()
		return m, nil
	}
	return m.handleBookAction(msg)
}

// handleBookAction handles the actions shared by the books and detail
// views.
func (m Model) handleBookAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	book, ok := m.selectedBook()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Open):
		if m.currentView == ViewBooks {
			return m.openDetail(book.ID)
		}
	case key.Matches(msg, m.keys.Edit):
		return m.openEditForm(book)
	case key.Matches(msg, m.keys.Borrow):
		return m.openBorrowForm(book)
	case key.Matches(msg, m.keys.Delete):
		m.modal = confirmModal{
			title:     "Delete book",
			body:      fmt.Sprintf("Delete %q by %s? This cannot be undone.", book.Title, book.Author),
			onConfirm: m.deleteCmd(book),
		}
	}
	return m, nil
}

func (m Model) deleteCmd(book library.Book) tea.Cmd {
	api := m.api
	return m.mutate(mutationDelete, func(ctx context.Context) mutationMsg {
		return mutationMsg{book: book, err: api.DeleteBook(ctx, book.ID)}
	})
}

// renderBooks renders the paged book table.
func (m Model) renderBooks() string {
	styles := m.theme.Styles()
	view := m.booksView

	switch {
	case view.Loading:
		return styles.MutedText.Render(m.spinner.View() + " Loading books...")
	case !view.HasData && view.Err != nil:
		return styles.DangerText.Render("Could not load books: " + view.Err.Error())
	case len(view.Data) == 0:
		return styles.MutedText.Render("No books yet. Press a to add one.")
	}

	cols := bookColumns(m.width)
	var b strings.Builder

	b.WriteString(styles.MutedText.Bold(true).Render(cols.row("Title", "Author", "Genre", "ISBN", "Copies", "Status")))
	b.WriteString("\n")

	for i, book := range m.pageRows() {
		status := ternary(book.Available, "available", "unavailable")
		cells := cols.row(book.Title, book.Author, string(book.Genre), book.ISBN, strconv.Itoa(book.Copies), "")
		if i == m.cursor {
			b.WriteString(styles.Selected.Width(m.width).Render(cells + status))
		} else {
			b.WriteString(styles.Text.Render(cells))
			b.WriteString(styles.AvailabilityStyle(book.Available).Render(status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderPageBar())
	if view.Fetching {
		b.WriteString("  ")
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " updating"))
	} else if view.Err != nil {
		b.WriteString("  ")
		b.WriteString(styles.WarningText.Render("refresh failed, showing last result"))
	}
	return b.String()
}

// renderPageBar renders "Page x of y" and the numbered page buttons.
func (m Model) renderPageBar() string {
	styles := m.theme.Styles()
	total := pageCount(len(m.booksView.Data))
	current := m.page + 1

	buttons := make([]string, 0, MaxPageButtons)
	for _, p := range pageNumbers(current, total) {
		label := strconv.Itoa(p)
		if p == current {
			buttons = append(buttons, styles.Selected.Render(" "+label+" "))
		} else {
			buttons = append(buttons, styles.MutedText.Render(" "+label+" "))
		}
	}
	info := styles.FaintText.Render(fmt.Sprintf("Page %d of %d", current, total))
	return strings.Join(buttons, "") + "  " + info
}

// columns holds the widths of the book table.
type columns struct {
	title, author, genre, isbn, copies int
	showISBN                           bool
}

func bookColumns(width int) columns {
	c := columns{author: 20, genre: 12, isbn: 15, copies: 7}
	c.showISBN = width >= LayoutWideWidth
	if width < LayoutCompactWidth {
		c.author = 14
	}
	fixed := c.author + c.genre + c.copies + 12
	if c.showISBN {
		fixed += c.isbn
	}
	c.title = max(width-fixed-2, 12)
	return c
}

func (c columns) row(title, author, genre, isbn, copies, status string) string {
	var b strings.Builder
	b.WriteString(padRight(truncate(title, c.title-1), c.title))
	b.WriteString(padRight(truncate(author, c.author-1), c.author))
	b.WriteString(padRight(genre, c.genre))
	if c.showISBN {
		b.WriteString(padRight(truncate(isbn, c.isbn-1), c.isbn))
	}
	b.WriteString(padRight(copies, c.copies))
	b.WriteString(status)
	return b.String()
}
