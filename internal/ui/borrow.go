package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shelfkeep/shelf/internal/library"
)

const (
	borrowQuantity = iota
	borrowDue
	borrowFieldCount
)

// borrowForm collects a quantity and a due date for one book.
type borrowForm struct {
	book       library.Book
	quantity   textinput.Model
	due        textinput.Model
	focus      int
	errs       map[string]string
	submitting bool
}

// newBorrowForm starts with one copy due tomorrow.
func newBorrowForm(book library.Book, now time.Time) borrowForm {
	qty := textinput.New()
	qty.Prompt = ""
	qty.CharLimit = 6
	qty.SetValue("1")

	due := textinput.New()
	due.Prompt = ""
	due.CharLimit = 10
	due.Placeholder = time.DateOnly
	due.SetValue(now.AddDate(0, 0, 1).Format(time.DateOnly))

	return borrowForm{book: book, quantity: qty, due: due}
}

// disabled reports whether the book cannot be borrowed at all.
func (f borrowForm) disabled() bool {
	return !f.book.Available || f.book.Copies < 1
}

func (f *borrowForm) focusField(i int) tea.Cmd {
	f.focus = (i + borrowFieldCount) % borrowFieldCount
	if f.focus == borrowQuantity {
		f.due.Blur()
		return f.quantity.Focus()
	}
	f.quantity.Blur()
	return f.due.Focus()
}

// parse reads and checks the form. The due date is a local calendar date
// and must fall after now.
func (f borrowForm) parse(now time.Time) (int, time.Time, error) {
	errs := map[string]string{}

	qty, err := strconv.Atoi(strings.TrimSpace(f.quantity.Value()))
	switch {
	case err != nil:
		errs["quantity"] = "must be a whole number"
	case qty < 1:
		errs["quantity"] = "must be at least 1"
	case qty > f.book.Copies:
		errs["quantity"] = fmt.Sprintf("must be at most %d", f.book.Copies)
	}

	due, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(f.due.Value()), time.Local)
	switch {
	case err != nil:
		errs["dueDate"] = "must be a date like " + time.DateOnly
	case !due.After(now):
		errs["dueDate"] = "must be in the future"
	}

	if len(errs) > 0 {
		return 0, time.Time{}, &library.ValidationError{Fields: errs}
	}
	return qty, due, nil
}

func (f *borrowForm) setErrors(err error) {
	var ve *library.ValidationError
	if errors.As(err, &ve) {
		f.errs = ve.Fields
		return
	}
	f.errs = nil
}

func (m Model) openBorrowForm(book library.Book) (tea.Model, tea.Cmd) {
	m.borrow = newBorrowForm(book, m.now())
	cmd := m.borrow.focusField(borrowQuantity)
	m.returnView = m.currentView
	m, viewCmd := m.setView(ViewBorrow)
	return m, tea.Batch(cmd, viewCmd)
}

// handleBorrowKey processes keyboard input for the borrow form.
func (m Model) handleBorrowKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Escape) {
		return m.setView(m.returnView)
	}
	if m.borrow.submitting || m.borrow.disabled() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitBorrow()
	case key.Matches(msg, m.keys.NextField):
		return m, m.borrow.focusField(m.borrow.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.borrow.focusField(m.borrow.focus - 1)
	}

	var cmd tea.Cmd
	if m.borrow.focus == borrowQuantity {
		m.borrow.quantity, cmd = m.borrow.quantity.Update(msg)
	} else {
		m.borrow.due, cmd = m.borrow.due.Update(msg)
	}
	return m, cmd
}

func (m Model) submitBorrow() (tea.Model, tea.Cmd) {
	qty, due, err := m.borrow.parse(m.now())
	if err != nil {
		m.borrow.setErrors(err)
		m.status = statusLine{text: "Fix the highlighted fields", level: statusError}
		return m, nil
	}
	m.borrow.errs = nil
	m.borrow.submitting = true
	m.status = statusLine{text: "Borrowing...", level: statusInfo}

	api := m.api
	book := m.borrow.book
	return m, m.mutate(mutationBorrow, func(ctx context.Context) mutationMsg {
		record, err := api.BorrowBook(ctx, book.ID, qty, due)
		return mutationMsg{book: book, record: record, err: err}
	})
}

// renderBorrow renders the borrow form.
func (m Model) renderBorrow() string {
	styles := m.theme.Styles()
	f := m.borrow
	label := styles.MutedText.Width(14)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Borrow " + f.book.Title))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%s  %d copies", f.book.Author, f.book.Copies)))
	b.WriteString("\n\n")

	if f.disabled() {
		b.WriteString(styles.WarningText.Render("This book is not available to borrow."))
		b.WriteString("\n\n")
		b.WriteString(styles.FaintText.Render("esc back"))
		return b.String()
	}

	fields := []struct {
		name  string
		errID string
		hint  string
		view  string
	}{
		{"Quantity", "quantity", fmt.Sprintf("1 to %d", f.book.Copies), f.quantity.View()},
		{"Due date", "dueDate", time.DateOnly, f.due.View()},
	}
	for i, fld := range fields {
		box := styles.Field
		if i == f.focus {
			box = styles.FocusedField
		}
		b.WriteString(label.Render(fld.name))
		b.WriteString(box.Width(16).Render(fld.view))
		b.WriteString("  ")
		b.WriteString(styles.FaintText.Render(fld.hint))
		b.WriteString("\n")
		if msg := f.errs[fld.errID]; msg != "" {
			b.WriteString(label.Render(""))
			b.WriteString(styles.DangerText.Render(fld.name + " " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if f.submitting {
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " Borrowing..."))
	} else {
		b.WriteString(styles.FaintText.Render("ctrl+s borrow  esc cancel"))
	}
	return b.String()
}
