package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shelfkeep/shelf/internal/library"
)

type formMode int

const (
	formCreate formMode = iota
	formEdit
)

// Form fields in focus order.
const (
	fieldTitle = iota
	fieldAuthor
	fieldGenre
	fieldISBN
	fieldDescription
	fieldCopies
	fieldCount
)

// fieldKeys are the JSON names validation errors are reported under.
var fieldKeys = [fieldCount]string{"title", "author", "genre", "isbn", "description", "copies"}

var fieldLabels = [fieldCount]string{"Title", "Author", "Genre", "ISBN", "Description", "Copies"}

// bookForm is the create/edit form. The genre slot has no text input; it
// is picked from library.Genres.
type bookForm struct {
	mode       formMode
	id         string
	title      string // original title, shown while editing
	inputs     [fieldCount]textinput.Model
	genre      int
	focus      int
	errs       map[string]string
	submitting bool
}

func newBookForm(mode formMode, book library.Book) bookForm {
	f := bookForm{mode: mode, id: book.ID, title: book.Title}
	placeholders := [fieldCount]string{"The Pragmatic Programmer", "Andrew Hunt", "", "978-0201616224", "Optional", "1"}
	values := [fieldCount]string{book.Title, book.Author, "", book.ISBN, book.Description, ""}
	if mode == formEdit {
		values[fieldCopies] = strconv.Itoa(book.Copies)
	} else {
		values[fieldCopies] = "1"
	}

	for i := range f.inputs {
		if i == fieldGenre {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		if i == fieldCopies {
			ti.CharLimit = 6
		}
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}

	for i, g := range library.Genres() {
		if g == book.Genre {
			f.genre = i
		}
	}
	return f
}

// focusField moves focus to field i.
func (f *bookForm) focusField(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == fieldGenre {
			continue
		}
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// input collects the form values and checks them locally.
func (f bookForm) input() (library.BookInput, error) {
	in := library.BookInput{
		Title:       f.inputs[fieldTitle].Value(),
		Author:      f.inputs[fieldAuthor].Value(),
		Genre:       library.Genres()[f.genre],
		ISBN:        f.inputs[fieldISBN].Value(),
		Description: f.inputs[fieldDescription].Value(),
	}
	copies, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldCopies].Value()))
	if err != nil {
		return in, &library.ValidationError{Fields: map[string]string{"copies": "must be a whole number"}}
	}
	in.Copies = copies
	in = in.Normalize()
	if err := library.ValidateBook(in); err != nil {
		return in, err
	}
	return in, nil
}

// setErrors shows per-field messages for validation failures and clears
// them for anything else.
func (f *bookForm) setErrors(err error) {
	var ve *library.ValidationError
	if errors.As(err, &ve) {
		f.errs = ve.Fields
		return
	}
	f.errs = nil
}

func (m Model) openCreateForm() (tea.Model, tea.Cmd) {
	m.form = newBookForm(formCreate, library.Book{})
	cmd := m.form.focusField(fieldTitle)
	m.returnView = m.currentView
	m, viewCmd := m.setView(ViewForm)
	return m, tea.Batch(cmd, viewCmd)
}

func (m Model) openEditForm(book library.Book) (tea.Model, tea.Cmd) {
	m.form = newBookForm(formEdit, book)
	cmd := m.form.focusField(fieldTitle)
	m.returnView = m.currentView
	m, viewCmd := m.setView(ViewForm)
	return m, tea.Batch(cmd, viewCmd)
}

// handleFormKey processes keyboard input for the create/edit form.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.form.submitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.setView(m.returnView)

	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()

	case key.Matches(msg, m.keys.NextField):
		return m, m.form.focusField(m.form.focus + 1)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.focusField(m.form.focus - 1)
	}

	if m.form.focus == fieldGenre {
		n := len(library.Genres())
		switch {
		case key.Matches(msg, m.keys.Left):
			m.form.genre = (m.form.genre - 1 + n) % n
		case key.Matches(msg, m.keys.Right):
			m.form.genre = (m.form.genre + 1) % n
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// submitForm validates locally and sends the create or update. Invalid
// input keeps the form open with field messages and sends nothing.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	in, err := m.form.input()
	if err != nil {
		m.form.setErrors(err)
		m.status = statusLine{text: "Fix the highlighted fields", level: statusError}
		return m, nil
	}
	m.form.errs = nil
	m.form.submitting = true
	m.status = statusLine{text: "Saving...", level: statusInfo}

	api := m.api
	if m.form.mode == formEdit {
		id := m.form.id
		return m, m.mutate(mutationUpdate, func(ctx context.Context) mutationMsg {
			book, err := api.UpdateBook(ctx, id, in)
			return mutationMsg{book: book, err: err}
		})
	}
	return m, m.mutate(mutationCreate, func(ctx context.Context) mutationMsg {
		book, err := api.CreateBook(ctx, in)
		return mutationMsg{book: book, err: err}
	})
}

// renderForm renders the create/edit form.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	f := m.form
	label := styles.MutedText.Width(14)
	width := min(max(m.width-20, 20), 60)

	var b strings.Builder
	if f.mode == formEdit {
		b.WriteString(styles.Text.Bold(true).Render("Edit " + f.title))
	} else {
		b.WriteString(styles.Text.Bold(true).Render("Add book"))
	}
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		box := styles.Field
		if i == f.focus {
			box = styles.FocusedField
		}

		var value string
		if i == fieldGenre {
			value = m.renderGenrePicker(i == f.focus)
		} else {
			ti := f.inputs[i]
			ti.Width = width
			value = ti.View()
		}

		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(box.Render(value))
		b.WriteString("\n")
		if msg := f.errs[fieldKeys[i]]; msg != "" {
			b.WriteString(label.Render(""))
			b.WriteString(styles.DangerText.Render(fieldLabels[i] + " " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if f.submitting {
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " Saving..."))
	} else {
		b.WriteString(styles.FaintText.Render("ctrl+s save  esc cancel"))
	}
	return b.String()
}

func (m Model) renderGenrePicker(focused bool) string {
	styles := m.theme.Styles()
	genres := library.Genres()
	parts := make([]string, 0, len(genres))
	for i, g := range genres {
		switch {
		case i == m.form.genre && focused:
			parts = append(parts, styles.Selected.Render(" "+string(g)+" "))
		case i == m.form.genre:
			parts = append(parts, styles.AccentText.Render(" "+string(g)+" "))
		default:
			parts = append(parts, styles.FaintText.Render(" "+string(g)+" "))
		}
	}
	return strings.Join(parts, "")
}
