package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shelfkeep/shelf/internal/catalog"
	"github.com/shelfkeep/shelf/internal/library"
	"github.com/shelfkeep/shelf/internal/prefs"
	"github.com/shelfkeep/shelf/internal/state"
	"github.com/shelfkeep/shelf/internal/theme"
)

// View represents the current active view.
type View int

const (
	ViewHome View = iota
	ViewBooks
	ViewDetail
	ViewForm
	ViewBorrow
	ViewSummary
	ViewActivity
)

// tabOrder is the cycle used by tab and shift+tab.
var tabOrder = []View{ViewHome, ViewBooks, ViewSummary, ViewActivity}

func (v View) String() string {
	switch v {
	case ViewBooks:
		return "Books"
	case ViewDetail:
		return "Book"
	case ViewForm:
		return "Book Form"
	case ViewBorrow:
		return "Borrow"
	case ViewSummary:
		return "Borrow Summary"
	case ViewActivity:
		return "Activity"
	default:
		return "Home"
	}
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Catalog *catalog.API
	Theme   *theme.Container
	Health  *state.Store
	Logger  *slog.Logger
	LogFile string
	APIURL  string
	Now     func() time.Time
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusSuccess
	statusError
)

type statusLine struct {
	text  string
	level statusLevel
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	api     *catalog.API
	themes  *theme.Container
	health  *state.Store
	logger  *slog.Logger
	logFile string
	apiURL  string
	now     func() time.Time

	keys        keyMap
	theme       Theme
	currentView View
	returnView  View // where esc leaves the form and borrow views
	width       int
	height      int
	ready       bool
	spinner     spinner.Model

	snapshot state.Snapshot

	books     *catalog.Watch[[]library.Book]
	booksView catalog.View[[]library.Book]
	page      int // zero-based
	cursor    int // row within the page

	detail     *catalog.Watch[library.Book]
	detailView catalog.View[library.Book]

	summary     *catalog.Watch[[]library.SummaryEntry]
	summaryView catalog.View[[]library.SummaryEntry]

	form     bookForm
	borrow   borrowForm
	activity activityState

	modal    Modal
	showHelp bool
	status   statusLine
}

// New creates the model and starts watching the book list.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	themes := opts.Theme
	if themes == nil {
		themes = theme.New(prefs.NewMemoryStore(), logger)
	}
	health := opts.Health
	if health == nil {
		health = &state.Store{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		ctx:         ctx,
		api:         opts.Catalog,
		themes:      themes,
		health:      health,
		logger:      logger,
		logFile:     opts.LogFile,
		apiURL:      opts.APIURL,
		now:         now,
		keys:        DefaultKeyMap(),
		theme:       ThemeFor(themes.IsDark()),
		currentView: ViewHome,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		activity:    newActivityState(),
	}
	m.books = m.api.WatchBooks()
	m.booksView = m.books.View()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(DefaultUIInterval),
		fetchSnapshotCmd(m.health),
		waitFor(topicBooks, m.books.Changes()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.activity.resize(m.width, m.contentHeight())
		m.activity.render(m.theme)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.health), tickCmd(DefaultUIInterval))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case changedMsg:
		return m.handleChanged(msg)

	case mutationMsg:
		return m.handleMutation(msg)

	case activityMsg:
		return m.handleActivity(msg)

	case activityTickMsg:
		if m.currentView != ViewActivity || msg.gen != m.activity.gen {
			return m, nil
		}
		return m, tea.Batch(loadActivityCmd(m.logFile), activityTickCmd(msg.gen))
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Modals and forms see keys before the
// global bindings so typed text is never taken as a command.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	switch m.currentView {
	case ViewForm:
		return m.handleFormKey(msg)
	case ViewBorrow:
		return m.handleBorrowKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleTheme):
		pref := m.themes.Toggle()
		m.theme = ThemeFor(pref.IsDark)
		m.activity.render(m.theme)
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.setView(m.cycleView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.setView(m.cycleView(-1))

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewDetail {
			return m.setView(ViewBooks)
		}
		return m.setView(ViewHome)

	case key.Matches(msg, m.keys.ViewHome):
		return m.setView(ViewHome)
	case key.Matches(msg, m.keys.ViewBooks):
		return m.setView(ViewBooks)
	case key.Matches(msg, m.keys.ViewSummary):
		return m.setView(ViewSummary)
	case key.Matches(msg, m.keys.ViewActivity):
		return m.setView(ViewActivity)

	case key.Matches(msg, m.keys.AddBook):
		return m.openCreateForm()
	}

	switch m.currentView {
	case ViewBooks:
		return m.handleBooksKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewSummary:
		if key.Matches(msg, m.keys.Refresh) && m.summary != nil {
			m.summary.Refetch()
		}
		return m, nil
	case ViewActivity:
		return m.handleActivityKey(msg)
	}
	return m, nil
}

func (m Model) cycleView(step int) View {
	idx := 0
	for i, v := range tabOrder {
		if v == m.currentView {
			idx = i
			break
		}
	}
	idx = (idx + step + len(tabOrder)) % len(tabOrder)
	return tabOrder[idx]
}

// setView switches views, opening the watches the target needs and closing
// the ones it does not.
func (m Model) setView(v View) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	if v != ViewSummary && m.summary != nil {
		m.summary.Close()
		m.summary = nil
	}
	switch v {
	case ViewHome, ViewBooks, ViewSummary, ViewActivity:
		if m.detail != nil {
			m.detail.Close()
			m.detail = nil
		}
	}

	if v == ViewSummary && m.summary == nil {
		m.summary = m.api.WatchBorrowSummary()
		m.summaryView = m.summary.View()
		cmds = append(cmds, waitFor(topicSummary, m.summary.Changes()))
	}
	if v == ViewActivity && m.currentView != ViewActivity {
		m.activity.gen++
		cmds = append(cmds, loadActivityCmd(m.logFile), activityTickCmd(m.activity.gen))
	}

	if v != m.currentView {
		m.status = statusLine{}
	}
	m.currentView = v
	return m, tea.Batch(cmds...)
}

// openDetail starts watching a single book and shows it.
func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	if m.detail != nil {
		m.detail.Close()
	}
	m.detail = m.api.WatchBook(id)
	m.detailView = m.detail.View()
	m, cmd := m.setView(ViewDetail)
	return m, tea.Batch(cmd, waitFor(topicBook, m.detail.Changes()))
}

// handleChanged refreshes the view of the watch that signalled. Messages
// from watches that have since been replaced or closed are dropped.
func (m Model) handleChanged(msg changedMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		return m, nil
	}
	switch msg.topic {
	case topicBooks:
		if m.books == nil || msg.ch != m.books.Changes() {
			return m, nil
		}
		m.booksView = m.books.View()
		m.clampPage()
		return m, waitFor(topicBooks, m.books.Changes())

	case topicBook:
		if m.detail == nil || msg.ch != m.detail.Changes() {
			return m, nil
		}
		m.detailView = m.detail.View()
		if m.currentView == ViewBorrow && m.detailView.HasData && m.borrow.book.ID == m.detailView.Data.ID {
			m.borrow.book = m.detailView.Data
		}
		return m, waitFor(topicBook, m.detail.Changes())

	case topicSummary:
		if m.summary == nil || msg.ch != m.summary.Changes() {
			return m, nil
		}
		m.summaryView = m.summary.View()
		return m, waitFor(topicSummary, m.summary.Changes())
	}
	return m, nil
}

// handleMutation applies the outcome of a write. Failures keep the form
// that produced them.
func (m Model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("library write failed", "action", msg.kind.String(), "error", msg.err)
		m.status = statusLine{text: fmt.Sprintf("%s failed: %v", msg.kind, msg.err), level: statusError}
		switch msg.kind {
		case mutationCreate, mutationUpdate:
			m.form.submitting = false
			m.form.setErrors(msg.err)
		case mutationBorrow:
			m.borrow.submitting = false
			m.borrow.setErrors(msg.err)
		}
		return m, nil
	}

	var next View
	var text string
	switch msg.kind {
	case mutationCreate:
		text = fmt.Sprintf("Added %q", msg.book.Title)
		next = ViewBooks
	case mutationUpdate:
		text = fmt.Sprintf("Saved %q", msg.book.Title)
		next = ViewBooks
	case mutationDelete:
		text = "Book deleted"
		next = m.currentView
		if next == ViewDetail {
			next = ViewBooks
		}
	case mutationBorrow:
		text = fmt.Sprintf("Borrowed %d of %q", msg.record.Quantity, msg.book.Title)
		next = ViewSummary
	}

	m, cmd := m.setView(next)
	m.status = statusLine{text: text, level: statusSuccess}
	return m, cmd
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	header := m.renderHeader()
	bar := m.renderCommandBar()
	status := m.renderStatus()

	height := m.contentHeight()
	if status != "" {
		height--
	}
	content := lipgloss.NewStyle().
		Width(m.width).
		Height(max(height, 1)).
		MaxHeight(max(height, 1)).
		Render(m.renderContent())

	parts := []string{header, bar, content}
	if status != "" {
		parts = append(parts, status)
	}
	return strings.Join(parts, "\n")
}

// contentHeight is the space left under the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 1)
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBooks:
		return m.renderBooks()
	case ViewDetail:
		return m.renderDetail()
	case ViewForm:
		return m.renderForm()
	case ViewBorrow:
		return m.renderBorrow()
	case ViewSummary:
		return m.renderSummary()
	case ViewActivity:
		return m.activity.viewport.View()
	default:
		return m.renderHome()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type watchTopic int

const (
	topicBooks watchTopic = iota
	topicBook
	topicSummary
)

// changedMsg reports that a watch signalled. ch identifies the watch so
// stale messages can be recognised.
type changedMsg struct {
	topic  watchTopic
	ch     <-chan struct{}
	closed bool
}

type mutationKind int

const (
	mutationCreate mutationKind = iota
	mutationUpdate
	mutationDelete
	mutationBorrow
)

func (k mutationKind) String() string {
	switch k {
	case mutationCreate:
		return "create"
	case mutationUpdate:
		return "update"
	case mutationDelete:
		return "delete"
	default:
		return "borrow"
	}
}

type mutationMsg struct {
	kind   mutationKind
	book   library.Book
	record library.BorrowRecord
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitFor blocks until the watch behind ch signals or is closed.
func waitFor(topic watchTopic, ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		_, ok := <-ch
		return changedMsg{topic: topic, ch: ch, closed: !ok}
	}
}

// mutate runs fn with a bounded context derived from the UI's.
func (m Model) mutate(kind mutationKind, fn func(ctx context.Context) mutationMsg) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, MutationTimeout)
		defer cancel()
		msg := fn(ctx)
		msg.kind = kind
		return msg
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.close()
	} else {
		m.close()
	}
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}

// close releases every watch the model holds.
func (m Model) close() {
	if m.books != nil {
		m.books.Close()
	}
	if m.detail != nil {
		m.detail.Close()
	}
	if m.summary != nil {
		m.summary.Close()
	}
}
