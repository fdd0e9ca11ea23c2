package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shelfkeep/shelf/internal/logtail"
)

// activityState backs the activity view: a tail of the client's own log.
type activityState struct {
	viewport viewport.Model
	entries  []logtail.Entry
	err      error
	loaded   bool
	follow   bool
	gen      int // bumped on every visit so old refresh ticks stop
}

func newActivityState() activityState {
	return activityState{viewport: viewport.New(80, 20), follow: true}
}

func (a *activityState) resize(width, height int) {
	a.viewport.Width = width
	a.viewport.Height = height
}

// render rebuilds the viewport content from the parsed entries.
func (a *activityState) render(theme Theme) {
	styles := theme.Styles()
	var b strings.Builder

	switch {
	case a.err != nil:
		b.WriteString(styles.DangerText.Render("Could not read log: " + a.err.Error()))
	case !a.loaded:
		b.WriteString(styles.MutedText.Render("Reading log..."))
	case len(a.entries) == 0:
		b.WriteString(styles.MutedText.Render("No activity yet."))
	}

	for i, e := range a.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatEntry(e, styles))
	}

	a.viewport.SetContent(b.String())
	if a.follow {
		a.viewport.GotoBottom()
	}
}

// formatEntry renders one log line: time, level, message and attributes.
func formatEntry(e logtail.Entry, styles Styles) string {
	if e.Level == "" {
		return styles.Text.Render(e.Raw)
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format(time.TimeOnly)))
		b.WriteString(" ")
	}
	b.WriteString(levelStyle(e.Level, styles).Render(padRight(strings.ToUpper(e.Level), 5)))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Message))

	for _, attr := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(attr.Key + "="))
		b.WriteString(styles.AccentText.Render(attr.Value))
	}
	return b.String()
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.InfoText
	}
}

// handleActivityKey scrolls the activity log.
func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Top):
		m.activity.viewport.GotoTop()
		m.activity.follow = false
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.activity.viewport.GotoBottom()
		m.activity.follow = true
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, loadActivityCmd(m.logFile)
	}

	var cmd tea.Cmd
	m.activity.viewport, cmd = m.activity.viewport.Update(msg)
	m.activity.follow = m.activity.viewport.AtBottom()
	return m, cmd
}

func (m Model) handleActivity(msg activityMsg) (tea.Model, tea.Cmd) {
	m.activity.loaded = true
	m.activity.err = msg.err
	if msg.err == nil {
		m.activity.entries = logtail.ParseAll(msg.lines)
	}
	m.activity.render(m.theme)
	return m, nil
}

type activityMsg struct {
	lines []string
	err   error
}

type activityTickMsg struct {
	gen int
}

func loadActivityCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return activityMsg{}
		}
		lines, err := logtail.Read(path, ActivityLines)
		return activityMsg{lines: lines, err: err}
	}
}

func activityTickCmd(gen int) tea.Cmd {
	return tea.Tick(ActivityRefreshInterval, func(time.Time) tea.Msg {
		return activityTickMsg{gen: gen}
	})
}
