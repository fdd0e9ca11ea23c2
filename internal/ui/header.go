package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfkeep/shelf/internal/library"
)

// renderHeader renders the status bar: logo, connection health, catalog
// counts and the active theme.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("shelf", styles.Logo)}
	parts = append(parts, m.healthParts(styles, bg)...)

	if m.booksView.HasData {
		books := m.booksView.Data
		available := 0
		for _, b := range books {
			if b.Available {
				available++
			}
		}
		parts = append(parts,
			bg.Render(fmt.Sprintf("%d", len(books)), styles.Text)+bg.Space()+
				bg.Render("books", styles.MutedText)+bg.Spaces(2)+
				bg.Render(fmt.Sprintf("%d", available), styles.SuccessText)+bg.Space()+
				bg.Render("available", styles.MutedText))
	}

	if m.width >= LayoutCompactWidth && m.apiURL != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.apiURL, 48), styles.FaintText))
	}

	parts = append(parts, bg.Render(ternary(m.theme.Dark, "dark", "light"), styles.AccentText))

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// healthParts describes the connection to the library service.
func (m Model) healthParts(styles Styles, bg BgStyle) []string {
	snap := m.snapshot
	switch {
	case snap.Requests == 0:
		return []string{bg.Render("Connecting to library...", styles.WarningText.Bold(true))}

	case snap.IsOffline():
		parts := []string{
			bg.Render("LIBRARY "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		}
		if !snap.LastSuccess.IsZero() {
			parts = append(parts, bg.Render("last ok "+humanizeDuration(m.now().Sub(snap.LastSuccess))+" ago", styles.MutedText))
		}
		return parts

	case snap.ConsecutiveFailures > 0:
		return []string{bg.Render("DEGRADED", styles.WarningText.Bold(true))}

	default:
		return []string{bg.Render("ONLINE", styles.SuccessText)}
	}
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var serverErr *library.ServerError
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case errors.As(err, &serverErr):
		return fmt.Sprintf("HTTP %d", serverErr.Status)
	default:
		return "ERROR"
	}
}

// renderCommandBar lists the keys that apply to the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewBooks:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"h/l", "Page"},
			{"enter", "Open"},
			{"e", "Edit"},
			{"b", "Borrow"},
			{"d", "Delete"},
			{"a", "Add"},
			{"r", "Refresh"},
			{"?", "More"},
		}
	case ViewDetail:
		commands = []cmd{
			{"e", "Edit"},
			{"b", "Borrow"},
			{"d", "Delete"},
			{"r", "Refresh"},
			{"esc", "Books"},
			{"?", "More"},
		}
	case ViewForm:
		commands = []cmd{
			{"tab", "Next field"},
			{"left/right", "Genre"},
			{"ctrl+s", "Save"},
			{"esc", "Cancel"},
		}
	case ViewBorrow:
		commands = []cmd{
			{"tab", "Next field"},
			{"ctrl+s", "Borrow"},
			{"esc", "Cancel"},
		}
	case ViewSummary:
		commands = []cmd{
			{"r", "Refresh"},
			{"2", "Books"},
			{"esc", "Home"},
			{"?", "More"},
		}
	case ViewActivity:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"esc", "Home"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"2", "Books"},
			{"3", "Summary"},
			{"4", "Activity"},
			{"a", "Add book"},
			{"?", "More"},
			{"q", "Quit"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	if m.currentView != ViewForm && m.currentView != ViewBorrow {
		segments = append(segments,
			bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))
	}

	return styles.Footer.Width(m.width).Render(bg.Join(segments, "  "))
}

// renderStatus renders the outcome of the last action, if any.
func (m Model) renderStatus() string {
	if m.status.text == "" {
		return ""
	}
	styles := m.theme.Styles()
	switch m.status.level {
	case statusError:
		return styles.DangerText.Render(m.status.text)
	case statusSuccess:
		return styles.SuccessText.Render(m.status.text)
	default:
		return styles.InfoText.Render(m.status.text)
	}
}
