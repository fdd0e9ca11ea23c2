// Package theme holds the dark/light preference and keeps it persisted.
package theme

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/shelfkeep/shelf/internal/prefs"
)

// StorageKey is the preference key the theme is stored under.
const StorageKey = "bookLibrary-theme"

// Source records where the current preference came from.
const (
	SourceDefault        = "default"
	SourceUserPreference = "user-preference"
)

// Preference is the persisted theme state.
type Preference struct {
	IsDark bool   `json:"isDark"`
	Source string `json:"source"`
}

// Default is used when nothing valid is stored.
func Default() Preference {
	return Preference{IsDark: false, Source: SourceDefault}
}

// Container owns the theme preference. Every change is written through to
// the store; store failures are logged and never surfaced.
type Container struct {
	store  prefs.Store
	logger *slog.Logger

	mu   sync.RWMutex
	pref Preference
}

// New loads the stored preference, writing the default back when it is
// missing or unreadable.
func New(store prefs.Store, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Container{store: store, logger: logger, pref: Default()}

	if p, ok := c.load(); ok {
		c.pref = p
		return c
	}
	c.persist(c.pref)
	return c
}

// Get returns the current preference.
func (c *Container) Get() Preference {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pref
}

// IsDark reports whether the dark theme is active.
func (c *Container) IsDark() bool {
	return c.Get().IsDark
}

// Toggle flips the theme, marks it as the user's choice and persists it.
func (c *Container) Toggle() Preference {
	c.mu.Lock()
	c.pref = Preference{IsDark: !c.pref.IsDark, Source: SourceUserPreference}
	p := c.pref
	// Persist under the lock so concurrent toggles land in order.
	c.persist(p)
	c.mu.Unlock()
	return p
}

func (c *Container) load() (Preference, bool) {
	if c.store == nil {
		return Preference{}, false
	}
	raw, ok, err := c.store.Get(StorageKey)
	if err != nil {
		c.logger.Warn("read theme preference", "error", err)
		return Preference{}, false
	}
	if !ok {
		return Preference{}, false
	}
	var p Preference
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.logger.Warn("discarding unreadable theme preference", "error", err)
		return Preference{}, false
	}
	if p.Source == "" {
		p.Source = SourceDefault
	}
	return p, true
}

func (c *Container) persist(p Preference) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("encode theme preference", "error", err)
		return
	}
	if err := c.store.Set(StorageKey, string(raw)); err != nil {
		c.logger.Warn("persist theme preference", "error", err)
	}
}
