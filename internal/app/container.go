package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelf/internal/cache"
	"github.com/shelfkeep/shelf/internal/catalog"
	"github.com/shelfkeep/shelf/internal/config"
	"github.com/shelfkeep/shelf/internal/library"
	"github.com/shelfkeep/shelf/internal/logging"
	"github.com/shelfkeep/shelf/internal/prefs"
	"github.com/shelfkeep/shelf/internal/state"
	"github.com/shelfkeep/shelf/internal/theme"
)

// Options configure the shelf application.
type Options struct {
	Context    context.Context
	ConfigPath string
	PrefsPath  string    // overrides prefs_path from the config
	APIURL     string    // overrides api_url from the config
	LogWriter  io.Writer // when set, logs go here instead of the log file
}

// NewContainer registers one provider per component. Nothing is built until
// it is invoked.
func NewContainer(opts Options) *do.RootScope {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	injector := do.New()

	do.ProvideValue(injector, opts)

	// Core infrastructure
	do.Provide(injector, ProvideConfig)
	do.Provide(injector, ProvideLogger)
	do.Provide(injector, ProvidePrefs)
	do.Provide(injector, ProvideTheme)
	do.Provide(injector, ProvideHealth)

	// Data layer
	do.Provide(injector, ProvideClient)
	do.Provide(injector, ProvideCache)
	do.Provide(injector, ProvideCatalog)

	// Workers
	do.Provide(injector, ProvideRefresher)

	return injector
}

// ProvideConfig loads the configuration and applies command-line overrides.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[Options](i)
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if p := strings.TrimSpace(opts.PrefsPath); p != "" {
		cfg.PrefsPath = p
	}
	if u := strings.TrimSpace(opts.APIURL); u != "" {
		cfg.APIURL = u
	}
	return &cfg, nil
}

// LoggerHandle owns the logger and the file it writes to.
type LoggerHandle struct {
	*slog.Logger
	file *os.File
}

// Shutdown implements do.Shutdowner.
func (h *LoggerHandle) Shutdown() error {
	if h.file == nil {
		return nil
	}
	return h.file.Close()
}

// ProvideLogger builds the structured logger. Without an explicit writer it
// logs to the configured file so the terminal stays free for the UI.
func ProvideLogger(i do.Injector) (*LoggerHandle, error) {
	opts := do.MustInvoke[Options](i)
	cfg := do.MustInvoke[*config.Config](i)

	handle := &LoggerHandle{}
	writer := opts.LogWriter
	if writer == nil {
		file, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		handle.file = file
		writer = file
	}

	handle.Logger = logging.New(logging.Config{
		Writer: writer,
		Format: cfg.LogFormat,
		Level:  logging.ParseLevel(cfg.LogLevel),
	})
	handle.Debug("starting shelf",
		"api_url", cfg.APIURL,
		"log_level", cfg.LogLevel,
		"prefs_path", cfg.PrefsPath,
	)
	return handle, nil
}

// ProvidePrefs provides the file-backed preference store.
func ProvidePrefs(i do.Injector) (prefs.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return prefs.NewFileStore(cfg.PrefsPath)
}

// ProvideTheme provides the theme container, loading the stored preference.
func ProvideTheme(i do.Injector) (*theme.Container, error) {
	store := do.MustInvoke[prefs.Store](i)
	log := do.MustInvoke[*LoggerHandle](i)
	return theme.New(store, log.Logger), nil
}

// ProvideHealth provides the connection health store.
func ProvideHealth(i do.Injector) (*state.Store, error) {
	return &state.Store{}, nil
}

// ProvideClient provides the library HTTP client.
func ProvideClient(i do.Injector) (*library.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	return library.NewClient(library.Options{
		BaseURL:           cfg.APIURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log.Logger,
	})
}

// CacheHandle owns the data-synchronization cache.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdowner.
func (h *CacheHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCache provides the cache, reporting every outcome to the health
// store.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	opts := do.MustInvoke[Options](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	client := do.MustInvoke[*library.Client](i)
	health := do.MustInvoke[*state.Store](i)

	keep := cfg.KeepUnusedFor
	if keep == 0 {
		// Zero in the config means no retention.
		keep = -1
	}
	c := cache.New(opts.Context, catalog.NewTransport(client), cache.Options{
		KeepUnusedFor: keep,
		Logger:        log.Logger,
		Observer:      healthObserver(health),
	})
	return &CacheHandle{Cache: c}, nil
}

func healthObserver(health *state.Store) func(cache.Event) {
	return func(ev cache.Event) {
		if errors.Is(ev.Err, context.Canceled) {
			return
		}
		health.Record(ev.Err)
	}
}

// ProvideCatalog provides the typed catalog API.
func ProvideCatalog(i do.Injector) (*catalog.API, error) {
	c := do.MustInvoke[*CacheHandle](i)
	return catalog.New(c.Cache, nil), nil
}

// ProvideRefresher starts background refreshing when refresh_interval is
// set.
func ProvideRefresher(i do.Injector) (*Refresher, error) {
	opts := do.MustInvoke[Options](i)
	cfg := do.MustInvoke[*config.Config](i)
	api := do.MustInvoke[*catalog.API](i)
	health := do.MustInvoke[*state.Store](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return StartRefresher(opts.Context, api, health, cfg.RefreshInterval, log.Logger), nil
}
