package app

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfkeep/shelf/internal/catalog"
	"github.com/shelfkeep/shelf/internal/config"
	"github.com/shelfkeep/shelf/internal/state"
	"github.com/shelfkeep/shelf/internal/theme"
	"github.com/shelfkeep/shelf/internal/ui"
)

// Run boots the shelf TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Context = ctx
	injector := NewContainer(opts)
	defer func() { _ = injector.Shutdown() }()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := do.Invoke[*LoggerHandle](injector)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	api, err := do.Invoke[*catalog.API](injector)
	if err != nil {
		return fmt.Errorf("init library client: %w", err)
	}

	// Start background refresh.
	if _, err := do.Invoke[*Refresher](injector); err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}

	return ui.Run(ui.Options{
		Context: ctx,
		Catalog: api,
		Theme:   do.MustInvoke[*theme.Container](injector),
		Health:  do.MustInvoke[*state.Store](injector),
		Logger:  log.Logger,
		LogFile: cfg.LogFile,
		APIURL:  cfg.APIURL,
	})
}
