// Package cli defines the shelf command line. Without a subcommand it
// starts the terminal UI; the subcommands run one catalog operation and
// print the result.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfkeep/shelf/internal/app"
	"github.com/shelfkeep/shelf/internal/catalog"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefsPath  string
	apiURL     string
	json       bool
}

func (g *globalFlags) options(cmd *cobra.Command) app.Options {
	return app.Options{
		Context:    cmd.Context(),
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		APIURL:     g.apiURL,
	}
}

// container builds the application container for a one-shot command.
// Logs go to stderr so stdout carries only the result.
func (g *globalFlags) container(cmd *cobra.Command) *do.RootScope {
	opts := g.options(cmd)
	opts.LogWriter = cmd.ErrOrStderr()
	return app.NewContainer(opts)
}

// withCatalog runs fn against the catalog API and shuts the container down
// afterwards.
func (g *globalFlags) withCatalog(cmd *cobra.Command, fn func(api *catalog.API) error) error {
	injector := g.container(cmd)
	defer func() { _ = injector.Shutdown() }()

	api, err := do.Invoke[*catalog.API](injector)
	if err != nil {
		return err
	}
	return fn(api)
}

// NewRootCommand returns the shelf command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Browse and manage a library catalog",
		Long:          "shelf talks to a library catalog service. Run it without arguments for the terminal UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), g.options(cmd))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.config/shelf/config.toml)")
	pf.StringVar(&g.prefsPath, "prefs", "", "preferences file (overrides prefs_path)")
	pf.StringVar(&g.apiURL, "api-url", "", "library service URL (overrides api_url)")
	pf.BoolVar(&g.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newBooksCommand(g),
		newBorrowCommand(g),
		newSummaryCommand(g),
		newThemeCommand(g),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "shelf: %v\n", err)
		return 1
	}
	return 0
}
