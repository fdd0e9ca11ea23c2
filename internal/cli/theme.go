package cli

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfkeep/shelf/internal/theme"
)

func newThemeCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or toggle the stored dark/light preference",
	}

	run := func(toggle bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			injector := g.container(cmd)
			defer func() { _ = injector.Shutdown() }()

			themes, err := do.Invoke[*theme.Container](injector)
			if err != nil {
				return err
			}
			pref := themes.Get()
			if toggle {
				pref = themes.Toggle()
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), pref)
			}
			name := "light"
			if pref.IsDark {
				name = "dark"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", name, pref.Source)
			return err
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Print the current theme", Args: cobra.NoArgs, RunE: run(false)},
		&cobra.Command{Use: "toggle", Short: "Switch between dark and light", Args: cobra.NoArgs, RunE: run(true)},
	)
	return cmd
}
