package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfkeep/shelf/internal/catalog"
)

func newBorrowCommand(g *globalFlags) *cobra.Command {
	var (
		quantity int
		due      string
	)
	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow copies of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDue(due, time.Now())
			if err != nil {
				return err
			}
			return g.withCatalog(cmd, func(api *catalog.API) error {
				record, err := api.BorrowBook(cmd.Context(), args[0], quantity, dueDate)
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), record)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Borrowed %d of %s, due %s\n",
					record.Quantity, args[0], dueDate.Format(time.DateOnly))
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "copies to borrow")
	cmd.Flags().StringVar(&due, "due", "", "due date as YYYY-MM-DD (default tomorrow)")
	return cmd
}

// parseDue reads a local calendar date; empty means tomorrow.
func parseDue(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		y, m, d := now.AddDate(0, 0, 1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --due %q: want YYYY-MM-DD", value)
	}
	return t, nil
}

func newSummaryCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show how many copies of each book are borrowed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withCatalog(cmd, func(api *catalog.API) error {
				entries, err := api.BorrowSummary(cmd.Context())
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				return printSummary(cmd.OutOrStdout(), entries)
			})
		},
	}
}
