package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfkeep/shelf/internal/catalog"
	"github.com/shelfkeep/shelf/internal/library"
)

// bookFlags hold the writable fields accepted by create and update.
type bookFlags struct {
	title       string
	author      string
	genre       string
	isbn        string
	description string
	copies      int
}

func (f *bookFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "book title")
	fl.StringVar(&f.author, "author", "", "book author")
	fl.StringVar(&f.genre, "genre", "", "FICTION, NON-FICTION, SCIENCE, HISTORY, BIOGRAPHY or FANTASY")
	fl.StringVar(&f.isbn, "isbn", "", "ISBN")
	fl.StringVar(&f.description, "description", "", "short description")
	fl.IntVar(&f.copies, "copies", 1, "number of copies owned")
}

// apply overrides the fields of in whose flags were set on the command line.
func (f *bookFlags) apply(cmd *cobra.Command, in library.BookInput) library.BookInput {
	fl := cmd.Flags()
	if fl.Changed("title") {
		in.Title = f.title
	}
	if fl.Changed("author") {
		in.Author = f.author
	}
	if fl.Changed("genre") {
		in.Genre = library.Genre(f.genre)
	}
	if fl.Changed("isbn") {
		in.ISBN = f.isbn
	}
	if fl.Changed("description") {
		in.Description = f.description
	}
	if fl.Changed("copies") {
		in.Copies = f.copies
	}
	return in
}

func newBooksCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List and manage books",
	}
	cmd.AddCommand(
		newBooksListCommand(g),
		newBooksShowCommand(g),
		newBooksCreateCommand(g),
		newBooksUpdateCommand(g),
		newBooksDeleteCommand(g),
	)
	return cmd
}

func newBooksListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withCatalog(cmd, func(api *catalog.API) error {
				books, err := api.ListBooks(cmd.Context())
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), books)
				}
				return printBooks(cmd.OutOrStdout(), books)
			})
		},
	}
}

func newBooksShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withCatalog(cmd, func(api *catalog.API) error {
				book, err := api.GetBook(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), book)
				}
				return printBook(cmd.OutOrStdout(), book)
			})
		},
	}
}

func newBooksCreateCommand(g *globalFlags) *cobra.Command {
	f := &bookFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := f.apply(cmd, library.BookInput{Copies: f.copies})
			return g.withCatalog(cmd, func(api *catalog.API) error {
				book, err := api.CreateBook(cmd.Context(), in)
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), book)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", book.Title, book.ID)
				return err
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newBooksUpdateCommand(g *globalFlags) *cobra.Command {
	f := &bookFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a book; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withCatalog(cmd, func(api *catalog.API) error {
				current, err := api.GetBook(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				book, err := api.UpdateBook(cmd.Context(), args[0], f.apply(cmd, current.Input()))
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), book)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", book.Title, book.ID)
				return err
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newBooksDeleteCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withCatalog(cmd, func(api *catalog.API) error {
				if err := api.DeleteBook(cmd.Context(), args[0]); err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return err
			})
		},
	}
}
