package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abhi9818/libris/internal/config"
	"github.com/abhi9818/libris/internal/entrypoint"
)

// ListCommand prints the books held in a library store.
type ListCommand struct {
	StorePath string
	Backend   string
	Verbose   bool
}

func NewListCommand() *ListCommand {
	return &ListCommand{}
}

func (cmd *ListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	fs.StringVar(&cmd.StorePath, "db", config.DefaultStorePath, "Path to the library store")
	fs.StringVar(&cmd.Backend, "backend", string(config.StoreBackendPebble), "Store backend: pebble or sqlite")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Include progress and highlight counts")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the books held in a library store, newest first.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ListCommand) Run() error {
	ctx := context.Background()

	bs, err := entrypoint.NewStore(config.Store{
		Backend: config.StoreBackend(cmd.Backend),
		Path:    cmd.StorePath,
	})
	if err != nil {
		return err
	}
	if err := bs.Open(ctx); err != nil {
		return fmt.Errorf("open store at %s: %w", cmd.StorePath, err)
	}
	defer bs.Close()

	books, err := bs.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}

	if len(books) == 0 {
		fmt.Println("The library is empty.")
		return nil
	}

	for _, book := range books {
		title := book.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s by %s [%s]\n", book.ID, title, book.Author, book.Category)
		if cmd.Verbose {
			fmt.Printf("    pages: %d/%d, highlights: %d\n", book.CurrentPage, book.TotalPages, len(book.Highlights))
		}
	}
	fmt.Printf("%d book(s)\n", len(books))
	return nil
}
