// Package cli holds the maintenance subcommands that run against a library
// store without the HTTP server.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abhi9818/libris/internal/config"
	"github.com/abhi9818/libris/internal/entrypoint"
	"github.com/abhi9818/libris/internal/seed"
)

// SeedCommand populates a store with the built-in sample library.
type SeedCommand struct {
	StorePath string
	Backend   string
	Force     bool
	DryRun    bool
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.StorePath, "db", config.DefaultStorePath, "Path to the library store")
	fs.StringVar(&cmd.Backend, "backend", string(config.StoreBackendPebble), "Store backend: pebble or sqlite")
	fs.BoolVar(&cmd.Force, "force", false, "Seed even if the store already holds books or was seeded before")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be written without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate a library store with the built-in sample books.\n")
		fmt.Fprintf(os.Stderr, "Useful for demos and local development.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed -db ./data/library.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -backend sqlite -db ./data/library.sqlite -force\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
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
	seeded, err := bs.Seeded(ctx)
	if err != nil {
		return fmt.Errorf("read seeded marker: %w", err)
	}

	if !cmd.Force && (len(books) > 0 || seeded) {
		fmt.Printf("Store already holds %d book(s) (seeded marker: %v); nothing to do. Use -force to seed anyway.\n", len(books), seeded)
		return nil
	}

	seeder := seed.New()
	if cmd.DryRun {
		fmt.Printf("DRY RUN: would write %d sample book(s) to %s\n", seeder.Count(), cmd.StorePath)
		return nil
	}

	if err := seeder.Seed(ctx, bs); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	fmt.Printf("Seeded %d sample book(s) into %s\n", seeder.Count(), cmd.StorePath)
	return nil
}
