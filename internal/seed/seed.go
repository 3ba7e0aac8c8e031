// Package seed populates an empty library with the built-in sample books.
package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/store"
)

// sampleBooks is the fixed bootstrap content. Ids are assigned fresh at seed
// time; everything else is the same on every install.
var sampleBooks = []entities.Book{
	{
		Title:    "The Midnight Library",
		Author:   "Matt Haig",
		Summary:  "Between life and death there is a library, and within that library the shelves go on forever. Every book provides a chance to try another life you could have lived.",
		Category: entities.CategoryNovel,
	},
	{
		Title:    "The Name of the Wind",
		Author:   "Patrick Rothfuss",
		Summary:  "The riveting first-person narrative of Kvothe, a young man who grows to be one of the most notorious magicians his world has ever seen.",
		Category: entities.CategoryFantasy,
	},
	{
		Title:    "Project Hail Mary",
		Author:   "Andy Weir",
		Summary:  "Ryland Grace is the sole survivor on a desperate, last-chance mission. Except that right now, he doesn't know that. He can't even remember his own name.",
		Category: entities.CategorySciFi,
	},
	{
		Title:    "The Housemaid",
		Author:   "Freida McFadden",
		Summary:  "Every day I clean the Winchesters' beautiful house top to bottom. But I know far too much about their secrets, and they know nothing about mine.",
		Category: entities.CategoryMystery,
	},
}

// Seeder writes the sample set into a store. The controller invokes it once,
// at initialization, when the store is empty and has never been seeded.
type Seeder struct {
	books []entities.Book
}

// New returns a seeder over the built-in samples.
func New() *Seeder {
	return &Seeder{books: sampleBooks}
}

// Count returns how many sample books a seeding produces.
func (s *Seeder) Count() int { return len(s.books) }

// Seed writes every sample book with a fresh id and marks the store seeded.
func (s *Seeder) Seed(ctx context.Context, bs store.BookStore) error {
	for _, sample := range s.books {
		book := sample
		book.ID = entities.NewBookID()
		book.Normalize()
		if err := bs.Put(ctx, book); err != nil {
			return fmt.Errorf("seed %q: %w", book.Title, err)
		}
	}
	if err := bs.MarkSeeded(ctx); err != nil {
		return fmt.Errorf("mark seeded: %w", err)
	}
	log.Printf("Seeded library with %d sample books", len(s.books))
	return nil
}
