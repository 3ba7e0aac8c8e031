package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/abhi9818/libris/internal/ai"
	"github.com/abhi9818/libris/internal/entities"
)

// CoverGenerator is the AI cover contract consumed by cover tasks.
type CoverGenerator interface {
	GenerateCover(ctx context.Context, title, summary, category string) string
}

// GenerateCoverTask replaces a book's placeholder cover with generated art.
type GenerateCoverTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for cover generation tasks.
func (t GenerateCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "generate_cover",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     3 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

// GenerateCoverProcessor creates the processor for cover generation. A book
// that already has a real cover is left alone; an empty generation result
// keeps the placeholder.
func GenerateCoverProcessor(lib Library, generator CoverGenerator, slots *ai.Slots) backlite.QueueProcessor[GenerateCoverTask] {
	return func(ctx context.Context, task GenerateCoverTask) error {
		book, ok := lib.Get(task.BookID)
		if !ok {
			log.Printf("[TASK] Book %s removed before cover generation, skipping", task.BookID)
			return nil
		}
		if book.CoverImageURL != entities.PlaceholderCoverURL {
			return nil
		}

		token := slots.Begin("cover:" + task.BookID)
		coverURI := generator.GenerateCover(ctx, book.Title, book.Summary, book.Category)
		if coverURI == "" {
			log.Printf("[TASK] Book %s: cover generation returned nothing, keeping placeholder", task.BookID)
			return nil
		}
		if !slots.Current("cover:"+task.BookID, token) {
			log.Printf("[TASK] Book %s: discarding stale cover response", task.BookID)
			return nil
		}

		latest, ok := lib.Get(task.BookID)
		if !ok || latest.CoverImageURL != entities.PlaceholderCoverURL {
			return nil
		}
		latest.CoverImageURL = coverURI
		if _, err := lib.AddOrUpdate(ctx, latest, true); err != nil {
			return fmt.Errorf("store generated cover for %s: %w", task.BookID, err)
		}
		log.Printf("[TASK] Book %s: cover generated", task.BookID)
		return nil
	}
}

// NewGenerateCoverQueue creates the backlite queue for cover tasks.
func NewGenerateCoverQueue(lib Library, generator CoverGenerator, slots *ai.Slots) backlite.Queue {
	return backlite.NewQueue(GenerateCoverProcessor(lib, generator, slots))
}
