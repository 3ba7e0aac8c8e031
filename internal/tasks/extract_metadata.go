package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/abhi9818/libris/internal/ai"
	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/pdf"
)

// Library is the controller surface the AI tasks need.
type Library interface {
	Get(id string) (entities.Book, bool)
	Books() []entities.Book
	AddOrUpdate(ctx context.Context, book entities.Book, isEditing bool) (entities.Book, error)
}

// MetadataExtractor is the AI metadata contract consumed by extraction tasks.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, text string) (ai.Metadata, error)
}

// ExtractMetadataTask fills a book's missing metadata from its PDF content.
type ExtractMetadataTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for metadata extraction tasks.
func (t ExtractMetadataTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "extract_metadata",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExtractMetadataProcessor creates the processor for metadata extraction.
// Extracted values fill only fields the user has not set; a follow-up cover
// generation is chained when the book still wears the placeholder cover.
func ExtractMetadataProcessor(lib Library, extractor MetadataExtractor, slots *ai.Slots, enq Enqueuer) backlite.QueueProcessor[ExtractMetadataTask] {
	return func(ctx context.Context, task ExtractMetadataTask) error {
		book, ok := lib.Get(task.BookID)
		if !ok {
			log.Printf("[TASK] Book %s removed before extraction, skipping", task.BookID)
			return nil
		}

		data, err := pdf.ParseDataURI(book.PDFDataURI)
		if err != nil {
			log.Printf("[TASK] Book %s has no PDF attached, skipping extraction", task.BookID)
			return nil
		}
		info, err := pdf.Inspect(data)
		if err != nil {
			// A malformed PDF will not get better on retry.
			log.Printf("[TASK] Book %s: unreadable PDF: %v", task.BookID, err)
			return nil
		}

		token := slots.Begin("metadata:" + task.BookID)
		meta, aiErr := extractor.ExtractMetadata(ctx, info.Text)
		if aiErr != nil {
			log.Printf("[TASK] Book %s: extraction degraded to fallback: %v", task.BookID, aiErr)
		}
		if !slots.Current("metadata:"+task.BookID, token) {
			log.Printf("[TASK] Book %s: discarding stale extraction response", task.BookID)
			return nil
		}

		// Re-read: the user may have edited while the service was thinking.
		latest, ok := lib.Get(task.BookID)
		if !ok {
			return nil
		}
		merged, changed := applyMetadata(latest, meta, info.Pages)
		if !changed {
			log.Printf("[TASK] Book %s: no metadata updates needed", task.BookID)
			return nil
		}

		saved, err := lib.AddOrUpdate(ctx, merged, true)
		if err != nil {
			return fmt.Errorf("store extracted metadata for %s: %w", task.BookID, err)
		}
		log.Printf("[TASK] Book %s enriched: %q by %q", saved.ID, saved.Title, saved.Author)

		if enq != nil && saved.CoverImageURL == entities.PlaceholderCoverURL {
			if _, err := enq.Add(GenerateCoverTask{BookID: saved.ID}).Save(); err != nil {
				log.Printf("[TASK] Book %s: could not queue cover generation: %v", saved.ID, err)
			}
		}
		return nil
	}
}

// applyMetadata fills empty fields from extracted metadata and records the
// page count when it was unknown. User-entered values always win.
func applyMetadata(book entities.Book, meta ai.Metadata, pages int) (entities.Book, bool) {
	changed := false
	if book.Title == "" && meta.Title != "" {
		book.Title = meta.Title
		changed = true
	}
	if book.Author == "" && meta.Author != "" {
		book.Author = meta.Author
		changed = true
	}
	if book.Summary == "" && meta.Summary != "" {
		book.Summary = meta.Summary
		changed = true
	}
	if book.Category == "" && meta.Category != "" {
		book.Category = meta.Category
		changed = true
	}
	if book.TotalPages == 0 && pages > 0 {
		book.TotalPages = pages
		changed = true
	}
	return book, changed
}

// NewExtractMetadataQueue creates the backlite queue for extraction tasks.
func NewExtractMetadataQueue(lib Library, extractor MetadataExtractor, slots *ai.Slots, enq Enqueuer) backlite.Queue {
	return backlite.NewQueue(ExtractMetadataProcessor(lib, extractor, slots, enq))
}
