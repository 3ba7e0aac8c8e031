package tasks

import (
	"context"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// BackfillTask enqueues metadata extraction for every book still missing
// metadata. The scheduler fires it periodically.
type BackfillTask struct{}

// Config returns the queue configuration for backfill sweeps.
func (t BackfillTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "metadata_backfill",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

// BackfillProcessor creates the processor for backfill sweeps.
func BackfillProcessor(lib Library, enq Enqueuer) backlite.QueueProcessor[BackfillTask] {
	return func(ctx context.Context, task BackfillTask) error {
		queued := 0
		for _, book := range lib.Books() {
			if book.Title != "" && book.Author != "" && book.Summary != "" {
				continue
			}
			if book.PDFDataURI == "" {
				continue
			}
			if _, err := enq.Add(ExtractMetadataTask{BookID: book.ID}).Save(); err != nil {
				log.Printf("[TASK] Backfill: could not queue extraction for %s: %v", book.ID, err)
				continue
			}
			queued++
		}
		log.Printf("[TASK] Backfill sweep queued %d extraction(s)", queued)
		return nil
	}
}

// NewBackfillQueue creates the backlite queue for backfill sweeps.
func NewBackfillQueue(lib Library, enq Enqueuer) backlite.Queue {
	return backlite.NewQueue(BackfillProcessor(lib, enq))
}
