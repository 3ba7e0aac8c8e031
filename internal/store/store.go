// Package store defines the persistence port for book records.
//
// The library controller talks only to the BookStore interface; concrete
// adapters live in the pebblestore and sqlitestore subpackages. Adapters do
// no caching of their own, the controller owns the in-memory view.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhi9818/libris/internal/entities"
)

// SchemaVersion is the persisted record schema version. No migrations are
// defined for version 1.
const SchemaVersion = 1

var (
	// ErrUnavailable means the underlying engine could not be opened.
	// Writes are impossible; callers may continue read-only.
	ErrUnavailable = errors.New("book store unavailable")

	// ErrReadFailed means GetAll hit corruption or an engine read failure.
	ErrReadFailed = errors.New("book store read failed")

	// ErrWriteFailed is a generic persist failure.
	ErrWriteFailed = errors.New("book store write failed")

	// ErrQuotaExceeded is a write failure caused by size limits. It wraps
	// ErrWriteFailed so errors.Is(err, ErrWriteFailed) still holds, but
	// callers can produce the more specific user-facing message.
	ErrQuotaExceeded = fmt.Errorf("storage quota exceeded: %w", ErrWriteFailed)
)

// BookStore is durable key-value persistence of book records, keyed by id.
type BookStore interface {
	// Open establishes the connection and schema. It is idempotent and safe
	// to call from concurrent goroutines; all callers observe the same ready
	// store. Fails with ErrUnavailable when the engine cannot be opened.
	Open(ctx context.Context) error

	// GetAll returns every stored book ordered by descending id
	// (newest-first). Fails with ErrReadFailed on corruption.
	GetAll(ctx context.Context) ([]entities.Book, error)

	// Put upserts a single book by id, replacing the whole record.
	Put(ctx context.Context, book entities.Book) error

	// Delete removes the record for id. Absent ids are a successful no-op.
	Delete(ctx context.Context, id string) error

	// Seeded reports whether the sample-library bootstrap already ran
	// against this store, ever. The marker survives deleting every book.
	Seeded(ctx context.Context) (bool, error)

	// MarkSeeded durably records that bootstrap ran.
	MarkSeeded(ctx context.Context) error

	Close() error
}
