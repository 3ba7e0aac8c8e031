// Package pebblestore persists book records in a PebbleDB key-value store.
//
// Key schema:
//   - book:<id>   -> Book JSON
//   - meta:seeded -> "1" once the sample-library bootstrap has run
//   - meta:schema -> record schema version, stamped on every Open
package pebblestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"syscall"

	"github.com/cockroachdb/pebble"

	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/store"
)

const (
	bookPrefix    = "book:"
	seededMetaKey = "meta:seeded"
	schemaMetaKey = "meta:schema"
)

// Store is a store.BookStore backed by an embedded PebbleDB at a directory
// path. All writes are synced; the record for a book is its full JSON payload.
type Store struct {
	path string

	// Per-record size cap in bytes, emulating browser storage quotas.
	// Zero means unlimited.
	maxRecordBytes int

	mu sync.Mutex
	db *pebble.DB
}

// New creates a store over the Pebble database at path. The database is not
// opened until Open is called.
func New(path string, maxRecordBytes int) *Store {
	return &Store{path: path, maxRecordBytes: maxRecordBytes}
}

func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := pebble.Open(s.path, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open pebble at %s: %w: %v", s.path, store.ErrUnavailable, err)
	}

	version := strconv.Itoa(store.SchemaVersion)
	if err := db.Set([]byte(schemaMetaKey), []byte(version), pebble.Sync); err != nil {
		db.Close()
		return fmt.Errorf("stamp schema version: %w: %v", store.ErrUnavailable, err)
	}

	s.db = db
	return nil
}

func (s *Store) ready() (*pebble.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, store.ErrUnavailable
	}
	return s.db, nil
}

func (s *Store) GetAll(ctx context.Context) ([]entities.Book, error) {
	db, err := s.ready()
	if err != nil {
		return nil, err
	}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(bookPrefix),
		UpperBound: []byte(bookPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate books: %w: %v", store.ErrReadFailed, err)
	}
	defer iter.Close()

	var books []entities.Book
	for iter.First(); iter.Valid(); iter.Next() {
		var book entities.Book
		if err := json.Unmarshal(iter.Value(), &book); err != nil {
			return nil, fmt.Errorf("decode record %s: %w: %v", iter.Key(), store.ErrReadFailed, err)
		}
		books = append(books, book)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate books: %w: %v", store.ErrReadFailed, err)
	}

	store.SortNewestFirst(books)
	return books, nil
}

func (s *Store) Put(ctx context.Context, book entities.Book) error {
	db, err := s.ready()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode book %s: %w: %v", book.ID, store.ErrWriteFailed, err)
	}
	if s.maxRecordBytes > 0 && len(payload) > s.maxRecordBytes {
		return fmt.Errorf("book %s is %d bytes (limit %d): %w",
			book.ID, len(payload), s.maxRecordBytes, store.ErrQuotaExceeded)
	}

	if err := db.Set([]byte(bookPrefix+book.ID), payload, pebble.Sync); err != nil {
		return writeError(book.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.ready()
	if err != nil {
		return err
	}
	// Pebble deletes are blind; a missing key is already a no-op.
	if err := db.Delete([]byte(bookPrefix+id), pebble.Sync); err != nil {
		return writeError(id, err)
	}
	return nil
}

func (s *Store) Seeded(ctx context.Context) (bool, error) {
	db, err := s.ready()
	if err != nil {
		return false, err
	}
	_, closer, err := db.Get([]byte(seededMetaKey))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read seeded marker: %w: %v", store.ErrReadFailed, err)
	}
	closer.Close()
	return true, nil
}

func (s *Store) MarkSeeded(ctx context.Context) error {
	db, err := s.ready()
	if err != nil {
		return err
	}
	if err := db.Set([]byte(seededMetaKey), []byte("1"), pebble.Sync); err != nil {
		return writeError("seeded marker", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// writeError classifies an engine write failure, special-casing a full disk
// as a quota condition.
func writeError(key string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("write %s: %w: %v", key, store.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("write %s: %w: %v", key, store.ErrWriteFailed, err)
}
