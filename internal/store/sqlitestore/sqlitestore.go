// Package sqlitestore persists book records as JSON documents in a single
// SQLite table, one row per book keyed by id.
package sqlitestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/store"
)

const (
	seededMetaKey = "seeded"
	schemaMetaKey = "schema_version"
)

type bookRow struct {
	ID      string `gorm:"primaryKey;size:32"`
	Payload []byte `gorm:"type:blob;not null"`
}

func (bookRow) TableName() string { return "books" }

type metaRow struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:255"`
}

func (metaRow) TableName() string { return "library_meta" }

// Store is a store.BookStore backed by a SQLite database file.
type Store struct {
	path string

	// Per-record size cap in bytes, emulating browser storage quotas.
	// Zero means unlimited.
	maxRecordBytes int

	mu sync.Mutex
	db *gorm.DB
}

// New creates a store over the SQLite database at path. The database is not
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

	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open sqlite at %s: %w: %v", s.path, store.ErrUnavailable, err)
	}
	if err := db.AutoMigrate(&bookRow{}, &metaRow{}); err != nil {
		return fmt.Errorf("migrate schema: %w: %v", store.ErrUnavailable, err)
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&metaRow{Key: schemaMetaKey, Value: strconv.Itoa(store.SchemaVersion)})
	if result.Error != nil {
		return fmt.Errorf("stamp schema version: %w: %v", store.ErrUnavailable, result.Error)
	}

	s.db = db
	return nil
}

func (s *Store) ready() (*gorm.DB, error) {
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

	var rows []bookRow
	// Ids are decimal timestamps, so longer strings are numerically larger.
	result := db.WithContext(ctx).Order("length(id) DESC, id DESC").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("load books: %w: %v", store.ErrReadFailed, result.Error)
	}

	var books []entities.Book
	for _, row := range rows {
		var book entities.Book
		if err := json.Unmarshal(row.Payload, &book); err != nil {
			return nil, fmt.Errorf("decode record %s: %w: %v", row.ID, store.ErrReadFailed, err)
		}
		books = append(books, book)
	}
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

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}).Create(&bookRow{ID: book.ID, Payload: payload})
	if result.Error != nil {
		return writeError(book.ID, result.Error)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.ready()
	if err != nil {
		return err
	}
	result := db.WithContext(ctx).Delete(&bookRow{}, "id = ?", id)
	if result.Error != nil {
		return writeError(id, result.Error)
	}
	return nil
}

func (s *Store) Seeded(ctx context.Context) (bool, error) {
	db, err := s.ready()
	if err != nil {
		return false, err
	}
	var row metaRow
	result := db.WithContext(ctx).Where("key = ?", seededMetaKey).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if result.Error != nil {
		return false, fmt.Errorf("read seeded marker: %w: %v", store.ErrReadFailed, result.Error)
	}
	return true, nil
}

func (s *Store) MarkSeeded(ctx context.Context) error {
	db, err := s.ready()
	if err != nil {
		return err
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&metaRow{Key: seededMetaKey, Value: "1"})
	if result.Error != nil {
		return writeError("seeded marker", result.Error)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// writeError classifies an engine write failure. SQLite reports exhausted
// space as SQLITE_FULL ("database or disk is full").
func writeError(key string, err error) error {
	if strings.Contains(err.Error(), "database or disk is full") {
		return fmt.Errorf("write %s: %w: %v", key, store.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("write %s: %w: %v", key, store.ErrWriteFailed, err)
}
