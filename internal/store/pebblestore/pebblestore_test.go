package pebblestore

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "library"), 0)
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBook(id, title string) entities.Book {
	b := entities.Book{
		ID:         id,
		Title:      title,
		Author:     "Author",
		Category:   entities.CategoryNovel,
		PDFDataURI: "data:application/pdf;base64,JVBERi0xLjQ=",
		TotalPages: 100,
		Highlights: []entities.Highlight{
			{ID: id + "-h1", PageNumber: 4, Text: "passage", Rects: []entities.Rect{{X: 1, Y: 2, Width: 80, Height: 12}}},
		},
	}
	b.Normalize()
	return b
}

func TestPutGetAllRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	book := sampleBook("100", "Dune")
	require.NoError(t, s.Put(ctx, book))

	books, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book, books[0])
}

func TestGetAllOrderedNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Insert out of order, including an id with more digits than the rest.
	for _, id := range []string{"20", "1000", "3"} {
		require.NoError(t, s.Put(ctx, sampleBook(id, "Book "+id)))
	}

	books, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"1000", "20", "3"}, []string{books[0].ID, books[1].ID, books[2].ID})
}

func TestPutReplacesExisting(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleBook("42", "First Title")))
	updated := sampleBook("42", "Second Title")
	require.NoError(t, s.Put(ctx, updated))

	books, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1, "upsert must not duplicate ids")
	assert.Equal(t, "Second Title", books[0].Title)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleBook("7", "Gone")))
	require.NoError(t, s.Delete(ctx, "7"))
	require.NoError(t, s.Delete(ctx, "7"))
	require.NoError(t, s.Delete(ctx, "never-existed"))

	books, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestQuotaExceeded(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "library"), 256)
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()

	big := sampleBook("9", "Huge")
	big.PDFDataURI = "data:application/pdf;base64," + string(make([]byte, 1024))

	err := s.Put(context.Background(), big)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)
	assert.ErrorIs(t, err, store.ErrWriteFailed, "quota is a specialized write failure")

	books, getErr := s.GetAll(context.Background())
	require.NoError(t, getErr)
	assert.Empty(t, books, "failed write must not persist a partial record")
}

func TestSeededMarkerSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "library")
	ctx := context.Background()

	s := New(dir, 0)
	require.NoError(t, s.Open(ctx))

	seeded, err := s.Seeded(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	require.NoError(t, s.MarkSeeded(ctx))
	require.NoError(t, s.Close())

	reopened := New(dir, 0)
	require.NoError(t, reopened.Open(ctx))
	defer reopened.Close()

	seeded, err = reopened.Seeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
}

func TestOpenStampsSchemaVersion(t *testing.T) {
	s := setupTestStore(t)

	value, closer, err := s.db.Get([]byte(schemaMetaKey))
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, strconv.Itoa(store.SchemaVersion), string(value))
}

func TestOpenIsIdempotentUnderConcurrency(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "library"), 0)
	defer s.Close()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Open(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	_, err := s.GetAll(context.Background())
	assert.NoError(t, err)
}

func TestOperationsBeforeOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "library"), 0)

	_, err := s.GetAll(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)

	err = s.Put(context.Background(), sampleBook("1", "Early"))
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
