package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi9818/libris/internal/ai"
	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/pdf"
)

// minimalPDF assembles a one-page PDF with a valid xref table, offsets
// computed from the buffer.
func minimalPDF() []byte {
	content := "BT /F1 12 Tf 72 720 Td (Hello) Tj ET\n"
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n",
		fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", len(content), content),
		"5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// fakeLibrary is an in-memory Library for processor tests.
type fakeLibrary struct {
	mu    sync.Mutex
	books map[string]entities.Book
	saved []entities.Book
}

func newFakeLibrary(books ...entities.Book) *fakeLibrary {
	lib := &fakeLibrary{books: make(map[string]entities.Book)}
	for _, b := range books {
		lib.books[b.ID] = b
	}
	return lib
}

func (f *fakeLibrary) Get(id string) (entities.Book, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	return b, ok
}

func (f *fakeLibrary) Books() []entities.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, b)
	}
	return out
}

func (f *fakeLibrary) AddOrUpdate(ctx context.Context, book entities.Book, isEditing bool) (entities.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[book.ID] = book
	f.saved = append(f.saved, book)
	return book, nil
}

func (f *fakeLibrary) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// fakeExtractor returns canned metadata; onCall runs before returning, which
// lets tests supersede the in-flight request.
type fakeExtractor struct {
	meta   ai.Metadata
	err    error
	onCall func()
}

func (f *fakeExtractor) ExtractMetadata(ctx context.Context, text string) (ai.Metadata, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.meta, f.err
}

// fakeGenerator returns a canned cover URI.
type fakeGenerator struct {
	uri    string
	called bool
	onCall func()
}

func (f *fakeGenerator) GenerateCover(ctx context.Context, title, summary, category string) string {
	f.called = true
	if f.onCall != nil {
		f.onCall()
	}
	return f.uri
}

func bookWithPDF(id string) entities.Book {
	return entities.Book{
		ID:            id,
		CoverImageURL: entities.PlaceholderCoverURL,
		PDFFileName:   "upload.pdf",
		PDFDataURI:    pdf.EncodeDataURI(minimalPDF()),
		CurrentPage:   1,
	}
}

func TestExtractMetadataProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("fills missing fields and page count", func(t *testing.T) {
		lib := newFakeLibrary(bookWithPDF("101"))
		extractor := &fakeExtractor{meta: ai.Metadata{
			Title:    "Project Hail Mary",
			Author:   "Andy Weir",
			Summary:  "A lone astronaut must save the earth.",
			Category: "Sci-Fi",
		}}

		err := ExtractMetadataProcessor(lib, extractor, ai.NewSlots(), nil)(ctx, ExtractMetadataTask{BookID: "101"})
		require.NoError(t, err)

		got, ok := lib.Get("101")
		require.True(t, ok)
		assert.Equal(t, "Project Hail Mary", got.Title)
		assert.Equal(t, "Andy Weir", got.Author)
		assert.Equal(t, "Sci-Fi", got.Category)
		assert.Equal(t, 1, got.TotalPages)
	})

	t.Run("user entered values win", func(t *testing.T) {
		book := bookWithPDF("102")
		book.Title = "My Own Title"
		lib := newFakeLibrary(book)
		extractor := &fakeExtractor{meta: ai.Metadata{Title: "Extracted Title", Author: "Someone"}}

		err := ExtractMetadataProcessor(lib, extractor, ai.NewSlots(), nil)(ctx, ExtractMetadataTask{BookID: "102"})
		require.NoError(t, err)

		got, _ := lib.Get("102")
		assert.Equal(t, "My Own Title", got.Title)
		assert.Equal(t, "Someone", got.Author)
	})

	t.Run("removed book is skipped", func(t *testing.T) {
		lib := newFakeLibrary()
		extractor := &fakeExtractor{meta: ai.Metadata{Title: "Ghost"}}

		err := ExtractMetadataProcessor(lib, extractor, ai.NewSlots(), nil)(ctx, ExtractMetadataTask{BookID: "missing"})
		require.NoError(t, err)
		assert.Zero(t, lib.savedCount())
	})

	t.Run("book without a PDF is skipped", func(t *testing.T) {
		lib := newFakeLibrary(entities.Book{ID: "103", Title: "No File"})
		extractor := &fakeExtractor{meta: ai.Metadata{Author: "Nobody"}}

		err := ExtractMetadataProcessor(lib, extractor, ai.NewSlots(), nil)(ctx, ExtractMetadataTask{BookID: "103"})
		require.NoError(t, err)
		assert.Zero(t, lib.savedCount())
	})

	t.Run("malformed PDF does not retry", func(t *testing.T) {
		lib := newFakeLibrary(entities.Book{
			ID:         "104",
			PDFDataURI: pdf.EncodeDataURI([]byte("%PDF-1.4 broken")),
		})
		extractor := &fakeExtractor{meta: ai.Metadata{Author: "Nobody"}}

		err := ExtractMetadataProcessor(lib, extractor, ai.NewSlots(), nil)(ctx, ExtractMetadataTask{BookID: "104"})
		require.NoError(t, err)
		assert.Zero(t, lib.savedCount())
	})

	t.Run("superseded response is discarded", func(t *testing.T) {
		lib := newFakeLibrary(bookWithPDF("105"))
		slots := ai.NewSlots()
		extractor := &fakeExtractor{
			meta:   ai.Metadata{Title: "Stale Answer"},
			onCall: func() { slots.Begin("metadata:105") },
		}

		err := ExtractMetadataProcessor(lib, extractor, slots, nil)(ctx, ExtractMetadataTask{BookID: "105"})
		require.NoError(t, err)
		assert.Zero(t, lib.savedCount())

		got, _ := lib.Get("105")
		assert.Empty(t, got.Title)
	})
}

func TestGenerateCoverProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces placeholder", func(t *testing.T) {
		lib := newFakeLibrary(bookWithPDF("201"))
		gen := &fakeGenerator{uri: "data:image/png;base64,AAAA"}

		err := GenerateCoverProcessor(lib, gen, ai.NewSlots())(ctx, GenerateCoverTask{BookID: "201"})
		require.NoError(t, err)

		got, _ := lib.Get("201")
		assert.Equal(t, "data:image/png;base64,AAAA", got.CoverImageURL)
	})

	t.Run("real cover is left alone", func(t *testing.T) {
		book := bookWithPDF("202")
		book.CoverImageURL = "https://example.com/cover.png"
		lib := newFakeLibrary(book)
		gen := &fakeGenerator{uri: "data:image/png;base64,AAAA"}

		err := GenerateCoverProcessor(lib, gen, ai.NewSlots())(ctx, GenerateCoverTask{BookID: "202"})
		require.NoError(t, err)
		assert.False(t, gen.called)
		assert.Zero(t, lib.savedCount())
	})

	t.Run("empty generation keeps placeholder", func(t *testing.T) {
		lib := newFakeLibrary(bookWithPDF("203"))
		gen := &fakeGenerator{uri: ""}

		err := GenerateCoverProcessor(lib, gen, ai.NewSlots())(ctx, GenerateCoverTask{BookID: "203"})
		require.NoError(t, err)

		got, _ := lib.Get("203")
		assert.Equal(t, entities.PlaceholderCoverURL, got.CoverImageURL)
	})

	t.Run("superseded response is discarded", func(t *testing.T) {
		lib := newFakeLibrary(bookWithPDF("204"))
		slots := ai.NewSlots()
		gen := &fakeGenerator{
			uri:    "data:image/png;base64,AAAA",
			onCall: func() { slots.Begin("cover:204") },
		}

		err := GenerateCoverProcessor(lib, gen, slots)(ctx, GenerateCoverTask{BookID: "204"})
		require.NoError(t, err)

		got, _ := lib.Get("204")
		assert.Equal(t, entities.PlaceholderCoverURL, got.CoverImageURL)
	})

	t.Run("removed book is skipped", func(t *testing.T) {
		lib := newFakeLibrary()
		gen := &fakeGenerator{uri: "data:image/png;base64,AAAA"}

		err := GenerateCoverProcessor(lib, gen, ai.NewSlots())(ctx, GenerateCoverTask{BookID: "missing"})
		require.NoError(t, err)
		assert.False(t, gen.called)
	})
}

func TestBackfillProcessorQueuesMissingMetadata(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(tmpDir, "library.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	complete := bookWithPDF("301")
	complete.Title = "Done"
	complete.Author = "Author"
	complete.Summary = "Summary"
	incomplete := bookWithPDF("302")
	noFile := entities.Book{ID: "303"}
	lib := newFakeLibrary(complete, incomplete, noFile)

	queued := make(chan string, 4)
	client.Register(backlite.NewQueue(func(ctx context.Context, task ExtractMetadataTask) error {
		queued <- task.BookID
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	err = BackfillProcessor(lib, client)(ctx, BackfillTask{})
	require.NoError(t, err)

	select {
	case id := <-queued:
		assert.Equal(t, "302", id)
	case <-time.After(5 * time.Second):
		t.Fatal("expected one extraction task to be queued")
	}

	select {
	case id := <-queued:
		t.Fatalf("unexpected extra task for book %s", id)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestExtractionChainsCoverGeneration(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(tmpDir, "library.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	lib := newFakeLibrary(bookWithPDF("401"))
	extractor := &fakeExtractor{meta: ai.Metadata{Title: "Chained", Author: "A", Summary: "S", Category: "Novel"}}

	covers := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task GenerateCoverTask) error {
		covers <- task.BookID
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	err = ExtractMetadataProcessor(lib, extractor, ai.NewSlots(), client)(ctx, ExtractMetadataTask{BookID: "401"})
	require.NoError(t, err)

	select {
	case id := <-covers:
		assert.Equal(t, "401", id)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a cover generation task to be queued")
	}
}

type fakeCleaner struct {
	removed   int
	err       error
	retention time.Duration
}

func (f *fakeCleaner) Cleanup(retention time.Duration) (int, error) {
	f.retention = retention
	return f.removed, f.err
}

func TestCleanupAuditProcessor(t *testing.T) {
	t.Run("prunes with the requested retention", func(t *testing.T) {
		cleaner := &fakeCleaner{removed: 3}

		err := CleanupAuditProcessor(cleaner)(context.Background(), CleanupAuditTask{RetentionDays: 7})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
	})

	t.Run("zero retention falls back to thirty days", func(t *testing.T) {
		cleaner := &fakeCleaner{}

		err := CleanupAuditProcessor(cleaner)(context.Background(), CleanupAuditTask{})
		require.NoError(t, err)
		assert.Equal(t, 30*24*time.Hour, cleaner.retention)
	})

	t.Run("cleanup failures are retried", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("disk gone")}

		err := CleanupAuditProcessor(cleaner)(context.Background(), CleanupAuditTask{RetentionDays: 7})
		require.Error(t, err)
	})
}
