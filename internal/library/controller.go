// Package library owns the authoritative in-memory view of the book
// collection and sequences every mutation through the persistence port.
package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/seed"
	"github.com/abhi9818/libris/internal/store"
)

var (
	// ErrNotFound means no book with the given id exists in the library.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidHighlight means the highlight had no positive-area
	// rectangle or no text; nothing was persisted.
	ErrInvalidHighlight = errors.New("invalid highlight")

	// ErrMissingPDF means a newly created book carried no PDF payload.
	ErrMissingPDF = errors.New("a PDF payload is required for a new book")

	// ErrDegraded means the store failed to open; the library is read-only
	// until Recover succeeds.
	ErrDegraded = fmt.Errorf("library degraded: %w", store.ErrUnavailable)
)

// Controller is the single source of truth for the in-memory book collection.
// All mutations persist first and update the cache only on success, so the
// cached view always reflects the last successful write.
type Controller struct {
	store  store.BookStore
	seeder *seed.Seeder

	mu       sync.RWMutex
	books    []entities.Book // newest-first, mirrors store order
	degraded bool
	warning  string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	listenersMu     sync.Mutex
	removeListeners []func(id string)
}

// NewController creates a controller over the given store. The seeder may be
// nil to disable sample bootstrap entirely.
func NewController(bs store.BookStore, seeder *seed.Seeder) *Controller {
	return &Controller{
		store:  bs,
		seeder: seeder,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Initialize opens the store and loads the collection, seeding the sample
// library on a store that is empty and was never seeded before.
//
// An open failure leaves the controller degraded: reads serve the (empty)
// cache and every mutation fails with ErrDegraded until Recover succeeds.
// A read failure starts the session with an empty library and a warning,
// writes stay enabled.
func (c *Controller) Initialize(ctx context.Context) error {
	if err := c.store.Open(ctx); err != nil {
		c.mu.Lock()
		c.degraded = true
		c.books = nil
		c.mu.Unlock()
		return fmt.Errorf("open store: %w", err)
	}

	books, warning, err := c.loadAndMaybeSeed(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.degraded = false
	c.books = books
	c.warning = warning
	c.mu.Unlock()
	return nil
}

// Recover retries initialization after a degraded start.
func (c *Controller) Recover(ctx context.Context) error {
	return c.Initialize(ctx)
}

func (c *Controller) loadAndMaybeSeed(ctx context.Context) (books []entities.Book, warning string, err error) {
	books, readErr := c.store.GetAll(ctx)
	if readErr != nil {
		log.Printf("WARNING: library read failed, starting with an empty collection: %v", readErr)
		return nil, readErr.Error(), nil
	}

	if len(books) > 0 || c.seeder == nil {
		return normalizeAll(books), "", nil
	}

	seeded, seededErr := c.store.Seeded(ctx)
	if seededErr != nil {
		log.Printf("WARNING: could not read seeded marker: %v", seededErr)
		return nil, "", nil
	}
	if seeded {
		// A previously seeded store that is empty again stays empty.
		return nil, "", nil
	}

	if err := c.seeder.Seed(ctx, c.store); err != nil {
		return nil, "", fmt.Errorf("seed library: %w", err)
	}
	books, readErr = c.store.GetAll(ctx)
	if readErr != nil {
		return nil, readErr.Error(), nil
	}
	return normalizeAll(books), "", nil
}

func normalizeAll(books []entities.Book) []entities.Book {
	for i := range books {
		books[i].Normalize()
	}
	return books
}

// Degraded reports whether mutations are currently disabled.
func (c *Controller) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// Warning returns the surfaced warning from a failed collection read, if any.
func (c *Controller) Warning() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warning
}

// Books returns a deep-copied snapshot of the collection, newest-first.
func (c *Controller) Books() []entities.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entities.Book, len(c.books))
	for i, b := range c.books {
		out[i] = b.Clone()
	}
	return out
}

// Get returns a deep copy of the book with the given id.
func (c *Controller) Get(id string) (entities.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.books {
		if b.ID == id {
			return b.Clone(), true
		}
	}
	return entities.Book{}, false
}

// OnRemove registers a listener invoked after a book has been removed from
// both the store and the cache. The UI uses this to close a detail view whose
// record disappeared; the controller only signals, it never touches views.
func (c *Controller) OnRemove(listener func(id string)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.removeListeners = append(c.removeListeners, listener)
}

func (c *Controller) notifyRemoved(id string) {
	c.listenersMu.Lock()
	listeners := make([]func(id string), len(c.removeListeners))
	copy(listeners, c.removeListeners)
	c.listenersMu.Unlock()
	for _, l := range listeners {
		l(id)
	}
}

// lockFor returns the mutation lock for a book id. Mutations against the same
// id are serialized so overlapping writes cannot silently discard each other;
// different ids interleave freely.
func (c *Controller) lockFor(id string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

func (c *Controller) writable() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.degraded {
		return ErrDegraded
	}
	return nil
}

// AddOrUpdate creates a book or replaces an existing one with a full, merged
// record. On edit, structural fields the edit form left empty (PDF payload,
// original filename, cover, page counts) inherit from the previous record;
// highlights are never editable here and always carry over. The cache is
// updated only after the store write succeeds.
func (c *Controller) AddOrUpdate(ctx context.Context, book entities.Book, isEditing bool) (entities.Book, error) {
	if err := c.writable(); err != nil {
		return entities.Book{}, err
	}

	if !isEditing {
		if book.PDFDataURI == "" {
			return entities.Book{}, ErrMissingPDF
		}
		if book.ID == "" {
			book.ID = entities.NewBookID()
		}
		if book.Highlights == nil {
			book.Highlights = []entities.Highlight{}
		}
	}

	lock := c.lockFor(book.ID)
	lock.Lock()
	defer lock.Unlock()

	if isEditing {
		previous, ok := c.Get(book.ID)
		if !ok {
			return entities.Book{}, ErrNotFound
		}
		book = mergeEdit(previous, book)
	}
	book.Normalize()

	if err := c.store.Put(ctx, book); err != nil {
		return entities.Book{}, err
	}

	c.replaceOrPrepend(book)
	return book.Clone(), nil
}

// mergeEdit builds the complete record an edit persists: the incoming form
// values over the previous record, with empty structural fields inherited.
func mergeEdit(previous, incoming entities.Book) entities.Book {
	merged := incoming
	merged.ID = previous.ID
	if merged.PDFDataURI == "" {
		merged.PDFDataURI = previous.PDFDataURI
	}
	if merged.PDFFileName == "" {
		merged.PDFFileName = previous.PDFFileName
	}
	if merged.CoverImageURL == "" {
		merged.CoverImageURL = previous.CoverImageURL
	}
	if previous.TotalPages > 0 {
		// Once known the page count does not change.
		merged.TotalPages = previous.TotalPages
	}
	if merged.CurrentPage == 0 {
		merged.CurrentPage = previous.CurrentPage
	}
	merged.Highlights = previous.Highlights
	return merged
}

func (c *Controller) replaceOrPrepend(book entities.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.books {
		if c.books[i].ID == book.ID {
			c.books[i] = book
			return
		}
	}
	c.books = append([]entities.Book{book}, c.books...)
}

// Remove deletes a book from the store and the cache. Removing an absent id
// succeeds. Registered removal listeners fire once per actual removal.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if err := c.writable(); err != nil {
		return err
	}

	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	removed := false
	for i := range c.books {
		if c.books[i].ID == id {
			c.books = append(c.books[:i], c.books[i+1:]...)
			removed = true
			break
		}
	}
	c.mu.Unlock()

	if removed {
		c.notifyRemoved(id)
	}
	return nil
}

// UpdateProgress stores the page the user has read up to. When the total page
// count is known the value is clamped into [1, totalPages]; otherwise it is
// accepted as-is.
func (c *Controller) UpdateProgress(ctx context.Context, id string, newCurrentPage int) (entities.Book, error) {
	if err := c.writable(); err != nil {
		return entities.Book{}, err
	}

	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	book, ok := c.Get(id)
	if !ok {
		return entities.Book{}, ErrNotFound
	}

	if book.TotalPages > 0 {
		book.CurrentPage = entities.ClampPage(newCurrentPage, book.TotalPages)
	} else {
		book.CurrentPage = newCurrentPage
	}

	if err := c.store.Put(ctx, book); err != nil {
		return entities.Book{}, err
	}
	c.replaceOrPrepend(book)
	return book.Clone(), nil
}

// AppendHighlight validates and appends a highlight to a book's sequence.
// Rectangles with non-positive area are discarded first; a highlight with
// none left (or no text) is rejected with ErrInvalidHighlight and nothing
// is written.
func (c *Controller) AppendHighlight(ctx context.Context, id string, highlight entities.Highlight) (entities.Book, error) {
	if err := c.writable(); err != nil {
		return entities.Book{}, err
	}

	if !highlight.Valid() {
		return entities.Book{}, ErrInvalidHighlight
	}
	highlight.Rects = highlight.ValidRects()
	if highlight.ID == "" {
		highlight.ID = entities.NewHighlightID()
	}

	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	book, ok := c.Get(id)
	if !ok {
		return entities.Book{}, ErrNotFound
	}
	book.Highlights = append(book.Highlights, highlight)

	if err := c.store.Put(ctx, book); err != nil {
		return entities.Book{}, err
	}
	c.replaceOrPrepend(book)
	return book.Clone(), nil
}
