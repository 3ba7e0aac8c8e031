package entities

import (
	"strconv"
	"sync"
	"time"
)

// PlaceholderCoverURL is used whenever a book has no cover of its own.
const PlaceholderCoverURL = "https://placehold.co/300x450.png"

// Standard categories offered by the selection UI. A book may carry any other
// label; such books are treated as CategoryOther for selection purposes but
// keep their literal label in storage.
const (
	CategoryNovel      = "Novel"
	CategoryFantasy    = "Fantasy"
	CategorySciFi      = "Science Fiction"
	CategoryMystery    = "Mystery"
	CategoryManga      = "Manga"
	CategoryNonFiction = "Non-Fiction"
	CategoryOther      = "Other"
)

// CategoryAll is the filter sentinel that matches every category.
const CategoryAll = "All"

var standardCategories = map[string]bool{
	CategoryNovel:      true,
	CategoryFantasy:    true,
	CategorySciFi:      true,
	CategoryMystery:    true,
	CategoryManga:      true,
	CategoryNonFiction: true,
	CategoryOther:      true,
}

// IsStandardCategory reports whether name is one of the built-in categories.
func IsStandardCategory(name string) bool {
	return standardCategories[name]
}

// SelectionCategory maps any stored category label onto the value the
// selection UI should display: custom labels collapse to CategoryOther.
func SelectionCategory(name string) string {
	if IsStandardCategory(name) {
		return name
	}
	return CategoryOther
}

// Book is the canonical persisted record for one uploaded book.
// The JSON field names are the persisted schema (version 1).
type Book struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	Summary       string      `json:"summary"`
	Category      string      `json:"category"`
	CoverImageURL string      `json:"coverImageUrl"`
	PDFFileName   string      `json:"pdfFileName"`
	PDFDataURI    string      `json:"pdfDataUri"`
	CurrentPage   int         `json:"currentPage,omitempty"`
	TotalPages    int         `json:"totalPages,omitempty"`
	Highlights    []Highlight `json:"highlights"`
}

// Highlight is a user-marked passage, owned exclusively by its parent book.
type Highlight struct {
	ID         string `json:"id"`
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
	Rects      []Rect `json:"rects"`
}

// Rect is a rectangle in unscaled PDF-page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Normalize fills defaults so a record that passed through the controller
// always has the invariant shape: no absent optional fields, a cover fallback,
// a non-nil highlights slice and progress clamped into [1, totalPages] when
// the page count is known.
func (b *Book) Normalize() {
	if b.CoverImageURL == "" {
		b.CoverImageURL = PlaceholderCoverURL
	}
	if b.Highlights == nil {
		b.Highlights = []Highlight{}
	}
	if b.TotalPages > 0 {
		b.CurrentPage = ClampPage(b.CurrentPage, b.TotalPages)
	} else {
		b.TotalPages = 0
	}
}

// ClampPage clamps page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ValidRects returns the rects with strictly positive area, preserving order.
func (h Highlight) ValidRects() []Rect {
	valid := make([]Rect, 0, len(h.Rects))
	for _, r := range h.Rects {
		if r.Width > 0 && r.Height > 0 {
			valid = append(valid, r)
		}
	}
	return valid
}

// Valid reports whether the highlight may be persisted: non-empty text and at
// least one positive-area rectangle.
func (h Highlight) Valid() bool {
	return h.Text != "" && len(h.ValidRects()) > 0
}

// Clone returns a deep copy of the book. The controller hands out and mutates
// copies so callers can never alias its cached records.
func (b Book) Clone() Book {
	out := b
	out.Highlights = make([]Highlight, len(b.Highlights))
	for i, h := range b.Highlights {
		out.Highlights[i] = h
		out.Highlights[i].Rects = append([]Rect(nil), h.Rects...)
	}
	return out
}

var (
	idMu   sync.Mutex
	lastID int64
)

// nextID returns a timestamp-derived id, strictly increasing within the
// process so ids stay unique even when generated in the same nanosecond.
func nextID() string {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixNano()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}

// NewBookID generates a fresh book id. Ids are decimal nanosecond timestamps,
// so lexicographic and numeric ordering agree and newer books sort higher.
func NewBookID() string { return nextID() }

// NewHighlightID generates a fresh highlight id.
func NewHighlightID() string { return nextID() }
