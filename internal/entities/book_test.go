package entities

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		b := Book{ID: NewBookID(), Title: "Untitled"}
		b.Normalize()

		assert.Equal(t, PlaceholderCoverURL, b.CoverImageURL)
		assert.NotNil(t, b.Highlights)
		assert.Empty(t, b.Highlights)
		assert.Zero(t, b.CurrentPage, "no page tracking without a known page count")
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		b := Book{
			ID:            NewBookID(),
			Category:      "Cookbooks",
			CoverImageURL: "data:image/png;base64,AAAA",
			Highlights:    []Highlight{{ID: "h1", PageNumber: 1, Text: "x", Rects: []Rect{{Width: 1, Height: 1}}}},
		}
		b.Normalize()

		assert.Equal(t, "Cookbooks", b.Category)
		assert.Equal(t, "data:image/png;base64,AAAA", b.CoverImageURL)
		assert.Len(t, b.Highlights, 1)
	})

	t.Run("clamps progress when total pages known", func(t *testing.T) {
		b := Book{ID: NewBookID(), TotalPages: 10, CurrentPage: 25}
		b.Normalize()
		assert.Equal(t, 10, b.CurrentPage)

		b = Book{ID: NewBookID(), TotalPages: 10}
		b.Normalize()
		assert.Equal(t, 1, b.CurrentPage)
	})
}

func TestSelectionCategory(t *testing.T) {
	assert.Equal(t, CategoryManga, SelectionCategory("Manga"))
	assert.Equal(t, CategoryOther, SelectionCategory("Cookbooks"))
	assert.Equal(t, CategoryOther, SelectionCategory(CategoryOther))
}

func TestHighlightValidation(t *testing.T) {
	h := Highlight{
		ID:         NewHighlightID(),
		PageNumber: 3,
		Text:       "a passage",
		Rects: []Rect{
			{X: 1, Y: 1, Width: 0, Height: 5},
			{X: 1, Y: 1, Width: 10, Height: 5},
			{X: 1, Y: 1, Width: 3, Height: -2},
		},
	}

	valid := h.ValidRects()
	require.Len(t, valid, 1)
	assert.Equal(t, 10.0, valid[0].Width)
	assert.True(t, h.Valid())

	h.Rects = []Rect{{Width: 0, Height: 0}}
	assert.False(t, h.Valid())

	h.Rects = []Rect{{Width: 1, Height: 1}}
	h.Text = ""
	assert.False(t, h.Valid())
}

func TestNewBookIDUniqueAndOrdered(t *testing.T) {
	seen := make(map[string]bool)
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := NewBookID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		n, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		require.Greater(t, n, prev)
		prev = n
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := Book{
		ID:         "1",
		Highlights: []Highlight{{ID: "h", Text: "t", Rects: []Rect{{Width: 1, Height: 1}}}},
	}
	c := b.Clone()
	c.Highlights[0].Text = "changed"
	c.Highlights[0].Rects[0].Width = 99

	assert.Equal(t, "t", b.Highlights[0].Text)
	assert.Equal(t, 1.0, b.Highlights[0].Rects[0].Width)
}
