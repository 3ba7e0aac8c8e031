package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi9818/libris/internal/entities"
)

func TestProgressAPI(t *testing.T) {
	router, _ := setupTestRouter(t)
	book := createBook(t, router, BookRequest{Title: "Dune", PDFDataURI: testPDF, TotalPages: 10})
	id := book["id"].(string)

	t.Run("updates the current page", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/books/"+id+"/progress", ProgressRequest{CurrentPage: 7})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, float64(7), got["currentPage"])
	})

	t.Run("clamps past the last page", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/books/"+id+"/progress", ProgressRequest{CurrentPage: 99})
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, float64(10), got["currentPage"])
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/books/nope/progress", ProgressRequest{CurrentPage: 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHighlightsAPI(t *testing.T) {
	router, _ := setupTestRouter(t)
	book := createBook(t, router, BookRequest{Title: "Dune", PDFDataURI: testPDF})
	id := book["id"].(string)

	t.Run("appends a highlight", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/books/"+id+"/highlights", HighlightRequest{
			PageNumber: 3,
			Text:       "Fear is the mind-killer.",
			Rects:      []entities.Rect{{X: 10, Y: 20, Width: 100, Height: 12}},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var got struct {
			Highlights []struct {
				ID         string `json:"id"`
				PageNumber int    `json:"pageNumber"`
				Text       string `json:"text"`
			} `json:"highlights"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got.Highlights, 1)
		assert.NotEmpty(t, got.Highlights[0].ID)
		assert.Equal(t, 3, got.Highlights[0].PageNumber)
	})

	t.Run("rejects a highlight without text", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/books/"+id+"/highlights", HighlightRequest{
			PageNumber: 3,
			Rects:      []entities.Rect{{X: 10, Y: 20, Width: 100, Height: 12}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a highlight with no usable selection area", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/books/"+id+"/highlights", HighlightRequest{
			PageNumber: 3,
			Text:       "ghost selection",
			Rects:      []entities.Rect{{Width: 0, Height: 0}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
