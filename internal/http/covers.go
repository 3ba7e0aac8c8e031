package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhi9818/libris/internal/covers"
	"github.com/abhi9818/libris/internal/entities"
)

type CoversController struct {
	cache   *covers.Cache
	library LibraryService
}

func NewCoversController(cache *covers.Cache, library LibraryService) *CoversController {
	return &CoversController{cache: cache, library: library}
}

// GetCover serves a book's cover from the local cache, materializing inline
// payloads and remote URLs on first access. Anything unservable falls back
// to the placeholder.
func (controller *CoversController) GetCover(c *gin.Context) {
	book, ok := controller.library.Get(c.Param("id"))
	if !ok {
		respondNotFound(c, "book")
		return
	}

	path, err := controller.cache.Resolve(book.ID, book.CoverImageURL)
	if err != nil {
		log.Printf("Could not materialize cover for %s: %v", book.ID, err)
	}
	if err != nil || path == "" {
		c.Redirect(http.StatusFound, entities.PlaceholderCoverURL)
		return
	}

	c.File(path)
}
