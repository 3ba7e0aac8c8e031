package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	library LibraryService
}

func NewProgressController(library LibraryService) *ProgressController {
	return &ProgressController{library: library}
}

// ProgressRequest carries the new reading position.
type ProgressRequest struct {
	CurrentPage int `json:"currentPage"`
}

// Update sets a book's current page. The page is clamped into the valid
// range once the total page count is known.
func (controller *ProgressController) Update(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.library.UpdateProgress(c.Request.Context(), c.Param("id"), req.CurrentPage)
	if err != nil {
		respondLibraryError(c, err, "update progress")
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}
