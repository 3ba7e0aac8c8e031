package http

import (
	"github.com/gin-gonic/gin"

	"github.com/abhi9818/libris/internal/audit"
	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/identity"
)

type HighlightsController struct {
	library  LibraryService
	auditLog *audit.Service
	sessions *identity.SessionManager
}

func NewHighlightsController(library LibraryService, auditLog *audit.Service, sessions *identity.SessionManager) *HighlightsController {
	return &HighlightsController{library: library, auditLog: auditLog, sessions: sessions}
}

// HighlightRequest is a page-anchored text selection.
type HighlightRequest struct {
	PageNumber int             `json:"pageNumber"`
	Text       string          `json:"text"`
	Rects      []entities.Rect `json:"rects"`
}

// Add appends a highlight to a book and returns the updated record.
func (controller *HighlightsController) Add(c *gin.Context) {
	var req HighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	highlight := entities.Highlight{
		PageNumber: req.PageNumber,
		Text:       req.Text,
		Rects:      req.Rects,
	}

	book, err := controller.library.AppendHighlight(c.Request.Context(), c.Param("id"), highlight)
	if err != nil {
		respondLibraryError(c, err, "append highlight")
		return
	}

	if controller.auditLog != nil {
		controller.auditLog.LogHighlight(guestID(c, controller.sessions), book.ID, req.PageNumber)
	}

	respondCreated(c, book)
}
