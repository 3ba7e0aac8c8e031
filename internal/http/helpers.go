package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhi9818/libris/internal/identity"
	"github.com/abhi9818/libris/internal/library"
	"github.com/abhi9818/libris/internal/store"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 response. The actual
// error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondLibraryError maps the library/store error taxonomy onto HTTP
// statuses. Quota exhaustion gets its own status and code so the client can
// tell the user to remove a book rather than retry.
func respondLibraryError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, store.ErrQuotaExceeded):
		c.JSON(http.StatusInsufficientStorage, ErrorResponse{
			Error: "storage quota exceeded; remove a book and try again",
			Code:  "quota_exceeded",
		})
	case errors.Is(err, library.ErrDegraded):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "library storage is unavailable; changes cannot be saved",
			Code:  "degraded",
		})
	case errors.Is(err, library.ErrNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, library.ErrMissingPDF):
		respondBadRequest(c, "a PDF file is required for a new book")
	case errors.Is(err, library.ErrInvalidHighlight):
		respondBadRequest(c, "highlight needs text and at least one selection area")
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Guest identity ---

// guestID returns the requesting browser's guest id, empty when sessions are
// disabled.
func guestID(c *gin.Context, sm *identity.SessionManager) string {
	if sm == nil {
		return ""
	}
	return sm.GuestID(c.Request)
}
