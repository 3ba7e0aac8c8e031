package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhi9818/libris/internal/audit"
	"github.com/abhi9818/libris/internal/covers"
	"github.com/abhi9818/libris/internal/entities"
	"github.com/abhi9818/libris/internal/identity"
	"github.com/abhi9818/libris/internal/pdf"
	"github.com/abhi9818/libris/internal/search"
	"github.com/abhi9818/libris/internal/tasks"
)

// LibraryService is the controller surface the HTTP layer consumes.
type LibraryService interface {
	Books() []entities.Book
	Get(id string) (entities.Book, bool)
	AddOrUpdate(ctx context.Context, book entities.Book, isEditing bool) (entities.Book, error)
	Remove(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, newCurrentPage int) (entities.Book, error)
	AppendHighlight(ctx context.Context, id string, highlight entities.Highlight) (entities.Book, error)
	Degraded() bool
	Warning() string
	Recover(ctx context.Context) error
}

// BookRequest is the create/edit payload. Empty fields on an edit inherit
// the stored record's values.
type BookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Summary       string `json:"summary"`
	Category      string `json:"category"`
	CoverImageURL string `json:"coverImageUrl"`
	PDFFileName   string `json:"pdfFileName"`
	PDFDataURI    string `json:"pdfDataUri"`
	CurrentPage   int    `json:"currentPage"`
	TotalPages    int    `json:"totalPages"`
}

func (r BookRequest) toBook() entities.Book {
	return entities.Book{
		Title:         r.Title,
		Author:        r.Author,
		Summary:       r.Summary,
		Category:      r.Category,
		CoverImageURL: r.CoverImageURL,
		PDFFileName:   r.PDFFileName,
		PDFDataURI:    r.PDFDataURI,
		CurrentPage:   r.CurrentPage,
		TotalPages:    r.TotalPages,
	}
}

type BooksController struct {
	library  LibraryService
	enqueuer tasks.Enqueuer
	cache    *covers.Cache
	auditLog *audit.Service
	sessions *identity.SessionManager
}

func NewBooksController(library LibraryService, enqueuer tasks.Enqueuer, cache *covers.Cache, auditLog *audit.Service, sessions *identity.SessionManager) *BooksController {
	return &BooksController{
		library:  library,
		enqueuer: enqueuer,
		cache:    cache,
		auditLog: auditLog,
		sessions: sessions,
	}
}

// List returns the shelf, optionally filtered by ?q= and ?category=.
func (controller *BooksController) List(c *gin.Context) {
	query := c.Query("q")
	category := c.DefaultQuery("category", entities.CategoryAll)

	books := search.Filter(controller.library.Books(), query, category)

	response := gin.H{"books": books, "count": len(books)}
	if warning := controller.library.Warning(); warning != "" {
		response["warning"] = warning
	}
	c.IndentedJSON(http.StatusOK, response)
}

// Get returns a single book by id.
func (controller *BooksController) Get(c *gin.Context) {
	book, ok := controller.library.Get(c.Param("id"))
	if !ok {
		respondNotFound(c, "book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// Create adds a new book. The PDF payload is mandatory; metadata extraction
// runs in the background afterwards.
func (controller *BooksController) Create(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.PDFDataURI == "" || !pdf.IsPDFDataURI(req.PDFDataURI) {
		respondBadRequest(c, "a PDF file is required for a new book")
		return
	}

	book, err := controller.library.AddOrUpdate(c.Request.Context(), req.toBook(), false)
	if err != nil {
		respondLibraryError(c, err, "create book")
		return
	}

	controller.queueExtraction(book)
	if controller.auditLog != nil {
		controller.auditLog.LogBookCreated(guestID(c, controller.sessions), book.ID, book.Title)
	}

	respondCreated(c, book)
}

// Update edits an existing book. Empty fields inherit the stored values; a
// replaced PDF re-triggers extraction for any still-missing metadata.
func (controller *BooksController) Update(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.PDFDataURI != "" && !pdf.IsPDFDataURI(req.PDFDataURI) {
		respondBadRequest(c, "pdfDataUri must be an application/pdf data URI")
		return
	}

	book := req.toBook()
	book.ID = c.Param("id")

	saved, err := controller.library.AddOrUpdate(c.Request.Context(), book, true)
	if err != nil {
		respondLibraryError(c, err, "update book")
		return
	}

	if controller.cache != nil {
		if err := controller.cache.Invalidate(saved.ID); err != nil {
			log.Printf("Could not invalidate cover cache for %s: %v", saved.ID, err)
		}
	}
	if saved.Title == "" || saved.Author == "" || saved.Summary == "" {
		controller.queueExtraction(saved)
	}
	if controller.auditLog != nil {
		controller.auditLog.LogBookEdited(guestID(c, controller.sessions), saved.ID, saved.Title)
	}

	c.IndentedJSON(http.StatusOK, saved)
}

// Delete removes a book from the shelf.
func (controller *BooksController) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := controller.library.Remove(c.Request.Context(), id); err != nil {
		respondLibraryError(c, err, "delete book")
		return
	}

	if controller.auditLog != nil {
		controller.auditLog.LogBookDeleted(guestID(c, controller.sessions), id)
	}

	c.Status(http.StatusNoContent)
}

func (controller *BooksController) queueExtraction(book entities.Book) {
	if controller.enqueuer == nil || book.PDFDataURI == "" {
		return
	}
	if _, err := controller.enqueuer.Add(tasks.ExtractMetadataTask{BookID: book.ID}).Save(); err != nil {
		log.Printf("Could not queue metadata extraction for %s: %v", book.ID, err)
	}
}
