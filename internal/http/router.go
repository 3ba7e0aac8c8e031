package http

import (
	"github.com/gin-gonic/gin"

	"github.com/abhi9818/libris/internal/ai"
	"github.com/abhi9818/libris/internal/identity"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(identity.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(identity.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's
	// request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadSave())
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Library, cfg.Version)
	booksController := NewBooksController(cfg.Library, cfg.Enqueuer, cfg.CoverCache, cfg.Audit, cfg.SessionManager)
	progressController := NewProgressController(cfg.Library)
	highlightsController := NewHighlightsController(cfg.Library, cfg.Audit, cfg.SessionManager)
	adminController := NewAdminController(cfg.Library, cfg.Scheduler)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.List)
	router.POST("/api/books", booksController.Create)
	router.GET("/api/books/:id", booksController.Get)
	router.PUT("/api/books/:id", booksController.Update)
	router.DELETE("/api/books/:id", booksController.Delete)

	// Reading state endpoints
	router.PUT("/api/books/:id/progress", progressController.Update)
	router.POST("/api/books/:id/highlights", highlightsController.Add)

	// Book cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Library)
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Recommendation assistant endpoint
	if cfg.Assistant != nil {
		chatController := NewChatController(cfg.Assistant, ai.NewSlots(), cfg.Audit, cfg.SessionManager)
		router.POST("/api/assistant/chat", chatController.Chat)
	}

	// Background task status endpoint
	if cfg.TaskStatus != nil {
		tasksController := NewTasksController(cfg.TaskStatus)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	// Admin endpoints
	router.POST("/api/admin/recover", adminController.Recover)
	if cfg.Scheduler != nil {
		router.POST("/api/admin/backfill", adminController.TriggerBackfill)
	}

	return router
}
