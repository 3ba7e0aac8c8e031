package http

import (
	"github.com/abhi9818/libris/internal/audit"
	"github.com/abhi9818/libris/internal/covers"
	"github.com/abhi9818/libris/internal/identity"
	"github.com/abhi9818/libris/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router. This replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Core dependencies
	Library   LibraryService
	Assistant Assistant

	// Background AI work (optional; nil disables enrichment)
	Enqueuer tasks.Enqueuer

	// Task status lookups (optional; nil disables GET /api/tasks/:id)
	TaskStatus TaskStatusReader

	// Maintenance sweep control (optional; nil disables POST /api/admin/backfill)
	Scheduler SweepScheduler

	// Cover caching (optional)
	CoverCache *covers.Cache

	// Guest sessions (optional)
	SessionManager *identity.SessionManager

	// Audit trail (optional)
	Audit *audit.Service

	// CSRF protection: enabled when a secret is set
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}
