package entrypoint

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/abhi9818/libris/internal/ai"
	"github.com/abhi9818/libris/internal/audit"
	"github.com/abhi9818/libris/internal/config"
	"github.com/abhi9818/libris/internal/covers"
	http_controllers "github.com/abhi9818/libris/internal/http"
	"github.com/abhi9818/libris/internal/identity"
	"github.com/abhi9818/libris/internal/library"
	"github.com/abhi9818/libris/internal/scheduler"
	"github.com/abhi9818/libris/internal/seed"
	"github.com/abhi9818/libris/internal/store"
	"github.com/abhi9818/libris/internal/store/pebblestore"
	"github.com/abhi9818/libris/internal/store/sqlitestore"
	"github.com/abhi9818/libris/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// NewStore selects the persistence backend from configuration.
func NewStore(cfg config.Store) (store.BookStore, error) {
	switch cfg.Backend {
	case config.StoreBackendPebble, "":
		return pebblestore.New(cfg.Path, cfg.MaxRecordBytes), nil
	case config.StoreBackendSQLite:
		return sqlitestore.New(cfg.Path, cfg.MaxRecordBytes), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Libris v%s", version)

	// Initialize the book store and library controller
	bookStore, err := NewStore(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to configure store: %v", err)
	}
	defer func() {
		if err := bookStore.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	controller := library.NewController(bookStore, seed.New())
	if err := controller.Initialize(context.Background()); err != nil {
		// The server still starts: reads work, writes report the outage.
		log.Printf("WARNING: library starts degraded: %v", err)
	}

	// Create auditor for recording library mutations
	auditService := audit.NewService(audit.NewAuditor(cfg.Audit.Dir))
	if removed, err := auditService.Cleanup(time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour); err != nil {
		log.Printf("WARNING: audit cleanup failed: %v", err)
	} else if removed > 0 {
		log.Printf("Audit cleanup removed %d old event(s)", removed)
	}

	// Create cover cache for serving cover art from local disk
	coverCache, err := covers.NewCache(cfg.Covers.CacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", coverCache.CacheDir())
		controller.OnRemove(func(id string) {
			if err := coverCache.Invalidate(id); err != nil {
				log.Printf("Could not invalidate cover cache for %s: %v", id, err)
			}
		})
	}

	// Create the AI client; without a base URL every call degrades to its
	// defined fallback, so the library works offline.
	if cfg.AI.BaseURL == "" {
		log.Printf("WARNING: AI_BASE_URL is not set. Metadata extraction, cover generation and the assistant will use fallbacks.")
	}
	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Timeout)
	slots := ai.NewSlots()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var backfill *scheduler.BackfillScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			MaxRetries:      cfg.Tasks.MaxRetries,
			RetryDelay:      cfg.Tasks.RetryDelay,
			TaskTimeout:     cfg.Tasks.TaskTimeout,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Store.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewExtractMetadataQueue(controller, aiClient, slots, taskClient),
			tasks.NewGenerateCoverQueue(controller, aiClient, slots),
			tasks.NewBackfillQueue(controller, taskClient),
			tasks.NewCleanupAuditQueue(auditService),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		backfill = scheduler.NewBackfillScheduler(taskClient, cfg.Backfill.Schedule, cfg.Backfill.Enabled, cfg.Audit.RetentionDays)
		if err := backfill.Start(context.Background()); err != nil {
			log.Printf("WARNING: backfill scheduler did not start: %v", err)
		}
	}

	// Initialize guest sessions and CSRF if enabled
	var sessionManager *identity.SessionManager
	var csrfSecret []byte
	if cfg.Session.Enabled {
		sessionsPath := filepath.Join(filepath.Dir(cfg.Store.Path), "sessions.db")
		sessionsDB, err := sql.Open("sqlite3", sessionsPath)
		if err != nil {
			log.Fatalf("Failed to open sessions database: %v", err)
		}
		defer sessionsDB.Close()

		sessionManager, err = identity.NewSessionManager(sessionsDB, cfg.Session.Lifetime, cfg.Session.SecureCookies)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		if cfg.Session.Secret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Session.Secret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Session.Secret)
			}
		} else {
			secret, err := identity.GenerateSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set SESSION_SECRET to persist)")
		}
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Library:        controller,
		Assistant:      aiClient,
		CoverCache:     coverCache,
		SessionManager: sessionManager,
		Audit:          auditService,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Session.SecureCookies,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.Enqueuer = taskClient
		routerCfg.TaskStatus = taskClient
	}
	if backfill != nil {
		routerCfg.Scheduler = backfill
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if backfill != nil {
			backfill.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
