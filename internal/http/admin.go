package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SweepScheduler triggers and reports on the periodic maintenance sweep.
type SweepScheduler interface {
	RunNow()
	IsRunning() bool
	NextRunTime() *time.Time
}

type AdminController struct {
	library   LibraryService
	scheduler SweepScheduler
}

func NewAdminController(library LibraryService, scheduler SweepScheduler) *AdminController {
	return &AdminController{library: library, scheduler: scheduler}
}

// Recover retries opening the store after a degraded start. On success the
// library reloads and leaves read-only mode.
func (controller *AdminController) Recover(c *gin.Context) {
	if err := controller.library.Recover(c.Request.Context()); err != nil {
		respondLibraryError(c, err, "recover library")
		return
	}
	respondSuccess(c, "library recovered")
}

// TriggerBackfill kicks off an immediate maintenance sweep and reports the
// scheduler state, including the next scheduled run when one is planned.
func (controller *AdminController) TriggerBackfill(c *gin.Context) {
	controller.scheduler.RunNow()

	response := gin.H{
		"message":   "maintenance sweep queued",
		"scheduled": controller.scheduler.IsRunning(),
	}
	if next := controller.scheduler.NextRunTime(); next != nil {
		response["nextRun"] = next.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusAccepted, response)
}
