// Package scheduler runs periodic maintenance: the metadata backfill sweep,
// which queues extraction for books whose metadata never arrived (service
// outages, records uploaded before AI enrichment existed), and audit event
// retention cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abhi9818/libris/internal/tasks"
)

// BackfillScheduler periodically enqueues the maintenance sweep: metadata
// backfill plus audit retention cleanup.
type BackfillScheduler struct {
	enqueuer           tasks.Enqueuer
	schedule           string
	enabled            bool
	auditRetentionDays int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewBackfillScheduler creates a scheduler with a standard five-field cron
// schedule, e.g. "0 3 * * *" for nightly sweeps.
func NewBackfillScheduler(enqueuer tasks.Enqueuer, schedule string, enabled bool, auditRetentionDays int) *BackfillScheduler {
	return &BackfillScheduler{
		enqueuer:           enqueuer,
		schedule:           schedule,
		enabled:            enabled,
		auditRetentionDays: auditRetentionDays,
		cron:               cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if backfill is enabled.
func (s *BackfillScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.enabled {
		log.Printf("Backfill scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid backfill schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Backfill scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *BackfillScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Backfill scheduler: stopped")
}

// RunNow triggers an immediate sweep without waiting for the schedule.
func (s *BackfillScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active.
func (s *BackfillScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur, nil when stopped.
func (s *BackfillScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *BackfillScheduler) runSweep() {
	log.Printf("Maintenance sweep: queueing")
	if _, err := s.enqueuer.Add(tasks.BackfillTask{}).Save(); err != nil {
		log.Printf("Maintenance sweep: could not queue backfill: %v", err)
	}
	if _, err := s.enqueuer.Add(tasks.CleanupAuditTask{RetentionDays: s.auditRetentionDays}).Save(); err != nil {
		log.Printf("Maintenance sweep: could not queue audit cleanup: %v", err)
	}
}
