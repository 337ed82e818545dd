package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avolkov/libris/internal/audit"
	"github.com/avolkov/libris/internal/config"
)

// AuditCleanupScheduler drops audit events past the retention window.
type AuditCleanupScheduler struct {
	auditService *audit.Service
	config       config.Audit

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewAuditCleanupScheduler(auditService *audit.Service, cfg config.Audit) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		auditService: auditService,
		config:       cfg,
		cron:         newCron(),
	}
}

// Start begins the scheduler if the audit trail is enabled and retention
// is configured.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled || s.config.RetentionDays <= 0 {
		log.Printf("Audit cleanup scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.CleanupSchedule, func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Audit cleanup scheduler: started with schedule '%s', retention %d days",
		s.config.CleanupSchedule, s.config.RetentionDays)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Audit cleanup scheduler: stopped")
}

// RunNow triggers an immediate cleanup.
func (s *AuditCleanupScheduler) RunNow() {
	go s.runCleanup()
}

// IsRunning returns whether the scheduler is active.
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *AuditCleanupScheduler) runCleanup() {
	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour
	deleted, err := s.auditService.DeleteOldEvents(retention)
	if err != nil {
		log.Printf("Audit cleanup: failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Audit cleanup: removed %d events older than %d days", deleted, s.config.RetentionDays)
	}
}
