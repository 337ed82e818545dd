// Package scheduler runs the periodic background jobs: the lending report
// and audit trail cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avolkov/libris/internal/config"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/store"
)

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// LendingReportScheduler periodically logs a summary of open and overdue
// loans for the staff to act on.
type LendingReportScheduler struct {
	st     *store.Store
	config config.Reports

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewLendingReportScheduler(st *store.Store, cfg config.Reports) *LendingReportScheduler {
	return &LendingReportScheduler{
		st:     st,
		config: cfg,
		cron:   newCron(),
	}
}

// Start begins the scheduler if reporting is enabled.
func (s *LendingReportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Lending report scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runReport()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule lending report: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Lending report scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *LendingReportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Lending report scheduler: stopped")
}

// RunNow triggers an immediate report.
func (s *LendingReportScheduler) RunNow() {
	go s.runReport()
}

// IsRunning returns whether the scheduler is active.
func (s *LendingReportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next report will be produced.
func (s *LendingReportScheduler) GetNextRunTime() *time.Time {
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

func (s *LendingReportScheduler) runReport() {
	start := time.Now()
	overdueCutoff := start.Add(-s.config.DueAfter)

	var open, overdue, lost int
	err := s.st.View(func(tx *store.Tx) error {
		borrowings, err := store.All(tx, func(b entities.Borrowing) bool { return b.IsOpen() })
		if err != nil {
			return err
		}
		open = len(borrowings)
		for _, b := range borrowings {
			if b.StartedAt.Before(overdueCutoff) {
				overdue++
			}
		}

		lostCopies, err := store.All(tx, func(c entities.Copy) bool { return c.IsLost })
		if err != nil {
			return err
		}
		lost = len(lostCopies)
		return nil
	})
	if err != nil {
		log.Printf("Lending report: failed: %v", err)
		return
	}

	log.Printf("Lending report: %d open loans (%d overdue), %d lost copies (took %v)",
		open, overdue, lost, time.Since(start).Round(time.Millisecond))
}
