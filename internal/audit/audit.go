// Package audit keeps a trail of catalog mutations in the database.
package audit

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avolkov/libris/internal/entities"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Record persists a single audit event.
func (s *Service) Record(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return s.db.Create(event).Error
}

// RecordAsync persists an event in the background. Audit failures must never
// fail the mutation they describe, so errors are only logged.
func (s *Service) RecordAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.Record(event); err != nil {
			log.Printf("Failed to record audit event: %v", err)
		}
	}()
}

// RecordMutation is the shorthand used by the HTTP layer after a successful
// create, update or delete.
func (s *Service) RecordMutation(actor string, action entities.AuditAction, entityType string, entityID uuid.UUID, description string) {
	s.RecordAsync(&entities.AuditEvent{
		Actor:       actor,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: truncate(description, 500),
	})
}

// Events retrieves paginated audit events, most recent first. An empty
// entityType returns events for every entity.
func (s *Service) Events(entityType string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := s.db.Model(&entities.AuditEvent{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// DeleteOldEvents removes events older than the retention window and returns
// how many were dropped.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := s.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
