package entities

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditEvent records one successful mutation for the activity trail.
type AuditEvent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Actor       string      `gorm:"index;size:100" json:"actor"`
	Action      AuditAction `gorm:"index;size:20" json:"action"`
	EntityType  string      `gorm:"index;size:50" json:"entity_type"`
	EntityID    uuid.UUID   `gorm:"type:uuid;index" json:"entity_id"`
	Description string      `gorm:"size:500" json:"description"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
