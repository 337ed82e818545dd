package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/audit"
	"github.com/avolkov/libris/internal/entities"
)

// auditTrail is what controllers need from the audit service: fire-and-forget
// recording of successful mutations.
type auditTrail interface {
	RecordMutation(actor string, action entities.AuditAction, entityType string, entityID uuid.UUID, description string)
}

// AuditController exposes the activity trail.
type AuditController struct {
	service *audit.Service
}

func NewAuditController(service *audit.Service) *AuditController {
	return &AuditController{service: service}
}

type auditEventsResponse struct {
	Events []entities.AuditEvent `json:"events"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func (controller *AuditController) ListEvents(c *gin.Context) {
	limit, ok := parseOptionalInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := parseOptionalInt(c, "offset")
	if !ok {
		return
	}

	limitValue, offsetValue := 50, 0
	if limit != nil {
		limitValue = *limit
	}
	if offset != nil {
		offsetValue = *offset
	}

	events, total, err := controller.service.Events(c.Query("entity_type"), limitValue, offsetValue)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, auditEventsResponse{
		Events: events,
		Total:  total,
		Limit:  limitValue,
		Offset: offsetValue,
	})
}
