package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

type CopiesController struct {
	copies *services.Copies
	audit  auditTrail
}

func NewCopiesController(copies *services.Copies, audit auditTrail) *CopiesController {
	return &CopiesController{copies: copies, audit: audit}
}

func (controller *CopiesController) Search(c *gin.Context) {
	page, ok := parseOptionalInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parseOptionalInt(c, "page_size")
	if !ok {
		return
	}
	isLost, ok := parseOptionalBool(c, "is_lost")
	if !ok {
		return
	}
	isAvailable, ok := parseOptionalBool(c, "is_available")
	if !ok {
		return
	}

	result, err := controller.copies.Search(services.CopyFilter{
		Term:        c.Query("term"),
		BookID:      c.Query("book_id"),
		Condition:   c.Query("condition"),
		IsLost:      isLost,
		IsAvailable: isAvailable,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (controller *CopiesController) Get(c *gin.Context) {
	copy, err := controller.copies.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, copy)
}

func (controller *CopiesController) Create(c *gin.Context) {
	var params services.CreateCopyParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	copy, err := controller.copies.Create(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionCreate, copy, "Created copy")
	respondCreated(c, copy)
}

func (controller *CopiesController) Update(c *gin.Context) {
	var params services.UpdateCopyParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	copy, err := controller.copies.Update(c.Param("id"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionUpdate, copy, "Updated copy")
	respondOK(c, copy)
}

func (controller *CopiesController) Delete(c *gin.Context) {
	copy, err := controller.copies.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := controller.copies.Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionDelete, copy, "Deleted copy")
	respondNoContent(c)
}

func (controller *CopiesController) recordMutation(c *gin.Context, action entities.AuditAction, copy *entities.Copy, summary string) {
	if controller.audit == nil {
		return
	}
	description := fmt.Sprintf("%s #%d", summary, copy.CopyNumber)
	controller.audit.RecordMutation(auth.GetUsername(c), action, "copy", copy.ID, description)
}
