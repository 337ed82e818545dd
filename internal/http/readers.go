package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

type ReadersController struct {
	readers *services.Readers
	audit   auditTrail
}

func NewReadersController(readers *services.Readers, audit auditTrail) *ReadersController {
	return &ReadersController{readers: readers, audit: audit}
}

func (controller *ReadersController) Search(c *gin.Context) {
	page, ok := parseOptionalInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parseOptionalInt(c, "page_size")
	if !ok {
		return
	}
	isBanned, ok := parseOptionalBool(c, "is_banned")
	if !ok {
		return
	}

	result, err := controller.readers.Search(services.ReaderFilter{
		Term:     c.Query("term"),
		IsBanned: isBanned,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (controller *ReadersController) Get(c *gin.Context) {
	reader, err := controller.readers.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, reader)
}

func (controller *ReadersController) Create(c *gin.Context) {
	var params services.CreateReaderParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	reader, err := controller.readers.Create(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionCreate, reader,
		"Created reader: "+reader.CardNumber)
	respondCreated(c, reader)
}

func (controller *ReadersController) Update(c *gin.Context) {
	var params services.UpdateReaderParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	reader, err := controller.readers.Update(c.Param("id"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionUpdate, reader,
		"Updated reader: "+reader.CardNumber)
	respondOK(c, reader)
}

func (controller *ReadersController) Delete(c *gin.Context) {
	reader, err := controller.readers.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := controller.readers.Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionDelete, reader,
		"Deleted reader: "+reader.CardNumber)
	respondNoContent(c)
}

func (controller *ReadersController) recordMutation(c *gin.Context, action entities.AuditAction, reader *entities.Reader, description string) {
	if controller.audit == nil {
		return
	}
	controller.audit.RecordMutation(auth.GetUsername(c), action, "reader", reader.ID, description)
}
