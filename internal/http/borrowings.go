package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

type BorrowingsController struct {
	borrowings *services.Borrowings
	audit      auditTrail
}

func NewBorrowingsController(borrowings *services.Borrowings, audit auditTrail) *BorrowingsController {
	return &BorrowingsController{borrowings: borrowings, audit: audit}
}

func (controller *BorrowingsController) Search(c *gin.Context) {
	page, ok := parseOptionalInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parseOptionalInt(c, "page_size")
	if !ok {
		return
	}
	open, ok := parseOptionalBool(c, "open")
	if !ok {
		return
	}

	result, err := controller.borrowings.Search(services.BorrowingFilter{
		Term:          c.Query("term"),
		CopyID:        c.Query("copy_id"),
		ReaderID:      c.Query("reader_id"),
		StartedBefore: c.Query("started_before"),
		StartedAfter:  c.Query("started_after"),
		Open:          open,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (controller *BorrowingsController) Get(c *gin.Context) {
	borrowing, err := controller.borrowings.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, borrowing)
}

func (controller *BorrowingsController) Create(c *gin.Context) {
	var params services.CreateBorrowingParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	borrowing, err := controller.borrowings.Create(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionCreate, borrowing, "Lent copy")
	respondCreated(c, borrowing)
}

func (controller *BorrowingsController) Update(c *gin.Context) {
	var params services.UpdateBorrowingParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	borrowing, err := controller.borrowings.Update(c.Param("id"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	description := "Updated borrowing"
	if !borrowing.IsOpen() {
		description = "Recorded return"
	}
	controller.recordMutation(c, entities.AuditActionUpdate, borrowing, description)
	respondOK(c, borrowing)
}

func (controller *BorrowingsController) Delete(c *gin.Context) {
	borrowing, err := controller.borrowings.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := controller.borrowings.Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionDelete, borrowing, "Deleted borrowing")
	respondNoContent(c)
}

func (controller *BorrowingsController) recordMutation(c *gin.Context, action entities.AuditAction, borrowing *entities.Borrowing, description string) {
	if controller.audit == nil {
		return
	}
	controller.audit.RecordMutation(auth.GetUsername(c), action, "borrowing", borrowing.ID, description)
}
