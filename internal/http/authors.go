package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

type AuthorsController struct {
	authors *services.Authors
	audit   auditTrail
}

func NewAuthorsController(authors *services.Authors, audit auditTrail) *AuthorsController {
	return &AuthorsController{authors: authors, audit: audit}
}

func (controller *AuthorsController) Search(c *gin.Context) {
	page, ok := parseOptionalInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parseOptionalInt(c, "page_size")
	if !ok {
		return
	}

	result, err := controller.authors.Search(services.AuthorFilter{
		Term:     c.Query("term"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (controller *AuthorsController) Get(c *gin.Context) {
	author, err := controller.authors.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, author)
}

func (controller *AuthorsController) Create(c *gin.Context) {
	var params services.CreateAuthorParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	author, err := controller.authors.Create(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionCreate, author,
		"Created author: "+author.FirstName+" "+author.LastName)
	respondCreated(c, author)
}

func (controller *AuthorsController) Update(c *gin.Context) {
	var params services.UpdateAuthorParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	author, err := controller.authors.Update(c.Param("id"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionUpdate, author,
		"Updated author: "+author.FirstName+" "+author.LastName)
	respondOK(c, author)
}

func (controller *AuthorsController) Delete(c *gin.Context) {
	author, err := controller.authors.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := controller.authors.Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionDelete, author,
		"Deleted author: "+author.FirstName+" "+author.LastName)
	respondNoContent(c)
}

func (controller *AuthorsController) recordMutation(c *gin.Context, action entities.AuditAction, author *entities.Author, description string) {
	if controller.audit == nil {
		return
	}
	controller.audit.RecordMutation(auth.GetUsername(c), action, "author", author.ID, description)
}
