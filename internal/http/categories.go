package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

type CategoriesController struct {
	categories *services.Categories
	audit      auditTrail
}

func NewCategoriesController(categories *services.Categories, audit auditTrail) *CategoriesController {
	return &CategoriesController{categories: categories, audit: audit}
}

func (controller *CategoriesController) Search(c *gin.Context) {
	page, ok := parseOptionalInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parseOptionalInt(c, "page_size")
	if !ok {
		return
	}

	result, err := controller.categories.Search(services.CategoryFilter{
		Term:             c.Query("term"),
		ParentCategoryID: c.Query("parent_category_id"),
		Page:             page,
		PageSize:         pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (controller *CategoriesController) Get(c *gin.Context) {
	category, err := controller.categories.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, category)
}

func (controller *CategoriesController) Create(c *gin.Context) {
	var params services.CreateCategoryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	category, err := controller.categories.Create(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionCreate, category, "Created category: "+category.Name)
	respondCreated(c, category)
}

func (controller *CategoriesController) Update(c *gin.Context) {
	var params services.UpdateCategoryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	category, err := controller.categories.Update(c.Param("id"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionUpdate, category, "Updated category: "+category.Name)
	respondOK(c, category)
}

func (controller *CategoriesController) Delete(c *gin.Context) {
	category, err := controller.categories.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := controller.categories.Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionDelete, category, "Deleted category: "+category.Name)
	respondNoContent(c)
}

func (controller *CategoriesController) recordMutation(c *gin.Context, action entities.AuditAction, category *entities.Category, description string) {
	if controller.audit == nil {
		return
	}
	controller.audit.RecordMutation(auth.GetUsername(c), action, "category", category.ID, description)
}
