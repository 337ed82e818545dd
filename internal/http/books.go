package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

type BooksController struct {
	books *services.Books
	audit auditTrail
}

func NewBooksController(books *services.Books, audit auditTrail) *BooksController {
	return &BooksController{books: books, audit: audit}
}

func (controller *BooksController) Search(c *gin.Context) {
	page, ok := parseOptionalInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parseOptionalInt(c, "page_size")
	if !ok {
		return
	}
	isAvailable, ok := parseOptionalBool(c, "is_available")
	if !ok {
		return
	}

	result, err := controller.books.Search(services.BookFilter{
		Term:        c.Query("term"),
		AuthorID:    c.Query("author_id"),
		CategoryID:  c.Query("category_id"),
		OlderThan:   c.Query("older_than"),
		NewerThan:   c.Query("newer_than"),
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

func (controller *BooksController) Get(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, book)
}

func (controller *BooksController) Create(c *gin.Context) {
	var params services.CreateBookParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.books.Create(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionCreate, book, "Created book: "+book.Title)
	respondCreated(c, book)
}

func (controller *BooksController) Update(c *gin.Context) {
	var params services.UpdateBookParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.books.Update(c.Param("id"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionUpdate, book, "Updated book: "+book.Title)
	respondOK(c, book)
}

func (controller *BooksController) Delete(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := controller.books.Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	controller.recordMutation(c, entities.AuditActionDelete, book, "Deleted book: "+book.Title)
	respondNoContent(c)
}

func (controller *BooksController) recordMutation(c *gin.Context, action entities.AuditAction, book *entities.Book, description string) {
	if controller.audit == nil {
		return
	}
	controller.audit.RecordMutation(auth.GetUsername(c), action, "book", book.ID, description)
}
