package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/audit"
	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/database"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
)

// RouterConfig carries every dependency the router needs. A single struct
// keeps the constructor signature stable as dependencies come and go.
type RouterConfig struct {
	Database *database.Database
	Version  string

	Authors    *services.Authors
	Categories *services.Categories
	Books      *services.Books
	Copies     *services.Copies
	Readers    *services.Readers
	Borrowings *services.Borrowings

	AuditService   *audit.Service   // nil disables the activity trail
	AuthService    *auth.Service    // nil disables login endpoints
	AuthMiddleware *auth.Middleware // nil runs every request as anonymous
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		auth.NewHandlers(cfg.AuthService).RegisterRoutes(router)
	}

	var trail auditTrail
	if cfg.AuditService != nil {
		trail = cfg.AuditService
	}

	api := router.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.Handler())
	} else {
		api.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUsername, auth.AnonymousActor)
			c.Next()
		})
	}

	registerResource(api, "/authors", NewAuthorsController(cfg.Authors, trail))
	registerResource(api, "/categories", NewCategoriesController(cfg.Categories, trail))
	registerResource(api, "/books", NewBooksController(cfg.Books, trail))
	registerResource(api, "/copies", NewCopiesController(cfg.Copies, trail))
	registerResource(api, "/readers", NewReadersController(cfg.Readers, trail))
	registerResource(api, "/borrowings", NewBorrowingsController(cfg.Borrowings, trail))

	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		auditRoute := api.Group("/audit")
		if cfg.AuthMiddleware != nil {
			auditRoute.Use(cfg.AuthMiddleware.RequireRole(entities.RoleAdmin))
		}
		auditRoute.GET("", auditController.ListEvents)
	}

	return router
}

// crudController is satisfied by every entity controller in this package.
type crudController interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

func registerResource(group *gin.RouterGroup, path string, controller crudController) {
	group.GET(path, controller.Search)
	group.GET(path+"/:id", controller.Get)
	group.POST(path, controller.Create)
	group.PATCH(path+"/:id", controller.Update)
	group.DELETE(path+"/:id", controller.Delete)
}
