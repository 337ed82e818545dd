// Package entrypoint wires the application together and runs the HTTP server.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/audit"
	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/config"
	"github.com/avolkov/libris/internal/database"
	http_controllers "github.com/avolkov/libris/internal/http"
	"github.com/avolkov/libris/internal/scheduler"
	"github.com/avolkov/libris/internal/services"
	"github.com/avolkov/libris/internal/store"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal, then shut down gracefully within the
	// configured timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Libris v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	st := store.New(db.DB)
	now := time.Now

	// Audit trail
	var auditService *audit.Service
	if cfg.Audit.Enabled {
		auditService = audit.NewService(db.DB)
	} else {
		log.Printf("Audit trail disabled")
	}

	// Authentication
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")
		if cfg.Auth.SigningKey == "" {
			log.Fatalf("AUTH_SIGNING_KEY is required when AUTH_MODE=local")
		}

		authService = auth.NewService(db.DB, cfg.Auth)
		authMiddleware = auth.NewMiddleware(authService, cfg.Auth)

		if err := authService.EnsureAdmin(); err != nil {
			log.Fatalf("Failed to bootstrap admin account: %v", err)
		}
		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No staff accounts found. Set AUTH_ADMIN_PASSWORD or run 'create-user' to add one.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	// Background jobs
	reportScheduler := scheduler.NewLendingReportScheduler(st, cfg.Reports)
	if err := reportScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start lending report scheduler: %v", err)
	}

	var cleanupScheduler *scheduler.AuditCleanupScheduler
	if auditService != nil {
		cleanupScheduler = scheduler.NewAuditCleanupScheduler(auditService, cfg.Audit)
		if err := cleanupScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start audit cleanup scheduler: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Version:        version,
		Authors:        services.NewAuthors(st),
		Categories:     services.NewCategories(st),
		Books:          services.NewBooks(st),
		Copies:         services.NewCopies(st, now),
		Readers:        services.NewReaders(st),
		Borrowings:     services.NewBorrowings(st, now),
		AuditService:   auditService,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
	})

	onShutdown := func(ctx context.Context) {
		reportScheduler.Stop()
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
	}

	Serve(router, cfg, onShutdown)
}
