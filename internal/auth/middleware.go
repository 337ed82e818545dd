package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/config"
	"github.com/avolkov/libris/internal/entities"
)

// Context keys for the authenticated caller.
const (
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
)

// AnonymousActor is recorded as the actor when authentication is disabled.
const AnonymousActor = "anonymous"

// Middleware authenticates API requests with Bearer access tokens.
type Middleware struct {
	service *Service
	config  config.Auth
}

func NewMiddleware(service *Service, cfg config.Auth) *Middleware {
	return &Middleware{service: service, config: cfg}
}

// Handler returns the gin middleware that authenticates requests. With auth
// disabled every request runs as the anonymous actor.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return func(c *gin.Context) {
			c.Set(ContextKeyUsername, AnonymousActor)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := m.service.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole restricts a route to the given roles. No-op when auth is off.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if !roleSet[GetRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// GetUsername retrieves the authenticated username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return AnonymousActor
}

// GetRole retrieves the authenticated user's role from the context.
func GetRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}
