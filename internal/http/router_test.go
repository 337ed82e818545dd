package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/libris/internal/audit"
	"github.com/avolkov/libris/internal/auth"
	"github.com/avolkov/libris/internal/config"
	"github.com/avolkov/libris/internal/database"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/services"
	"github.com/avolkov/libris/internal/store"
)

func setupRouter(t *testing.T, authCfg config.Auth) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_router_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewTestDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	st := store.New(db.DB)
	now := time.Now

	var authService *auth.Service
	var authMiddleware *auth.Middleware
	if authCfg.Mode == config.AuthModeLocal {
		authService = auth.NewService(db.DB, authCfg)
		require.NoError(t, authService.EnsureAdmin())
		authMiddleware = auth.NewMiddleware(authService, authCfg)
	}

	return NewRouter(RouterConfig{
		Database:       db,
		Version:        "test",
		Authors:        services.NewAuthors(st),
		Categories:     services.NewCategories(st),
		Books:          services.NewBooks(st),
		Copies:         services.NewCopies(st, now),
		Readers:        services.NewReaders(st),
		Borrowings:     services.NewBorrowings(st, now),
		AuditService:   audit.NewService(db.DB),
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
	})
}

func doJSON(router *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthorLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t, config.Auth{Mode: config.AuthModeNone})

	w := doJSON(router, "POST", "/api/authors",
		`{"first_name": "Stanisław", "last_name": "Lem", "tags": ["SF"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var author entities.Author
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &author))
	assert.Equal(t, "sf", author.Tags)

	w = doJSON(router, "GET", "/api/authors/"+author.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "PATCH", "/api/authors/"+author.ID.String(),
		`{"description": "wrote Solaris"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated entities.Author
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "wrote Solaris", updated.Description)
	assert.Equal(t, "Lem", updated.LastName)

	w = doJSON(router, "GET", "/api/authors?term=lem", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "DELETE", "/api/authors/"+author.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, "GET", "/api/authors/"+author.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	router := setupRouter(t, config.Auth{Mode: config.AuthModeNone})

	t.Run("malformed id is 400 with a format code", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/authors/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "format", resp.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/authors/9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("short search term is 400", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/books?term=ab", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric page is 400", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/books?page=two", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("page past the end is 409", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/readers",
			`{"first_name": "Anna", "last_name": "Nowak", "card_number": "C-1"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(router, "GET", "/api/readers?page=5", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("blocked delete is 409", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/authors",
			`{"first_name": "Ursula", "last_name": "Le Guin"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		var author entities.Author
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &author))

		w = doJSON(router, "POST", "/api/categories", `{"name": "Fantasy"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		var category entities.Category
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &category))

		w = doJSON(router, "POST", "/api/books",
			`{"title": "Earthsea", "release_date": "1968-01-01", "language": "English",
			  "author_id": "`+author.ID.String()+`", "category_id": "`+category.ID.String()+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(router, "DELETE", "/api/authors/"+author.ID.String(), "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthProtection(t *testing.T) {
	authCfg := config.Auth{
		Mode:            config.AuthModeLocal,
		SigningKey:      "test-signing-key-not-for-production",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		BcryptCost:      4,
		AdminUsername:   "admin",
		AdminPassword:   "correct horse battery",
	}
	router := setupRouter(t, authCfg)

	t.Run("health stays public", func(t *testing.T) {
		w := doJSON(router, "GET", "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("api requires a token", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/authors", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login then call with bearer token", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/auth/login",
			`{"username": "admin", "password": "correct horse battery"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var pair auth.TokenPair
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
		require.NotEmpty(t, pair.AccessToken)

		w = doJSON(router, "GET", "/api/authors", "",
			"Authorization", "Bearer "+pair.AccessToken)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, "POST", "/api/auth/refresh",
			`{"refresh_token": "`+pair.RefreshToken+`"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong credentials are 401", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/auth/login",
			`{"username": "admin", "password": "wrong password!!"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuditTrailOverHTTP(t *testing.T) {
	router := setupRouter(t, config.Auth{Mode: config.AuthModeNone})

	w := doJSON(router, "POST", "/api/categories", `{"name": "Poetry"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Mutations are recorded in the background.
	require.Eventually(t, func() bool {
		w := doJSON(router, "GET", "/api/audit?entity_type=category", "")
		if w.Code != http.StatusOK {
			return false
		}
		var resp auditEventsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.Total == 1 &&
			resp.Events[0].Action == entities.AuditActionCreate &&
			resp.Events[0].Actor == auth.AnonymousActor
	}, 2*time.Second, 10*time.Millisecond)
}
