package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libris/internal/apperr"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error kind
}

// respondServiceError maps a service error onto an HTTP status code.
func respondServiceError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindFormat, apperr.KindArgument:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("Internal error (%s %s): %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: kind.String()})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: kind.String()})
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.IndentedJSON(http.StatusCreated, data)
}

// respondOK sends a 200 OK response with data.
func respondOK(c *gin.Context, data any) {
	c.IndentedJSON(http.StatusOK, data)
}

// respondNoContent sends a 204 No Content response.
func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// parseOptionalInt reads an optional integer query parameter. Returns
// (nil, true) when the parameter is absent and (nil, false) after
// responding with a 400 when it is malformed.
func parseOptionalInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &value, true
}

// parseOptionalBool reads an optional boolean query parameter.
func parseOptionalBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &value, true
}
