package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftride/internal/repository"
	"swiftride/internal/service"
)

// Identity headers installed by the upstream auth layer.
const (
	HeaderUserID   = "X-User-ID"
	HeaderDriverID = "X-Driver-ID"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// statusFromError maps service and repository errors to HTTP status codes.
func statusFromError(err error) int {
	if errors.Is(err, repository.ErrNotFound) {
		return http.StatusNotFound
	}

	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// riderID extracts the caller's rider identity. An empty result means
// the response has already been written.
func riderID(c *gin.Context) string {
	id := c.GetHeader(HeaderUserID)
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderUserID + " header"})
	}
	return id
}

// driverID extracts the caller's driver identity. An empty result means
// the response has already been written.
func driverID(c *gin.Context) string {
	id := c.GetHeader(HeaderDriverID)
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderDriverID + " header"})
	}
	return id
}

// actorID extracts either identity, preferring the rider header.
func actorID(c *gin.Context) string {
	if id := c.GetHeader(HeaderUserID); id != "" {
		return id
	}
	id := c.GetHeader(HeaderDriverID)
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity header"})
	}
	return id
}
