package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"equipment-requests-api-server/internal/service"
	"equipment-requests-api-server/internal/sharepoint"
	"equipment-requests-api-server/internal/status"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service or store error onto an HTTP status.
func statusFor(err error) int {
	var nf interface{ NotFound() bool }
	var spErr *sharepoint.Error
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.As(err, &nf) && nf.NotFound():
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidBulkStatus):
		return http.StatusBadRequest
	case errors.Is(err, status.ErrNoItems):
		return http.StatusConflict
	case errors.Is(err, service.ErrExportDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &spErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// intParam reads a positive integer path parameter, answering 400 otherwise.
func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
