// server/internal/api/handlers/admin_handler.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"equipment-requests-api-server/internal/api/middleware"
	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

// AuditReader lists recorded write flows, newest first.
type AuditReader interface {
	List(ctx context.Context, requestID int, limit int64) ([]models.AuditEvent, error)
}

type AdminHandler struct {
	Audit   AuditReader
	Reports *service.ReportService
}

// ListAudit returns audit events, optionally for one request (?requestId=).
func (h *AdminHandler) ListAudit(c *gin.Context) {
	requestID := 0
	if v := c.Query("requestId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requestId"})
			return
		}
		requestID = id
	}
	var limit int64
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.Audit.List(c.Request.Context(), requestID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query audit events"})
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// ExportRequests uploads a CSV of every request and returns its URL.
func (h *AdminHandler) ExportRequests(c *gin.Context) {
	sess, _ := middleware.Session(c)

	url, err := h.Reports.ExportRequests(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
