// server/internal/api/handlers/request_handler.go
package handlers

import (
	"net/http"
	"strings"

	"equipment-requests-api-server/internal/api/middleware"
	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/service"
	"equipment-requests-api-server/internal/session"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	Requests *service.RequestService
	Registry *session.Registry
}

type SubmitRequestPayload struct {
	Reason string           `json:"reason" binding:"required"`
	Items  []models.NewItem `json:"items" binding:"required,min=1,dive"`
}

type ItemStatusPayload struct {
	Status models.ItemStatus `json:"status" binding:"required"`
}

// BulkStatusPayload optionally names the items to update. Without it every
// item of the request is updated.
type BulkStatusPayload struct {
	Items []models.Item `json:"items"`
}

// ListRequests returns the dashboard list. The q and status query
// parameters override the stored filters for this call only.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	sess, _ := middleware.Session(c)

	filters := h.Registry.Filters(sess.UserID)
	if q, ok := c.GetQuery("q"); ok {
		filters.SearchTerm = q
	}
	if st, ok := c.GetQuery("status"); ok {
		filters.Status = st
	}

	requests, err := h.Requests.ListRequests(c.Request.Context(), sess, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// SubmitRequest creates a request with its items.
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	sess, _ := middleware.Session(c)

	var payload SubmitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload.Reason = strings.TrimSpace(payload.Reason)
	if payload.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason must not be empty"})
		return
	}
	for i := range payload.Items {
		payload.Items[i].Name = strings.TrimSpace(payload.Items[i].Name)
		if payload.Items[i].Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item name must not be empty"})
			return
		}
	}

	req, err := h.Requests.SubmitRequest(c.Request.Context(), sess, payload.Reason, payload.Items)
	if err != nil {
		body := gin.H{"error": err.Error()}
		// The request record exists even though some items failed.
		if req.ID != 0 {
			body["requestId"] = req.ID
		}
		c.JSON(statusFor(err), body)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GetRequest returns a request with its items.
func (h *RequestHandler) GetRequest(c *gin.Context) {
	sess, _ := middleware.Session(c)
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.Requests.GetRequestDetail(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SetItemStatus changes a single item and returns the re-derived request status.
func (h *RequestHandler) SetItemStatus(c *gin.Context) {
	sess, _ := middleware.Session(c)
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var payload ItemStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	derived, err := h.Requests.SetItemStatus(c.Request.Context(), sess, id, payload.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemId": id, "status": payload.Status, "requestStatus": derived})
}

func (h *RequestHandler) ApproveAll(c *gin.Context) {
	h.bulk(c, models.ItemApproved)
}

func (h *RequestHandler) RejectAll(c *gin.Context) {
	h.bulk(c, models.ItemRejected)
}

func (h *RequestHandler) bulk(c *gin.Context, target models.ItemStatus) {
	sess, _ := middleware.Session(c)
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var payload BulkStatusPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	items := payload.Items
	if len(items) == 0 {
		fetched, err := h.Requests.RequestItems(c.Request.Context(), sess, id)
		if err != nil {
			respondError(c, err)
			return
		}
		items = fetched
	}

	if err := h.Requests.BulkSetStatus(c.Request.Context(), sess, id, items, target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestId": id, "status": target, "items": len(items)})
}

// Reconcile re-derives a request's status from its items.
func (h *RequestHandler) Reconcile(c *gin.Context) {
	sess, _ := middleware.Session(c)
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	derived, err := h.Requests.ReconcileRequest(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestId": id, "status": derived})
}
