// Package service orchestrates multi-record operations over the list store.
package service

import (
	"context"
	"errors"
	"io"

	"equipment-requests-api-server/internal/models"
)

var (
	ErrRequestNotFound   = errors.New("request not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidBulkStatus = errors.New("bulk status must be Approved or Rejected")
	ErrExportDisabled    = errors.New("report export is not configured")
)

// Store is the list-store contract the services need. It is bound to one session.
type Store interface {
	FetchRequests(ctx context.Context, scopeToCurrentUser bool) ([]models.Request, error)
	FetchRequest(ctx context.Context, requestID int) (models.Request, error)
	FetchItems(ctx context.Context, requestID int) ([]models.Item, error)
	FetchItem(ctx context.Context, itemID int) (models.Item, error)
	CreateRequest(ctx context.Context, reason string) (models.Request, error)
	CreateItem(ctx context.Context, parentID int, name string, quantity int) (models.Item, error)
	UpdateItemStatus(ctx context.Context, itemID int, status models.ItemStatus) error
	UpdateRequestStatus(ctx context.Context, requestID int, status models.RequestStatus) error
}

// StoreFactory binds a Store to a caller's session.
type StoreFactory func(sess models.SessionContext) Store

// Auditor persists the outcome of write flows.
type Auditor interface {
	Record(ctx context.Context, event models.AuditEvent) error
}

// Notifier pushes a message to a connected user.
type Notifier interface {
	Send(userID string, message []byte) error
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}
