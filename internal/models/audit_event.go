package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AuditRequestSubmitted  = "request.submitted"
	AuditItemStatusChanged = "item.status_changed"
	AuditRequestBulkStatus = "request.bulk_status"
	AuditRequestReconciled = "request.reconciled"
)

// AuditEvent records the outcome of one write flow against the list store.
// Error is empty when the flow completed.
type AuditEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	EventID   string             `bson:"eventID" json:"eventId"`
	Kind      string             `bson:"kind" json:"kind"`
	RequestID int                `bson:"requestID" json:"requestId"`
	ItemID    int                `bson:"itemID,omitempty" json:"itemId,omitempty"`
	Status    string             `bson:"status,omitempty" json:"status,omitempty"`
	ActorID   int                `bson:"actorID" json:"actorId"`
	ActorName string             `bson:"actorName" json:"actorName"`
	Error     string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
