// server/internal/database/audit.go
package database

import (
	"context"

	"equipment-requests-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultAuditLimit = 100

// AuditLog keeps one document per write flow against the list store.
type AuditLog struct {
	coll *mongo.Collection
}

func NewAuditLog(db *mongo.Database) *AuditLog {
	return &AuditLog{coll: db.Collection("audit_events")}
}

func (a *AuditLog) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "requestID", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (a *AuditLog) Record(ctx context.Context, event models.AuditEvent) error {
	_, err := a.coll.InsertOne(ctx, event)
	return err
}

// List returns the newest events first. requestID 0 lists every request.
func (a *AuditLog) List(ctx context.Context, requestID int, limit int64) ([]models.AuditEvent, error) {
	filter := bson.M{}
	if requestID != 0 {
		filter["requestID"] = requestID
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := a.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
