package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a local login account mapped onto a SharePoint identity.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	Name             string             `bson:"name" json:"name"`
	Password         string             `bson:"password" json:"-"`
	SharePointUserID int                `bson:"sharePointUserID" json:"sharePointUserId"`
	Status           string             `bson:"status" json:"status"` // active, disabled
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

const (
	UserActive   = "active"
	UserDisabled = "disabled"
)
