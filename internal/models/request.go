// server/internal/models/request.go
package models

import "time"

// RequestStatus is the derived status of a whole equipment request.
type RequestStatus string

const (
	RequestPending           RequestStatus = "Pending"
	RequestApproved          RequestStatus = "Approved"
	RequestRejected          RequestStatus = "Rejected"
	RequestPartiallyApproved RequestStatus = "PartiallyApproved"
)

// Valid reports whether s is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestPartiallyApproved:
		return true
	}
	return false
}

// ItemStatus is the admin decision on a single line item.
type ItemStatus string

const (
	ItemPending  ItemStatus = "Pending"
	ItemApproved ItemStatus = "Approved"
	ItemRejected ItemStatus = "Rejected"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemApproved, ItemRejected:
		return true
	}
	return false
}

// Request is a transient copy of a record in the requests list.
type Request struct {
	ID         int           `json:"id"`
	Reason     string        `json:"reason"`
	Status     RequestStatus `json:"status"`
	AuthorID   int           `json:"authorId"`
	AuthorName string        `json:"author"`
	Created    time.Time     `json:"created"`
}

// Item is one equipment line belonging to exactly one Request.
type Item struct {
	ID        int        `json:"id"`
	RequestID int        `json:"requestId"`
	Title     string     `json:"title"`
	Quantity  int        `json:"quantity"`
	Status    ItemStatus `json:"status"`
}

// NewItem is a line entry submitted together with a new request.
type NewItem struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// RequestDetail is a request with all of its items.
type RequestDetail struct {
	Request Request `json:"request"`
	Items   []Item  `json:"items"`
}
