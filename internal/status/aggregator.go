// Package status derives a request's status from the statuses of its items.
package status

import (
	"errors"

	"equipment-requests-api-server/internal/models"
)

// ErrNoItems is returned for an empty item set. Whether such a request is
// Approved, Rejected or still Pending is undecided, so no status is derived.
var ErrNoItems = errors.New("request has no items")

// Derive returns Approved when every item is approved, Rejected when every
// item is rejected, and PartiallyApproved otherwise. Pending items count as
// neither, so any mix that includes one is PartiallyApproved.
func Derive(statuses []models.ItemStatus) (models.RequestStatus, error) {
	if len(statuses) == 0 {
		return "", ErrNoItems
	}
	if all(statuses, models.ItemApproved) {
		return models.RequestApproved, nil
	}
	if all(statuses, models.ItemRejected) {
		return models.RequestRejected, nil
	}
	return models.RequestPartiallyApproved, nil
}

// DeriveFromItems is Derive over the statuses of items.
func DeriveFromItems(items []models.Item) (models.RequestStatus, error) {
	statuses := make([]models.ItemStatus, 0, len(items))
	for _, it := range items {
		statuses = append(statuses, it.Status)
	}
	return Derive(statuses)
}

func all(statuses []models.ItemStatus, want models.ItemStatus) bool {
	for _, s := range statuses {
		if s != want {
			return false
		}
	}
	return true
}
