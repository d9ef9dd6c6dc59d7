package service

import (
	"strconv"
	"strings"

	"equipment-requests-api-server/internal/models"
)

// FilterRequests applies the admin dashboard filters. The search term matches
// a substring of the ID, or of the reason or author ignoring case. An empty
// status or "all" keeps every status.
func FilterRequests(requests []models.Request, f models.Filters) []models.Request {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	out := make([]models.Request, 0, len(requests))
	for _, r := range requests {
		if term != "" &&
			!strings.Contains(strconv.Itoa(r.ID), term) &&
			!strings.Contains(strings.ToLower(r.Reason), term) &&
			!strings.Contains(strings.ToLower(r.AuthorName), term) {
			continue
		}
		if f.Status != "" && f.Status != models.StatusAll && string(r.Status) != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out
}
