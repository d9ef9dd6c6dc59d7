package sharepoint

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"equipment-requests-api-server/internal/models"
)

const builtinAuthor = "Author"

// Choice labels stored in the RequestStatus and ItemStatus columns.
const (
	labelPending           = "ממתין"
	labelApproved          = "מאושר"
	labelRejected          = "נדחה"
	labelPartiallyApproved = "מאושר חלקית"
)

var requestLabels = map[models.RequestStatus]string{
	models.RequestPending:           labelPending,
	models.RequestApproved:          labelApproved,
	models.RequestRejected:          labelRejected,
	models.RequestPartiallyApproved: labelPartiallyApproved,
}

var itemLabels = map[models.ItemStatus]string{
	models.ItemPending:  labelPending,
	models.ItemApproved: labelApproved,
	models.ItemRejected: labelRejected,
}

func requestLabel(s models.RequestStatus) (string, error) {
	l, ok := requestLabels[s]
	if !ok {
		return "", fmt.Errorf("unknown request status %q", s)
	}
	return l, nil
}

func itemLabel(s models.ItemStatus) (string, error) {
	l, ok := itemLabels[s]
	if !ok {
		return "", fmt.Errorf("unknown item status %q", s)
	}
	return l, nil
}

// parseRequestStatus maps a stored label back. An empty column reads as Pending.
func parseRequestStatus(label string) (models.RequestStatus, error) {
	if label == "" {
		return models.RequestPending, nil
	}
	for s, l := range requestLabels {
		if l == label {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown request status label %q", label)
}

func parseItemStatus(label string) (models.ItemStatus, error) {
	if label == "" {
		return models.ItemPending, nil
	}
	for s, l := range itemLabels {
		if l == label {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown item status label %q", label)
}

// entityType is the __metadata type of items in list.
func entityType(list string) string {
	return "SP.Data." + strings.ReplaceAll(list, " ", "_x0020_") + "ListItem"
}

type metadata struct {
	Type string `json:"type"`
}

type person struct {
	ID    int    `json:"Id"`
	Title string `json:"Title"`
}

type itemRecord struct {
	ID              int     `json:"Id"`
	Title           string  `json:"Title"`
	Quantity        float64 `json:"Quantity"`
	ItemStatus      string  `json:"ItemStatus"`
	ParentRequestID int     `json:"ParentRequestId"`
}

func (r itemRecord) toModel() (models.Item, error) {
	st, err := parseItemStatus(r.ItemStatus)
	if err != nil {
		return models.Item{}, fmt.Errorf("item %d: %w", r.ID, err)
	}
	return models.Item{
		ID:        r.ID,
		RequestID: r.ParentRequestID,
		Title:     r.Title,
		Quantity:  int(r.Quantity),
		Status:    st,
	}, nil
}

// decodeRequest reads a request record whose author column name is configurable.
func decodeRequest(raw json.RawMessage, authorField string) (models.Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Request{}, fmt.Errorf("decode request: %w", err)
	}

	var rec struct {
		ID            int       `json:"Id"`
		Title         string    `json:"Title"`
		Created       time.Time `json:"Created"`
		RequestStatus string    `json:"RequestStatus"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Request{}, fmt.Errorf("decode request: %w", err)
	}

	var author person
	if a, ok := fields[authorField]; ok && len(a) > 0 && string(a) != "null" {
		if err := json.Unmarshal(a, &author); err != nil {
			return models.Request{}, fmt.Errorf("decode request %d author: %w", rec.ID, err)
		}
	}
	// Unexpanded responses (e.g. right after a create) only carry <Field>Id.
	if author.ID == 0 {
		if id, ok := fields[authorField+"Id"]; ok {
			_ = json.Unmarshal(id, &author.ID)
		}
	}

	st, err := parseRequestStatus(rec.RequestStatus)
	if err != nil {
		return models.Request{}, fmt.Errorf("request %d: %w", rec.ID, err)
	}
	return models.Request{
		ID:         rec.ID,
		Reason:     rec.Title,
		Status:     st,
		AuthorID:   author.ID,
		AuthorName: author.Title,
		Created:    rec.Created,
	}, nil
}
