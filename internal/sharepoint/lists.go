package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"equipment-requests-api-server/internal/models"
)

const itemSelect = "Id,Title,Quantity,ItemStatus,ParentRequestId"

func (s *Store) listItemsPath(list string) string {
	return "/_api/web/lists/getbytitle(" + odataLiteral(list) + ")/items"
}

func (s *Store) requestSelect() string {
	f := s.conn.authorField
	return "Id,Title,Created,RequestStatus," + f + "/Id," + f + "/Title"
}

// FetchRequests lists requests newest first. When scoped, only requests
// authored by the session user are returned.
func (s *Store) FetchRequests(ctx context.Context, scopeToCurrentUser bool) ([]models.Request, error) {
	pairs := []string{
		"$select", s.requestSelect(),
		"$expand", s.conn.authorField,
		"$orderby", "Created desc",
	}
	if scopeToCurrentUser {
		pairs = append(pairs, "$filter", fmt.Sprintf("%s/Id eq %d", s.conn.authorField, s.sess.UserID))
	}

	var page struct {
		Results []json.RawMessage `json:"results"`
	}
	endpoint := s.listItemsPath(s.conn.requestsList) + odataQuery(pairs...)
	if err := s.do(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch requests: %w", err)
	}

	requests := make([]models.Request, 0, len(page.Results))
	for _, raw := range page.Results {
		r, err := decodeRequest(raw, s.conn.authorField)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, nil
}

// FetchRequest reads a single request by ID.
func (s *Store) FetchRequest(ctx context.Context, requestID int) (models.Request, error) {
	endpoint := s.listItemsPath(s.conn.requestsList) + "(" + strconv.Itoa(requestID) + ")" +
		odataQuery("$select", s.requestSelect(), "$expand", s.conn.authorField)

	var raw json.RawMessage
	if err := s.do(ctx, http.MethodGet, endpoint, nil, nil, &raw); err != nil {
		return models.Request{}, fmt.Errorf("fetch request %d: %w", requestID, err)
	}
	return decodeRequest(raw, s.conn.authorField)
}

// FetchItems lists every item whose parent reference is requestID.
func (s *Store) FetchItems(ctx context.Context, requestID int) ([]models.Item, error) {
	endpoint := s.listItemsPath(s.conn.itemsList) + odataQuery(
		"$select", itemSelect,
		"$filter", fmt.Sprintf("ParentRequestId eq %d", requestID),
	)

	var page struct {
		Results []itemRecord `json:"results"`
	}
	if err := s.do(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch items of request %d: %w", requestID, err)
	}

	items := make([]models.Item, 0, len(page.Results))
	for _, rec := range page.Results {
		it, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// FetchItem reads a single item, including its parent reference.
func (s *Store) FetchItem(ctx context.Context, itemID int) (models.Item, error) {
	endpoint := s.listItemsPath(s.conn.itemsList) + "(" + strconv.Itoa(itemID) + ")" +
		odataQuery("$select", itemSelect)

	var rec itemRecord
	if err := s.do(ctx, http.MethodGet, endpoint, nil, nil, &rec); err != nil {
		return models.Item{}, fmt.Errorf("fetch item %d: %w", itemID, err)
	}
	return rec.toModel()
}

// CreateRequest creates a Pending request authored by the session user.
func (s *Store) CreateRequest(ctx context.Context, reason string) (models.Request, error) {
	body := map[string]interface{}{
		"__metadata":    metadata{Type: entityType(s.conn.requestsList)},
		"Title":         reason,
		"RequestStatus": labelPending,
	}
	// The built-in Author column is set by the store itself.
	if s.conn.authorField != builtinAuthor {
		body[s.conn.authorField+"Id"] = s.sess.UserID
	}

	var raw json.RawMessage
	if err := s.create(ctx, s.listItemsPath(s.conn.requestsList), body, &raw); err != nil {
		return models.Request{}, fmt.Errorf("create request: %w", err)
	}
	req, err := decodeRequest(raw, s.conn.authorField)
	if err != nil {
		return models.Request{}, err
	}
	if req.AuthorID == 0 {
		req.AuthorID = s.sess.UserID
	}
	if req.AuthorName == "" {
		req.AuthorName = s.sess.DisplayName
	}
	return req, nil
}

// CreateItem creates a Pending item linked to parentID.
func (s *Store) CreateItem(ctx context.Context, parentID int, name string, quantity int) (models.Item, error) {
	body := map[string]interface{}{
		"__metadata":      metadata{Type: entityType(s.conn.itemsList)},
		"Title":           name,
		"Quantity":        quantity,
		"ItemStatus":      labelPending,
		"ParentRequestId": parentID,
	}

	var rec itemRecord
	if err := s.create(ctx, s.listItemsPath(s.conn.itemsList), body, &rec); err != nil {
		return models.Item{}, fmt.Errorf("create item for request %d: %w", parentID, err)
	}
	return rec.toModel()
}

// UpdateItemStatus overwrites an item's status unconditionally.
func (s *Store) UpdateItemStatus(ctx context.Context, itemID int, status models.ItemStatus) error {
	label, err := itemLabel(status)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"__metadata": metadata{Type: entityType(s.conn.itemsList)},
		"ItemStatus": label,
	}
	endpoint := s.listItemsPath(s.conn.itemsList) + "(" + strconv.Itoa(itemID) + ")"
	if err := s.merge(ctx, endpoint, body); err != nil {
		return fmt.Errorf("update item %d status: %w", itemID, err)
	}
	return nil
}

// UpdateRequestStatus overwrites a request's status unconditionally.
func (s *Store) UpdateRequestStatus(ctx context.Context, requestID int, status models.RequestStatus) error {
	label, err := requestLabel(status)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"__metadata":    metadata{Type: entityType(s.conn.requestsList)},
		"RequestStatus": label,
	}
	endpoint := s.listItemsPath(s.conn.requestsList) + "(" + strconv.Itoa(requestID) + ")"
	if err := s.merge(ctx, endpoint, body); err != nil {
		return fmt.Errorf("update request %d status: %w", requestID, err)
	}
	return nil
}
