// Package testutil holds in-memory stand-ins for the list store and the
// other collaborators of the services, for use in tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"equipment-requests-api-server/internal/models"
)

// StatusUpdate is one recorded status write.
type StatusUpdate struct {
	ID     int
	Status string
}

// CreatedItem is one recorded CreateItem call.
type CreatedItem struct {
	ParentID int
	Name     string
	Quantity int
}

// NotFoundError mimics a store 404.
type NotFoundError struct{ What string }

func (e *NotFoundError) Error() string { return e.What + " not found" }

func (e *NotFoundError) NotFound() bool { return true }

// FakeStore is an in-memory list store that records every write. It is safe
// for the concurrent calls the services make.
type FakeStore struct {
	mu       sync.Mutex
	nextID   int
	requests map[int]models.Request
	items    map[int]models.Item

	CreateRequestCalls []string
	CreateItemCalls    []CreatedItem
	ItemUpdates        []StatusUpdate
	RequestUpdates     []StatusUpdate

	// Fail hooks return a non-nil error to make the matching call fail.
	FailCreateRequest func(reason string) error
	FailCreateItem    func(parentID int, name string) error
	FailItemUpdate    func(itemID int) error
	FailRequestUpdate func(requestID int) error

	// LastSession is the session the store was last bound to.
	LastSession models.SessionContext
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		nextID:   100,
		requests: map[int]models.Request{},
		items:    map[int]models.Item{},
	}
}

// Bind returns the session seen by a StoreFactory and keeps it for assertions.
func (f *FakeStore) Bind(sess models.SessionContext) *FakeStore {
	f.mu.Lock()
	f.LastSession = sess
	f.mu.Unlock()
	return f
}

// SeedRequest adds a request with items and returns the stored items.
func (f *FakeStore) SeedRequest(req models.Request, statuses ...models.ItemStatus) []models.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Created.IsZero() {
		req.Created = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(req.ID) * time.Minute)
	}
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	f.requests[req.ID] = req
	var out []models.Item
	for i, st := range statuses {
		f.nextID++
		it := models.Item{ID: f.nextID, RequestID: req.ID, Title: fmt.Sprintf("item-%d", i+1), Quantity: 1, Status: st}
		f.items[it.ID] = it
		out = append(out, it)
	}
	return out
}

// Request returns the stored copy of a request.
func (f *FakeStore) Request(id int) models.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id]
}

func (f *FakeStore) FetchRequests(ctx context.Context, scopeToCurrentUser bool) ([]models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Request, 0, len(f.requests))
	for _, r := range f.requests {
		if scopeToCurrentUser && r.AuthorID != f.LastSession.UserID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

func (f *FakeStore) FetchRequest(ctx context.Context, requestID int) (models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok {
		return models.Request{}, &NotFoundError{What: fmt.Sprintf("request %d", requestID)}
	}
	return r, nil
}

func (f *FakeStore) FetchItems(ctx context.Context, requestID int) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Item{}
	for _, it := range f.items {
		if it.RequestID == requestID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeStore) FetchItem(ctx context.Context, itemID int) (models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return models.Item{}, &NotFoundError{What: fmt.Sprintf("item %d", itemID)}
	}
	return it, nil
}

func (f *FakeStore) CreateRequest(ctx context.Context, reason string) (models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateRequestCalls = append(f.CreateRequestCalls, reason)
	if f.FailCreateRequest != nil {
		if err := f.FailCreateRequest(reason); err != nil {
			return models.Request{}, err
		}
	}
	f.nextID++
	r := models.Request{
		ID:         f.nextID,
		Reason:     reason,
		Status:     models.RequestPending,
		AuthorID:   f.LastSession.UserID,
		AuthorName: f.LastSession.DisplayName,
		Created:    time.Now(),
	}
	f.requests[r.ID] = r
	return r, nil
}

func (f *FakeStore) CreateItem(ctx context.Context, parentID int, name string, quantity int) (models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateItemCalls = append(f.CreateItemCalls, CreatedItem{ParentID: parentID, Name: name, Quantity: quantity})
	if f.FailCreateItem != nil {
		if err := f.FailCreateItem(parentID, name); err != nil {
			return models.Item{}, err
		}
	}
	f.nextID++
	it := models.Item{ID: f.nextID, RequestID: parentID, Title: name, Quantity: quantity, Status: models.ItemPending}
	f.items[it.ID] = it
	return it, nil
}

func (f *FakeStore) UpdateItemStatus(ctx context.Context, itemID int, status models.ItemStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ItemUpdates = append(f.ItemUpdates, StatusUpdate{ID: itemID, Status: string(status)})
	if f.FailItemUpdate != nil {
		if err := f.FailItemUpdate(itemID); err != nil {
			return err
		}
	}
	if it, ok := f.items[itemID]; ok {
		it.Status = status
		f.items[itemID] = it
	}
	return nil
}

func (f *FakeStore) UpdateRequestStatus(ctx context.Context, requestID int, status models.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RequestUpdates = append(f.RequestUpdates, StatusUpdate{ID: requestID, Status: string(status)})
	if f.FailRequestUpdate != nil {
		if err := f.FailRequestUpdate(requestID); err != nil {
			return err
		}
	}
	if r, ok := f.requests[requestID]; ok {
		r.Status = status
		f.requests[requestID] = r
	}
	return nil
}

// RecordingAuditor keeps audit events in memory.
type RecordingAuditor struct {
	mu     sync.Mutex
	Events []models.AuditEvent
}

func (a *RecordingAuditor) Record(ctx context.Context, ev models.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Events = append(a.Events, ev)
	return nil
}

// List returns events for requestID (all when 0), newest first.
func (a *RecordingAuditor) List(ctx context.Context, requestID int, limit int64) ([]models.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditEvent
	for i := len(a.Events) - 1; i >= 0; i-- {
		if requestID == 0 || a.Events[i].RequestID == requestID {
			out = append(out, a.Events[i])
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// Message is one notification sent through RecordingNotifier.
type Message struct {
	UserID string
	Body   []byte
}

// RecordingNotifier keeps sent notifications in memory.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []Message
}

func (n *RecordingNotifier) Send(userID string, message []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, Message{UserID: userID, Body: message})
	return nil
}

// RecordingUploader keeps uploaded objects in memory.
type RecordingUploader struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
}

func (u *RecordingUploader) UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Objects == nil {
		u.Objects = map[string][]byte{}
		u.Types = map[string]string{}
	}
	u.Objects[objectKey] = data
	u.Types[objectKey] = contentType
	return "https://reports.example.test/" + objectKey, nil
}
