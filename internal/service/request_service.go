package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/status"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrentWrites = 8

// RequestService runs the request/item workflows. Multi-record writes are not
// atomic: a failure part way leaves earlier writes in place and is only
// reported, never compensated.
type RequestService struct {
	stores        StoreFactory
	audit         Auditor
	notifier      Notifier
	maxConcurrent int
	logger        *zap.Logger
	now           func() time.Time
}

func NewRequestService(stores StoreFactory, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		stores:        stores,
		maxConcurrent: defaultMaxConcurrentWrites,
		logger:        logger,
		now:           time.Now,
	}
}

// WithAuditor records every write flow through a.
func (s *RequestService) WithAuditor(a Auditor) *RequestService {
	s.audit = a
	return s
}

// WithNotifier pushes status changes to request authors through n.
func (s *RequestService) WithNotifier(n Notifier) *RequestService {
	s.notifier = n
	return s
}

// WithMaxConcurrentWrites bounds the item fan-out of submit and bulk updates.
func (s *RequestService) WithMaxConcurrentWrites(n int) *RequestService {
	if n > 0 {
		s.maxConcurrent = n
	}
	return s
}

// SubmitRequest creates the request record, then one item per entry
// concurrently. Input is assumed valid. When item creation fails the
// already-created request is returned together with the error.
func (s *RequestService) SubmitRequest(ctx context.Context, sess models.SessionContext, reason string, items []models.NewItem) (models.Request, error) {
	store := s.stores(sess)

	req, err := store.CreateRequest(ctx, reason)
	if err != nil {
		s.record(ctx, sess, models.AuditEvent{Kind: models.AuditRequestSubmitted}, err)
		return models.Request{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for _, it := range items {
		it := it
		g.Go(func() error {
			_, err := store.CreateItem(gctx, req.ID, it.Name, it.Quantity)
			return err
		})
	}
	err = g.Wait()
	s.record(ctx, sess, models.AuditEvent{Kind: models.AuditRequestSubmitted, RequestID: req.ID, Status: string(req.Status)}, err)
	if err != nil {
		return req, fmt.Errorf("create items of request %d: %w", req.ID, err)
	}

	s.logger.Info("request submitted",
		zap.Int("request_id", req.ID),
		zap.Int("items", len(items)),
		zap.Int("author_id", sess.UserID),
	)
	return req, nil
}

// SetItemStatus changes one item and then re-derives its parent request's
// status from all of the parent's items.
func (s *RequestService) SetItemStatus(ctx context.Context, sess models.SessionContext, itemID int, newStatus models.ItemStatus) (models.RequestStatus, error) {
	if !newStatus.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	store := s.stores(sess)
	ev := models.AuditEvent{Kind: models.AuditItemStatusChanged, ItemID: itemID, Status: string(newStatus)}

	if err := store.UpdateItemStatus(ctx, itemID, newStatus); err != nil {
		s.record(ctx, sess, ev, err)
		return "", err
	}

	item, err := store.FetchItem(ctx, itemID)
	if err != nil {
		s.record(ctx, sess, ev, err)
		return "", err
	}
	ev.RequestID = item.RequestID

	derived, err := s.recompute(ctx, store, item.RequestID)
	s.record(ctx, sess, ev, err)
	if err != nil {
		return "", err
	}

	s.notify(ctx, store, item.RequestID, derived)
	return derived, nil
}

// BulkSetStatus sets every item to target concurrently and, once all have
// succeeded, sets the request to the same status directly. The aggregator is
// not consulted. If any item write fails the request is left untouched.
func (s *RequestService) BulkSetStatus(ctx context.Context, sess models.SessionContext, requestID int, items []models.Item, target models.ItemStatus) error {
	reqStatus, ok := bulkTarget(target)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidBulkStatus, target)
	}
	store := s.stores(sess)
	ev := models.AuditEvent{Kind: models.AuditRequestBulkStatus, RequestID: requestID, Status: string(target)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for _, it := range items {
		id := it.ID
		g.Go(func() error {
			return store.UpdateItemStatus(gctx, id, target)
		})
	}
	if err := g.Wait(); err != nil {
		s.record(ctx, sess, ev, err)
		return fmt.Errorf("bulk update of request %d: %w", requestID, err)
	}

	err := store.UpdateRequestStatus(ctx, requestID, reqStatus)
	s.record(ctx, sess, ev, err)
	if err != nil {
		return err
	}

	s.notify(ctx, store, requestID, reqStatus)
	return nil
}

// ReconcileRequest re-derives a request's status from its current items and
// writes it. Operators use it to repair a request after a partial failure.
func (s *RequestService) ReconcileRequest(ctx context.Context, sess models.SessionContext, requestID int) (models.RequestStatus, error) {
	store := s.stores(sess)
	derived, err := s.recompute(ctx, store, requestID)
	s.record(ctx, sess, models.AuditEvent{Kind: models.AuditRequestReconciled, RequestID: requestID, Status: string(derived)}, err)
	if err != nil {
		return "", err
	}
	s.notify(ctx, store, requestID, derived)
	return derived, nil
}

// GetRequestDetail returns a request with its items. Requesters only reach
// their own requests.
func (s *RequestService) GetRequestDetail(ctx context.Context, sess models.SessionContext, requestID int) (models.RequestDetail, error) {
	store := s.stores(sess)

	var req models.Request
	if sess.IsAdmin() {
		r, err := store.FetchRequest(ctx, requestID)
		if err != nil {
			return models.RequestDetail{}, err
		}
		req = r
	} else {
		own, err := store.FetchRequests(ctx, true)
		if err != nil {
			return models.RequestDetail{}, err
		}
		found := false
		for _, r := range own {
			if r.ID == requestID {
				req, found = r, true
				break
			}
		}
		if !found {
			return models.RequestDetail{}, fmt.Errorf("%w: %d", ErrRequestNotFound, requestID)
		}
	}

	items, err := store.FetchItems(ctx, requestID)
	if err != nil {
		return models.RequestDetail{}, err
	}
	return models.RequestDetail{Request: req, Items: items}, nil
}

// RequestItems lists the items of a request.
func (s *RequestService) RequestItems(ctx context.Context, sess models.SessionContext, requestID int) ([]models.Item, error) {
	return s.stores(sess).FetchItems(ctx, requestID)
}

// ListRequests returns the dashboard list. Admins see every request with
// filters applied; requesters see only their own, unfiltered.
func (s *RequestService) ListRequests(ctx context.Context, sess models.SessionContext, filters models.Filters) ([]models.Request, error) {
	requests, err := s.stores(sess).FetchRequests(ctx, !sess.IsAdmin())
	if err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return requests, nil
	}
	return FilterRequests(requests, filters), nil
}

func (s *RequestService) recompute(ctx context.Context, store Store, requestID int) (models.RequestStatus, error) {
	items, err := store.FetchItems(ctx, requestID)
	if err != nil {
		return "", err
	}
	derived, err := status.DeriveFromItems(items)
	if err != nil {
		return "", fmt.Errorf("request %d: %w", requestID, err)
	}
	if err := store.UpdateRequestStatus(ctx, requestID, derived); err != nil {
		return "", err
	}
	return derived, nil
}

func bulkTarget(target models.ItemStatus) (models.RequestStatus, bool) {
	switch target {
	case models.ItemApproved:
		return models.RequestApproved, true
	case models.ItemRejected:
		return models.RequestRejected, true
	}
	return "", false
}

type statusChanged struct {
	Type      string               `json:"type"`
	RequestID int                  `json:"requestId"`
	Status    models.RequestStatus `json:"status"`
	At        time.Time            `json:"at"`
}

// notify tells the request author about a new status. Failures are logged only.
func (s *RequestService) notify(ctx context.Context, store Store, requestID int, st models.RequestStatus) {
	if s.notifier == nil {
		return
	}
	req, err := store.FetchRequest(ctx, requestID)
	if err != nil {
		s.logger.Warn("notify: could not load request", zap.Int("request_id", requestID), zap.Error(err))
		return
	}
	msg, _ := json.Marshal(statusChanged{Type: "request.status_changed", RequestID: requestID, Status: st, At: s.now()})
	if err := s.notifier.Send(strconv.Itoa(req.AuthorID), msg); err != nil {
		s.logger.Warn("notify: send failed", zap.Int("request_id", requestID), zap.Error(err))
	}
}

// record writes an audit event; audit failures never fail the flow.
func (s *RequestService) record(ctx context.Context, sess models.SessionContext, ev models.AuditEvent, flowErr error) {
	if flowErr != nil {
		ev.Error = flowErr.Error()
		s.logger.Warn("write flow failed",
			zap.String("kind", ev.Kind),
			zap.Int("request_id", ev.RequestID),
			zap.Int("item_id", ev.ItemID),
			zap.Error(flowErr),
		)
	}
	if s.audit == nil {
		return
	}
	ev.EventID = uuid.New().String()
	ev.ActorID = sess.UserID
	ev.ActorName = sess.DisplayName
	ev.CreatedAt = s.now()
	// The audit write must survive a cancelled inbound request.
	if err := s.audit.Record(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn("audit record failed", zap.String("kind", ev.Kind), zap.Error(err))
	}
}
