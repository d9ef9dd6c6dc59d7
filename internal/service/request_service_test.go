package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"

	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/status"
	"equipment-requests-api-server/internal/testutil"
)

var (
	admin     = models.SessionContext{UserID: 1, DisplayName: "Dana Admin", Role: models.RoleAdmin}
	requester = models.SessionContext{UserID: 7, DisplayName: "Noa Cohen", Role: models.RoleRequester}
)

func newTestService(fake *testutil.FakeStore) *RequestService {
	return NewRequestService(func(sess models.SessionContext) Store { return fake.Bind(sess) }, nil)
}

func TestSubmitRequestCreatesRequestThenItems(t *testing.T) {
	fake := testutil.NewFakeStore()
	svc := newTestService(fake)

	req, err := svc.SubmitRequest(context.Background(), requester, "need laptops", []models.NewItem{{Name: "Laptop", Quantity: 2}})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if !reflect.DeepEqual(fake.CreateRequestCalls, []string{"need laptops"}) {
		t.Fatalf("CreateRequest calls = %v", fake.CreateRequestCalls)
	}
	want := []testutil.CreatedItem{{ParentID: req.ID, Name: "Laptop", Quantity: 2}}
	if !reflect.DeepEqual(fake.CreateItemCalls, want) {
		t.Fatalf("CreateItem calls = %+v, want %+v", fake.CreateItemCalls, want)
	}
	if req.AuthorID != requester.UserID || req.Status != models.RequestPending {
		t.Fatalf("unexpected request %+v", req)
	}
	if fake.LastSession != requester {
		t.Fatalf("store bound to %+v, want requester session", fake.LastSession)
	}
}

func TestSubmitRequestAllItemsGetParentID(t *testing.T) {
	fake := testutil.NewFakeStore()
	svc := newTestService(fake).WithMaxConcurrentWrites(2)

	items := []models.NewItem{{Name: "Monitor", Quantity: 1}, {Name: "Keyboard", Quantity: 3}, {Name: "Mouse", Quantity: 3}, {Name: "Dock", Quantity: 1}}
	req, err := svc.SubmitRequest(context.Background(), requester, "new hire", items)
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if len(fake.CreateItemCalls) != len(items) {
		t.Fatalf("got %d CreateItem calls, want %d", len(fake.CreateItemCalls), len(items))
	}
	var names []string
	for _, c := range fake.CreateItemCalls {
		if c.ParentID != req.ID {
			t.Fatalf("item %q created under %d, want %d", c.Name, c.ParentID, req.ID)
		}
		names = append(names, c.Name)
	}
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"Dock", "Keyboard", "Monitor", "Mouse"}) {
		t.Fatalf("created items = %v", names)
	}
}

func TestSubmitRequestCreateRequestFailureCreatesNoItems(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.FailCreateRequest = func(string) error { return errors.New("HTTP error! status: 500") }
	audit := &testutil.RecordingAuditor{}
	svc := newTestService(fake).WithAuditor(audit)

	if _, err := svc.SubmitRequest(context.Background(), requester, "x", []models.NewItem{{Name: "Laptop", Quantity: 1}}); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.CreateItemCalls) != 0 {
		t.Fatalf("items created after request failure: %+v", fake.CreateItemCalls)
	}
	if len(audit.Events) != 1 || audit.Events[0].Error == "" {
		t.Fatalf("expected one failed audit event, got %+v", audit.Events)
	}
}

func TestSubmitRequestItemFailureKeepsRequest(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.FailCreateItem = func(_ int, name string) error {
		if name == "Projector" {
			return errors.New("list view threshold exceeded")
		}
		return nil
	}
	audit := &testutil.RecordingAuditor{}
	svc := newTestService(fake).WithAuditor(audit).WithMaxConcurrentWrites(1)

	req, err := svc.SubmitRequest(context.Background(), requester, "meeting room",
		[]models.NewItem{{Name: "Cable", Quantity: 2}, {Name: "Projector", Quantity: 1}})
	if err == nil {
		t.Fatal("expected error")
	}
	if req.ID == 0 {
		t.Fatal("created request should be returned with the error")
	}
	if got := fake.Request(req.ID); got.ID != req.ID {
		t.Fatalf("request %d was removed", req.ID)
	}
	items, _ := fake.FetchItems(context.Background(), req.ID)
	if len(items) != 1 || items[0].Title != "Cable" {
		t.Fatalf("items before the failure should remain, got %+v", items)
	}
	if len(fake.RequestUpdates) != 0 {
		t.Fatalf("no request status write expected, got %+v", fake.RequestUpdates)
	}
	if len(audit.Events) != 1 || audit.Events[0].RequestID != req.ID || audit.Events[0].Error == "" {
		t.Fatalf("unexpected audit events %+v", audit.Events)
	}
}

func TestSetItemStatusRederivesParent(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 5, AuthorID: 7}, models.ItemApproved, models.ItemPending)
	notifier := &testutil.RecordingNotifier{}
	audit := &testutil.RecordingAuditor{}
	svc := newTestService(fake).WithNotifier(notifier).WithAuditor(audit)

	got, err := svc.SetItemStatus(context.Background(), admin, items[1].ID, models.ItemApproved)
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if got != models.RequestApproved {
		t.Fatalf("derived %s, want Approved", got)
	}
	if !reflect.DeepEqual(fake.ItemUpdates, []testutil.StatusUpdate{{ID: items[1].ID, Status: "Approved"}}) {
		t.Fatalf("item updates = %+v", fake.ItemUpdates)
	}
	if !reflect.DeepEqual(fake.RequestUpdates, []testutil.StatusUpdate{{ID: 5, Status: "Approved"}}) {
		t.Fatalf("request updates = %+v", fake.RequestUpdates)
	}

	if len(notifier.Messages) != 1 || notifier.Messages[0].UserID != "7" {
		t.Fatalf("notifications = %+v", notifier.Messages)
	}
	var msg statusChanged
	if err := json.Unmarshal(notifier.Messages[0].Body, &msg); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if msg.Type != "request.status_changed" || msg.RequestID != 5 || msg.Status != models.RequestApproved {
		t.Fatalf("unexpected notification %+v", msg)
	}

	if len(audit.Events) != 1 {
		t.Fatalf("audit events = %+v", audit.Events)
	}
	ev := audit.Events[0]
	if ev.Kind != models.AuditItemStatusChanged || ev.RequestID != 5 || ev.ItemID != items[1].ID || ev.ActorID != admin.UserID || ev.EventID == "" || ev.Error != "" {
		t.Fatalf("unexpected audit event %+v", ev)
	}
}

func TestSetItemStatusMixedGivesPartiallyApproved(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 9}, models.ItemApproved, models.ItemPending)
	svc := newTestService(fake)

	got, err := svc.SetItemStatus(context.Background(), admin, items[1].ID, models.ItemRejected)
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if got != models.RequestPartiallyApproved {
		t.Fatalf("derived %s, want PartiallyApproved", got)
	}
	if fake.Request(9).Status != models.RequestPartiallyApproved {
		t.Fatalf("stored status %s", fake.Request(9).Status)
	}
}

func TestSetItemStatusRejectsUnknownStatus(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 3}, models.ItemPending)
	svc := newTestService(fake)

	_, err := svc.SetItemStatus(context.Background(), admin, items[0].ID, models.ItemStatus("Maybe"))
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if len(fake.ItemUpdates) != 0 {
		t.Fatalf("no write expected, got %+v", fake.ItemUpdates)
	}
}

func TestSetItemStatusUpdateFailureSkipsRecompute(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 3}, models.ItemPending)
	fake.FailItemUpdate = func(int) error { return errors.New("HTTP error! status: 503") }
	svc := newTestService(fake)

	if _, err := svc.SetItemStatus(context.Background(), admin, items[0].ID, models.ItemApproved); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.RequestUpdates) != 0 {
		t.Fatalf("request should not be touched, got %+v", fake.RequestUpdates)
	}
}

func TestSetItemStatusUnknownItem(t *testing.T) {
	fake := testutil.NewFakeStore()
	svc := newTestService(fake)

	_, err := svc.SetItemStatus(context.Background(), admin, 404, models.ItemApproved)
	var nf *testutil.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if len(fake.RequestUpdates) != 0 {
		t.Fatalf("request should not be touched, got %+v", fake.RequestUpdates)
	}
}

func TestBulkSetStatusApprovesEverything(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 11, AuthorID: 7}, models.ItemPending, models.ItemRejected, models.ItemPending)
	notifier := &testutil.RecordingNotifier{}
	svc := newTestService(fake).WithNotifier(notifier)

	if err := svc.BulkSetStatus(context.Background(), admin, 11, items, models.ItemApproved); err != nil {
		t.Fatalf("BulkSetStatus: %v", err)
	}
	if len(fake.ItemUpdates) != len(items) {
		t.Fatalf("got %d item updates, want %d", len(fake.ItemUpdates), len(items))
	}
	for _, u := range fake.ItemUpdates {
		if u.Status != "Approved" {
			t.Fatalf("item %d set to %s", u.ID, u.Status)
		}
	}
	if !reflect.DeepEqual(fake.RequestUpdates, []testutil.StatusUpdate{{ID: 11, Status: "Approved"}}) {
		t.Fatalf("request updates = %+v", fake.RequestUpdates)
	}
	if len(notifier.Messages) != 1 {
		t.Fatalf("notifications = %+v", notifier.Messages)
	}
}

func TestBulkSetStatusRejectWithoutItemsStillWritesRequest(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.SeedRequest(models.Request{ID: 12})
	svc := newTestService(fake)

	if err := svc.BulkSetStatus(context.Background(), admin, 12, nil, models.ItemRejected); err != nil {
		t.Fatalf("BulkSetStatus: %v", err)
	}
	if !reflect.DeepEqual(fake.RequestUpdates, []testutil.StatusUpdate{{ID: 12, Status: "Rejected"}}) {
		t.Fatalf("request updates = %+v", fake.RequestUpdates)
	}
}

func TestBulkSetStatusItemFailureSkipsRequestWrite(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 13}, models.ItemPending, models.ItemPending)
	failing := items[1].ID
	fake.FailItemUpdate = func(id int) error {
		if id == failing {
			return errors.New("HTTP error! status: 409")
		}
		return nil
	}
	audit := &testutil.RecordingAuditor{}
	svc := newTestService(fake).WithAuditor(audit)

	if err := svc.BulkSetStatus(context.Background(), admin, 13, items, models.ItemApproved); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.RequestUpdates) != 0 {
		t.Fatalf("request status should be left alone, got %+v", fake.RequestUpdates)
	}
	if fake.Request(13).Status != models.RequestPending {
		t.Fatalf("stored status %s", fake.Request(13).Status)
	}
	if len(audit.Events) != 1 || audit.Events[0].Kind != models.AuditRequestBulkStatus || audit.Events[0].Error == "" {
		t.Fatalf("unexpected audit events %+v", audit.Events)
	}
}

func TestBulkSetStatusRejectsPending(t *testing.T) {
	fake := testutil.NewFakeStore()
	items := fake.SeedRequest(models.Request{ID: 14}, models.ItemApproved)
	svc := newTestService(fake)

	err := svc.BulkSetStatus(context.Background(), admin, 14, items, models.ItemPending)
	if !errors.Is(err, ErrInvalidBulkStatus) {
		t.Fatalf("expected ErrInvalidBulkStatus, got %v", err)
	}
	if len(fake.ItemUpdates) != 0 || len(fake.RequestUpdates) != 0 {
		t.Fatal("no writes expected")
	}
}

func TestReconcileRequest(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.SeedRequest(models.Request{ID: 20, Status: models.RequestPending}, models.ItemRejected, models.ItemRejected)
	audit := &testutil.RecordingAuditor{}
	svc := newTestService(fake).WithAuditor(audit)

	got, err := svc.ReconcileRequest(context.Background(), admin, 20)
	if err != nil {
		t.Fatalf("ReconcileRequest: %v", err)
	}
	if got != models.RequestRejected || fake.Request(20).Status != models.RequestRejected {
		t.Fatalf("reconciled to %s, stored %s", got, fake.Request(20).Status)
	}
	if len(audit.Events) != 1 || audit.Events[0].Kind != models.AuditRequestReconciled {
		t.Fatalf("unexpected audit events %+v", audit.Events)
	}
}

func TestReconcileRequestWithoutItems(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.SeedRequest(models.Request{ID: 21})
	svc := newTestService(fake)

	_, err := svc.ReconcileRequest(context.Background(), admin, 21)
	if !errors.Is(err, status.ErrNoItems) {
		t.Fatalf("expected ErrNoItems, got %v", err)
	}
	if len(fake.RequestUpdates) != 0 {
		t.Fatalf("no write expected, got %+v", fake.RequestUpdates)
	}
}

func TestGetRequestDetailScoping(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.SeedRequest(models.Request{ID: 30, AuthorID: 7}, models.ItemPending)
	fake.SeedRequest(models.Request{ID: 31, AuthorID: 8}, models.ItemApproved, models.ItemRejected)
	svc := newTestService(fake)

	own, err := svc.GetRequestDetail(context.Background(), requester, 30)
	if err != nil {
		t.Fatalf("own request: %v", err)
	}
	if own.Request.ID != 30 || len(own.Items) != 1 {
		t.Fatalf("unexpected detail %+v", own)
	}

	if _, err := svc.GetRequestDetail(context.Background(), requester, 31); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("foreign request should be hidden, got %v", err)
	}

	other, err := svc.GetRequestDetail(context.Background(), admin, 31)
	if err != nil {
		t.Fatalf("admin detail: %v", err)
	}
	if len(other.Items) != 2 {
		t.Fatalf("admin should see all items, got %+v", other.Items)
	}
}

func TestListRequests(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.SeedRequest(models.Request{ID: 40, AuthorID: 7, Reason: "Laptop for onboarding", AuthorName: "Noa Cohen"})
	fake.SeedRequest(models.Request{ID: 41, AuthorID: 8, Reason: "Headset", AuthorName: "Avi Levi", Status: models.RequestApproved})
	fake.SeedRequest(models.Request{ID: 42, AuthorID: 7, Reason: "Second screen", AuthorName: "Noa Cohen", Status: models.RequestApproved})
	svc := newTestService(fake)
	ctx := context.Background()

	filters := models.Filters{Status: string(models.RequestApproved)}

	mine, err := svc.ListRequests(ctx, requester, filters)
	if err != nil {
		t.Fatalf("requester list: %v", err)
	}
	if ids(mine) != "42,40" {
		t.Fatalf("requester sees %s, want own requests newest first unfiltered", ids(mine))
	}

	all, err := svc.ListRequests(ctx, admin, filters)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if ids(all) != "42,41" {
		t.Fatalf("admin sees %s", ids(all))
	}

	all, _ = svc.ListRequests(ctx, admin, models.DefaultFilters())
	if ids(all) != "42,41,40" {
		t.Fatalf("admin unfiltered sees %s", ids(all))
	}
}
