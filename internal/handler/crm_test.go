package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/model"
	"github.com/iamoda/crm-lead-tracker/internal/repository"
)

// Fake stores used across the handler tests.  Each fake records its calls so
// tests can assert that guard clauses short-circuit before any store access.

type publishedEvent struct {
	Op    feed.Op
	Table string
	RowID uint64
}

type fakeEvents struct {
	published []publishedEvent
	err       error
}

func (f *fakeEvents) Publish(_ context.Context, op feed.Op, table string, rowID uint64) error {
	f.published = append(f.published, publishedEvent{Op: op, Table: table, RowID: rowID})
	return f.err
}

// fakeLeadStore guards its state with a mutex because the streaming tests
// mutate it while a handler goroutine reads it.
type fakeLeadStore struct {
	mu          sync.Mutex
	leads       []model.Lead
	listCalls   int
	updateCalls int
	createCalls int
	err         error
}

func (f *fakeLeadStore) ListVisible(context.Context, repository.Viewer) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]model.Lead{}, f.leads...), f.err
}

func (f *fakeLeadStore) GetVisible(_ context.Context, _ repository.Viewer, id uint64) (model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return model.Lead{}, repository.ErrLeadNotFound
}

func (f *fakeLeadStore) Create(_ context.Context, l *model.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	l.ID = uint64(len(f.leads) + 1)
	l.CreatedAt = time.Now()
	f.leads = append(f.leads, *l)
	return nil
}

func (f *fakeLeadStore) UpdateStatus(_ context.Context, _ repository.Viewer, id uint64, status string) (model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.err != nil {
		return model.Lead{}, f.err
	}
	for i, l := range f.leads {
		if l.ID == id {
			f.leads[i].Status = status
			return f.leads[i], nil
		}
	}
	return model.Lead{}, repository.ErrLeadNotFound
}

func (f *fakeLeadStore) add(l model.Lead) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, l)
}

func (f *fakeLeadStore) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeNoteStore struct {
	notes       []model.Note
	createCalls int
	err         error
}

func (f *fakeNoteStore) ListByLead(_ context.Context, _ repository.Viewer, leadID uint64) ([]model.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Note{}
	for _, n := range f.notes {
		if n.LeadID == leadID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNoteStore) Create(_ context.Context, _ repository.Viewer, n *model.Note) error {
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	n.ID = uint64(len(f.notes) + 1)
	n.CreatedAt = time.Now()
	f.notes = append(f.notes, *n)
	return nil
}

type fakeFollowUpStore struct {
	followUps   []repository.FollowUpWithLead
	createCalls int
	err         error
}

func (f *fakeFollowUpStore) ListAll(context.Context, repository.Viewer) ([]repository.FollowUpWithLead, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.followUps, nil
}

func (f *fakeFollowUpStore) Create(_ context.Context, _ repository.Viewer, fu *model.FollowUp) error {
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	fu.ID = uint64(len(f.followUps) + 1)
	fu.CreatedAt = time.Now()
	if fu.FollowUpDate.IsZero() {
		fu.FollowUpDate = time.Now()
	}
	f.followUps = append(f.followUps, repository.FollowUpWithLead{FollowUp: *fu})
	return nil
}

type fakeCatalogStore struct{}

func (fakeCatalogStore) ListProducts(context.Context) ([]model.Product, error) { return nil, nil }
func (fakeCatalogStore) CreateProduct(context.Context, *model.Product) error   { return nil }
func (fakeCatalogStore) ListPackages(context.Context) ([]model.Package, error) { return nil, nil }
func (fakeCatalogStore) CreatePackage(context.Context, *model.Package) error   { return nil }
func (fakeCatalogStore) ListTargets(context.Context) ([]model.Target, error)   { return nil, nil }
func (fakeCatalogStore) CreateTarget(context.Context, *model.Target) error     { return nil }

type fakeHCStore struct{}

func (fakeHCStore) ListAll(context.Context) ([]model.HandleCustomerData, error) { return nil, nil }
func (fakeHCStore) Create(context.Context, repository.Viewer, *model.HandleCustomerData) error {
	return nil
}

// newTestHandler wires a CRMHandler over fresh fakes.
func newTestHandler() (*CRMHandler, *fakeLeadStore, *fakeNoteStore, *fakeFollowUpStore, *fakeEvents) {
	leads := &fakeLeadStore{}
	notes := &fakeNoteStore{}
	followUps := &fakeFollowUpStore{}
	events := &fakeEvents{}
	h := NewCRMHandler(leads, notes, followUps, fakeCatalogStore{}, fakeHCStore{}, events)
	return h, leads, notes, followUps, events
}

// newTestCtx builds an echo context carrying an authenticated admin caller.
func newTestCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleAdmin)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

var errStore = errors.New("store unavailable")
