package handler

import (
	"context"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/model"
	"github.com/iamoda/crm-lead-tracker/internal/repository"
)

// The CRM handlers depend on narrow store interfaces rather than the
// concrete repositories so tests can substitute a fake backend.  The
// repository types satisfy these interfaces.

type LeadStore interface {
	ListVisible(ctx context.Context, v repository.Viewer) ([]model.Lead, error)
	GetVisible(ctx context.Context, v repository.Viewer, id uint64) (model.Lead, error)
	Create(ctx context.Context, l *model.Lead) error
	UpdateStatus(ctx context.Context, v repository.Viewer, id uint64, status string) (model.Lead, error)
}

type NoteStore interface {
	ListByLead(ctx context.Context, v repository.Viewer, leadID uint64) ([]model.Note, error)
	Create(ctx context.Context, v repository.Viewer, n *model.Note) error
}

type FollowUpStore interface {
	ListAll(ctx context.Context, v repository.Viewer) ([]repository.FollowUpWithLead, error)
	Create(ctx context.Context, v repository.Viewer, f *model.FollowUp) error
}

type CatalogStore interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	ListPackages(ctx context.Context) ([]model.Package, error)
	CreatePackage(ctx context.Context, p *model.Package) error
	ListTargets(ctx context.Context) ([]model.Target, error)
	CreateTarget(ctx context.Context, t *model.Target) error
}

type HandleCustomerStore interface {
	ListAll(ctx context.Context) ([]model.HandleCustomerData, error)
	Create(ctx context.Context, v repository.Viewer, h *model.HandleCustomerData) error
}

// EventPublisher emits a change event after a committed write.  Publish
// errors are broker trouble, never data trouble; callers log and move on.
type EventPublisher interface {
	Publish(ctx context.Context, op feed.Op, table string, rowID uint64) error
}

// CRMHandler bundles the stores behind the lead, note, follow-up, catalog
// and handle-customer endpoints.
type CRMHandler struct {
	Leads     LeadStore
	Notes     NoteStore
	FollowUps FollowUpStore
	Catalog   CatalogStore
	HC        HandleCustomerStore
	Events    EventPublisher
}

// NewCRMHandler constructs a CRMHandler and panics if any dependency is nil.
func NewCRMHandler(leads LeadStore, notes NoteStore, followUps FollowUpStore, catalog CatalogStore, hc HandleCustomerStore, events EventPublisher) *CRMHandler {
	if leads == nil || notes == nil || followUps == nil || catalog == nil || hc == nil || events == nil {
		panic("nil dependency passed to NewCRMHandler")
	}
	return &CRMHandler{Leads: leads, Notes: notes, FollowUps: followUps, Catalog: catalog, HC: hc, Events: events}
}
