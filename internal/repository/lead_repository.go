package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iamoda/crm-lead-tracker/internal/model"
)

// LeadRepo provides access to the leads table.  All read paths are scoped
// through the Viewer so the row-visibility policy is enforced in SQL; no
// caller-side filtering exists anywhere above this layer.
type LeadRepo struct {
	db *sql.DB
}

// NewLeadRepo returns a LeadRepo bound to the given database.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

const leadCols = "l.id, l.name, l.email, l.phone, l.interested_product, l.status, l.assigned_to, l.created_at"

func scanLead(s interface{ Scan(...any) error }) (model.Lead, error) {
	var (
		l        model.Lead
		assigned sql.NullInt64
	)
	err := s.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.InterestedProduct,
		&l.Status, &assigned, &l.CreatedAt)
	if assigned.Valid {
		v := uint64(assigned.Int64)
		l.AssignedTo = &v
	}
	return l, err
}

// ListVisible returns every lead the viewer may see, newest first.
func (r *LeadRepo) ListVisible(ctx context.Context, v Viewer) ([]model.Lead, error) {
	where, args := leadVisibilityWhere("l", v)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+leadCols+" FROM leads l WHERE "+where+" ORDER BY l.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// GetVisible returns one lead by id.  A lead that exists but falls outside
// the viewer's scope is reported as ErrLeadNotFound, the same as a missing
// row.
func (r *LeadRepo) GetVisible(ctx context.Context, v Viewer, id uint64) (model.Lead, error) {
	where, args := leadVisibilityWhere("l", v)
	args = append([]any{id}, args...)
	l, err := scanLead(r.db.QueryRowContext(ctx,
		"SELECT "+leadCols+" FROM leads l WHERE l.id=? AND "+where+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lead{}, ErrLeadNotFound
	}
	return l, err
}

// Create inserts a new lead.  On success the ID and CreatedAt fields are
// populated from the stored row.
func (r *LeadRepo) Create(ctx context.Context, l *model.Lead) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO leads (name, email, phone, interested_product, status, assigned_to) VALUES (?,?,?,?,?,?)",
		l.Name, l.Email, l.Phone, l.InterestedProduct, l.Status, l.AssignedTo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	stored, err := scanLead(r.db.QueryRowContext(ctx,
		"SELECT "+leadCols+" FROM leads l WHERE l.id=?", l.ID))
	if err != nil {
		return err
	}
	*l = stored
	return nil
}

// UpdateStatus sets a lead's status.  Any of the four statuses is accepted
// from any prior status; the only gate is that the viewer can see the lead.
func (r *LeadRepo) UpdateStatus(ctx context.Context, v Viewer, id uint64, status string) (model.Lead, error) {
	if _, err := r.GetVisible(ctx, v, id); err != nil {
		return model.Lead{}, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE leads SET status=? WHERE id=?", status, id); err != nil {
		return model.Lead{}, err
	}
	return r.GetVisible(ctx, v, id)
}
