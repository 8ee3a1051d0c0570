package repository

import (
	"context"
	"database/sql"

	"github.com/iamoda/crm-lead-tracker/internal/model"
)

// HandleCustomerRepo provides access to the handle_customer_data table used
// by the hc team.  Rows reference leads; creation is gated on lead
// visibility like notes and follow-ups.
type HandleCustomerRepo struct {
	db *sql.DB
}

func NewHandleCustomerRepo(db *sql.DB) *HandleCustomerRepo { return &HandleCustomerRepo{db: db} }

// ListAll returns every handle-customer record, newest first.
func (r *HandleCustomerRepo) ListAll(ctx context.Context) ([]model.HandleCustomerData, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, lead_id, detail, handled_by, created_at FROM handle_customer_data ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.HandleCustomerData{}
	for rows.Next() {
		var h model.HandleCustomerData
		if err := rows.Scan(&h.ID, &h.LeadID, &h.Detail, &h.HandledBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Create appends a handle-customer record for a lead the viewer can see.
func (r *HandleCustomerRepo) Create(ctx context.Context, v Viewer, h *model.HandleCustomerData) error {
	where, args := leadVisibilityWhere("l", v)
	args = append([]any{h.LeadID}, args...)
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM leads l WHERE l.id=? AND "+where+")", args...).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrLeadNotFound
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO handle_customer_data (lead_id, detail, handled_by) VALUES (?,?,?)",
		h.LeadID, h.Detail, h.HandledBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT id, lead_id, detail, handled_by, created_at FROM handle_customer_data WHERE id=?", h.ID).
		Scan(&h.ID, &h.LeadID, &h.Detail, &h.HandledBy, &h.CreatedAt)
}
