package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iamoda/crm-lead-tracker/internal/model"
)

// FollowUpRepo provides access to the follow_ups table.
type FollowUpRepo struct {
	db *sql.DB
}

func NewFollowUpRepo(db *sql.DB) *FollowUpRepo { return &FollowUpRepo{db: db} }

// FollowUpWithLead pairs a follow-up with the name of its lead when that
// lead is visible to the viewer.  LeadName is nil when the referenced lead
// is missing or out of scope; the handler renders the "Unknown Lead"
// fallback in that case instead of dropping the row.
type FollowUpWithLead struct {
	model.FollowUp
	LeadName *string
}

// ListAll returns every follow-up, newest first, left-joined with the leads
// the viewer may see.  Follow-ups themselves are not scoped (they appear in
// the shared follow-up screen); only the lead name resolution is.
func (r *FollowUpRepo) ListAll(ctx context.Context, v Viewer) ([]FollowUpWithLead, error) {
	where, args := leadVisibilityWhere("l", v)
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.id, f.lead_id, f.content, f.follow_up_date, f.created_by, f.created_at, l.name
		 FROM follow_ups f
		 LEFT JOIN leads l ON l.id = f.lead_id AND `+where+`
		 ORDER BY f.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FollowUpWithLead{}
	for rows.Next() {
		var (
			f    FollowUpWithLead
			name sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.LeadID, &f.Content, &f.FollowUpDate, &f.CreatedBy, &f.CreatedAt, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			n := name.String
			f.LeadName = &n
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Create appends a follow-up for a lead the viewer can see.
func (r *FollowUpRepo) Create(ctx context.Context, v Viewer, f *model.FollowUp) error {
	where, args := leadVisibilityWhere("l", v)
	args = append([]any{f.LeadID}, args...)
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM leads l WHERE l.id=? AND "+where+")", args...).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrLeadNotFound
	}

	date := f.FollowUpDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO follow_ups (lead_id, content, follow_up_date, created_by) VALUES (?,?,?,?)",
		f.LeadID, f.Content, date.Format("2006-01-02"), f.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT id, lead_id, content, follow_up_date, created_by, created_at FROM follow_ups WHERE id=?", f.ID).
		Scan(&f.ID, &f.LeadID, &f.Content, &f.FollowUpDate, &f.CreatedBy, &f.CreatedAt)
}
