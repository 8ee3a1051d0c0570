package repository

import (
	"context"
	"database/sql"

	"github.com/iamoda/crm-lead-tracker/internal/model"
)

// NoteRepo provides access to the notes table.  Notes inherit visibility
// from their lead: every query joins leads and applies the viewer predicate
// there, so a note on an invisible lead never leaves this layer.
type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{db: db} }

// ListByLead returns all notes for a lead the viewer can see, newest first.
// An invisible or missing lead yields ErrLeadNotFound rather than an empty
// list so handlers can answer 404.
func (r *NoteRepo) ListByLead(ctx context.Context, v Viewer, leadID uint64) ([]model.Note, error) {
	where, args := leadVisibilityWhere("l", v)
	args = append([]any{leadID}, args...)

	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM leads l WHERE l.id=? AND "+where+")", args...).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLeadNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.lead_id, n.content, n.created_by, n.created_at
		 FROM notes n JOIN leads l ON l.id = n.lead_id
		 WHERE n.lead_id=? AND `+where+` ORDER BY n.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Content, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Create appends a note to a lead the viewer can see.
func (r *NoteRepo) Create(ctx context.Context, v Viewer, n *model.Note) error {
	where, args := leadVisibilityWhere("l", v)
	args = append([]any{n.LeadID}, args...)
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
		"INSERT INTO notes (lead_id, content, created_by) VALUES (?,?,?)",
		n.LeadID, n.Content, n.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT id, lead_id, content, created_by, created_at FROM notes WHERE id=?", n.ID).
		Scan(&n.ID, &n.LeadID, &n.Content, &n.CreatedBy, &n.CreatedAt)
}
