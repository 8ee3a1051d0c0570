package model

import "time"

// Note is a free-text annotation attached to a lead.  Notes are append-only:
// the API exposes no update or delete for them.
type Note struct {
	ID        uint64    // notes.id
	LeadID    uint64    // notes.lead_id
	Content   string    // notes.content
	CreatedBy uint64    // notes.created_by
	CreatedAt time.Time // notes.created_at
}

// FollowUp records a scheduled follow-up action for a lead.  Like notes,
// follow-ups are append-only.
type FollowUp struct {
	ID           uint64    // follow_ups.id
	LeadID       uint64    // follow_ups.lead_id
	Content      string    // follow_ups.content
	FollowUpDate time.Time // follow_ups.follow_up_date
	CreatedBy    uint64    // follow_ups.created_by
	CreatedAt    time.Time // follow_ups.created_at
}
