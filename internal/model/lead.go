package model

import "time"

// Lead is a prospective customer record.  Whether a given caller may read a
// lead is decided by the repository layer from the caller's role and the
// AssignedTo field; leads themselves carry no access metadata.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – contact name of the prospect.
//  Email             – contact email address.
//  Phone             – contact phone number.
//  InterestedProduct – free-text product interest.
//  Status            – one of new, contacted, qualified, closed.
//  AssignedTo        – user responsible for the lead (nullable).
//  CreatedAt         – creation timestamp.
type Lead struct {
	ID                uint64    // leads.id
	Name              string    // leads.name
	Email             string    // leads.email
	Phone             string    // leads.phone
	InterestedProduct string    // leads.interested_product
	Status            string    // leads.status
	AssignedTo        *uint64   // leads.assigned_to (nullable)
	CreatedAt         time.Time // leads.created_at
}

// Lead statuses.  There is no transition graph: any status may be set from
// any other by explicit user action.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusClosed    = "closed"
)

// LeadStatuses lists the four statuses in kanban column order.
var LeadStatuses = []string{StatusNew, StatusContacted, StatusQualified, StatusClosed}

// ValidLeadStatus reports whether s is one of the four lead statuses.
func ValidLeadStatus(s string) bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}
