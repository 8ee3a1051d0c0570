package repository

import "github.com/iamoda/crm-lead-tracker/internal/model"

// Viewer identifies the caller for row-visibility purposes.  Every
// lead-reading query is scoped through it; nothing above the repository
// layer filters rows.
type Viewer struct {
	UserID uint64
	Role   string
}

// leadVisibilityWhere returns the SQL predicate (referencing the leads table
// by alias) and its arguments restricting rows to what the viewer may see:
// superadmin and hc see every lead, admin sees only leads assigned to them.
// Unknown roles match nothing.
func leadVisibilityWhere(alias string, v Viewer) (string, []any) {
	switch v.Role {
	case model.RoleSuperadmin, model.RoleHC:
		return "1=1", nil
	case model.RoleAdmin:
		return alias + ".assigned_to = ?", []any{v.UserID}
	default:
		return "1=0", nil
	}
}
