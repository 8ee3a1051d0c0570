// Package repository implements data access over database/sql.  Every
// lead-reading query is scoped through a Viewer; the sentinel errors below
// let handlers map repository outcomes onto HTTP statuses.
package repository

import "errors"

// ErrLeadNotFound is returned when a lead id does not exist or is invisible
// to the caller.  The two cases are deliberately indistinguishable so the
// API does not leak the existence of rows outside the caller's scope; there
// is no separate forbidden error for the same reason.
var ErrLeadNotFound = errors.New("lead not found")
