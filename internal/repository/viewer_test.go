package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iamoda/crm-lead-tracker/internal/model"
)

func TestLeadVisibilityWhere_SuperadminSeesAll(t *testing.T) {
	where, args := leadVisibilityWhere("l", Viewer{UserID: 1, Role: model.RoleSuperadmin})
	assert.Equal(t, "1=1", where)
	assert.Nil(t, args)
}

func TestLeadVisibilityWhere_HCSeesAll(t *testing.T) {
	where, args := leadVisibilityWhere("l", Viewer{UserID: 2, Role: model.RoleHC})
	assert.Equal(t, "1=1", where)
	assert.Nil(t, args)
}

func TestLeadVisibilityWhere_AdminScopedToAssignment(t *testing.T) {
	where, args := leadVisibilityWhere("l", Viewer{UserID: 7, Role: model.RoleAdmin})
	assert.Equal(t, "l.assigned_to = ?", where)
	assert.Equal(t, []any{uint64(7)}, args)
}

func TestLeadVisibilityWhere_AliasFlowsThrough(t *testing.T) {
	where, _ := leadVisibilityWhere("leads", Viewer{UserID: 7, Role: model.RoleAdmin})
	assert.Equal(t, "leads.assigned_to = ?", where)
}

func TestLeadVisibilityWhere_UnknownRoleMatchesNothing(t *testing.T) {
	where, args := leadVisibilityWhere("l", Viewer{UserID: 9, Role: "intern"})
	assert.Equal(t, "1=0", where)
	assert.Nil(t, args)
}
