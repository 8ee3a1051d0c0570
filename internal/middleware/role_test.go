package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec
}

func TestRequireRole_AllowsListedRole(t *testing.T) {
	mw := RequireRole("superadmin", "admin")
	rec := runWithRole(t, mw, "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_RejectsUnlistedRole(t *testing.T) {
	mw := RequireRole("superadmin", "hc")
	rec := runWithRole(t, mw, "admin")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_RejectsMissingRole(t *testing.T) {
	mw := RequireRole("superadmin")
	rec := runWithRole(t, mw, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_RejectsNonStringRole(t *testing.T) {
	mw := RequireRole("superadmin")
	rec := runWithRole(t, mw, 42)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
