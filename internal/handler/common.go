package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iamoda/crm-lead-tracker/internal/repository" // repository holds data access layer
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64: // jwt numeric claims decode as float64
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// viewerFrom builds the repository Viewer for the authenticated caller.  The
// viewer is the only thing row visibility is decided from; handlers never
// filter rows themselves.
func viewerFrom(c echo.Context) (repository.Viewer, error) {
	uid, err := getUserID(c)
	if err != nil {
		return repository.Viewer{}, err
	}
	role, _ := c.Get("role").(string)
	return repository.Viewer{UserID: uid, Role: role}, nil
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
