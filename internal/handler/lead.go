package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/model"
	"github.com/iamoda/crm-lead-tracker/internal/repository"
)

// noLeadsMessage is the empty-state string shown when a caller's lead list
// has no rows.
const noLeadsMessage = "No leads available"

// statusColors is the presentational mapping used by the kanban board.  It
// has no persisted effect.
var statusColors = map[string]string{
	model.StatusNew:       "blue",
	model.StatusContacted: "yellow",
	model.StatusQualified: "green",
	model.StatusClosed:    "gray",
}

type leadJSON struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	InterestedProduct string    `json:"interested_product"`
	Status            string    `json:"status"`
	AssignedTo        *uint64   `json:"assigned_to"`
	CreatedAt         time.Time `json:"created_at"`
}

func toLeadJSON(l model.Lead) leadJSON {
	return leadJSON{
		ID:                l.ID,
		Name:              l.Name,
		Email:             l.Email,
		Phone:             l.Phone,
		InterestedProduct: l.InterestedProduct,
		Status:            l.Status,
		AssignedTo:        l.AssignedTo,
		CreatedAt:         l.CreatedAt,
	}
}

type createLeadReq struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	InterestedProduct string  `json:"interested_product"`
	AssignedTo        *uint64 `json:"assigned_to"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// ListLeads returns every lead the caller may see, newest first.
func (h *CRMHandler) ListLeads(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	leads, err := h.Leads.ListVisible(ctx, v)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list leads failed"})
	}
	out := make([]leadJSON, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadJSON(l))
	}
	resp := echo.Map{"leads": out}
	if len(out) == 0 {
		resp["message"] = noLeadsMessage
	}
	return c.JSON(http.StatusOK, resp)
}

// GetLead returns a single visible lead.
func (h *CRMHandler) GetLead(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Leads.GetVisible(ctx, v, id)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load lead failed"})
	}
	return c.JSON(http.StatusOK, toLeadJSON(l))
}

// CreateLead inserts a new lead and publishes the change event.
func (h *CRMHandler) CreateLead(c echo.Context) error {
	if _, err := viewerFrom(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createLeadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l := model.Lead{
		Name:              req.Name,
		Email:             strings.TrimSpace(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		InterestedProduct: strings.TrimSpace(req.InterestedProduct),
		Status:            model.StatusNew,
		AssignedTo:        req.AssignedTo,
	}
	if err := h.Leads.Create(ctx, &l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create lead failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "leads", l.ID); err != nil {
		log.Printf("leads: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, toLeadJSON(l))
}

// UpdateLeadStatus sets a lead's status.  Any of the four statuses is
// accepted regardless of the prior one; there is no transition graph and no
// history of previous statuses.
func (h *CRMHandler) UpdateLeadStatus(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidLeadStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Leads.UpdateStatus(ctx, v, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpUpdate, "leads", l.ID); err != nil {
		log.Printf("leads: publish update event: %v", err)
	}
	return c.JSON(http.StatusOK, toLeadJSON(l))
}

type boardColumn struct {
	Status string     `json:"status"`
	Color  string     `json:"color"`
	Count  int        `json:"count"`
	Leads  []leadJSON `json:"leads"`
}

// LeadBoard groups the caller's visible leads into the four kanban columns.
// Columns are always present, each with its count, so an empty board renders
// four zero columns and the empty-state message.
func (h *CRMHandler) LeadBoard(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	leads, err := h.Leads.ListVisible(ctx, v)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list leads failed"})
	}

	columns := buildBoard(leads)
	resp := echo.Map{"columns": columns, "total": len(leads)}
	if len(leads) == 0 {
		resp["message"] = noLeadsMessage
	}
	return c.JSON(http.StatusOK, resp)
}

// buildBoard maps leads into kanban columns in fixed status order.
func buildBoard(leads []model.Lead) []boardColumn {
	byStatus := make(map[string][]leadJSON, len(model.LeadStatuses))
	for _, l := range leads {
		byStatus[l.Status] = append(byStatus[l.Status], toLeadJSON(l))
	}
	columns := make([]boardColumn, 0, len(model.LeadStatuses))
	for _, s := range model.LeadStatuses {
		col := boardColumn{Status: s, Color: statusColors[s], Leads: byStatus[s]}
		if col.Leads == nil {
			col.Leads = []leadJSON{}
		}
		col.Count = len(col.Leads)
		columns = append(columns, col)
	}
	return columns
}
