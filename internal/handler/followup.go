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

// unknownLeadName is rendered when a follow-up references a lead that is
// missing or outside the caller's visibility scope.
const unknownLeadName = "Unknown Lead"

type followUpJSON struct {
	ID           uint64    `json:"id"`
	LeadID       uint64    `json:"lead_id"`
	LeadName     string    `json:"lead_name"`
	Content      string    `json:"content"`
	FollowUpDate string    `json:"follow_up_date"`
	CreatedBy    uint64    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type createFollowUpReq struct {
	LeadID       uint64 `json:"lead_id"`
	Content      string `json:"content"`
	FollowUpDate string `json:"follow_up_date"` // YYYY-MM-DD, defaults to today
}

// ListFollowUps returns every follow-up, newest first.  Lead names are
// resolved through the caller's visibility scope; an unresolvable lead is
// rendered as "Unknown Lead" rather than dropping or failing the row.
func (h *CRMHandler) ListFollowUps(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fus, err := h.FollowUps.ListAll(ctx, v)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list follow-ups failed"})
	}
	out := make([]followUpJSON, 0, len(fus))
	for _, f := range fus {
		name := unknownLeadName
		if f.LeadName != nil {
			name = *f.LeadName
		}
		out = append(out, followUpJSON{
			ID:           f.ID,
			LeadID:       f.LeadID,
			LeadName:     name,
			Content:      f.Content,
			FollowUpDate: f.FollowUpDate.Format("2006-01-02"),
			CreatedBy:    f.CreatedBy,
			CreatedAt:    f.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"follow_ups": out})
}

// CreateFollowUp appends a follow-up for a visible lead.  Empty or
// whitespace-only content is rejected before any store call is made.
func (h *CRMHandler) CreateFollowUp(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createFollowUpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if req.LeadID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lead_id required"})
	}

	var date time.Time
	if s := strings.TrimSpace(req.FollowUpDate); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid follow_up_date"})
		}
		date = d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := model.FollowUp{LeadID: req.LeadID, Content: content, FollowUpDate: date, CreatedBy: v.UserID}
	if err := h.FollowUps.Create(ctx, v, &f); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create follow-up failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "follow_ups", f.ID); err != nil {
		log.Printf("follow_ups: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, followUpJSON{
		ID:           f.ID,
		LeadID:       f.LeadID,
		LeadName:     "", // not resolved on create; list endpoints resolve names
		Content:      f.Content,
		FollowUpDate: f.FollowUpDate.Format("2006-01-02"),
		CreatedBy:    f.CreatedBy,
		CreatedAt:    f.CreatedAt,
	})
}
