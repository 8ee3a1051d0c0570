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

type noteJSON struct {
	ID        uint64    `json:"id"`
	LeadID    uint64    `json:"lead_id"`
	Content   string    `json:"content"`
	CreatedBy uint64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type createNoteReq struct {
	Content string `json:"content"`
}

// ListNotes returns all notes on a visible lead, newest first.
func (h *CRMHandler) ListNotes(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	leadID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	notes, err := h.Notes.ListByLead(ctx, v, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notes failed"})
	}
	out := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteJSON{ID: n.ID, LeadID: n.LeadID, Content: n.Content, CreatedBy: n.CreatedBy, CreatedAt: n.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"notes": out})
}

// CreateNote appends a note to a visible lead.  Empty or whitespace-only
// content is rejected before any store call is made.
func (h *CRMHandler) CreateNote(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	leadID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead id"})
	}
	var req createNoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n := model.Note{LeadID: leadID, Content: content, CreatedBy: v.UserID}
	if err := h.Notes.Create(ctx, v, &n); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create note failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "notes", n.ID); err != nil {
		log.Printf("notes: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, noteJSON{ID: n.ID, LeadID: n.LeadID, Content: n.Content, CreatedBy: n.CreatedBy, CreatedAt: n.CreatedAt})
}
