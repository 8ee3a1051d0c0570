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

type createHCReq struct {
	LeadID uint64 `json:"lead_id"`
	Detail string `json:"detail"`
}

// ListHandleCustomer returns all handle-customer records, newest first.  The
// route is restricted to the hc and superadmin roles by middleware.
func (h *CRMHandler) ListHandleCustomer(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.HC.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list handle customer data failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"handle_customer_data": out})
}

// CreateHandleCustomer appends a handle-customer record for a visible lead.
// Whitespace-only detail is rejected before any store call.
func (h *CRMHandler) CreateHandleCustomer(c echo.Context) error {
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createHCReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	detail := strings.TrimSpace(req.Detail)
	if detail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "detail required"})
	}
	if req.LeadID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lead_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec := model.HandleCustomerData{LeadID: req.LeadID, Detail: detail, HandledBy: v.UserID}
	if err := h.HC.Create(ctx, v, &rec); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create handle customer data failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "handle_customer_data", rec.ID); err != nil {
		log.Printf("handle_customer_data: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, rec)
}
