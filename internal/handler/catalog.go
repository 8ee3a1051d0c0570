package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/model"
)

type catalogItemReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  uint64 `json:"price_cents"`
}

type createTargetReq struct {
	UserID      uint64 `json:"user_id"`
	Period      string `json:"period"`
	TargetCount uint32 `json:"target_count"`
}

// ListProducts returns all products, newest first.
func (h *CRMHandler) ListProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list products failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": out})
}

// CreateProduct inserts a product.
func (h *CRMHandler) CreateProduct(c echo.Context) error {
	var req catalogItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Product{Name: req.Name, Description: req.Description, PriceCents: req.PriceCents}
	if err := h.Catalog.CreateProduct(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "products", p.ID); err != nil {
		log.Printf("products: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPackages returns all packages, newest first.
func (h *CRMHandler) ListPackages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Catalog.ListPackages(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list packages failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"packages": out})
}

// CreatePackage inserts a package.
func (h *CRMHandler) CreatePackage(c echo.Context) error {
	var req catalogItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Package{Name: req.Name, Description: req.Description, PriceCents: req.PriceCents}
	if err := h.Catalog.CreatePackage(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create package failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "packages", p.ID); err != nil {
		log.Printf("packages: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListTargets returns all sales targets, newest first.
func (h *CRMHandler) ListTargets(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Catalog.ListTargets(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list targets failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"targets": out})
}

// CreateTarget inserts a sales target for a user and period.
func (h *CRMHandler) CreateTarget(c echo.Context) error {
	var req createTargetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == 0 || strings.TrimSpace(req.Period) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and period required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := model.Target{UserID: req.UserID, Period: strings.TrimSpace(req.Period), TargetCount: req.TargetCount}
	if err := h.Catalog.CreateTarget(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create target failed"})
	}
	if err := h.Events.Publish(ctx, feed.OpInsert, "targets", t.ID); err != nil {
		log.Printf("targets: publish insert event: %v", err)
	}
	return c.JSON(http.StatusCreated, t)
}
