package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iamoda/crm-lead-tracker/internal/config"
	"github.com/iamoda/crm-lead-tracker/internal/handler"
	"github.com/iamoda/crm-lead-tracker/internal/middleware"
	"github.com/iamoda/crm-lead-tracker/internal/model"
)

// RegisterCRM registers the lead, note, follow-up, catalog, handle-customer
// and change-feed endpoints under /v1.  All routes require a valid JWT; the
// per-area role sets mirror who uses each screen.  Row visibility inside a
// screen is the repository's job, not the router's.
func RegisterCRM(e *echo.Echo, cfg config.Config, h *handler.CRMHandler, s *handler.StreamHandler) {
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	// Flush cached list responses whenever any published table changes.
	middleware.InvalidateOnChange(s.Hub, rdb, cacheCfg.Prefix,
		"leads", "notes", "follow_ups", "products", "packages", "targets", "handle_customer_data")

	anyRole := middleware.RequireRole(model.RoleSuperadmin, model.RoleAdmin, model.RoleHC)
	g := e.Group("/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		anyRole,
		middleware.NewTokenBucket(rateCfg, rdb),
	)
	cached := middleware.NewRedisCache(cacheCfg, rdb)

	// ---- Leads ----
	g.GET("/leads", h.ListLeads, cached)
	g.POST("/leads", h.CreateLead)
	g.GET("/leads/board", h.LeadBoard, cached)
	g.GET("/leads/live", s.LiveLeads)
	g.GET("/leads/:id", h.GetLead)
	g.PATCH("/leads/:id/status", h.UpdateLeadStatus)

	// ---- Notes (append-only) ----
	g.GET("/leads/:id/notes", h.ListNotes, cached)
	g.POST("/leads/:id/notes", h.CreateNote)

	// ---- Follow-ups (append-only) ----
	g.GET("/follow-ups", h.ListFollowUps, cached)
	g.POST("/follow-ups", h.CreateFollowUp)

	// ---- Catalog ----
	g.GET("/products", h.ListProducts, cached)
	g.GET("/packages", h.ListPackages, cached)
	g.GET("/targets", h.ListTargets, cached)
	admin := e.Group("/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleSuperadmin),
		middleware.NewTokenBucket(rateCfg, rdb),
	)
	admin.POST("/products", h.CreateProduct)
	admin.POST("/packages", h.CreatePackage)
	admin.POST("/targets", h.CreateTarget)

	// ---- Handle customer (hc screen) ----
	hc := e.Group("/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleSuperadmin, model.RoleHC),
		middleware.NewTokenBucket(rateCfg, rdb),
	)
	hc.GET("/handle-customer", h.ListHandleCustomer, cached)
	hc.POST("/handle-customer", h.CreateHandleCustomer)

	// ---- Raw change-feed stream ----
	g.GET("/feed/:table", s.Subscribe)
}
