package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/repository"
)

// FeedTableChecker answers whether a table is enabled in the change-feed
// publication registry.
type FeedTableChecker interface {
	IsPublished(ctx context.Context, table string) (bool, error)
}

// StreamHandler exposes the change feed over SSE.  Each connection owns its
// subscriptions and closes them exactly once on disconnect, so an unmounted
// client never leaks a channel.
type StreamHandler struct {
	Hub    *feed.Hub
	Tables FeedTableChecker
	Leads  LeadStore // optional; enables the live lead snapshot stream
}

// NewStreamHandler constructs a StreamHandler and panics on nil dependencies.
func NewStreamHandler(hub *feed.Hub, tables FeedTableChecker) *StreamHandler {
	if hub == nil || tables == nil {
		panic("nil dependency passed to NewStreamHandler")
	}
	return &StreamHandler{Hub: hub, Tables: tables}
}

// sseHeaders prepares the response for server-sent events.
func sseHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

// Subscribe streams raw change events for one published table.  The event
// payload carries only operation kind, table and row id; clients needing
// the row fetch it through the normal scoped endpoints.
func (h *StreamHandler) Subscribe(c echo.Context) error {
	table := c.Param("table")
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	ok, err := h.Tables.IsPublished(ctx, table)
	cancel()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publication lookup failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not published"})
	}

	// Buffered so a slow client cannot stall the hub; overflow drops the
	// event and the client resyncs from the list endpoint.
	events := make(chan feed.ChangeEvent, 64)
	sub := h.Hub.Subscribe(table, nil, func(ev feed.ChangeEvent) {
		select {
		case events <- ev:
		default:
			log.Printf("feed stream %s: dropping event for slow client", table)
		}
	})
	defer sub.Close()

	sseHeaders(c)

	done := c.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case ev := <-events:
			body, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", body); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}

// leadSource adapts the lead store to the snapshot Source contract for one
// viewer.  Rows the viewer may not see are reported as absent, so a lead
// reassigned away from an admin disappears from their snapshot on the next
// update event.
type leadSource struct {
	store LeadStore
	v     repository.Viewer
}

func (s leadSource) FetchRow(ctx context.Context, id uint64) (feed.Row, bool, error) {
	l, err := s.store.GetVisible(ctx, s.v, id)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return feed.Row{}, false, nil
	}
	if err != nil {
		return feed.Row{}, false, err
	}
	data, err := json.Marshal(toLeadJSON(l))
	if err != nil {
		return feed.Row{}, false, err
	}
	return feed.Row{ID: l.ID, Data: data, CreatedAt: l.CreatedAt}, true, nil
}

func (s leadSource) FetchAll(ctx context.Context) ([]feed.Row, error) {
	leads, err := s.store.ListVisible(ctx, s.v)
	if err != nil {
		return nil, err
	}
	rows := make([]feed.Row, 0, len(leads))
	for _, l := range leads {
		data, err := json.Marshal(toLeadJSON(l))
		if err != nil {
			return nil, err
		}
		rows = append(rows, feed.Row{ID: l.ID, Data: data, CreatedAt: l.CreatedAt})
	}
	return rows, nil
}

// LiveLeads streams the caller's lead snapshot: the full scoped list on
// connect, then the updated list after every applied change.  The server
// keeps the snapshot current with one minimal patch per event instead of a
// full refetch.
func (h *StreamHandler) LiveLeads(c echo.Context) error {
	if h.Leads == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "live leads disabled"})
	}
	v, err := viewerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	view, err := feed.NewSnapshotView(ctx, h.Hub, "leads", leadSource{store: h.Leads, v: v})
	cancel()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "snapshot load failed"})
	}
	defer view.Close()

	sseHeaders(c)

	writeSnapshot := func() error {
		rows := view.Rows()
		items := make([]json.RawMessage, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.Data)
		}
		body, err := json.Marshal(echo.Map{"leads": items})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", body); err != nil {
			return err
		}
		c.Response().Flush()
		return nil
	}

	if err := writeSnapshot(); err != nil {
		return nil
	}

	done := c.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case <-view.Changes():
			if err := writeSnapshot(); err != nil {
				return nil
			}
		}
	}
}
