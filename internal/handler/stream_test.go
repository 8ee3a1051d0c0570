package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/model"
)

type fakeTableChecker struct {
	published map[string]bool
	err       error
}

func (f fakeTableChecker) IsPublished(_ context.Context, table string) (bool, error) {
	return f.published[table], f.err
}

// sseRecorder is a ResponseRecorder safe to poll while the handler goroutine
// is still writing the stream.
type sseRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{rec: httptest.NewRecorder()}
}

func (r *sseRecorder) Header() http.Header { return r.rec.Header() }

func (r *sseRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Write(b)
}

func (r *sseRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.WriteHeader(code)
}

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Body.String()
}

// newStreamCtx builds an SSE request context with a cancelable lifetime.
func newStreamCtx(target string) (echo.Context, *sseRecorder, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	rec := newSSERecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleAdmin)
	return c, rec, cancel
}

func TestSubscribe_UnpublishedTableIs404(t *testing.T) {
	hub := feed.NewHub()
	s := NewStreamHandler(hub, fakeTableChecker{published: map[string]bool{"leads": true}})

	c, rec := newTestCtx(t, http.MethodGet, "/v1/feed/secrets", "")
	c.SetParamNames("table")
	c.SetParamValues("secrets")

	require.NoError(t, s.Subscribe(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, hub.SubscriberCount("secrets"), "rejected connections never subscribe")
}

func TestSubscribe_StreamsEventsAndDetachesOnDisconnect(t *testing.T) {
	hub := feed.NewHub()
	s := NewStreamHandler(hub, fakeTableChecker{published: map[string]bool{"leads": true}})

	c, rec, cancel := newStreamCtx("/v1/feed/leads")
	c.SetParamNames("table")
	c.SetParamValues("leads")

	done := make(chan error, 1)
	go func() { done <- s.Subscribe(c) }()

	// Wait for the connection to register, push one event, then disconnect.
	require.Eventually(t, func() bool { return hub.SubscriberCount("leads") == 1 },
		time.Second, 5*time.Millisecond)
	hub.Publish(feed.ChangeEvent{ID: "ev-1", Op: feed.OpInsert, Schema: "public", Table: "leads", RowID: 3})
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), `"row_id":3`) },
		time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 0, hub.SubscriberCount("leads"), "disconnect must release the subscription")
	assert.Contains(t, rec.body(), "data: ")
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
}

func TestLiveLeads_SendsScopedSnapshotThenPatches(t *testing.T) {
	hub := feed.NewHub()
	leads := &fakeLeadStore{leads: []model.Lead{
		{ID: 1, Name: "Acme", Status: model.StatusNew, CreatedAt: time.Now()},
	}}
	s := NewStreamHandler(hub, fakeTableChecker{published: map[string]bool{"leads": true}})
	s.Leads = leads

	c, rec, cancel := newStreamCtx("/v1/leads/live")

	done := make(chan error, 1)
	go func() { done <- s.LiveLeads(c) }()

	require.Eventually(t, func() bool { return hub.SubscriberCount("leads") == 1 },
		time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), `"Acme"`) },
		time.Second, 5*time.Millisecond)

	// A new row appears; the stream must emit an updated snapshot without a
	// second full list fetch.
	leads.add(model.Lead{ID: 2, Name: "Globex", Status: model.StatusNew, CreatedAt: time.Now()})
	hub.Publish(feed.ChangeEvent{Op: feed.OpInsert, Table: "leads", RowID: 2})
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), `"Globex"`) },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, leads.listCallCount(), "patches reuse the snapshot instead of refetching the list")

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, hub.SubscriberCount("leads"))
}

func TestLiveLeads_DisabledWithoutLeadStore(t *testing.T) {
	s := NewStreamHandler(feed.NewHub(), fakeTableChecker{})
	c, rec := newTestCtx(t, http.MethodGet, "/v1/leads/live", "")

	require.NoError(t, s.LiveLeads(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
