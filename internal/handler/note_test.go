package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamoda/crm-lead-tracker/internal/feed"
	"github.com/iamoda/crm-lead-tracker/internal/model"
	"github.com/iamoda/crm-lead-tracker/internal/repository"
)

func TestCreateNote_WhitespaceOnlyRejectedBeforeStore(t *testing.T) {
	h, _, notes, _, events := newTestHandler()
	c, rec := newTestCtx(t, http.MethodPost, "/v1/leads/1/notes", `{"content":"   \t  "}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.CreateNote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, notes.createCalls, "guard must fire before any store call")
	assert.Empty(t, events.published)
}

func TestCreateNote_TrimsAndStoresContent(t *testing.T) {
	h, _, notes, _, events := newTestHandler()
	c, rec := newTestCtx(t, http.MethodPost, "/v1/leads/1/notes", `{"content":"  called them back  "}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.CreateNote(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, notes.createCalls)
	assert.Equal(t, "called them back", notes.notes[0].Content)
	assert.Equal(t, uint64(7), notes.notes[0].CreatedBy, "author comes from the token, not the body")

	require.Len(t, events.published, 1)
	assert.Equal(t, publishedEvent{Op: feed.OpInsert, Table: "notes", RowID: 1}, events.published[0])
}

func TestCreateNote_InvisibleLeadIs404(t *testing.T) {
	h, _, notes, _, events := newTestHandler()
	notes.err = repository.ErrLeadNotFound
	c, rec := newTestCtx(t, http.MethodPost, "/v1/leads/9/notes", `{"content":"hello"}`)
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, h.CreateNote(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, events.published, "no event for a rejected write")
}

func TestListNotes_ScopedToLead(t *testing.T) {
	h, _, notes, _, _ := newTestHandler()
	notes.notes = []model.Note{
		{ID: 1, LeadID: 1, Content: "first"},
		{ID: 2, LeadID: 2, Content: "other lead"},
	}
	c, rec := newTestCtx(t, http.MethodGet, "/v1/leads/1/notes", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.ListNotes(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["notes"], 1)
}

func TestListNotes_BadLeadIDIs400(t *testing.T) {
	h, _, _, _, _ := newTestHandler()
	c, rec := newTestCtx(t, http.MethodGet, "/v1/leads/abc/notes", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, h.ListNotes(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
