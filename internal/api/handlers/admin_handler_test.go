package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/api/handlers"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

type stubEvents struct {
	limits []int
	err    error
}

func (s *stubEvents) Recent(_ context.Context, limit int) ([]*entities.EventLogEntry, error) {
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	return []*entities.EventLogEntry{
		{Timestamp: "2025-03-14T10:00:00+09:00", Level: entities.SeverityWarn, Message: "AI comment not generated"},
	}, nil
}

func TestAdminHandler_ListEvents_AdminMode(t *testing.T) {
	events := &stubEvents{}
	handler := handlers.NewAdminHandler(events, true, "")

	w := httptest.NewRecorder()
	handler.ListEvents(w, httptest.NewRequest("GET", "/api/admin/events", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{50}, events.limits)

	var body struct {
		Count  int                       `json:"count"`
		Events []*entities.EventLogEntry `json:"events"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "AI comment not generated", body.Events[0].Message)
}

func TestAdminHandler_ListEvents_Access(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		target string
		header string
		want   int
	}{
		{name: "no token configured", token: "", target: "/api/admin/events?admin=1", header: "", want: http.StatusNotFound},
		{name: "missing admin flag", token: "s3cret", target: "/api/admin/events", header: "s3cret", want: http.StatusNotFound},
		{name: "wrong token", token: "s3cret", target: "/api/admin/events?admin=1", header: "nope", want: http.StatusNotFound},
		{name: "flag and token", token: "s3cret", target: "/api/admin/events?admin=1", header: "s3cret", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewAdminHandler(&stubEvents{}, false, tt.token)
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Admin-Token", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ListEvents(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAdminHandler_ListEvents_Limit(t *testing.T) {
	events := &stubEvents{}
	handler := handlers.NewAdminHandler(events, true, "")

	w := httptest.NewRecorder()
	handler.ListEvents(w, httptest.NewRequest("GET", "/api/admin/events?limit=10", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ListEvents(w, httptest.NewRequest("GET", "/api/admin/events?limit=100000", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ListEvents(w, httptest.NewRequest("GET", "/api/admin/events?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []int{10, 500}, events.limits)
}

func TestAdminHandler_ListEvents_StoreError(t *testing.T) {
	handler := handlers.NewAdminHandler(&stubEvents{err: errors.New("sheets: 403")}, true, "")

	w := httptest.NewRecorder()
	handler.ListEvents(w, httptest.NewRequest("GET", "/api/admin/events", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "sheets: 403")
}
