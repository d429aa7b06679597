package routes_test

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/report"
	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/session"
	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/stores"
	"github.com/zatekoja/cashflow-diagnosis/internal/api/handlers"
	"github.com/zatekoja/cashflow-diagnosis/internal/api/routes"
	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/questionnaire"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	q, err := questionnaire.Default()
	require.NoError(t, err)

	dir := t.TempDir()
	csv := stores.NewCSVStore(filepath.Join(dir, "responses.csv"), filepath.Join(dir, "events.csv"))
	events := services.NewEventLogger([]providers.EventStore{csv}, time.UTC, nil)
	svc := services.NewDiagnosisService(services.DiagnosisDeps{
		Questionnaire: q,
		Scorer:        services.NewScorer(q),
		Classifier:    services.NewClassifier(q, services.DefaultThresholds()),
		Narratives:    services.NewNarrativeService(nil, services.NarrativeSettings{MaxChars: 520}, events, nil),
		Writer:        services.NewRecordWriter([]providers.RecordStore{csv}, events, "cf-v1.0.0", time.UTC, nil),
		Renderer:      report.NewPDFRenderer(report.Options{Title: "Report"}),
		Sessions:      session.NewMemoryStore(time.Hour),
		Events:        events,
		Location:      time.UTC,
	})

	router := routes.NewRouter(
		handlers.NewDiagnosisHandler(svc, nil, time.UTC),
		handlers.NewAdminHandler(events, true, ""),
		[]string{"https://form.example"},
		"cf-v1.0.0",
		nil,
	)
	srv := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func submitBody(t *testing.T, srv *httptest.Server) []byte {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/questionnaire")
	require.NoError(t, err)
	defer resp.Body.Close()

	var q struct {
		Questions []struct {
			ID     string `json:"id"`
			Family string `json:"family"`
		} `json:"questions"`
		Families []struct {
			Key     string `json:"key"`
			Choices []struct {
				Label string `json:"label"`
			} `json:"choices"`
		} `json:"families"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))

	first := map[string]string{}
	for _, f := range q.Families {
		first[f.Key] = f.Choices[0].Label
	}
	answers := map[string]string{}
	for _, qu := range q.Questions {
		answers[qu.ID] = first[qu.Family]
	}
	body, err := json.Marshal(map[string]interface{}{
		"company": "Acme",
		"email":   "owner@acme.example",
		"answers": answers,
	})
	require.NoError(t, err)
	return body
}

func TestRouter_Health(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok","version":"cf-v1.0.0"}`, string(data))
}

func TestRouter_SubmitDisplayAndReport(t *testing.T) {
	srv := newServer(t)
	body := submitBody(t, srv)

	resp, err := http.Post(srv.URL+"/api/diagnoses?utm_source=ads", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))

	var created struct {
		SessionID   string `json:"session_id"`
		ReportURL   string `json:"report_url"`
		Persistence struct {
			Saved bool   `json:"saved"`
			Store string `json:"store"`
		} `json:"persistence"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.True(t, created.Persistence.Saved)
	assert.Equal(t, "csv", created.Persistence.Store)

	again, err := http.Get(srv.URL + "/api/diagnoses/" + created.SessionID)
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, http.StatusOK, again.StatusCode)

	pdf, err := http.Get(srv.URL + created.ReportURL)
	require.NoError(t, err)
	defer pdf.Body.Close()
	assert.Equal(t, http.StatusOK, pdf.StatusCode)
	assert.Equal(t, "application/pdf", pdf.Header.Get("Content-Type"))
	assert.Empty(t, pdf.Header.Get("Content-Encoding"))
	content, _ := io.ReadAll(pdf.Body)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))

	missing, err := http.Get(srv.URL + "/api/diagnoses/5f0cf1a2-7a7e-4b7b-9d0a-2b7e0e6c3f11")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestRouter_AdminEventsAfterSubmit(t *testing.T) {
	srv := newServer(t)
	body := submitBody(t, srv)

	resp, err := http.Post(srv.URL+"/api/diagnoses", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	events, err := http.Get(srv.URL + "/api/admin/events")
	require.NoError(t, err)
	defer events.Body.Close()
	require.Equal(t, http.StatusOK, events.StatusCode)

	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(events.Body).Decode(&list))
	// No narrative provider is configured, which is reported once.
	assert.GreaterOrEqual(t, list.Count, 1)
}

func TestRouter_QuestionnaireETagAndGzip(t *testing.T) {
	srv := newServer(t)

	req, _ := http.NewRequest("GET", srv.URL+"/api/questionnaire", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	gz, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	var q map[string]interface{}
	require.NoError(t, json.NewDecoder(gz).Decode(&q))
	assert.NotEmpty(t, q["questions"])

	cond, _ := http.NewRequest("GET", srv.URL+"/api/questionnaire", nil)
	cond.Header.Set("If-None-Match", etag)
	notModified, err := http.DefaultClient.Do(cond)
	require.NoError(t, err)
	notModified.Body.Close()
	assert.Equal(t, http.StatusNotModified, notModified.StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newServer(t)

	req, _ := http.NewRequest("OPTIONS", srv.URL+"/api/diagnoses", nil)
	req.Header.Set("Origin", "https://form.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://form.example", resp.Header.Get("Access-Control-Allow-Origin"))

	other, _ := http.NewRequest("OPTIONS", srv.URL+"/api/diagnoses", nil)
	other.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(other)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
