package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/api/handlers"
	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	apperrors "github.com/zatekoja/cashflow-diagnosis/pkg/errors"
)

const sessionID = "0b6c7f1e-3f55-4d8e-9a39-0d1f1b8c2a10"

type stubDiagnosisService struct {
	inputs    []services.SubmissionInput
	outcome   *services.Outcome
	err       error
	displayed []string
}

func (s *stubDiagnosisService) Questionnaire() *entities.Questionnaire {
	return &entities.Questionnaire{Version: "test", Title: "Quick check"}
}

func (s *stubDiagnosisService) Submit(_ context.Context, in services.SubmissionInput) (*services.Outcome, error) {
	s.inputs = append(s.inputs, in)
	return s.outcome, s.err
}

func (s *stubDiagnosisService) Display(_ context.Context, id string) (*services.Outcome, error) {
	s.displayed = append(s.displayed, id)
	return s.outcome, s.err
}

func (s *stubDiagnosisService) Report(_ context.Context, id string) (*services.Outcome, error) {
	return s.outcome, s.err
}

func sampleOutcome(narrative string) *services.Outcome {
	sub := &entities.Submission{
		ID:      sessionID,
		Company: "Acme",
		Email:   "owner@acme.example",
		Scores: []entities.CategoryScore{
			{Key: "sales", Name: "Sales & Collections", Score: 3},
			{Key: "payments", Name: "Payments & Purchasing", Score: 1},
		},
		Classification: entities.Classification{
			Signal:      entities.SignalCaution,
			TypeKey:     "payment_squeezed",
			TypeLabel:   "Payment-Squeezed",
			Description: "Supplier terms squeeze cash.",
			Overall:     3.4,
			Risk:        entities.RiskMedium,
		},
		Saved:   true,
		SavedTo: "csv",
	}
	if narrative != "" {
		sub.Narrative = &entities.NarrativeComment{Text: narrative, Source: entities.NarrativeSourceAI}
	} else {
		sub.Narrative = &entities.NarrativeComment{Source: entities.NarrativeSourceFallback}
	}
	return &services.Outcome{
		Submission: sub,
		Report: &entities.ReportArtifact{
			Filename:    "diagnosis_Acme_20250314_1002.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.3 fake"),
		},
		Write: services.WriteResult{Store: "csv", UsedFallback: true},
	}
}

func newHandler(svc *stubDiagnosisService, limiter *handlers.SubmitLimiter) *handlers.DiagnosisHandler {
	return handlers.NewDiagnosisHandler(svc, limiter, time.FixedZone("JST", 9*60*60))
}

const validBody = `{"company":"Acme","email":"owner@acme.example","answers":{"q1":"Yes"}}`

func TestDiagnosisHandler_SubmitDiagnosis_Success(t *testing.T) {
	svc := &stubDiagnosisService{outcome: sampleOutcome("Tighten supplier terms.")}
	handler := newHandler(svc, nil)

	req := httptest.NewRequest("POST", "/api/diagnoses?utm_source=ads&utm_medium=cpc&utm_campaign=spring", strings.NewReader(validBody))
	w := httptest.NewRecorder()
	handler.SubmitDiagnosis(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/diagnoses/"+sessionID, w.Header().Get("Location"))

	require.Len(t, svc.inputs, 1)
	in := svc.inputs[0]
	assert.Equal(t, "Acme", in.Company)
	assert.Equal(t, "Yes", in.Answers["q1"])
	assert.Equal(t, entities.Acquisition{Source: "ads", Medium: "cpc", Campaign: "spring"}, in.Acquisition)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, sessionID, body["session_id"])
	assert.Equal(t, "Payment-Squeezed", body["type_label"])
	assert.Equal(t, "Medium risk", body["risk_level"])

	signal := body["signal"].(map[string]interface{})
	assert.Equal(t, "caution", signal["level"])
	assert.Equal(t, "Yellow signal", signal["label"])

	narrative := body["narrative"].(map[string]interface{})
	assert.Equal(t, "generated", narrative["status"])
	assert.Equal(t, "Tighten supplier terms.", narrative["text"])

	persistence := body["persistence"].(map[string]interface{})
	assert.Equal(t, true, persistence["saved"])
	assert.Equal(t, true, persistence["used_fallback"])
	assert.Equal(t, "/api/diagnoses/"+sessionID+"/report.pdf", body["report_url"])
}

func TestDiagnosisHandler_SubmitDiagnosis_FallbackNarrativeNotice(t *testing.T) {
	svc := &stubDiagnosisService{outcome: sampleOutcome("")}
	handler := newHandler(svc, nil)

	w := httptest.NewRecorder()
	handler.SubmitDiagnosis(w, httptest.NewRequest("POST", "/api/diagnoses", strings.NewReader(validBody)))

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Narrative struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Notice string `json:"notice"`
		} `json:"narrative"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "fallback", body.Narrative.Status)
	assert.Empty(t, body.Narrative.Text)
	assert.NotEmpty(t, body.Narrative.Notice)
}

func TestDiagnosisHandler_SubmitDiagnosis_PDF(t *testing.T) {
	svc := &stubDiagnosisService{outcome: sampleOutcome("")}
	handler := newHandler(svc, nil)

	for _, req := range []*http.Request{
		httptest.NewRequest("POST", "/api/diagnoses?format=pdf", strings.NewReader(validBody)),
		func() *http.Request {
			r := httptest.NewRequest("POST", "/api/diagnoses", strings.NewReader(validBody))
			r.Header.Set("Accept", "application/pdf")
			return r
		}(),
	} {
		w := httptest.NewRecorder()
		handler.SubmitDiagnosis(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=diagnosis_Acme_20250314_1002.pdf`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.3 fake", w.Body.String())
	}
}

func TestDiagnosisHandler_SubmitDiagnosis_BadPayload(t *testing.T) {
	svc := &stubDiagnosisService{}
	handler := newHandler(svc, nil)

	for _, body := range []string{`{`, `{"company":"Acme","extra":true}`} {
		w := httptest.NewRecorder()
		handler.SubmitDiagnosis(w, httptest.NewRequest("POST", "/api/diagnoses", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Empty(t, svc.inputs)
}

func TestDiagnosisHandler_SubmitDiagnosis_ValidationError(t *testing.T) {
	svc := &stubDiagnosisService{err: apperrors.NewValidationError("email format is invalid", "answer for q3 is required")}
	handler := newHandler(svc, nil)

	w := httptest.NewRecorder()
	handler.SubmitDiagnosis(w, httptest.NewRequest("POST", "/api/diagnoses", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error    string   `json:"error"`
		Problems []string `json:"problems"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "email format is invalid; answer for q3 is required", body.Error)
	assert.Equal(t, []string{"email format is invalid", "answer for q3 is required"}, body.Problems)
}

func TestDiagnosisHandler_SubmitDiagnosis_RateLimit(t *testing.T) {
	svc := &stubDiagnosisService{outcome: sampleOutcome("")}
	handler := newHandler(svc, handlers.NewSubmitLimiter(2, time.Hour, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/diagnoses", strings.NewReader(validBody))
		req.RemoteAddr = "10.0.0.7:1234"
		w := httptest.NewRecorder()
		handler.SubmitDiagnosis(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
	assert.Len(t, svc.inputs, 2)

	other := httptest.NewRequest("POST", "/api/diagnoses", strings.NewReader(validBody))
	other.RemoteAddr = "10.0.0.8:1234"
	w := httptest.NewRecorder()
	handler.SubmitDiagnosis(w, other)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDiagnosisHandler_GetDiagnosis(t *testing.T) {
	svc := &stubDiagnosisService{outcome: sampleOutcome("Cached.")}
	handler := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/diagnoses/"+sessionID, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.GetDiagnosis(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{sessionID}, svc.displayed)
}

func TestDiagnosisHandler_GetDiagnosis_NotFound(t *testing.T) {
	svc := &stubDiagnosisService{err: apperrors.NewNotFoundError(`diagnosis "x" not found`)}
	handler := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/diagnoses/x", nil)
	req.SetPathValue("id", "x")
	w := httptest.NewRecorder()
	handler.GetDiagnosis(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDiagnosisHandler_GetReport(t *testing.T) {
	svc := &stubDiagnosisService{outcome: sampleOutcome("")}
	handler := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/diagnoses/"+sessionID+"/report.pdf", nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.GetReport(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestDiagnosisHandler_GetReport_InternalErrorHidesDetails(t *testing.T) {
	svc := &stubDiagnosisService{err: apperrors.NewInternalError("failed to render report", assert.AnError)}
	handler := newHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/diagnoses/"+sessionID+"/report.pdf", nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.GetReport(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestDiagnosisHandler_GetQuestionnaire(t *testing.T) {
	handler := newHandler(&stubDiagnosisService{}, nil)

	w := httptest.NewRecorder()
	handler.GetQuestionnaire(w, httptest.NewRequest("GET", "/api/questionnaire", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Quick check", body["title"])
}
