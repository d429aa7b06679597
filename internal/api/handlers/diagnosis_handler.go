package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

const (
	maxSubmissionBytes = 64 << 10
	fallbackNotice     = "The AI comment could not be generated. The report uses the standard commentary for this type."
)

// DiagnosisService defines the pipeline operations used by the handler.
type DiagnosisService interface {
	Questionnaire() *entities.Questionnaire
	Submit(ctx context.Context, in services.SubmissionInput) (*services.Outcome, error)
	Display(ctx context.Context, id string) (*services.Outcome, error)
	Report(ctx context.Context, id string) (*services.Outcome, error)
}

// DiagnosisHandler serves the questionnaire, submissions and reports.
type DiagnosisHandler struct {
	service DiagnosisService
	limiter *SubmitLimiter
	loc     *time.Location
	now     func() time.Time
}

// NewDiagnosisHandler creates a new diagnosis handler. limiter may be nil.
func NewDiagnosisHandler(service DiagnosisService, limiter *SubmitLimiter, loc *time.Location) *DiagnosisHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DiagnosisHandler{service: service, limiter: limiter, loc: loc, now: time.Now}
}

type submitRequest struct {
	Company string            `json:"company"`
	Email   string            `json:"email"`
	Answers map[string]string `json:"answers"`
}

type scoreResponse struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type signalResponse struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type narrativeResponse struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Notice string `json:"notice,omitempty"`
}

type persistenceResponse struct {
	Saved        bool   `json:"saved"`
	Store        string `json:"store,omitempty"`
	UsedFallback bool   `json:"used_fallback"`
}

type diagnosisResponse struct {
	SessionID   string              `json:"session_id"`
	Company     string              `json:"company"`
	Email       string              `json:"email"`
	DisplayedAt string              `json:"displayed_at"`
	Signal      signalResponse      `json:"signal"`
	TypeKey     string              `json:"type_key"`
	TypeLabel   string              `json:"type_label"`
	Description string              `json:"description"`
	Overall     float64             `json:"overall"`
	RiskLevel   string              `json:"risk_level"`
	Scores      []scoreResponse     `json:"scores"`
	Narrative   narrativeResponse   `json:"narrative"`
	Persistence persistenceResponse `json:"persistence"`
	ReportURL   string              `json:"report_url"`
}

// GetQuestionnaire handles GET /api/questionnaire
func (h *DiagnosisHandler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Questionnaire())
}

// SubmitDiagnosis handles POST /api/diagnoses. The response is the result
// JSON, or the PDF report when ?format=pdf is given or the client accepts
// only PDF.
func (h *DiagnosisHandler) SubmitDiagnosis(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	allowed, retryAfter := h.limiter.Allow(r.Context(), "diagnosis:rate:"+clientIP(r))
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	query := r.URL.Query()
	out, err := h.service.Submit(r.Context(), services.SubmissionInput{
		Company: payload.Company,
		Email:   payload.Email,
		Answers: payload.Answers,
		Acquisition: entities.Acquisition{
			Source:   query.Get("utm_source"),
			Medium:   query.Get("utm_medium"),
			Campaign: query.Get("utm_campaign"),
		},
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if wantsPDF(r) {
		if out.Report == nil {
			respondWithError(w, http.StatusInternalServerError, "report could not be rendered")
			return
		}
		writeReport(w, out.Report)
		return
	}

	w.Header().Set("Location", "/api/diagnoses/"+out.Submission.ID)
	respondWithJSON(w, http.StatusCreated, h.toResponse(out))
}

// GetDiagnosis handles GET /api/diagnoses/{id}
func (h *DiagnosisHandler) GetDiagnosis(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Display(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.toResponse(out))
}

// GetReport handles GET /api/diagnoses/{id}/report.pdf
func (h *DiagnosisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if out.Report == nil {
		respondWithError(w, http.StatusInternalServerError, "report could not be rendered")
		return
	}
	writeReport(w, out.Report)
}

func (h *DiagnosisHandler) toResponse(out *services.Outcome) diagnosisResponse {
	sub := out.Submission
	c := sub.Classification

	scores := make([]scoreResponse, 0, len(sub.Scores))
	for _, s := range sub.Scores {
		scores = append(scores, scoreResponse{Key: s.Key, Name: s.Name, Score: s.Score})
	}

	narrative := narrativeResponse{Status: "fallback", Notice: fallbackNotice}
	if text := sub.NarrativeText(); text != "" {
		narrative = narrativeResponse{Status: "generated", Text: text}
	}

	return diagnosisResponse{
		SessionID:   sub.ID,
		Company:     sub.Company,
		Email:       sub.Email,
		DisplayedAt: h.now().In(h.loc).Format("2006-01-02 15:04"),
		Signal: signalResponse{
			Level: c.Signal.String(),
			Label: c.Signal.Label(),
			Color: c.Signal.Color(),
		},
		TypeKey:     c.TypeKey,
		TypeLabel:   c.TypeLabel,
		Description: c.Description,
		Overall:     c.Overall,
		RiskLevel:   string(c.Risk),
		Scores:      scores,
		Narrative:   narrative,
		Persistence: persistenceResponse{
			Saved:        sub.Saved,
			Store:        sub.SavedTo,
			UsedFallback: out.Write.UsedFallback,
		},
		ReportURL: fmt.Sprintf("/api/diagnoses/%s/report.pdf", sub.ID),
	}
}

func wantsPDF(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "pdf") {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept != "" && strings.Contains(accept, "application/pdf") && !strings.Contains(accept, "application/json")
}

func writeReport(w http.ResponseWriter, report *entities.ReportArtifact) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(report.Content)
}
