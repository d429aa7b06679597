package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	"github.com/zatekoja/cashflow-diagnosis/pkg/utils"
)

// Fixed record cells.
const (
	recordStatusOK   = "ok"
	recordEntryCheck = "OK"
)

// WriteResult describes where a record ended up.
type WriteResult struct {
	Store        string `json:"store,omitempty"`
	UsedFallback bool   `json:"used_fallback"`
	Skipped      bool   `json:"skipped"`
	Failed       bool   `json:"failed"`
}

// RecordWriter appends each submission's record exactly once, trying the
// store chain in order.
type RecordWriter struct {
	stores     []providers.RecordStore
	events     EventRecorder
	appVersion string
	loc        *time.Location
	now        func() time.Time
	metrics    *observability.Metrics
}

// NewRecordWriter creates a writer over an ordered store chain.
func NewRecordWriter(stores []providers.RecordStore, events EventRecorder, appVersion string, loc *time.Location, metrics *observability.Metrics) *RecordWriter {
	if events == nil {
		events = NopEventRecorder{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RecordWriter{stores: stores, events: events, appVersion: appVersion, loc: loc, now: time.Now, metrics: metrics}
}

// Persist appends the submission's record unless it has already been saved.
// Store failures never reach the caller: a failing store is reported as a
// warning and the next one is tried; if every store fails an error event
// is recorded and the result is marked Failed, leaving Saved false.
func (w *RecordWriter) Persist(ctx context.Context, sub *entities.Submission) WriteResult {
	if sub.Saved {
		return WriteResult{Store: sub.SavedTo, Skipped: true}
	}

	ctx, span := observability.StartSpan(ctx, "record.persist")
	defer span.End()

	record := BuildRecord(sub, w.appVersion, w.now().In(w.loc))

	attempted := false
	var errs []error
	for _, store := range w.stores {
		err := store.AppendRecord(ctx, record)
		if errors.Is(err, providers.ErrStoreNotConfigured) {
			continue
		}
		observability.RecordStoreWrite(ctx, w.metrics, store.Name(), err == nil)
		if err == nil {
			sub.Saved = true
			sub.SavedTo = store.Name()
			return WriteResult{Store: store.Name(), UsedFallback: attempted}
		}
		attempted = true
		errs = append(errs, err)
		w.events.Record(ctx, entities.SeverityWarn, "record store failed, falling back", map[string]any{
			"session_id": sub.ID,
			"store":      store.Name(),
			"error":      err.Error(),
		})
	}

	joined := errors.Join(errs...)
	observability.RecordError(span, joined)
	payload := map[string]any{"session_id": sub.ID}
	if joined != nil {
		payload["error"] = joined.Error()
	}
	w.events.Record(ctx, entities.SeverityError, "record could not be saved to any store", payload)
	return WriteResult{Failed: true, UsedFallback: attempted}
}

// BuildRecord projects a classified submission onto the record columns.
func BuildRecord(sub *entities.Submission, appVersion string, now time.Time) *entities.DiagnosisRecord {
	comment := sub.NarrativeText()
	return &entities.DiagnosisRecord{
		Timestamp:      now.Format(time.RFC3339),
		Company:        sub.Company,
		Email:          sub.Email,
		CategoryScores: encodeCategoryScores(sub.Scores),
		TotalScore:     math.Round(sub.Classification.Overall*100) / 100,
		TypeLabel:      sub.Classification.TypeLabel,
		AIComment:      comment,
		UTMSource:      sub.Acquisition.Source,
		UTMCampaign:    sub.Acquisition.Campaign,
		PDFURL:         "",
		AppVersion:     appVersion,
		Status:         recordStatusOK,
		AICommentLen:   utils.RuneLen(comment),
		RiskLevel:      string(sub.Classification.Risk),
		EntryCheck:     recordEntryCheck,
		ReportDate:     now.Format("2006-01-02"),
	}
}

// encodeCategoryScores renders {"name": mean, ...} keeping category order.
func encodeCategoryScores(scores []entities.CategoryScore) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range scores {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(jsonString(s.Name))
		buf.WriteString(": ")
		buf.WriteString(strconv.FormatFloat(math.Round(s.Score*100)/100, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.String()
}

// jsonString encodes s as a JSON string without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
