package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/cashflow-diagnosis/pkg/errors"
)

// Outcome is the result of running or re-entering the pipeline.
type Outcome struct {
	Submission *entities.Submission
	Report     *entities.ReportArtifact
	Write      WriteResult
}

// DiagnosisDeps wires the pipeline stages.
type DiagnosisDeps struct {
	Questionnaire *entities.Questionnaire
	Scorer        *Scorer
	Classifier    *Classifier
	Narratives    *NarrativeService
	Writer        *RecordWriter
	Renderer      providers.ReportRenderer
	Sessions      providers.SessionStore
	Events        EventRecorder
	Location      *time.Location
	Metrics       *observability.Metrics
}

// DiagnosisService runs Scoring, Classification and Narrative in sequence,
// then renders the report while the record is persisted.
type DiagnosisService struct {
	deps  DiagnosisDeps
	now   func() time.Time
	locks *sessionLocks
}

// NewDiagnosisService creates the pipeline service.
func NewDiagnosisService(deps DiagnosisDeps) *DiagnosisService {
	if deps.Events == nil {
		deps.Events = NopEventRecorder{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &DiagnosisService{deps: deps, now: time.Now, locks: newSessionLocks()}
}

// Questionnaire returns the active questionnaire.
func (s *DiagnosisService) Questionnaire() *entities.Questionnaire {
	return s.deps.Questionnaire
}

// Submit validates a form submission, runs the full pipeline and stores the
// session. A report rendering failure is recorded but does not fail the
// submission; the report can be fetched again later. Once started the
// pipeline runs to completion even if the caller goes away.
func (s *DiagnosisService) Submit(ctx context.Context, in SubmissionInput) (*Outcome, error) {
	ctx, span := observability.StartSpan(context.WithoutCancel(ctx), "diagnosis.submit")
	defer span.End()

	in.Normalize()
	if err := ValidateSubmission(in, s.deps.Questionnaire); err != nil {
		return nil, err
	}

	answers := s.deps.Scorer.BuildAnswers(in.Answers)
	scores := s.deps.Scorer.Score(answers)
	sub := &entities.Submission{
		ID:             uuid.NewString(),
		Company:        in.Company,
		Email:          in.Email,
		Acquisition:    in.Acquisition,
		Answers:        answers,
		Scores:         scores,
		Classification: s.deps.Classifier.Classify(scores),
		SubmittedAt:    s.now().In(s.deps.Location),
	}
	observability.RecordSubmission(ctx, s.deps.Metrics, sub.Classification.Signal.String(), sub.Classification.TypeKey)
	observability.LoggerFromContext(ctx).Info().
		Str("session_id", sub.ID).
		Str("email", observability.MaskEmail(sub.Email)).
		Str("type", sub.Classification.TypeKey).
		Float64("overall", sub.Classification.Overall).
		Msg("diagnosis submitted")

	s.deps.Narratives.Ensure(ctx, sub)

	out, renderErr := s.complete(ctx, sub, true)
	if renderErr != nil {
		observability.RecordError(span, renderErr)
	}
	s.saveSession(ctx, sub)
	return out, nil
}

// Display re-enters the result step for a stored session. The cached
// narrative is reused and the record is written only if no earlier write
// succeeded.
func (s *DiagnosisService) Display(ctx context.Context, id string) (*Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	defer s.locks.lock(id)()
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.deps.Narratives.Ensure(ctx, sub)
	out, _ := s.complete(ctx, sub, false)
	s.saveSession(ctx, sub)
	return out, nil
}

// Report renders the report for a stored session.
func (s *DiagnosisService) Report(ctx context.Context, id string) (*Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	defer s.locks.lock(id)()
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.deps.Narratives.Ensure(ctx, sub)
	out, renderErr := s.complete(ctx, sub, true)
	s.saveSession(ctx, sub)
	if renderErr != nil {
		return nil, apperrors.NewInternalError("failed to render report", renderErr)
	}
	return out, nil
}

// complete runs rendering and persistence concurrently. Persistence never
// fails; the returned error is the rendering error, if any. The renderer
// works from a copied input, so only persistence touches the submission.
func (s *DiagnosisService) complete(ctx context.Context, sub *entities.Submission, render bool) (*Outcome, error) {
	out := &Outcome{Submission: sub}
	input := s.reportInput(sub)

	var g errgroup.Group
	if render && s.deps.Renderer != nil {
		g.Go(func() error {
			start := time.Now()
			artifact, err := s.deps.Renderer.Render(ctx, input)
			observability.RecordRender(ctx, s.deps.Metrics, time.Since(start), err == nil)
			if err != nil {
				s.deps.Events.Record(ctx, entities.SeverityError, "report rendering failed", map[string]any{
					"session_id": sub.ID,
					"error":      err.Error(),
				})
				return err
			}
			out.Report = artifact
			return nil
		})
	}
	g.Go(func() error {
		out.Write = s.persist(ctx, sub)
		return nil
	})

	return out, g.Wait()
}

// persist writes the record under a session write claim, so instances
// sharing the session store never append the same submission twice. A claim
// is given back only when no store accepted the record.
func (s *DiagnosisService) persist(ctx context.Context, sub *entities.Submission) WriteResult {
	if sub.Saved {
		return WriteResult{Store: sub.SavedTo, Skipped: true}
	}

	claimed, err := s.deps.Sessions.ClaimWrite(ctx, sub.ID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("session_id", sub.ID).Msg("write claim unavailable, writing unclaimed")
		return s.deps.Writer.Persist(ctx, sub)
	}
	if !claimed {
		return WriteResult{Skipped: true}
	}

	res := s.deps.Writer.Persist(ctx, sub)
	if res.Failed {
		if err := s.deps.Sessions.ReleaseWrite(ctx, sub.ID); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("session_id", sub.ID).Msg("failed to release write claim")
		}
	}
	return res
}

func (s *DiagnosisService) reportInput(sub *entities.Submission) entities.ReportInput {
	return entities.ReportInput{
		Company:      sub.Company,
		Email:        sub.Email,
		GeneratedAt:  s.now().In(s.deps.Location),
		Signal:       sub.Classification.Signal,
		TypeLabel:    sub.Classification.TypeLabel,
		Narrative:    sub.NarrativeText(),
		FallbackText: sub.Classification.Description,
		Scores:       append([]entities.CategoryScore(nil), sub.Scores...),
	}
}

func (s *DiagnosisService) load(ctx context.Context, id string) (*entities.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("diagnosis %q not found", id))
	}
	sub, err := s.deps.Sessions.Get(ctx, id)
	if errors.Is(err, providers.ErrSessionNotFound) {
		observability.RecordSessionLookup(ctx, s.deps.Metrics, false)
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("diagnosis %q not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load diagnosis session", err)
	}
	observability.RecordSessionLookup(ctx, s.deps.Metrics, true)
	return sub, nil
}

func (s *DiagnosisService) saveSession(ctx context.Context, sub *entities.Submission) {
	if err := s.deps.Sessions.Save(ctx, sub); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("session_id", sub.ID).Msg("failed to save session")
		s.deps.Events.Record(ctx, entities.SeverityWarn, "session could not be saved", map[string]any{
			"session_id": sub.ID,
			"error":      err.Error(),
		})
	}
}
