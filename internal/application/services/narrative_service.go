package services

import (
	"context"
	"time"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	"github.com/zatekoja/cashflow-diagnosis/pkg/retry"
	"github.com/zatekoja/cashflow-diagnosis/pkg/utils"
)

// NarrativeSettings tune generation.
type NarrativeSettings struct {
	RetryDelay      time.Duration
	MaxChars        int
	Temperature     float64
	MaxOutputTokens int
}

// NarrativeService produces the optional AI comment for a submission. It
// makes at most one generation round per submission: a remote attempt and,
// on a transient failure, exactly one retry. Anything else falls back to the
// static type text, which the renderer substitutes.
type NarrativeService struct {
	provider providers.NarrativeProvider
	settings NarrativeSettings
	events   EventRecorder
	metrics  *observability.Metrics
}

// NewNarrativeService creates a narrative service. A nil provider means no
// remote generation is configured.
func NewNarrativeService(provider providers.NarrativeProvider, settings NarrativeSettings, events EventRecorder, metrics *observability.Metrics) *NarrativeService {
	if settings.MaxChars < 2 {
		settings.MaxChars = 520
	}
	if events == nil {
		events = NopEventRecorder{}
	}
	return &NarrativeService{provider: provider, settings: settings, events: events, metrics: metrics}
}

// Ensure returns the submission's narrative, generating it on first use.
// The result is cached on the submission so later displays never call the
// provider again.
func (s *NarrativeService) Ensure(ctx context.Context, sub *entities.Submission) *entities.NarrativeComment {
	if sub.NarrativeTried && sub.Narrative != nil {
		return sub.Narrative
	}
	sub.NarrativeTried = true
	sub.Narrative = s.generate(ctx, sub)
	return sub.Narrative
}

func (s *NarrativeService) generate(ctx context.Context, sub *entities.Submission) *entities.NarrativeComment {
	ctx, span := observability.StartSpan(ctx, "narrative.generate")
	defer span.End()

	if s.provider == nil {
		s.events.Record(ctx, entities.SeverityWarn, "AI comment not generated", map[string]any{
			"session_id": sub.ID,
			"reason":     providers.ErrNarrativeUnavailable.Error(),
		})
		return &entities.NarrativeComment{Source: entities.NarrativeSourceFallback, Reason: providers.ErrNarrativeUnavailable.Error()}
	}

	req := providers.NarrativeRequest{
		System:          narrativeSystemPrompt,
		Prompt:          buildNarrativePrompt(sub),
		Temperature:     s.settings.Temperature,
		MaxOutputTokens: s.settings.MaxOutputTokens,
	}

	start := time.Now()
	attempts := 0
	var text string
	err := retry.DoWithLog(ctx, retry.Once(s.settings.RetryDelay), s.provider.Name(), func() error {
		attempts++
		out, err := s.provider.Generate(ctx, req)
		if err != nil {
			return err
		}
		out = utils.CollapseWhitespace(out)
		if out == "" {
			return errEmptyNarrative
		}
		text = out
		return nil
	}, func(attempt int, err error, next time.Duration) {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("provider", s.provider.Name()).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("narrative generation failed, retrying")
	})

	if err != nil {
		observability.RecordError(span, err)
		observability.RecordNarrative(ctx, s.metrics, s.provider.Name(), "fallback", attempts, time.Since(start))
		s.events.Record(ctx, entities.SeverityWarn, "AI comment not generated", map[string]any{
			"session_id": sub.ID,
			"provider":   s.provider.Name(),
			"attempts":   attempts,
			"error":      err.Error(),
		})
		return &entities.NarrativeComment{
			Source:   entities.NarrativeSourceFallback,
			Provider: s.provider.Name(),
			Reason:   err.Error(),
		}
	}

	observability.RecordNarrative(ctx, s.metrics, s.provider.Name(), "generated", attempts, time.Since(start))
	return &entities.NarrativeComment{
		Text:     utils.Truncate(text, s.settings.MaxChars),
		Source:   entities.NarrativeSourceAI,
		Provider: s.provider.Name(),
	}
}

type narrativeError string

func (e narrativeError) Error() string { return string(e) }

const errEmptyNarrative = narrativeError("provider returned empty text")
