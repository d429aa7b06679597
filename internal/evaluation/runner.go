package evaluation

import (
	"context"

	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
)

// Runner scores and classifies every case the way a live submission is.
type Runner struct {
	scorer     *services.Scorer
	classifier *services.Classifier
}

func NewRunner(scorer *services.Scorer, classifier *services.Classifier) *Runner {
	return &Runner{scorer: scorer, classifier: classifier}
}

func (r *Runner) Run(ctx context.Context, cases []Case) *Summary {
	_, span := observability.StartSpan(ctx, "evaluation.run")
	defer span.End()

	summary := &Summary{
		TotalCases: len(cases),
		ByType:     make(map[string]*TypeSummary),
		Confusion:  make(Confusion),
	}
	var typeOK, signalOK, signalTotal, riskOK, riskTotal int

	for _, c := range cases {
		scores := r.scorer.Score(r.scorer.BuildAnswers(c.Answers))
		cls := r.classifier.Classify(scores)

		res := CaseResult{
			ID:          c.ID,
			GotType:     cls.TypeKey,
			GotSignal:   cls.Signal.String(),
			GotRisk:     string(cls.Risk),
			Overall:     cls.Overall,
			TypeMatch:   cls.TypeKey == c.ExpectedType,
			SignalMatch: c.ExpectedSignal == "" || cls.Signal.String() == c.ExpectedSignal,
			RiskMatch:   c.ExpectedRisk == "" || string(cls.Risk) == c.ExpectedRisk,
		}

		summary.Confusion.Add(c.ExpectedType, cls.TypeKey)
		ts, ok := summary.ByType[c.ExpectedType]
		if !ok {
			ts = &TypeSummary{}
			summary.ByType[c.ExpectedType] = ts
		}
		ts.Count++
		if res.TypeMatch {
			ts.Correct++
			typeOK++
		}
		if c.ExpectedSignal != "" {
			signalTotal++
			if res.SignalMatch {
				signalOK++
			}
		}
		if c.ExpectedRisk != "" {
			riskTotal++
			if res.RiskMatch {
				riskOK++
			}
		}

		if res.Passed() {
			summary.PassedCases++
		} else {
			summary.Failures = append(summary.Failures, res)
		}
	}

	summary.TypeAccuracy = Accuracy(typeOK, len(cases))
	summary.SignalAccuracy = Accuracy(signalOK, signalTotal)
	summary.RiskAccuracy = Accuracy(riskOK, riskTotal)
	for key, ts := range summary.ByType {
		ts.Recall = summary.Confusion.Recall(key)
	}
	return summary
}
