package services

import (
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// Thresholds are the classifier's cut points.
type Thresholds struct {
	Good          float64
	Caution       float64
	Healthy       float64
	HighRiskBelow float64
	MediumBelow   float64
}

// DefaultThresholds returns the standard cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{Good: 4.0, Caution: 2.6, Healthy: 4.0, HighRiskBelow: 2.0, MediumBelow: 3.5}
}

// Classifier assigns a signal level, a business type and a risk level.
type Classifier struct {
	q          *entities.Questionnaire
	thresholds Thresholds
}

// NewClassifier creates a classifier.
func NewClassifier(q *entities.Questionnaire, t Thresholds) *Classifier {
	return &Classifier{q: q, thresholds: t}
}

// Signal maps an overall mean to a signal level.
func (c *Classifier) Signal(overall float64) entities.SignalLevel {
	switch {
	case overall >= c.thresholds.Good:
		return entities.SignalGood
	case overall >= c.thresholds.Caution:
		return entities.SignalCaution
	default:
		return entities.SignalRisk
	}
}

// Risk maps an overall mean to a risk level.
func (c *Classifier) Risk(overall float64) entities.RiskLevel {
	switch {
	case overall < c.thresholds.HighRiskBelow:
		return entities.RiskHigh
	case overall < c.thresholds.MediumBelow:
		return entities.RiskMedium
	default:
		return entities.RiskLow
	}
}

// Type returns the balanced profile when every category is healthy, else the
// profile of the lowest-scoring category. Equal scores go to the category
// declared first in the questionnaire, whatever the order of scores.
func (c *Classifier) Type(scores []entities.CategoryScore) entities.TypeProfile {
	allHealthy := true
	worst, worstRank := -1, 0
	for i, s := range scores {
		if s.Score < c.thresholds.Healthy {
			allHealthy = false
		}
		rank := c.q.CategoryIndex(s.Key)
		if rank < 0 {
			rank = len(c.q.Categories)
		}
		if worst < 0 || s.Score < scores[worst].Score || (s.Score == scores[worst].Score && rank < worstRank) {
			worst, worstRank = i, rank
		}
	}
	if allHealthy || worst < 0 {
		return c.q.Balanced()
	}

	cat, ok := c.q.Category(scores[worst].Key)
	if !ok {
		return c.q.Balanced()
	}
	typ, ok := c.q.Type(cat.TypeKey)
	if !ok {
		return c.q.Balanced()
	}
	return typ
}

// Classify combines signal, type and risk for a score set.
func (c *Classifier) Classify(scores []entities.CategoryScore) entities.Classification {
	overall := Overall(scores)
	typ := c.Type(scores)
	return entities.Classification{
		Signal:      c.Signal(overall),
		TypeKey:     typ.Key,
		TypeLabel:   typ.Label,
		Description: typ.Description,
		Overall:     overall,
		Risk:        c.Risk(overall),
	}
}
