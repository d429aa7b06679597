package services

import (
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// Scorer turns selected choices into normalised per-category scores.
// It is total: any input yields a score set covering every category.
type Scorer struct {
	q *entities.Questionnaire
}

// NewScorer creates a scorer for a validated questionnaire.
func NewScorer(q *entities.Questionnaire) *Scorer {
	return &Scorer{q: q}
}

// BuildAnswers maps choice labels keyed by question ID to answers, in
// question order. Missing or unrecognised choices take the scale midpoint.
func (s *Scorer) BuildAnswers(choices map[string]string) []entities.Answer {
	answers := make([]entities.Answer, 0, len(s.q.Questions))
	for _, qu := range s.q.Questions {
		label := choices[qu.ID]
		value, ok := s.lookup(qu, label)
		if !ok {
			value = s.q.Scale.Midpoint()
		}
		answers = append(answers, entities.Answer{
			QuestionID: qu.ID,
			Category:   qu.Category,
			Choice:     label,
			Value:      value,
			Polarity:   qu.Polarity,
			Recognised: ok,
		})
	}
	return answers
}

func (s *Scorer) lookup(qu entities.Question, label string) (int, bool) {
	fam, ok := s.q.Family(qu.Family)
	if !ok {
		return 0, false
	}
	return fam.Lookup(label)
}

// Score averages normalised answer scores per category, in category
// declaration order. Every score lies within the scale bounds.
func (s *Scorer) Score(answers []entities.Answer) []entities.CategoryScore {
	sums := make(map[string]int, len(s.q.Categories))
	counts := make(map[string]int, len(s.q.Categories))
	for _, a := range answers {
		sums[a.Category] += a.Score(s.q.Scale)
		counts[a.Category]++
	}

	scores := make([]entities.CategoryScore, 0, len(s.q.Categories))
	for _, c := range s.q.Categories {
		mean := float64(s.q.Scale.Midpoint())
		if n := counts[c.Key]; n > 0 {
			mean = float64(sums[c.Key]) / float64(n)
		}
		scores = append(scores, entities.CategoryScore{Key: c.Key, Name: c.Name, Score: mean})
	}
	return scores
}

// Overall is the arithmetic mean of the category means.
func Overall(scores []entities.CategoryScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range scores {
		total += s.Score
	}
	return total / float64(len(scores))
}
