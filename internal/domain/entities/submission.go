package entities

import (
	"cmp"
	"slices"
	"time"
)

// Acquisition carries the campaign tags a respondent arrived with.
type Acquisition struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
}

// Submission is the per-session state of one diagnosis. It lives from the
// moment the form is accepted until the session expires, and is re-entered
// every time the result is displayed again.
type Submission struct {
	ID             string            `json:"id"`
	Company        string            `json:"company"`
	Email          string            `json:"email"`
	Acquisition    Acquisition       `json:"acquisition"`
	Answers        []Answer          `json:"answers"`
	Scores         []CategoryScore   `json:"scores"`
	Classification Classification    `json:"classification"`
	Narrative      *NarrativeComment `json:"narrative,omitempty"`
	NarrativeTried bool              `json:"narrative_tried"`
	// Saved becomes true only after a record append has been confirmed.
	Saved       bool      `json:"saved"`
	SavedTo     string    `json:"saved_to,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NarrativeText returns the generated comment, or "" when none exists.
func (s *Submission) NarrativeText() string {
	if s.Narrative.Generated() {
		return s.Narrative.Text
	}
	return ""
}

// Weakest returns up to n category scores in ascending order of score.
// Ties keep declaration order.
func (s *Submission) Weakest(n int) []CategoryScore {
	sorted := SortedAscending(s.Scores)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// SortedAscending returns a copy of scores ordered by score, lowest first.
// The sort is stable so equal scores keep declaration order.
func SortedAscending(scores []CategoryScore) []CategoryScore {
	out := slices.Clone(scores)
	slices.SortStableFunc(out, func(a, b CategoryScore) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return out
}
