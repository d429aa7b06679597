package entities

// Answer is one recorded response. Value is the raw scale value of the
// selected choice, before polarity is applied.
type Answer struct {
	QuestionID string   `json:"question_id"`
	Category   string   `json:"category"`
	Choice     string   `json:"choice"`
	Value      int      `json:"value"`
	Polarity   Polarity `json:"polarity"`
	Recognised bool     `json:"recognised"`
}

// Score returns the answer's contribution on the "higher is healthier" axis.
func (a Answer) Score(s Scale) int {
	if a.Polarity == PolarityNegative {
		return s.Invert(a.Value)
	}
	return a.Value
}

// CategoryScore is the mean of a category's normalised answer scores.
type CategoryScore struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
