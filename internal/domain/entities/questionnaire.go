package entities

import "fmt"

// Polarity says whether a higher raw answer value means a healthier business.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// Scale is the closed answer scale shared by every question, e.g. {1,3,5}.
type Scale struct {
	Min    int   `json:"min" yaml:"min"`
	Max    int   `json:"max" yaml:"max"`
	Points []int `json:"points" yaml:"points"`
}

// Midpoint is the value assigned to unrecognised answers.
func (s Scale) Midpoint() int {
	return (s.Min + s.Max) / 2
}

// Invert reflects v around the middle of the scale.
func (s Scale) Invert(v int) int {
	return s.Min + s.Max - v
}

// Contains reports whether v is one of the scale's points.
func (s Scale) Contains(v int) bool {
	for _, p := range s.Points {
		if p == v {
			return true
		}
	}
	return false
}

// Choice is one selectable answer and its raw value on the scale.
type Choice struct {
	Label string `json:"label" yaml:"label"`
	Value int    `json:"value" yaml:"value"`
}

// ChoiceFamily is a named, ordered set of choices shared by several questions.
type ChoiceFamily struct {
	Key     string   `json:"key" yaml:"key"`
	Choices []Choice `json:"choices" yaml:"choices"`
}

// Lookup returns the raw value for label.
func (f ChoiceFamily) Lookup(label string) (int, bool) {
	for _, c := range f.Choices {
		if c.Label == label {
			return c.Value, true
		}
	}
	return 0, false
}

// Category groups questions and names the type assigned when it is the weakest.
type Category struct {
	Key     string `json:"key" yaml:"key"`
	Name    string `json:"name" yaml:"name"`
	TypeKey string `json:"type" yaml:"type"`
}

// Question is a single closed-choice question.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Category string   `json:"category" yaml:"category"`
	Family   string   `json:"family" yaml:"family"`
	Polarity Polarity `json:"polarity" yaml:"polarity"`
	Text     string   `json:"text" yaml:"text"`
	Default  string   `json:"default,omitempty" yaml:"default"`
}

// TypeProfile is a business type label with its static fallback commentary.
type TypeProfile struct {
	Key         string `json:"key" yaml:"key"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// Questionnaire is the full, ordered diagnosis definition. Declaration order
// of categories and questions is significant.
type Questionnaire struct {
	Version     string         `json:"version" yaml:"version"`
	Title       string         `json:"title" yaml:"title"`
	Scale       Scale          `json:"scale" yaml:"scale"`
	Families    []ChoiceFamily `json:"families" yaml:"families"`
	Categories  []Category     `json:"categories" yaml:"categories"`
	Questions   []Question     `json:"questions" yaml:"questions"`
	Types       []TypeProfile  `json:"types" yaml:"types"`
	BalancedKey string         `json:"balanced_type" yaml:"balanced_type"`
}

// Family looks up a choice family by key.
func (q *Questionnaire) Family(key string) (ChoiceFamily, bool) {
	for _, f := range q.Families {
		if f.Key == key {
			return f, true
		}
	}
	return ChoiceFamily{}, false
}

// Category looks up a category by key.
func (q *Questionnaire) Category(key string) (Category, bool) {
	for _, c := range q.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryIndex returns the declaration position of a category, or -1.
func (q *Questionnaire) CategoryIndex(key string) int {
	for i, c := range q.Categories {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Type looks up a type profile by key.
func (q *Questionnaire) Type(key string) (TypeProfile, bool) {
	for _, t := range q.Types {
		if t.Key == key {
			return t, true
		}
	}
	return TypeProfile{}, false
}

// Balanced returns the profile used when no category is weak.
func (q *Questionnaire) Balanced() TypeProfile {
	t, _ := q.Type(q.BalancedKey)
	return t
}

// Validate checks the structural guarantees the scoring pipeline relies on.
func (q *Questionnaire) Validate() error {
	if q.Scale.Min >= q.Scale.Max {
		return fmt.Errorf("scale min %d must be below max %d", q.Scale.Min, q.Scale.Max)
	}
	if !q.Scale.Contains(q.Scale.Midpoint()) {
		return fmt.Errorf("scale midpoint %d is not a scale point", q.Scale.Midpoint())
	}
	for _, f := range q.Families {
		if len(f.Choices) == 0 {
			return fmt.Errorf("choice family %q has no choices", f.Key)
		}
		for _, c := range f.Choices {
			if !q.Scale.Contains(c.Value) {
				return fmt.Errorf("choice %q in family %q has off-scale value %d", c.Label, f.Key, c.Value)
			}
		}
	}
	if len(q.Categories) == 0 {
		return fmt.Errorf("questionnaire has no categories")
	}

	members := make(map[string]int, len(q.Categories))
	for _, c := range q.Categories {
		if _, dup := members[c.Key]; dup {
			return fmt.Errorf("duplicate category %q", c.Key)
		}
		if _, ok := q.Type(c.TypeKey); !ok {
			return fmt.Errorf("category %q references unknown type %q", c.Key, c.TypeKey)
		}
		members[c.Key] = 0
	}

	seen := make(map[string]bool, len(q.Questions))
	for _, qu := range q.Questions {
		if seen[qu.ID] {
			return fmt.Errorf("duplicate question %q", qu.ID)
		}
		seen[qu.ID] = true
		if _, ok := members[qu.Category]; !ok {
			return fmt.Errorf("question %q references unknown category %q", qu.ID, qu.Category)
		}
		if _, ok := q.Family(qu.Family); !ok {
			return fmt.Errorf("question %q references unknown choice family %q", qu.ID, qu.Family)
		}
		if qu.Polarity != PolarityPositive && qu.Polarity != PolarityNegative {
			return fmt.Errorf("question %q has invalid polarity %q", qu.ID, qu.Polarity)
		}
		members[qu.Category]++
	}
	for _, c := range q.Categories {
		if members[c.Key] == 0 {
			return fmt.Errorf("category %q has no questions", c.Key)
		}
	}

	if _, ok := q.Type(q.BalancedKey); !ok {
		return fmt.Errorf("balanced type %q is not defined", q.BalancedKey)
	}
	return nil
}
