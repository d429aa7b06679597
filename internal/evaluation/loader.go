package evaluation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// LoadCases reads and parses a case set from a YAML file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases file: %w", err)
	}

	var cases []Case
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse cases: %w", err)
	}

	return cases, nil
}

var validSignals = map[string]bool{
	"":        true,
	"good":    true,
	"caution": true,
	"risk":    true,
}

var validRisks = map[string]bool{
	"":                          true,
	string(entities.RiskHigh):   true,
	string(entities.RiskMedium): true,
	string(entities.RiskLow):    true,
}

// ValidateCases checks that every case is well formed against q. Unlike a
// live submission, a case must answer with labels the question offers.
func ValidateCases(cases []Case, q *entities.Questionnaire) error {
	seen := make(map[string]struct{}, len(cases))

	for i, c := range cases {
		if c.ID == "" {
			return fmt.Errorf("case at index %d: missing id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("case at index %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}

		if len(c.Answers) == 0 {
			return fmt.Errorf("case %q: no answers", c.ID)
		}
		if _, ok := q.Type(c.ExpectedType); !ok {
			return fmt.Errorf("case %q: unknown expected_type %q", c.ID, c.ExpectedType)
		}
		if !validSignals[c.ExpectedSignal] {
			return fmt.Errorf("case %q: invalid expected_signal %q (must be good/caution/risk)", c.ID, c.ExpectedSignal)
		}
		if !validRisks[c.ExpectedRisk] {
			return fmt.Errorf("case %q: invalid expected_risk %q", c.ID, c.ExpectedRisk)
		}
		for id, label := range c.Answers {
			if err := checkAnswer(q, id, label); err != nil {
				return fmt.Errorf("case %q: %w", c.ID, err)
			}
		}
	}

	return nil
}

func checkAnswer(q *entities.Questionnaire, id, label string) error {
	for _, qu := range q.Questions {
		if qu.ID != id {
			continue
		}
		f, ok := q.Family(qu.Family)
		if !ok {
			return fmt.Errorf("question %q has unknown family %q", id, qu.Family)
		}
		for _, ch := range f.Choices {
			if ch.Label == label {
				return nil
			}
		}
		return fmt.Errorf("question %q: %q is not one of its choices", id, label)
	}
	return fmt.Errorf("unknown question %q", id)
}
