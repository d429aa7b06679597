// Package questionnaire loads the diagnosis definition: answer scale,
// choice families, categories, questions and business-type texts.
package questionnaire

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

//go:embed default.yaml
var defaultDefinition []byte

// Default returns the built-in questionnaire.
func Default() (*entities.Questionnaire, error) {
	return Parse(defaultDefinition)
}

// Load reads a questionnaire from path, or returns Default when path is empty.
func Load(path string) (*entities.Questionnaire, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire %s: %w", path, err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire %s: %w", path, err)
	}
	return q, nil
}

// Parse decodes and validates a YAML definition. Unknown keys are rejected.
func Parse(data []byte) (*entities.Questionnaire, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var q entities.Questionnaire
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire: %w", err)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid questionnaire: %w", err)
	}
	return &q, nil
}
