package evaluation

import (
	"errors"
	"fmt"
)

// GuardrailConfig sets the minimum accuracies a case set must reach.
type GuardrailConfig struct {
	MinTypeAccuracy   float64
	MinSignalAccuracy float64
	MinRiskAccuracy   float64
}

type Guardrails struct {
	config GuardrailConfig
}

// NewGuardrails requires perfect accuracy for any bound left at zero.
func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinTypeAccuracy <= 0 {
		config.MinTypeAccuracy = 1.0
	}
	if config.MinSignalAccuracy <= 0 {
		config.MinSignalAccuracy = 1.0
	}
	if config.MinRiskAccuracy <= 0 {
		config.MinRiskAccuracy = 1.0
	}
	return &Guardrails{config: config}
}

// Check returns an error naming every accuracy below its bound.
func (g *Guardrails) Check(s *Summary) error {
	var errs []error
	if s.TypeAccuracy < g.config.MinTypeAccuracy {
		errs = append(errs, fmt.Errorf("type accuracy %.3f below %.3f", s.TypeAccuracy, g.config.MinTypeAccuracy))
	}
	if s.SignalAccuracy < g.config.MinSignalAccuracy {
		errs = append(errs, fmt.Errorf("signal accuracy %.3f below %.3f", s.SignalAccuracy, g.config.MinSignalAccuracy))
	}
	if s.RiskAccuracy < g.config.MinRiskAccuracy {
		errs = append(errs, fmt.Errorf("risk accuracy %.3f below %.3f", s.RiskAccuracy, g.config.MinRiskAccuracy))
	}
	return errors.Join(errs...)
}
