package entities

// SignalLevel is the three-band traffic light. Higher is healthier.
type SignalLevel int

const (
	SignalRisk SignalLevel = iota
	SignalCaution
	SignalGood
)

// String returns the machine name of the level.
func (s SignalLevel) String() string {
	switch s {
	case SignalGood:
		return "good"
	case SignalCaution:
		return "caution"
	default:
		return "risk"
	}
}

// Color is the traffic light colour shown to the respondent.
func (s SignalLevel) Color() string {
	switch s {
	case SignalGood:
		return "blue"
	case SignalCaution:
		return "yellow"
	default:
		return "red"
	}
}

// Label is the display label, e.g. "Blue signal".
func (s SignalLevel) Label() string {
	switch s {
	case SignalGood:
		return "Blue signal"
	case SignalCaution:
		return "Yellow signal"
	default:
		return "Red signal"
	}
}

// MarshalText encodes the level by name.
func (s SignalLevel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a level name.
func (s *SignalLevel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "good":
		*s = SignalGood
	case "caution":
		*s = SignalCaution
	default:
		*s = SignalRisk
	}
	return nil
}

// RiskLevel is a coarse summary of the overall score for reporting.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High risk"
	RiskMedium RiskLevel = "Medium risk"
	RiskLow    RiskLevel = "Low risk"
)

// Classification is the outcome of rule-based categorisation.
type Classification struct {
	Signal      SignalLevel `json:"signal"`
	TypeKey     string      `json:"type_key"`
	TypeLabel   string      `json:"type_label"`
	Description string      `json:"description"`
	Overall     float64     `json:"overall"`
	Risk        RiskLevel   `json:"risk_level"`
}
