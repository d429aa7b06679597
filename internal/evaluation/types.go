package evaluation

// Case is a labeled answer set with the classification it must produce.
type Case struct {
	ID             string            `json:"id" yaml:"id"`
	Description    string            `json:"description,omitempty" yaml:"description"`
	Answers        map[string]string `json:"answers" yaml:"answers"`
	ExpectedType   string            `json:"expected_type" yaml:"expected_type"`
	ExpectedSignal string            `json:"expected_signal,omitempty" yaml:"expected_signal"` // good, caution, risk
	ExpectedRisk   string            `json:"expected_risk,omitempty" yaml:"expected_risk"`
}

// CaseResult holds the outcome for a single case.
type CaseResult struct {
	ID          string  `json:"id"`
	GotType     string  `json:"got_type"`
	GotSignal   string  `json:"got_signal"`
	GotRisk     string  `json:"got_risk"`
	Overall     float64 `json:"overall"`
	TypeMatch   bool    `json:"type_match"`
	SignalMatch bool    `json:"signal_match"`
	RiskMatch   bool    `json:"risk_match"`
}

// Passed reports whether every stated expectation matched.
func (r CaseResult) Passed() bool {
	return r.TypeMatch && r.SignalMatch && r.RiskMatch
}

// Summary holds aggregate accuracy across all cases.
type Summary struct {
	TotalCases     int                     `json:"total_cases"`
	PassedCases    int                     `json:"passed_cases"`
	TypeAccuracy   float64                 `json:"type_accuracy"`
	SignalAccuracy float64                 `json:"signal_accuracy"`
	RiskAccuracy   float64                 `json:"risk_accuracy"`
	ByType         map[string]*TypeSummary `json:"by_type"`
	Confusion      Confusion               `json:"confusion"`
	Failures       []CaseResult            `json:"failures,omitempty"`
}

// TypeSummary holds recall for one expected type.
type TypeSummary struct {
	Count   int     `json:"count"`
	Correct int     `json:"correct"`
	Recall  float64 `json:"recall"`
}
