package services

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

func fiveScores(sales, payments, inventory, banking, management float64) []entities.CategoryScore {
	return []entities.CategoryScore{
		{Key: "sales", Name: "Sales & Collections", Score: sales},
		{Key: "payments", Name: "Payments & Purchasing", Score: payments},
		{Key: "inventory", Name: "Inventory & Fixed Costs", Score: inventory},
		{Key: "banking", Name: "Borrowing & Bank Relations", Score: banking},
		{Key: "management", Name: "Cash Management System", Score: management},
	}
}

func TestClassifier_Signal(t *testing.T) {
	c := NewClassifier(defaultQuestionnaire(t), DefaultThresholds())

	tests := []struct {
		overall float64
		want    entities.SignalLevel
	}{
		{overall: 5.0, want: entities.SignalGood},
		{overall: 4.0, want: entities.SignalGood},
		{overall: 3.99, want: entities.SignalCaution},
		{overall: 2.6, want: entities.SignalCaution},
		{overall: 2.59, want: entities.SignalRisk},
		{overall: 1.0, want: entities.SignalRisk},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Signal(tt.overall), "overall %.2f", tt.overall)
	}
}

func TestClassifier_Risk(t *testing.T) {
	c := NewClassifier(defaultQuestionnaire(t), DefaultThresholds())

	assert.Equal(t, entities.RiskHigh, c.Risk(1.99))
	assert.Equal(t, entities.RiskMedium, c.Risk(2.0))
	assert.Equal(t, entities.RiskMedium, c.Risk(3.49))
	assert.Equal(t, entities.RiskLow, c.Risk(3.5))
}

func TestClassifier_Type(t *testing.T) {
	c := NewClassifier(defaultQuestionnaire(t), DefaultThresholds())

	tests := []struct {
		name   string
		scores []entities.CategoryScore
		want   string
	}{
		{name: "all healthy is balanced", scores: fiveScores(5, 5, 4, 4, 5), want: "Well-Balanced"},
		{name: "weakest category wins", scores: fiveScores(5, 5, 5, 2, 5), want: "Weak Bank Relations"},
		{name: "one category under healthy threshold", scores: fiveScores(5, 5, 3.99, 5, 5), want: "Inventory / Fixed-Cost Heavy"},
		{name: "tie goes to first declared", scores: fiveScores(5, 3, 5, 3, 5), want: "Payment-Squeezed"},
		{name: "all low ties to first category", scores: fiveScores(1, 1, 1, 1, 1), want: "Sales-Dependent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Type(tt.scores).Label)
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(defaultQuestionnaire(t), DefaultThresholds())

	got := c.Classify(fiveScores(5, 5, 5, 5, 5))
	assert.Equal(t, entities.SignalGood, got.Signal)
	assert.Equal(t, "balanced", got.TypeKey)
	assert.Equal(t, 5.0, got.Overall)
	assert.Equal(t, entities.RiskLow, got.Risk)
	assert.NotEmpty(t, got.Description)

	got = c.Classify(fiveScores(1, 1, 1, 1, 1))
	assert.Equal(t, entities.SignalRisk, got.Signal)
	assert.Equal(t, entities.RiskHigh, got.Risk)
}

func TestClassifier_WeakFirstCategoryWithGoodOverall(t *testing.T) {
	c := NewClassifier(defaultQuestionnaire(t), DefaultThresholds())

	got := c.Classify(fiveScores(1, 5, 5, 5, 5))
	assert.InDelta(t, 4.2, got.Overall, 1e-9)
	assert.Equal(t, entities.SignalGood, got.Signal)
	assert.Equal(t, "Sales-Dependent", got.TypeLabel)
}

func TestClassifier_IndependentOfScoreOrder(t *testing.T) {
	c := NewClassifier(defaultQuestionnaire(t), DefaultThresholds())

	sets := [][]entities.CategoryScore{
		fiveScores(5, 3, 5, 3, 5),
		fiveScores(2, 4, 2, 4.5, 5),
		fiveScores(1, 1, 1, 1, 1),
		fiveScores(4, 4, 4, 4, 4),
		fiveScores(5, 4.5, 3.25, 3.25, 3.25),
	}
	for _, scores := range sets {
		want := c.Classify(scores)

		reversed := slices.Clone(scores)
		slices.Reverse(reversed)
		assert.Equal(t, want, c.Classify(reversed))

		for shift := 1; shift < len(scores); shift++ {
			rotated := append(slices.Clone(scores[shift:]), scores[:shift]...)
			assert.Equal(t, want, c.Classify(rotated), "rotation %d", shift)
		}
	}
}
