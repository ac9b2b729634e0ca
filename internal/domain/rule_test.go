package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMatchingRule_AmountToleranceTakesWiderBound(t *testing.T) {
	rule := MatchingRule{
		AmountToleranceAbsolute:   decimal.NewFromInt(50),
		AmountTolerancePercentage: decimal.NewFromFloat(0.02),
	}

	// 2% of 1000 is 20, absolute 50 wins.
	assert.True(t, rule.AmountTolerance(decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(50)))

	// 2% of 10000 is 200, percentage wins.
	assert.True(t, rule.AmountTolerance(decimal.NewFromInt(10000)).Equal(decimal.NewFromInt(200)))

	// Negative candidate amounts use the magnitude.
	assert.True(t, rule.AmountTolerance(decimal.NewFromInt(-10000)).Equal(decimal.NewFromInt(200)))
}

func TestMatchingRule_Validate(t *testing.T) {
	valid := MatchingRule{
		RuleID:             "rule-1",
		TargetEntityType:   EntityPayment,
		AmountToleranceAbsolute: decimal.NewFromInt(10),
		MinConfidenceScore: 0.8,
	}
	assert.NoError(t, valid.Validate())

	broken := valid
	broken.AmountToleranceAbsolute = decimal.NewFromInt(-1)
	assert.Error(t, broken.Validate())

	broken = valid
	broken.DateToleranceDays = -1
	assert.Error(t, broken.Validate())

	broken = valid
	broken.MinConfidenceScore = -0.1
	assert.Error(t, broken.Validate())

	broken = valid
	broken.ReferencePattern = "("
	assert.Error(t, broken.Validate())

	broken = valid
	broken.TargetEntityType = ""
	assert.Error(t, broken.Validate())
}

func TestConfidenceForScore(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceForScore(0.95))
	assert.Equal(t, ConfidenceHigh, ConfidenceForScore(0.9))
	assert.Equal(t, ConfidenceMedium, ConfidenceForScore(0.8))
	assert.Equal(t, ConfidenceMedium, ConfidenceForScore(0.75))
	assert.Equal(t, ConfidenceLow, ConfidenceForScore(0.74))
}
