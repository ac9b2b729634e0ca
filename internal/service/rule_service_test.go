package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankrecon/internal/domain"
)

func validRule() *domain.MatchingRule {
	return &domain.MatchingRule{
		Name:               "settlement match",
		Priority:           1,
		TargetEntityType:   domain.EntityPayment,
		AmountToleranceAbsolute: decimal.NewFromInt(50),
		DateToleranceDays:  2,
		MinConfidenceScore: 0.8,
	}
}

func TestRuleCreate_AssignsIDAndActivates(t *testing.T) {
	repo := &fakeRuleRepo{}
	svc := NewRuleService(repo)

	rule := validRule()
	require.NoError(t, svc.Create(rule))

	assert.NotEmpty(t, rule.RuleID)
	assert.True(t, rule.IsActive)

	active, err := svc.ListActive()
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestRuleCreate_InvalidConfigurationRejected(t *testing.T) {
	svc := NewRuleService(&fakeRuleRepo{})

	rule := validRule()
	rule.MinConfidenceScore = 1.5
	err := svc.Create(rule)
	require.Error(t, err)
	assert.True(t, domain.IsRuleConfiguration(err))

	rule = validRule()
	rule.ReferencePattern = "["
	err = svc.Create(rule)
	require.Error(t, err)
	assert.True(t, domain.IsRuleConfiguration(err))

	rule = validRule()
	rule.AmountTolerancePercentage = decimal.NewFromFloat(1.2)
	err = svc.Create(rule)
	require.Error(t, err)
	assert.True(t, domain.IsRuleConfiguration(err))
}
