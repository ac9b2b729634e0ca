package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_Terminal(t *testing.T) {
	assert.False(t, StatusUnmatched.Terminal())

	for _, s := range []TransactionStatus{StatusMatched, StatusPartiallyMatched, StatusManualMatch, StatusDisputed, StatusIgnored} {
		assert.True(t, s.Terminal(), string(s))
	}
}

func TestTransactionStatus_Transitions(t *testing.T) {
	// UNMATCHED may move anywhere.
	for _, next := range []TransactionStatus{StatusMatched, StatusPartiallyMatched, StatusManualMatch, StatusDisputed, StatusIgnored} {
		assert.True(t, StatusUnmatched.CanTransitionTo(next), string(next))
	}

	// Partial allocations stay open for completion or reopening only.
	assert.True(t, StatusPartiallyMatched.CanTransitionTo(StatusMatched))
	assert.True(t, StatusPartiallyMatched.CanTransitionTo(StatusManualMatch))
	assert.True(t, StatusPartiallyMatched.CanTransitionTo(StatusUnmatched))
	assert.False(t, StatusPartiallyMatched.CanTransitionTo(StatusDisputed))

	// Terminal states reopen to UNMATCHED and nothing else.
	for _, s := range []TransactionStatus{StatusMatched, StatusManualMatch, StatusDisputed, StatusIgnored} {
		assert.True(t, s.CanTransitionTo(StatusUnmatched), string(s))
		assert.False(t, s.CanTransitionTo(StatusMatched) && s != StatusMatched, string(s))
		assert.False(t, s.CanTransitionTo(StatusDisputed) && s != StatusDisputed, string(s))
	}
}

func TestBankTransaction_AbsAmount(t *testing.T) {
	debit := BankTransaction{Amount: decimal.NewFromInt(-1200), Direction: Debit}
	credit := BankTransaction{Amount: decimal.NewFromInt(5000), Direction: Credit}

	assert.True(t, debit.AbsAmount().Equal(decimal.NewFromInt(1200)))
	assert.True(t, credit.AbsAmount().Equal(decimal.NewFromInt(5000)))
}
