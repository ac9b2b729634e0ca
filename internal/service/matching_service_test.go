package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankrecon/internal/config"
	"bankrecon/internal/domain"
)

type matchingFixture struct {
	svc       MatchingService
	txRepo    *fakeTransactionRepo
	matchRepo *fakeMatchRepo
	excRepo   *fakeExceptionRepo
}

func newMatchingFixture(rules []domain.MatchingRule, txs []*domain.BankTransaction, records []domain.PayableRecord) *matchingFixture {
	accountRepo := newFakeAccountRepo(testAccount())
	txRepo := &fakeTransactionRepo{transactions: txs}
	matchRepo := &fakeMatchRepo{}
	excRepo := &fakeExceptionRepo{}

	cfg := config.EngineConfig{
		UnmatchedAgeDays:       7,
		TightAmountTolerance:   0.01,
		TightDateToleranceDays: 1,
	}

	exceptions := NewExceptionService(excRepo, txRepo, cfg)
	applier := NewMatchService(txRepo, matchRepo)

	return &matchingFixture{
		svc: NewMatchingService(
			accountRepo, txRepo, &fakeRuleRepo{rules: rules}, matchRepo,
			&fakePayableRepo{records: records}, applier, exceptions, cfg,
		),
		txRepo:    txRepo,
		matchRepo: matchRepo,
		excRepo:   excRepo,
	}
}

func autoRule() domain.MatchingRule {
	return domain.MatchingRule{
		RuleID:             "rule-auto",
		Name:               "payment auto match",
		Priority:           1,
		TargetEntityType:   domain.EntityPayment,
		AmountToleranceAbsolute: decimal.NewFromInt(100),
		DateToleranceDays:  3,
		MinConfidenceScore: 0.6,
		AutoMatchEnabled:   true,
		IsActive:           true,
	}
}

func passTx(id string, amount float64, date time.Time) *domain.BankTransaction {
	tx := unmatchedTx(id, amount)
	tx.Date = date
	return tx
}

func payment(id string, amount float64, date time.Time) domain.PayableRecord {
	return domain.PayableRecord{
		ID:         id,
		EntityType: domain.EntityPayment,
		Amount:     decimal.NewFromFloat(amount),
		Date:       date,
	}
}

func TestRunPass_ExactMatchIsAutoApplied(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{passTx("txn-1", 5000, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	summary, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 0, summary.Proposed)
	assert.Equal(t, 0, summary.Unmatched)

	tx, _ := f.txRepo.GetByTransactionID("txn-1")
	assert.Equal(t, domain.StatusMatched, tx.Status)
	assert.True(t, tx.Variance.IsZero())

	require.Len(t, f.matchRepo.matches, 1)
	match := f.matchRepo.matches[0]
	assert.True(t, match.AutoMatched)
	assert.True(t, match.IsActive)
	assert.Equal(t, domain.ConfidenceHigh, match.Confidence)

	assert.Empty(t, f.excRepo.exceptions, "a clean match raises no variance exceptions")
}

func TestRunPass_ToleratedVarianceRaisesException(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{passTx("txn-1", 4950, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	summary, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)

	// The 50 delta clears the rule tolerance but not the tight one, so the
	// match stands and an AMOUNT_VARIANCE exception flags it for review.
	tx, _ := f.txRepo.GetByTransactionID("txn-1")
	assert.Equal(t, domain.StatusMatched, tx.Status)

	require.Len(t, f.excRepo.exceptions, 1)
	assert.Equal(t, domain.ExceptionAmountVariance, f.excRepo.exceptions[0].Kind)
	require.NotNil(t, f.excRepo.exceptions[0].TransactionID)
	assert.Equal(t, "txn-1", *f.excRepo.exceptions[0].TransactionID)
}

func TestRunPass_ToleratedVarianceClearsTightRuleThreshold(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rule := autoRule()
	rule.MinConfidenceScore = 0.8

	f := newMatchingFixture(
		[]domain.MatchingRule{rule},
		[]*domain.BankTransaction{passTx("txn-1", 4950, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	summary, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	// A candidate 50 short inside a tolerance of 100, on the right day, still
	// auto-applies under a 0.8 rule threshold and flags the delta for review.
	assert.Equal(t, 1, summary.Applied)

	tx, _ := f.txRepo.GetByTransactionID("txn-1")
	assert.Equal(t, domain.StatusMatched, tx.Status)

	require.Len(t, f.excRepo.exceptions, 1)
	assert.Equal(t, domain.ExceptionAmountVariance, f.excRepo.exceptions[0].Kind)
}

func TestRunPass_DateVarianceRaisesException(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{passTx("txn-1", 5000, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date.AddDate(0, 0, -2))},
	)

	_, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	require.Len(t, f.excRepo.exceptions, 1)
	assert.Equal(t, domain.ExceptionDateVariance, f.excRepo.exceptions[0].Kind)
}

func TestRunPass_NonAutoRuleProposesInsteadOfApplying(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rule := autoRule()
	rule.AutoMatchEnabled = false

	f := newMatchingFixture(
		[]domain.MatchingRule{rule},
		[]*domain.BankTransaction{passTx("txn-1", 5000, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	summary, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, 1, summary.Proposed)

	tx, _ := f.txRepo.GetByTransactionID("txn-1")
	assert.Equal(t, domain.StatusUnmatched, tx.Status, "a proposal does not move the transaction")

	require.Len(t, f.matchRepo.matches, 1)
	assert.False(t, f.matchRepo.matches[0].IsActive)
}

func TestRunPass_OldestTransactionClaimsSharedCandidate(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{
			passTx("txn-new", 5000, date.AddDate(0, 0, 1)),
			passTx("txn-old", 5000, date),
		},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	summary, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 1, summary.Unmatched)

	old, _ := f.txRepo.GetByTransactionID("txn-old")
	assert.Equal(t, domain.StatusMatched, old.Status)

	recent, _ := f.txRepo.GetByTransactionID("txn-new")
	assert.Equal(t, domain.StatusUnmatched, recent.Status,
		"candidate consumed by the older transaction is gone for the rest of the pass")
}

func TestRunPass_PreviouslyMatchedEntityIsExcluded(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{passTx("txn-1", 5000, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	// pay-1 already claimed by an active match from an earlier pass.
	f.matchRepo.matches = append(f.matchRepo.matches, &domain.TransactionMatch{
		MatchID:       "m-earlier",
		TransactionID: "txn-0",
		EntityType:    domain.EntityPayment,
		EntityID:      "pay-1",
		MatchedAmount: decimal.NewFromInt(5000),
		IsActive:      true,
	})

	summary, err := f.svc.RunPass(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, 1, summary.Unmatched)
}

func TestRunPass_RerunIsIdempotent(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{passTx("txn-1", 5000, date)},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	_, err := f.svc.RunPass(context.Background(), "acc-1")
	require.NoError(t, err)

	summary, err := f.svc.RunPass(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed, "matched transactions leave the unmatched pool")
	assert.Len(t, f.matchRepo.matches, 1)
}

func TestRunPass_CancelledContextStopsBetweenTransactions(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(
		[]domain.MatchingRule{autoRule()},
		[]*domain.BankTransaction{
			passTx("txn-1", 5000, date),
			passTx("txn-2", 700, date),
		},
		[]domain.PayableRecord{payment("pay-1", 5000, date)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.svc.RunPass(ctx, "acc-1")

	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, f.matchRepo.matches)
}

func TestRunPass_UnknownAccount(t *testing.T) {
	f := newMatchingFixture(nil, nil, nil)

	_, err := f.svc.RunPass(context.Background(), "acc-missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListUnmatched_HintsEntityTypeByDirection(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newMatchingFixture(nil, []*domain.BankTransaction{
		passTx("txn-in", 5000, date),
		passTx("txn-out", -1200, date.AddDate(0, 0, 1)),
	}, nil)

	listing, err := f.svc.ListUnmatched("acc-1")

	require.NoError(t, err)
	require.Len(t, listing, 2)
	assert.Equal(t, "txn-in", listing[0].TransactionID)
	assert.Equal(t, string(domain.EntityPayment), listing[0].PotentialMatchType)
	assert.Equal(t, string(domain.EntityExpense), listing[1].PotentialMatchType)
}
