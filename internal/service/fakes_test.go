package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
)

// In-memory repository fakes shared by the service tests. They keep the same
// ordering guarantees as the SQL implementations where the services depend on
// them (unmatched listings come back oldest first).

type fakeAccountRepo struct {
	accounts map[string]*domain.Account
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: map[string]*domain.Account{}}
	for _, acc := range accounts {
		repo.accounts[acc.AccountID] = acc
	}
	return repo
}

func (r *fakeAccountRepo) Create(account *domain.Account) error {
	r.accounts[account.AccountID] = account
	return nil
}

func (r *fakeAccountRepo) GetByAccountID(accountID string) (*domain.Account, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	copied := *acc
	return &copied, nil
}

func (r *fakeAccountRepo) SetReconciled(accountID string, currentBalance, lastReconciledBalance decimal.Decimal, reconciledAt time.Time) error {
	acc, ok := r.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	acc.CurrentBalance = currentBalance
	acc.LastReconciledBalance = lastReconciledBalance
	acc.LastReconciledDate = &reconciledAt
	return nil
}

type fakeTransactionRepo struct {
	transactions []*domain.BankTransaction
	createErr    error
}

func (r *fakeTransactionRepo) Create(tx *domain.BankTransaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	copied := *tx
	r.transactions = append(r.transactions, &copied)
	return nil
}

func (r *fakeTransactionRepo) GetByTransactionID(transactionID string) (*domain.BankTransaction, error) {
	for _, tx := range r.transactions {
		if tx.TransactionID == transactionID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
}

func (r *fakeTransactionRepo) ExistsByNaturalKey(accountID, externalRef string, date time.Time) (bool, error) {
	for _, tx := range r.transactions {
		if tx.AccountID == accountID && tx.ExternalRef == externalRef &&
			tx.Date.Format("2006-01-02") == date.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTransactionRepo) ListUnmatched(accountID string) ([]domain.BankTransaction, error) {
	var out []domain.BankTransaction
	for _, tx := range r.transactions {
		if tx.AccountID == accountID && tx.Status == domain.StatusUnmatched {
			out = append(out, *tx)
		}
	}
	sortByDate(out)
	return out, nil
}

func (r *fakeTransactionRepo) ListUnmatchedOlderThan(accountID string, before time.Time) ([]domain.BankTransaction, error) {
	var out []domain.BankTransaction
	for _, tx := range r.transactions {
		if tx.AccountID == accountID && tx.Status == domain.StatusUnmatched && tx.Date.Before(before) {
			out = append(out, *tx)
		}
	}
	sortByDate(out)
	return out, nil
}

func (r *fakeTransactionRepo) ListByAccountAndDateRange(accountID string, start, end time.Time) ([]domain.BankTransaction, error) {
	var out []domain.BankTransaction
	for _, tx := range r.transactions {
		if tx.AccountID == accountID && !tx.Date.Before(start) && !tx.Date.After(end) {
			out = append(out, *tx)
		}
	}
	sortByDate(out)
	return out, nil
}

func (r *fakeTransactionRepo) UpdateStatus(transactionID string, status domain.TransactionStatus, variance decimal.Decimal, matchedDate *time.Time) error {
	for _, tx := range r.transactions {
		if tx.TransactionID == transactionID {
			tx.Status = status
			tx.Variance = variance
			tx.MatchedDate = matchedDate
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
}

func sortByDate(txs []domain.BankTransaction) {
	for i := 1; i < len(txs); i++ {
		for j := i; j > 0 && txs[j].Date.Before(txs[j-1].Date); j-- {
			txs[j], txs[j-1] = txs[j-1], txs[j]
		}
	}
}

type fakeMatchRepo struct {
	matches   []*domain.TransactionMatch
	createErr error
}

func (r *fakeMatchRepo) Create(match *domain.TransactionMatch) error {
	if r.createErr != nil {
		return r.createErr
	}
	copied := *match
	r.matches = append(r.matches, &copied)
	return nil
}

func (r *fakeMatchRepo) GetByMatchID(matchID string) (*domain.TransactionMatch, error) {
	for _, m := range r.matches {
		if m.MatchID == matchID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("match %s: %w", matchID, domain.ErrNotFound)
}

func (r *fakeMatchRepo) ListActiveByTransaction(transactionID string) ([]domain.TransactionMatch, error) {
	var out []domain.TransactionMatch
	for _, m := range r.matches {
		if m.TransactionID == transactionID && m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) FindActive(transactionID string, entityType domain.EntityType, entityID string) (*domain.TransactionMatch, error) {
	for _, m := range r.matches {
		if m.TransactionID == transactionID && m.EntityType == entityType && m.EntityID == entityID && m.IsActive {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeMatchRepo) ListActiveEntityIDs() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, m := range r.matches {
		if m.IsActive && !seen[m.EntityID] {
			seen[m.EntityID] = true
			out = append(out, m.EntityID)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) Deactivate(matchID string) error {
	for _, m := range r.matches {
		if m.MatchID == matchID {
			m.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("match %s: %w", matchID, domain.ErrNotFound)
}

type fakeRuleRepo struct {
	rules []domain.MatchingRule
}

func (r *fakeRuleRepo) Create(rule *domain.MatchingRule) error {
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeRuleRepo) GetByRuleID(ruleID string) (*domain.MatchingRule, error) {
	for i := range r.rules {
		if r.rules[i].RuleID == ruleID {
			copied := r.rules[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("rule %s: %w", ruleID, domain.ErrNotFound)
}

func (r *fakeRuleRepo) ListActive() ([]domain.MatchingRule, error) {
	var out []domain.MatchingRule
	for _, rule := range r.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

type fakeBatchRepo struct {
	batches map[string]*domain.ImportBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: map[string]*domain.ImportBatch{}}
}

func (r *fakeBatchRepo) Create(batch *domain.ImportBatch) error {
	copied := *batch
	r.batches[batch.BatchID] = &copied
	return nil
}

func (r *fakeBatchRepo) Update(batch *domain.ImportBatch) error {
	if _, ok := r.batches[batch.BatchID]; !ok {
		return fmt.Errorf("batch %s: %w", batch.BatchID, domain.ErrNotFound)
	}
	copied := *batch
	r.batches[batch.BatchID] = &copied
	return nil
}

func (r *fakeBatchRepo) GetByBatchID(batchID string) (*domain.ImportBatch, error) {
	batch, ok := r.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	copied := *batch
	return &copied, nil
}

type fakePeriodRepo struct {
	periods []*domain.ReconciliationPeriod
}

func (r *fakePeriodRepo) Create(period *domain.ReconciliationPeriod) error {
	copied := *period
	r.periods = append(r.periods, &copied)
	return nil
}

func (r *fakePeriodRepo) Update(period *domain.ReconciliationPeriod) error {
	for i, p := range r.periods {
		if p.PeriodID == period.PeriodID {
			copied := *period
			r.periods[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("period %s: %w", period.PeriodID, domain.ErrNotFound)
}

func (r *fakePeriodRepo) GetByPeriodID(periodID string) (*domain.ReconciliationPeriod, error) {
	for _, p := range r.periods {
		if p.PeriodID == periodID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("period %s: %w", periodID, domain.ErrNotFound)
}

func (r *fakePeriodRepo) GetLatestClosed(accountID string) (*domain.ReconciliationPeriod, error) {
	var latest *domain.ReconciliationPeriod
	for _, p := range r.periods {
		if p.AccountID != accountID || p.Status == domain.PeriodInProgress {
			continue
		}
		if latest == nil || p.EndDate.After(latest.EndDate) {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no closed period for %s: %w", accountID, domain.ErrNotFound)
	}
	copied := *latest
	return &copied, nil
}

type fakeExceptionRepo struct {
	exceptions []*domain.ReconciliationException
}

func (r *fakeExceptionRepo) Create(exc *domain.ReconciliationException) error {
	copied := *exc
	r.exceptions = append(r.exceptions, &copied)
	return nil
}

func (r *fakeExceptionRepo) Update(exc *domain.ReconciliationException) error {
	for i, e := range r.exceptions {
		if e.ExceptionID == exc.ExceptionID {
			copied := *exc
			r.exceptions[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("exception %s: %w", exc.ExceptionID, domain.ErrNotFound)
}

func (r *fakeExceptionRepo) GetByExceptionID(exceptionID string) (*domain.ReconciliationException, error) {
	for _, e := range r.exceptions {
		if e.ExceptionID == exceptionID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("exception %s: %w", exceptionID, domain.ErrNotFound)
}

func (r *fakeExceptionRepo) ListByStatus(status domain.ExceptionStatus) ([]domain.ReconciliationException, error) {
	var out []domain.ReconciliationException
	for _, e := range r.exceptions {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExceptionRepo) ExistsOpenForTransaction(transactionID string, kind domain.ExceptionKind) (bool, error) {
	for _, e := range r.exceptions {
		if e.TransactionID != nil && *e.TransactionID == transactionID && e.Kind == kind && e.Status == domain.ExceptionOpen {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeExceptionRepo) kinds() []domain.ExceptionKind {
	out := make([]domain.ExceptionKind, 0, len(r.exceptions))
	for _, e := range r.exceptions {
		out = append(out, e.Kind)
	}
	return out
}

type fakePayableRepo struct {
	records []domain.PayableRecord
}

func (r *fakePayableRepo) ListByTypeAndDateRange(entityType domain.EntityType, from, to time.Time) ([]domain.PayableRecord, error) {
	var out []domain.PayableRecord
	for _, rec := range r.records {
		if rec.EntityType == entityType && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func testAccount() *domain.Account {
	return &domain.Account{
		AccountID:             "acc-1",
		Name:                  "Settlement account",
		Number:                "0011223344",
		Institution:           "First Bank",
		Currency:              "KES",
		OpeningBalance:        decimal.NewFromInt(10000),
		CurrentBalance:        decimal.NewFromInt(10000),
		LastReconciledBalance: decimal.NewFromInt(10000),
		IsActive:              true,
	}
}
