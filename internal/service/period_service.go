package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/repository"
	"bankrecon/pkg/logger"
)

type PeriodService interface {
	Open(accountID string, statementBalance decimal.Decimal, start, end time.Time) (*domain.ReconciliationPeriod, error)
	Close(periodID string, actor domain.Actor) (*domain.ReconciliationPeriod, error)
	Review(periodID string, reviewer domain.Actor) (*domain.ReconciliationPeriod, error)
	Get(periodID string) (*domain.ReconciliationPeriod, error)
}

type periodService struct {
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	periodRepo  repository.PeriodRepository
}

func NewPeriodService(
	accountRepo repository.AccountRepository,
	txRepo repository.TransactionRepository,
	periodRepo repository.PeriodRepository,
) PeriodService {
	return &periodService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		periodRepo:  periodRepo,
	}
}

// Open starts a reconciliation period. The opening balance chains from the
// previous period's closing balance, or the account's opening balance for the
// first period; the statement balance is supplied by the caller from the
// external statement.
func (s *periodService) Open(accountID string, statementBalance decimal.Decimal, start, end time.Time) (*domain.ReconciliationPeriod, error) {
	if start.IsZero() || end.IsZero() {
		return nil, &domain.ValidationError{Field: "period", Reason: "start and end dates are required"}
	}
	if !start.Before(end) {
		return nil, &domain.ValidationError{Field: "period", Reason: "start date must be before end date"}
	}

	account, err := s.accountRepo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}

	opening := account.OpeningBalance
	previous, err := s.periodRepo.GetLatestClosed(account.AccountID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if previous != nil {
		opening = previous.ClosingBalance
	}

	period := &domain.ReconciliationPeriod{
		PeriodID:         uuid.New().String(),
		AccountID:        account.AccountID,
		StartDate:        start,
		EndDate:          end,
		OpeningBalance:   opening,
		ClosingBalance:   opening,
		StatementBalance: statementBalance,
		TotalVariance:    decimal.Zero,
		Status:           domain.PeriodInProgress,
	}

	if err := s.periodRepo.Create(period); err != nil {
		return nil, fmt.Errorf("failed to open period: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"period_id":  period.PeriodID,
		"account_id": accountID,
		"start":      start.Format("2006-01-02"),
		"end":        end.Format("2006-01-02"),
	}).Info("Reconciliation period opened")

	return period, nil
}

// Close recomputes the closing balance from the transactions inside the
// window and records the variance against the statement balance. Nonzero
// variance is not an error; it just has to be visible. Closing also performs
// the only balance mutation on the account itself.
func (s *periodService) Close(periodID string, actor domain.Actor) (*domain.ReconciliationPeriod, error) {
	if actor.ID == "" {
		return nil, &domain.ValidationError{Field: "actor_id", Reason: "actor is required to close a period"}
	}

	period, err := s.periodRepo.GetByPeriodID(periodID)
	if err != nil {
		return nil, err
	}

	if period.Status != domain.PeriodInProgress {
		return nil, fmt.Errorf("period %s is %s: %w", periodID, period.Status, domain.ErrPeriodAlreadyClosed)
	}

	transactions, err := s.txRepo.ListByAccountAndDateRange(period.AccountID, period.StartDate, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load period transactions: %w", err)
	}

	closing := period.OpeningBalance
	matched, unmatched := 0, 0
	for i := range transactions {
		tx := &transactions[i]
		closing = closing.Add(tx.Amount)

		switch tx.Status {
		case domain.StatusMatched, domain.StatusPartiallyMatched, domain.StatusManualMatch:
			matched++
		case domain.StatusUnmatched:
			unmatched++
		}
	}

	period.ClosingBalance = closing
	period.TotalVariance = period.StatementBalance.Sub(closing)
	period.TotalTransactions = len(transactions)
	period.MatchedCount = matched
	period.UnmatchedCount = unmatched
	period.Status = domain.PeriodCompleted
	period.ClosedBy = &actor.ID

	if err := s.periodRepo.Update(period); err != nil {
		return nil, err
	}

	if err := s.accountRepo.SetReconciled(period.AccountID, closing, closing, period.EndDate); err != nil {
		return nil, fmt.Errorf("failed to update account balances: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"period_id":       period.PeriodID,
		"closing_balance": closing.String(),
		"variance":        period.TotalVariance.String(),
		"closed_by":       actor.ID,
	}).Info("Reconciliation period closed")

	return period, nil
}

// Review applies the four-eyes transition: the reviewer must differ from
// whoever closed the period. On rejection the period stays COMPLETED.
func (s *periodService) Review(periodID string, reviewer domain.Actor) (*domain.ReconciliationPeriod, error) {
	if reviewer.ID == "" {
		return nil, &domain.ValidationError{Field: "reviewer_id", Reason: "reviewer is required"}
	}

	period, err := s.periodRepo.GetByPeriodID(periodID)
	if err != nil {
		return nil, err
	}

	if period.Status == domain.PeriodReviewed {
		return nil, fmt.Errorf("period %s already reviewed: %w", periodID, domain.ErrPeriodAlreadyClosed)
	}
	if period.Status != domain.PeriodCompleted {
		return nil, &domain.ValidationError{Field: "period", Reason: "period must be closed before review"}
	}

	if period.ClosedBy != nil && *period.ClosedBy == reviewer.ID {
		return nil, fmt.Errorf("period %s: %w", periodID, domain.ErrSelfReviewNotAllowed)
	}

	period.Status = domain.PeriodReviewed
	period.ReviewedBy = &reviewer.ID

	if err := s.periodRepo.Update(period); err != nil {
		return nil, err
	}

	return period, nil
}

func (s *periodService) Get(periodID string) (*domain.ReconciliationPeriod, error) {
	return s.periodRepo.GetByPeriodID(periodID)
}
