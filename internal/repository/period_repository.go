package repository

import (
	"database/sql"
	"fmt"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type PeriodRepository interface {
	Create(period *domain.ReconciliationPeriod) error
	Update(period *domain.ReconciliationPeriod) error
	GetByPeriodID(periodID string) (*domain.ReconciliationPeriod, error)
	GetLatestClosed(accountID string) (*domain.ReconciliationPeriod, error)
}

type periodRepository struct {
	db *sql.DB
}

func NewPeriodRepository(db *sql.DB) PeriodRepository {
	return &periodRepository{db: db}
}

const periodColumns = `
	id, period_id, account_id, start_date, end_date, opening_balance,
	closing_balance, statement_balance, total_transactions, matched_count,
	unmatched_count, total_variance, status, closed_by, reviewed_by,
	created_at, updated_at
`

func (r *periodRepository) Create(period *domain.ReconciliationPeriod) error {
	query := `
		INSERT INTO reconciliation_periods (
			period_id, account_id, start_date, end_date, opening_balance,
			closing_balance, statement_balance, total_transactions,
			matched_count, unmatched_count, total_variance, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		period.PeriodID,
		period.AccountID,
		period.StartDate,
		period.EndDate,
		period.OpeningBalance,
		period.ClosingBalance,
		period.StatementBalance,
		period.TotalTransactions,
		period.MatchedCount,
		period.UnmatchedCount,
		period.TotalVariance,
		period.Status,
	).Scan(&period.ID, &period.CreatedAt, &period.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create reconciliation period")
		return err
	}

	return nil
}

func (r *periodRepository) Update(period *domain.ReconciliationPeriod) error {
	query := `
		UPDATE reconciliation_periods
		SET closing_balance = $1, statement_balance = $2, total_transactions = $3,
			matched_count = $4, unmatched_count = $5, total_variance = $6,
			status = $7, closed_by = $8, reviewed_by = $9, updated_at = NOW()
		WHERE period_id = $10
	`

	result, err := r.db.Exec(
		query,
		period.ClosingBalance,
		period.StatementBalance,
		period.TotalTransactions,
		period.MatchedCount,
		period.UnmatchedCount,
		period.TotalVariance,
		period.Status,
		period.ClosedBy,
		period.ReviewedBy,
		period.PeriodID,
	)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update reconciliation period")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("period %s: %w", period.PeriodID, domain.ErrNotFound)
	}

	return nil
}

func (r *periodRepository) GetByPeriodID(periodID string) (*domain.ReconciliationPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM reconciliation_periods WHERE period_id = $1`

	period, err := scanPeriod(r.db.QueryRow(query, periodID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("period %s: %w", periodID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get reconciliation period")
		return nil, err
	}

	return period, nil
}

// GetLatestClosed returns the most recently ended non-open period for the
// account, used to chain opening balances. Returns ErrNotFound when the
// account has no closed period yet.
func (r *periodRepository) GetLatestClosed(accountID string) (*domain.ReconciliationPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM reconciliation_periods
		WHERE account_id = $1 AND status <> $2
		ORDER BY end_date DESC, id DESC
		LIMIT 1
	`

	period, err := scanPeriod(r.db.QueryRow(query, accountID, domain.PeriodInProgress))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no closed period for account %s: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get latest closed period")
		return nil, err
	}

	return period, nil
}

func scanPeriod(row rowScanner) (*domain.ReconciliationPeriod, error) {
	var period domain.ReconciliationPeriod

	err := row.Scan(
		&period.ID,
		&period.PeriodID,
		&period.AccountID,
		&period.StartDate,
		&period.EndDate,
		&period.OpeningBalance,
		&period.ClosingBalance,
		&period.StatementBalance,
		&period.TotalTransactions,
		&period.MatchedCount,
		&period.UnmatchedCount,
		&period.TotalVariance,
		&period.Status,
		&period.ClosedBy,
		&period.ReviewedBy,
		&period.CreatedAt,
		&period.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &period, nil
}
