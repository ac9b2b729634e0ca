package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type AccountRepository interface {
	Create(account *domain.Account) error
	GetByAccountID(accountID string) (*domain.Account, error)
	SetReconciled(accountID string, currentBalance, lastReconciledBalance decimal.Decimal, reconciledAt time.Time) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *domain.Account) error {
	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	// One primary account per institution.
	if account.IsPrimary {
		_, err = tx.Exec(
			`UPDATE accounts SET is_primary = false WHERE institution = $1 AND is_primary = true`,
			account.Institution,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to clear primary flag")
			return err
		}
	}

	query := `
		INSERT INTO accounts (
			account_id, name, number, institution, currency,
			opening_balance, current_balance, last_reconciled_balance,
			is_active, is_primary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		query,
		account.AccountID,
		account.Name,
		account.Number,
		account.Institution,
		account.Currency,
		account.OpeningBalance,
		account.CurrentBalance,
		account.LastReconciledBalance,
		account.IsActive,
		account.IsPrimary,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create account")
		return err
	}

	return tx.Commit()
}

func (r *accountRepository) GetByAccountID(accountID string) (*domain.Account, error) {
	query := `
		SELECT id, account_id, name, number, institution, currency,
			   opening_balance, current_balance, last_reconciled_balance,
			   last_reconciled_date, is_active, is_primary, created_at, updated_at
		FROM accounts
		WHERE account_id = $1
	`

	var account domain.Account
	err := r.db.QueryRow(query, accountID).Scan(
		&account.ID,
		&account.AccountID,
		&account.Name,
		&account.Number,
		&account.Institution,
		&account.Currency,
		&account.OpeningBalance,
		&account.CurrentBalance,
		&account.LastReconciledBalance,
		&account.LastReconciledDate,
		&account.IsActive,
		&account.IsPrimary,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get account")
		return nil, err
	}

	return &account, nil
}

// SetReconciled is the only balance mutation: it runs at period closure.
func (r *accountRepository) SetReconciled(accountID string, currentBalance, lastReconciledBalance decimal.Decimal, reconciledAt time.Time) error {
	query := `
		UPDATE accounts
		SET current_balance = $1, last_reconciled_balance = $2,
			last_reconciled_date = $3, updated_at = NOW()
		WHERE account_id = $4
	`

	result, err := r.db.Exec(query, currentBalance, lastReconciledBalance, reconciledAt, accountID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update account balances")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}

	return nil
}
