package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type TransactionRepository interface {
	Create(tx *domain.BankTransaction) error
	GetByTransactionID(transactionID string) (*domain.BankTransaction, error)
	ExistsByNaturalKey(accountID, externalRef string, date time.Time) (bool, error)
	ListUnmatched(accountID string) ([]domain.BankTransaction, error)
	ListUnmatchedOlderThan(accountID string, before time.Time) ([]domain.BankTransaction, error)
	ListByAccountAndDateRange(accountID string, start, end time.Time) ([]domain.BankTransaction, error)
	UpdateStatus(transactionID string, status domain.TransactionStatus, variance decimal.Decimal, matchedDate *time.Time) error
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `
	id, transaction_id, account_id, date, value_date, external_ref, amount,
	direction, description, payer, payee, channel, source, raw_payload,
	status, variance, matched_date, created_at, updated_at
`

func (r *transactionRepository) Create(tx *domain.BankTransaction) error {
	query := `
		INSERT INTO bank_transactions (
			transaction_id, account_id, date, value_date, external_ref, amount,
			direction, description, payer, payee, channel, source, raw_payload,
			status, variance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		tx.TransactionID,
		tx.AccountID,
		tx.Date,
		tx.ValueDate,
		tx.ExternalRef,
		tx.Amount,
		tx.Direction,
		tx.Description,
		tx.Payer,
		tx.Payee,
		tx.Channel,
		tx.Source,
		nullableJSON(tx.RawPayload),
		tx.Status,
		tx.Variance,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)

	if err != nil {
		// The unique index on (account, external ref, date) backs the import
		// dedup check against concurrent batches.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("statement line %s: %w", tx.ExternalRef, domain.ErrDuplicateTransaction)
		}
		logger.GetLogger().WithError(err).WithField("external_ref", tx.ExternalRef).Error("Failed to create bank transaction")
		return err
	}

	return nil
}

func (r *transactionRepository) GetByTransactionID(transactionID string) (*domain.BankTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE transaction_id = $1`

	tx, err := scanTransaction(r.db.QueryRow(query, transactionID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get bank transaction")
		return nil, err
	}

	return tx, nil
}

// ExistsByNaturalKey checks the import dedup key (account, external ref, date).
func (r *transactionRepository) ExistsByNaturalKey(accountID, externalRef string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bank_transactions
			WHERE account_id = $1 AND external_ref = $2 AND date::date = $3::date
		)
	`

	var exists bool
	if err := r.db.QueryRow(query, accountID, externalRef, date).Scan(&exists); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to check natural key")
		return false, err
	}

	return exists, nil
}

func (r *transactionRepository) ListUnmatched(accountID string) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE account_id = $1 AND status = $2
		ORDER BY date, id
	`

	return r.list(query, accountID, domain.StatusUnmatched)
}

func (r *transactionRepository) ListUnmatchedOlderThan(accountID string, before time.Time) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE account_id = $1 AND status = $2 AND date < $3
		ORDER BY date, id
	`

	return r.list(query, accountID, domain.StatusUnmatched, before)
}

func (r *transactionRepository) ListByAccountAndDateRange(accountID string, start, end time.Time) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE account_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, id
	`

	return r.list(query, accountID, start, end)
}

func (r *transactionRepository) UpdateStatus(transactionID string, status domain.TransactionStatus, variance decimal.Decimal, matchedDate *time.Time) error {
	query := `
		UPDATE bank_transactions
		SET status = $1, variance = $2, matched_date = $3, updated_at = NOW()
		WHERE transaction_id = $4
	`

	result, err := r.db.Exec(query, status, variance, matchedDate, transactionID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update transaction status")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}

	return nil
}

func (r *transactionRepository) list(query string, args ...interface{}) ([]domain.BankTransaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query bank transactions")
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.BankTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan bank transaction")
			continue
		}
		transactions = append(transactions, *tx)
	}

	return transactions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.BankTransaction, error) {
	var tx domain.BankTransaction
	var payload sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.TransactionID,
		&tx.AccountID,
		&tx.Date,
		&tx.ValueDate,
		&tx.ExternalRef,
		&tx.Amount,
		&tx.Direction,
		&tx.Description,
		&tx.Payer,
		&tx.Payee,
		&tx.Channel,
		&tx.Source,
		&payload,
		&tx.Status,
		&tx.Variance,
		&tx.MatchedDate,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payload.Valid {
		tx.RawPayload = []byte(payload.String)
	}

	return &tx, nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
