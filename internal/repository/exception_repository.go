package repository

import (
	"database/sql"
	"fmt"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type ExceptionRepository interface {
	Create(exc *domain.ReconciliationException) error
	Update(exc *domain.ReconciliationException) error
	GetByExceptionID(exceptionID string) (*domain.ReconciliationException, error)
	ListByStatus(status domain.ExceptionStatus) ([]domain.ReconciliationException, error)
	ExistsOpenForTransaction(transactionID string, kind domain.ExceptionKind) (bool, error)
}

type exceptionRepository struct {
	db *sql.DB
}

func NewExceptionRepository(db *sql.DB) ExceptionRepository {
	return &exceptionRepository{db: db}
}

const exceptionColumns = `
	id, exception_id, account_id, transaction_id, kind, severity, status,
	details, resolved_by, resolved_at, notes, created_at, updated_at
`

func (r *exceptionRepository) Create(exc *domain.ReconciliationException) error {
	query := `
		INSERT INTO reconciliation_exceptions (
			exception_id, account_id, transaction_id, kind, severity, status, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		exc.ExceptionID,
		exc.AccountID,
		exc.TransactionID,
		exc.Kind,
		exc.Severity,
		exc.Status,
		exc.Details,
	).Scan(&exc.ID, &exc.CreatedAt, &exc.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create reconciliation exception")
		return err
	}

	return nil
}

func (r *exceptionRepository) Update(exc *domain.ReconciliationException) error {
	query := `
		UPDATE reconciliation_exceptions
		SET status = $1, resolved_by = $2, resolved_at = $3, notes = $4, updated_at = NOW()
		WHERE exception_id = $5
	`

	result, err := r.db.Exec(query, exc.Status, exc.ResolvedBy, exc.ResolvedAt, exc.Notes, exc.ExceptionID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update reconciliation exception")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("exception %s: %w", exc.ExceptionID, domain.ErrNotFound)
	}

	return nil
}

func (r *exceptionRepository) GetByExceptionID(exceptionID string) (*domain.ReconciliationException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM reconciliation_exceptions WHERE exception_id = $1`

	exc, err := scanException(r.db.QueryRow(query, exceptionID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("exception %s: %w", exceptionID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get reconciliation exception")
		return nil, err
	}

	return exc, nil
}

func (r *exceptionRepository) ListByStatus(status domain.ExceptionStatus) ([]domain.ReconciliationException, error) {
	query := `
		SELECT ` + exceptionColumns + `
		FROM reconciliation_exceptions
		WHERE status = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(query, status)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query reconciliation exceptions")
		return nil, err
	}
	defer rows.Close()

	var exceptions []domain.ReconciliationException
	for rows.Next() {
		exc, err := scanException(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan reconciliation exception")
			continue
		}
		exceptions = append(exceptions, *exc)
	}

	return exceptions, rows.Err()
}

// ExistsOpenForTransaction keeps the aging sweep from re-raising the same
// exception on every run.
func (r *exceptionRepository) ExistsOpenForTransaction(transactionID string, kind domain.ExceptionKind) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reconciliation_exceptions
			WHERE transaction_id = $1 AND kind = $2 AND status IN ($3, $4)
		)
	`

	var exists bool
	err := r.db.QueryRow(query, transactionID, kind, domain.ExceptionOpen, domain.ExceptionInvestigating).Scan(&exists)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to check open exception")
		return false, err
	}

	return exists, nil
}

func scanException(row rowScanner) (*domain.ReconciliationException, error) {
	var exc domain.ReconciliationException

	err := row.Scan(
		&exc.ID,
		&exc.ExceptionID,
		&exc.AccountID,
		&exc.TransactionID,
		&exc.Kind,
		&exc.Severity,
		&exc.Status,
		&exc.Details,
		&exc.ResolvedBy,
		&exc.ResolvedAt,
		&exc.Notes,
		&exc.CreatedAt,
		&exc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &exc, nil
}
