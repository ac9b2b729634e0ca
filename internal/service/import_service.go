package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bankrecon/internal/domain"
	"bankrecon/internal/repository"
	"bankrecon/pkg/logger"
)

type ImportService interface {
	Import(ctx context.Context, accountID, source string, rows []domain.StatementRow) (*domain.ImportBatch, error)
	GetBatch(batchID string) (*domain.ImportBatch, error)
}

type importService struct {
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	batchRepo   repository.BatchRepository
	exceptions  ExceptionService
}

func NewImportService(
	accountRepo repository.AccountRepository,
	txRepo repository.TransactionRepository,
	batchRepo repository.BatchRepository,
	exceptions ExceptionService,
) ImportService {
	return &importService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		batchRepo:   batchRepo,
		exceptions:  exceptions,
	}
}

// Import turns already-parsed statement rows into UNMATCHED bank
// transactions. The operation is idempotent under re-submission: rows whose
// natural key (account, external ref, date) already exists are counted as
// duplicates and skipped without error. A malformed row is recorded with its
// parse error and never aborts the batch.
func (s *importService) Import(ctx context.Context, accountID, source string, rows []domain.StatementRow) (*domain.ImportBatch, error) {
	account, err := s.accountRepo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}

	batch := &domain.ImportBatch{
		BatchID:   uuid.New().String(),
		AccountID: account.AccountID,
		Source:    source,
		TotalRows: len(rows),
		Status:    domain.BatchProcessing,
	}

	if err := s.batchRepo.Create(batch); err != nil {
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"batch_id":   batch.BatchID,
		"account_id": accountID,
		"rows":       len(rows),
	}).Info("Starting statement import")

	aborted := false
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			msg := err.Error()
			batch.ErrorMessage = &msg
			aborted = true
			break
		}

		batch.ProcessedRows++

		if err := validateRow(&row); err != nil {
			batch.FailedRows++
			batch.RowErrors = append(batch.RowErrors, domain.RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		exists, err := s.txRepo.ExistsByNaturalKey(account.AccountID, row.ExternalRef, row.Date)
		if err != nil {
			batch.FailedRows++
			batch.RowErrors = append(batch.RowErrors, domain.RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		if exists {
			batch.DuplicateRows++
			s.raiseDuplicate(account.AccountID, &row)
			continue
		}

		tx := transactionFromRow(account.AccountID, source, &row)
		if err := s.txRepo.Create(tx); err != nil {
			// A concurrent batch can win the insert between the dedup check
			// and here; that is a duplicate, not a failure.
			if errors.Is(err, domain.ErrDuplicateTransaction) {
				batch.DuplicateRows++
				s.raiseDuplicate(account.AccountID, &row)
				continue
			}
			batch.FailedRows++
			batch.RowErrors = append(batch.RowErrors, domain.RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		batch.SuccessfulRows++
		s.extendDateRange(batch, row.Date)
	}

	// All valid rows are kept even when some failed; the failure count is the
	// flag, not a rollback trigger. A cancelled run is the one batch-level
	// failure: the remaining rows never got a look.
	batch.Status = domain.BatchCompleted
	if aborted {
		batch.Status = domain.BatchFailed
	}

	if err := s.batchRepo.Update(batch); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to finalize import batch")
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"batch_id":   batch.BatchID,
		"successful": batch.SuccessfulRows,
		"duplicates": batch.DuplicateRows,
		"failed":     batch.FailedRows,
	}).Info("Statement import completed")

	return batch, nil
}

func (s *importService) GetBatch(batchID string) (*domain.ImportBatch, error) {
	return s.batchRepo.GetByBatchID(batchID)
}

// raiseDuplicate records the cross-batch duplicate as an exception. Duplicates
// are not failures, so a problem raising the exception only logs.
func (s *importService) raiseDuplicate(accountID string, row *domain.StatementRow) {
	details := fmt.Sprintf("duplicate statement line %s on %s for %s",
		row.ExternalRef, row.Date.Format("2006-01-02"), row.Amount.String())

	if _, err := s.exceptions.Raise(accountID, nil, domain.ExceptionDuplicate, domain.SeverityLow, details); err != nil {
		logger.GetLogger().WithError(err).WithField("external_ref", row.ExternalRef).Warn("Failed to raise duplicate exception")
	}
}

func (s *importService) extendDateRange(batch *domain.ImportBatch, date time.Time) {
	if batch.DateFrom == nil || date.Before(*batch.DateFrom) {
		d := date
		batch.DateFrom = &d
	}
	if batch.DateTo == nil || date.After(*batch.DateTo) {
		d := date
		batch.DateTo = &d
	}
}

func validateRow(row *domain.StatementRow) error {
	if row.ExternalRef == "" {
		return &domain.ValidationError{Field: "external_ref", Reason: "is required"}
	}
	if row.Date.IsZero() {
		return &domain.ValidationError{Field: "date", Reason: "is required"}
	}
	if row.Amount.IsZero() {
		return &domain.ValidationError{Field: "amount", Reason: "must be non-zero"}
	}
	if row.Direction != domain.Debit && row.Direction != domain.Credit {
		return &domain.ValidationError{Field: "direction", Reason: fmt.Sprintf("invalid direction %q", row.Direction)}
	}
	if row.Direction == domain.Debit && row.Amount.IsPositive() {
		return &domain.ValidationError{Field: "amount", Reason: "debit amount must be negative"}
	}
	if row.Direction == domain.Credit && row.Amount.IsNegative() {
		return &domain.ValidationError{Field: "amount", Reason: "credit amount must be positive"}
	}
	return nil
}

func transactionFromRow(accountID, source string, row *domain.StatementRow) *domain.BankTransaction {
	valueDate := row.ValueDate
	if valueDate.IsZero() {
		valueDate = row.Date
	}

	return &domain.BankTransaction{
		TransactionID: uuid.New().String(),
		AccountID:     accountID,
		Date:          row.Date,
		ValueDate:     valueDate,
		ExternalRef:   row.ExternalRef,
		Amount:        row.Amount,
		Direction:     row.Direction,
		Description:   row.Description,
		Payer:         row.Payer,
		Payee:         row.Payee,
		Channel:       row.Channel,
		Source:        source,
		RawPayload:    row.RawPayload,
		Status:        domain.StatusUnmatched,
		// Variance tracks the unallocated remainder; before any match that is
		// the whole amount.
		Variance: row.Amount.Abs(),
	}
}
