package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type BatchRepository interface {
	Create(batch *domain.ImportBatch) error
	Update(batch *domain.ImportBatch) error
	GetByBatchID(batchID string) (*domain.ImportBatch, error)
}

type batchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(batch *domain.ImportBatch) error {
	query := `
		INSERT INTO import_batches (
			batch_id, account_id, source, total_rows, processed_rows,
			successful_rows, failed_rows, duplicate_rows, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		batch.BatchID,
		batch.AccountID,
		batch.Source,
		batch.TotalRows,
		batch.ProcessedRows,
		batch.SuccessfulRows,
		batch.FailedRows,
		batch.DuplicateRows,
		batch.Status,
	).Scan(&batch.ID, &batch.CreatedAt, &batch.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create import batch")
		return err
	}

	return nil
}

func (r *batchRepository) Update(batch *domain.ImportBatch) error {
	rowErrors, err := json.Marshal(batch.RowErrors)
	if err != nil {
		return fmt.Errorf("marshal row errors: %w", err)
	}

	query := `
		UPDATE import_batches
		SET processed_rows = $1, successful_rows = $2, failed_rows = $3,
			duplicate_rows = $4, date_from = $5, date_to = $6, status = $7,
			error_message = $8, row_errors = $9, updated_at = NOW()
		WHERE batch_id = $10
	`

	_, err = r.db.Exec(
		query,
		batch.ProcessedRows,
		batch.SuccessfulRows,
		batch.FailedRows,
		batch.DuplicateRows,
		batch.DateFrom,
		batch.DateTo,
		batch.Status,
		batch.ErrorMessage,
		rowErrors,
		batch.BatchID,
	)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update import batch")
		return err
	}

	return nil
}

func (r *batchRepository) GetByBatchID(batchID string) (*domain.ImportBatch, error) {
	query := `
		SELECT id, batch_id, account_id, source, total_rows, processed_rows,
			   successful_rows, failed_rows, duplicate_rows, date_from, date_to,
			   status, error_message, row_errors, created_at, updated_at
		FROM import_batches
		WHERE batch_id = $1
	`

	var batch domain.ImportBatch
	var rowErrors []byte

	err := r.db.QueryRow(query, batchID).Scan(
		&batch.ID,
		&batch.BatchID,
		&batch.AccountID,
		&batch.Source,
		&batch.TotalRows,
		&batch.ProcessedRows,
		&batch.SuccessfulRows,
		&batch.FailedRows,
		&batch.DuplicateRows,
		&batch.DateFrom,
		&batch.DateTo,
		&batch.Status,
		&batch.ErrorMessage,
		&rowErrors,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get import batch")
		return nil, err
	}

	if len(rowErrors) > 0 {
		if err := json.Unmarshal(rowErrors, &batch.RowErrors); err != nil {
			return nil, fmt.Errorf("unmarshal row errors: %w", err)
		}
	}

	return &batch, nil
}
