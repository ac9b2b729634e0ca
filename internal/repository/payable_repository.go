package repository

import (
	"database/sql"
	"time"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

// PayableRepository is the engine's read-only view over the surrounding
// system's payable records (payments, income, expenses). The engine never
// writes through it.
type PayableRepository interface {
	ListByTypeAndDateRange(entityType domain.EntityType, from, to time.Time) ([]domain.PayableRecord, error)
}

type payableRepository struct {
	db *sql.DB
}

func NewPayableRepository(db *sql.DB) PayableRepository {
	return &payableRepository{db: db}
}

func (r *payableRepository) ListByTypeAndDateRange(entityType domain.EntityType, from, to time.Time) ([]domain.PayableRecord, error) {
	query := `
		SELECT id, entity_type, amount, date, description, counterparty_name
		FROM payable_records
		WHERE entity_type = $1 AND date >= $2 AND date <= $3
		ORDER BY date, id
	`

	rows, err := r.db.Query(query, entityType, from, to)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query payable records")
		return nil, err
	}
	defer rows.Close()

	var records []domain.PayableRecord
	for rows.Next() {
		rec, err := scanPayable(rows)
		if err != nil {
			// Dropping a candidate here would silently shrink the pool, so a
			// bad row fails the whole listing.
			logger.GetLogger().WithError(err).Error("Failed to scan payable record")
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// scanPayable tolerates NULL text descriptors; the collaborator populates
// these records and does not promise descriptions or counterparty names.
func scanPayable(row rowScanner) (*domain.PayableRecord, error) {
	var rec domain.PayableRecord
	var description, counterparty sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.EntityType,
		&rec.Amount,
		&rec.Date,
		&description,
		&counterparty,
	)
	if err != nil {
		return nil, err
	}

	rec.Description = description.String
	rec.CounterpartyName = counterparty.String
	return &rec, nil
}
