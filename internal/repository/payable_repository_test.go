package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankrecon/internal/domain"
)

type stubPayableRow struct {
	id           string
	entityType   domain.EntityType
	amount       decimal.Decimal
	date         time.Time
	description  sql.NullString
	counterparty sql.NullString
	err          error
}

func (s stubPayableRow) Scan(dest ...interface{}) error {
	if s.err != nil {
		return s.err
	}
	*(dest[0].(*string)) = s.id
	*(dest[1].(*domain.EntityType)) = s.entityType
	*(dest[2].(*decimal.Decimal)) = s.amount
	*(dest[3].(*time.Time)) = s.date
	*(dest[4].(*sql.NullString)) = s.description
	*(dest[5].(*sql.NullString)) = s.counterparty
	return nil
}

func TestScanPayable_NullDescriptorsKeepTheRecord(t *testing.T) {
	row := stubPayableRow{
		id:         "pay-1",
		entityType: domain.EntityPayment,
		amount:     decimal.NewFromInt(5000),
		date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		// Both text descriptors NULL, as collaborator data often is.
		description:  sql.NullString{},
		counterparty: sql.NullString{},
	}

	rec, err := scanPayable(row)

	require.NoError(t, err)
	assert.Equal(t, "pay-1", rec.ID)
	assert.Equal(t, "", rec.Description)
	assert.Equal(t, "", rec.CounterpartyName)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(5000)))
}

func TestScanPayable_PopulatedDescriptors(t *testing.T) {
	row := stubPayableRow{
		id:           "pay-2",
		entityType:   domain.EntityExpense,
		amount:       decimal.NewFromInt(-700),
		date:         time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		description:  sql.NullString{String: "office supplies", Valid: true},
		counterparty: sql.NullString{String: "Stationers Ltd", Valid: true},
	}

	rec, err := scanPayable(row)

	require.NoError(t, err)
	assert.Equal(t, "office supplies", rec.Description)
	assert.Equal(t, "Stationers Ltd", rec.CounterpartyName)
}
