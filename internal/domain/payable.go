package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the kind of system record a transaction can match
type EntityType string

const (
	EntityPayment EntityType = "PAYMENT"
	EntityIncome  EntityType = "INCOME"
	EntityExpense EntityType = "EXPENSE"
)

// PayableRecord is the unified read-only shape the engine queries candidate
// records through, whatever the surrounding system calls them.
type PayableRecord struct {
	ID               string          `json:"id" db:"id"`
	EntityType       EntityType      `json:"entity_type" db:"entity_type"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Date             time.Time       `json:"date" db:"date"`
	Description      string          `json:"description" db:"description"`
	CounterpartyName string          `json:"counterparty_name" db:"counterparty_name"`
}

// Actor identifies who performed a manual match, close, review or resolution.
// The engine never consults ambient identity; actors are always explicit.
type Actor struct {
	ID string `json:"id"`
}
