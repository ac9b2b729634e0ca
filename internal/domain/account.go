package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a bank or mobile-money account whose statements are
// reconciled by the engine. Balances are informational: the imported statement
// is ground truth, and CurrentBalance moves only when a period is closed.
type Account struct {
	ID                    int             `json:"id" db:"id"`
	AccountID             string          `json:"account_id" db:"account_id"`
	Name                  string          `json:"name" db:"name"`
	Number                string          `json:"number" db:"number"`
	Institution           string          `json:"institution" db:"institution"`
	Currency              string          `json:"currency" db:"currency"`
	OpeningBalance        decimal.Decimal `json:"opening_balance" db:"opening_balance"`
	CurrentBalance        decimal.Decimal `json:"current_balance" db:"current_balance"`
	LastReconciledBalance decimal.Decimal `json:"last_reconciled_balance" db:"last_reconciled_balance"`
	LastReconciledDate    *time.Time      `json:"last_reconciled_date,omitempty" db:"last_reconciled_date"`
	IsActive              bool            `json:"is_active" db:"is_active"`
	IsPrimary             bool            `json:"is_primary" db:"is_primary"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// AccountBalanceSnapshot is the balance view exposed to collaborators.
type AccountBalanceSnapshot struct {
	AccountID             string          `json:"account_id"`
	CurrentBalance        decimal.Decimal `json:"current_balance"`
	LastReconciledBalance decimal.Decimal `json:"last_reconciled_balance"`
	LastReconciledDate    *time.Time      `json:"last_reconciled_date,omitempty"`
}

// Snapshot returns the collaborator-facing balance view of the account.
func (a *Account) Snapshot() AccountBalanceSnapshot {
	return AccountBalanceSnapshot{
		AccountID:             a.AccountID,
		CurrentBalance:        a.CurrentBalance,
		LastReconciledBalance: a.LastReconciledBalance,
		LastReconciledDate:    a.LastReconciledDate,
	}
}
