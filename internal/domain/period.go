package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus represents the lifecycle of a reconciliation period
type PeriodStatus string

const (
	PeriodInProgress PeriodStatus = "IN_PROGRESS"
	PeriodCompleted  PeriodStatus = "COMPLETED"
	PeriodReviewed   PeriodStatus = "REVIEWED"
)

// ReconciliationPeriod is a bounded time window over which one account's
// transactions are reconciled against an externally supplied statement
// balance. A period may close with nonzero variance; the variance is recorded,
// not rejected.
type ReconciliationPeriod struct {
	ID                int             `json:"id" db:"id"`
	PeriodID          string          `json:"period_id" db:"period_id"`
	AccountID         string          `json:"account_id" db:"account_id"`
	StartDate         time.Time       `json:"start_date" db:"start_date"`
	EndDate           time.Time       `json:"end_date" db:"end_date"`
	OpeningBalance    decimal.Decimal `json:"opening_balance" db:"opening_balance"`
	ClosingBalance    decimal.Decimal `json:"closing_balance" db:"closing_balance"`
	StatementBalance  decimal.Decimal `json:"statement_balance" db:"statement_balance"`
	TotalTransactions int             `json:"total_transactions" db:"total_transactions"`
	MatchedCount      int             `json:"matched_count" db:"matched_count"`
	UnmatchedCount    int             `json:"unmatched_count" db:"unmatched_count"`
	TotalVariance     decimal.Decimal `json:"total_variance" db:"total_variance"`
	Status            PeriodStatus    `json:"status" db:"status"`
	ClosedBy          *string         `json:"closed_by,omitempty" db:"closed_by"`
	ReviewedBy        *string         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}
