package domain

import "time"

// ExceptionKind classifies an unresolved discrepancy
type ExceptionKind string

const (
	ExceptionDuplicate      ExceptionKind = "DUPLICATE"
	ExceptionMissingMatch   ExceptionKind = "MISSING_MATCH"
	ExceptionAmountVariance ExceptionKind = "AMOUNT_VARIANCE"
	ExceptionDateVariance   ExceptionKind = "DATE_VARIANCE"
)

// ExceptionSeverity grades how urgently an exception needs attention
type ExceptionSeverity string

const (
	SeverityLow    ExceptionSeverity = "LOW"
	SeverityMedium ExceptionSeverity = "MEDIUM"
	SeverityHigh   ExceptionSeverity = "HIGH"
)

// ExceptionStatus represents the resolution lifecycle of an exception
type ExceptionStatus string

const (
	ExceptionOpen          ExceptionStatus = "OPEN"
	ExceptionInvestigating ExceptionStatus = "INVESTIGATING"
	ExceptionResolved      ExceptionStatus = "RESOLVED"
	ExceptionIgnored       ExceptionStatus = "IGNORED"
)

// ReconciliationException is an open issue surfaced for human attention.
// Exceptions are append-only: resolving one transitions its status and
// records who resolved it, never deletes it.
type ReconciliationException struct {
	ID            int               `json:"id" db:"id"`
	ExceptionID   string            `json:"exception_id" db:"exception_id"`
	AccountID     string            `json:"account_id" db:"account_id"`
	TransactionID *string           `json:"transaction_id,omitempty" db:"transaction_id"`
	Kind          ExceptionKind     `json:"kind" db:"kind"`
	Severity      ExceptionSeverity `json:"severity" db:"severity"`
	Status        ExceptionStatus   `json:"status" db:"status"`
	Details       string            `json:"details" db:"details"`
	ResolvedBy    *string           `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt    *time.Time        `json:"resolved_at,omitempty" db:"resolved_at"`
	Notes         string            `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether the resolution lifecycle permits the move.
// RESOLVED and IGNORED are final.
func (s ExceptionStatus) CanTransitionTo(next ExceptionStatus) bool {
	switch s {
	case ExceptionOpen:
		return next == ExceptionInvestigating || next == ExceptionResolved || next == ExceptionIgnored
	case ExceptionInvestigating:
		return next == ExceptionResolved || next == ExceptionIgnored
	default:
		return false
	}
}
