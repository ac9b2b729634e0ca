package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the direction of a statement line
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// TransactionStatus represents the reconciliation status of a statement line
type TransactionStatus string

const (
	StatusUnmatched        TransactionStatus = "UNMATCHED"
	StatusMatched          TransactionStatus = "MATCHED"
	StatusPartiallyMatched TransactionStatus = "PARTIALLY_MATCHED"
	StatusManualMatch      TransactionStatus = "MANUAL_MATCH"
	StatusDisputed         TransactionStatus = "DISPUTED"
	StatusIgnored          TransactionStatus = "IGNORED"
)

// Terminal reports whether the status is a terminal success or exception
// state. Terminal states are reachable only from UNMATCHED; correcting a
// match requires reopening the transaction first.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusMatched, StatusPartiallyMatched, StatusManualMatch, StatusDisputed, StatusIgnored:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status machine permits moving to next.
// PARTIALLY_MATCHED stays open for further allocations, and every terminal
// state may reopen to UNMATCHED.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusUnmatched:
		return true
	case StatusPartiallyMatched:
		return next == StatusMatched || next == StatusManualMatch || next == StatusUnmatched
	default:
		return next == StatusUnmatched
	}
}

// BankTransaction is one imported statement line. Amount is signed and never
// changes after creation; only Status, Variance and MatchedDate mutate.
type BankTransaction struct {
	ID            int               `json:"id" db:"id"`
	TransactionID string            `json:"transaction_id" db:"transaction_id"`
	AccountID     string            `json:"account_id" db:"account_id"`
	Date          time.Time         `json:"date" db:"date"`
	ValueDate     time.Time         `json:"value_date" db:"value_date"`
	ExternalRef   string            `json:"external_ref" db:"external_ref"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	Direction     Direction         `json:"direction" db:"direction"`
	Description   string            `json:"description" db:"description"`
	Payer         string            `json:"payer,omitempty" db:"payer"`
	Payee         string            `json:"payee,omitempty" db:"payee"`
	Channel       string            `json:"channel,omitempty" db:"channel"`
	Source        string            `json:"source" db:"source"`
	RawPayload    json.RawMessage   `json:"raw_payload,omitempty" db:"raw_payload"`
	Status        TransactionStatus `json:"status" db:"status"`
	Variance      decimal.Decimal   `json:"variance" db:"variance"`
	MatchedDate   *time.Time        `json:"matched_date,omitempty" db:"matched_date"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// AbsAmount returns the unsigned amount of the statement line.
func (t *BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// UnmatchedTransaction is the listing shape for manual-review UIs.
type UnmatchedTransaction struct {
	BankTransaction
	PotentialMatchType string `json:"potential_match_type,omitempty"`
}
