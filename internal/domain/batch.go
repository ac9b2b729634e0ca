package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle of one ingestion run
type BatchStatus string

const (
	BatchProcessing BatchStatus = "PROCESSING"
	BatchCompleted  BatchStatus = "COMPLETED"
	BatchFailed     BatchStatus = "FAILED"
)

// StatementRow is one already-parsed statement line submitted for import.
// Format adapters (CSV, Excel, provider APIs) live outside the engine.
type StatementRow struct {
	ExternalRef string          `json:"external_ref"`
	Date        time.Time       `json:"date"`
	ValueDate   time.Time       `json:"value_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	Description string          `json:"description"`
	Payer       string          `json:"payer,omitempty"`
	Payee       string          `json:"payee,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	RawPayload  json.RawMessage `json:"raw_payload,omitempty"`
}

// RowError records why a single row failed without aborting the batch.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportBatch tracks one ingestion run with its counters. A batch completes
// even when some rows fail; all valid rows are kept.
type ImportBatch struct {
	ID             int         `json:"id" db:"id"`
	BatchID        string      `json:"batch_id" db:"batch_id"`
	AccountID      string      `json:"account_id" db:"account_id"`
	Source         string      `json:"source" db:"source"`
	TotalRows      int         `json:"total_rows" db:"total_rows"`
	ProcessedRows  int         `json:"processed_rows" db:"processed_rows"`
	SuccessfulRows int         `json:"successful_rows" db:"successful_rows"`
	FailedRows     int         `json:"failed_rows" db:"failed_rows"`
	DuplicateRows  int         `json:"duplicate_rows" db:"duplicate_rows"`
	DateFrom       *time.Time  `json:"date_from,omitempty" db:"date_from"`
	DateTo         *time.Time  `json:"date_to,omitempty" db:"date_to"`
	Status         BatchStatus `json:"status" db:"status"`
	ErrorMessage   *string     `json:"error_message,omitempty" db:"error_message"`
	RowErrors      []RowError  `json:"row_errors,omitempty" db:"row_errors"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}
