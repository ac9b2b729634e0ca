package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confidence is the coarse bucket summarizing a match's numeric score
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceManual Confidence = "MANUAL"
)

// ConfidenceForScore buckets a numeric score into a confidence tier.
func ConfidenceForScore(score float64) Confidence {
	switch {
	case score >= 0.9:
		return ConfidenceHigh
	case score >= 0.75:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// CriterionKind identifies which matching signal fired
type CriterionKind string

const (
	CriterionAmount  CriterionKind = "AMOUNT"
	CriterionDate    CriterionKind = "DATE"
	CriterionKeyword CriterionKind = "KEYWORD"
	CriterionPattern CriterionKind = "PATTERN"
)

// MatchCriterion records one signal that contributed to a match decision.
// The known kinds keep scoring exhaustive; free-form payloads stay out of
// the decision path and exist only for audit display.
type MatchCriterion struct {
	Kind   CriterionKind `json:"kind"`
	Detail string        `json:"detail,omitempty"`
	Score  float64       `json:"score"`
}

// ScoreBreakdown is the per-signal decomposition of a match score.
type ScoreBreakdown struct {
	Amount float64 `json:"amount"`
	Date   float64 `json:"date"`
	Text   float64 `json:"text"`
	Total  float64 `json:"total"`
}

// TransactionMatch links one bank transaction to one external payable record.
// Proposed matches awaiting human confirmation are stored with IsActive=false;
// only active matches count toward a transaction's allocation.
type TransactionMatch struct {
	ID            int              `json:"id" db:"id"`
	MatchID       string           `json:"match_id" db:"match_id"`
	TransactionID string           `json:"transaction_id" db:"transaction_id"`
	EntityType    EntityType       `json:"entity_type" db:"entity_type"`
	EntityID      string           `json:"entity_id" db:"entity_id"`
	MatchedAmount decimal.Decimal  `json:"matched_amount" db:"matched_amount"`
	Confidence    Confidence       `json:"confidence" db:"confidence"`
	MatchingScore float64          `json:"matching_score" db:"matching_score"`
	Criteria      []MatchCriterion `json:"matching_criteria" db:"matching_criteria"`
	AutoMatched   bool             `json:"auto_matched" db:"auto_matched"`
	IsActive      bool             `json:"is_active" db:"is_active"`
	MatchedBy     *string          `json:"matched_by,omitempty" db:"matched_by"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// MatchResult is the engine output surfaced to collaborators.
type MatchResult struct {
	TransactionID  string         `json:"transaction_id"`
	EntityType     EntityType     `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	Confidence     Confidence     `json:"confidence"`
	AutoMatched    bool           `json:"auto_matched"`
	Applied        bool           `json:"applied"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
}
