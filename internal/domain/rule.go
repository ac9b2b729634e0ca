package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// MatchingRule is one entry of the prioritized rule set the engine evaluates
// unmatched transactions against. Rules are read-only during a matching pass;
// edits apply only to passes started after the write.
type MatchingRule struct {
	ID                        int             `json:"id" db:"id"`
	RuleID                    string          `json:"rule_id" db:"rule_id"`
	Name                      string          `json:"name" db:"name"`
	Priority                  int             `json:"priority" db:"priority"`
	TargetEntityType          EntityType      `json:"target_entity_type" db:"target_entity_type"`
	AmountToleranceAbsolute   decimal.Decimal `json:"amount_tolerance_absolute" db:"amount_tolerance_absolute"`
	AmountTolerancePercentage decimal.Decimal `json:"amount_tolerance_percentage" db:"amount_tolerance_percentage"`
	DateToleranceDays         int             `json:"date_tolerance_days" db:"date_tolerance_days"`
	DescriptionKeywords       []string        `json:"description_keywords" db:"description_keywords"`
	ReferencePattern          string          `json:"reference_pattern" db:"reference_pattern"`
	MinConfidenceScore        float64         `json:"min_confidence_score" db:"min_confidence_score"`
	AutoMatchEnabled          bool            `json:"auto_match_enabled" db:"auto_match_enabled"`
	IsActive                  bool            `json:"is_active" db:"is_active"`
	CreatedAt                 time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks tolerances and thresholds. A rule that fails validation is
// skipped during a pass rather than aborting it.
func (r *MatchingRule) Validate() error {
	if r.TargetEntityType == "" {
		return &RuleConfigurationError{RuleID: r.RuleID, Reason: "target entity type is required"}
	}
	if r.AmountToleranceAbsolute.IsNegative() {
		return &RuleConfigurationError{RuleID: r.RuleID, Reason: "amount tolerance absolute must not be negative"}
	}
	if r.AmountTolerancePercentage.IsNegative() || r.AmountTolerancePercentage.GreaterThan(decimal.NewFromInt(1)) {
		return &RuleConfigurationError{RuleID: r.RuleID, Reason: "amount tolerance percentage must be within [0,1]"}
	}
	if r.DateToleranceDays < 0 {
		return &RuleConfigurationError{RuleID: r.RuleID, Reason: "date tolerance days must not be negative"}
	}
	if r.MinConfidenceScore < 0 || r.MinConfidenceScore > 1 {
		return &RuleConfigurationError{RuleID: r.RuleID, Reason: "min confidence score must be within [0,1]"}
	}
	if r.ReferencePattern != "" {
		if _, err := regexp.Compile(r.ReferencePattern); err != nil {
			return &RuleConfigurationError{RuleID: r.RuleID, Reason: "reference pattern is not a valid regexp"}
		}
	}
	return nil
}

// AmountTolerance returns the allowed deviation for a candidate amount: the
// greater of the absolute tolerance and the percentage of the candidate.
func (r *MatchingRule) AmountTolerance(candidateAmount decimal.Decimal) decimal.Decimal {
	pct := candidateAmount.Abs().Mul(r.AmountTolerancePercentage)
	if pct.GreaterThan(r.AmountToleranceAbsolute) {
		return pct
	}
	return r.AmountToleranceAbsolute
}
