package domain

import (
	"errors"
	"fmt"
)

// Sentinel failures returned by engine operations. Callers match with
// errors.Is; the HTTP layer maps them to status codes.
var (
	ErrNotFound             = errors.New("not found")
	ErrOverAllocation       = errors.New("matched amount exceeds remaining unmatched amount")
	ErrSelfReviewNotAllowed = errors.New("reviewer must differ from the closer")
	ErrPeriodAlreadyClosed  = errors.New("period is already closed")
	ErrDuplicateTransaction = errors.New("duplicate statement line")
	ErrStatusTransition     = errors.New("transaction status transition not allowed")
)

// ValidationError reports malformed caller input (row, amount, date, actor).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// RuleConfigurationError reports a matching rule with tolerances or
// thresholds outside their allowed ranges.
type RuleConfigurationError struct {
	RuleID string
	Reason string
}

func (e *RuleConfigurationError) Error() string {
	return fmt.Sprintf("rule %s misconfigured: %s", e.RuleID, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRuleConfiguration reports whether err is a RuleConfigurationError.
func IsRuleConfiguration(err error) bool {
	var re *RuleConfigurationError
	return errors.As(err, &re)
}
