package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/repository"
	"bankrecon/pkg/logger"
)

// ApplyMatchInput carries everything needed to commit one match. ActorID is
// required when the match is not auto-applied by the engine.
type ApplyMatchInput struct {
	TransactionID string
	EntityType    domain.EntityType
	EntityID      string
	MatchedAmount decimal.Decimal
	Confidence    domain.Confidence
	Score         float64
	Criteria      []domain.MatchCriterion
	AutoMatched   bool
	ActorID       string
}

type MatchService interface {
	Apply(input ApplyMatchInput) (*domain.TransactionMatch, error)
	Unmatch(matchID string, actor domain.Actor, reason string) (*domain.BankTransaction, error)
	Dispute(transactionID string, actor domain.Actor, reason string) error
	Ignore(transactionID string, actor domain.Actor, reason string) error
	Reopen(transactionID string, actor domain.Actor) (*domain.BankTransaction, error)
}

type matchService struct {
	txRepo    repository.TransactionRepository
	matchRepo repository.MatchRepository
}

func NewMatchService(txRepo repository.TransactionRepository, matchRepo repository.MatchRepository) MatchService {
	return &matchService{
		txRepo:    txRepo,
		matchRepo: matchRepo,
	}
}

// Apply commits a match against a transaction's remaining unmatched amount.
// A retry with an identical (transaction, entity type, entity id) while the
// prior match is still active returns the existing match instead of
// duplicating the allocation.
func (s *matchService) Apply(input ApplyMatchInput) (*domain.TransactionMatch, error) {
	if err := validateApplyInput(&input); err != nil {
		return nil, err
	}

	tx, err := s.txRepo.GetByTransactionID(input.TransactionID)
	if err != nil {
		return nil, err
	}

	if tx.Status != domain.StatusUnmatched && tx.Status != domain.StatusPartiallyMatched {
		return nil, fmt.Errorf("transaction %s is %s: %w", tx.TransactionID, tx.Status, domain.ErrStatusTransition)
	}

	existing, err := s.matchRepo.FindActive(input.TransactionID, input.EntityType, input.EntityID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	active, err := s.matchRepo.ListActiveByTransaction(input.TransactionID)
	if err != nil {
		return nil, err
	}

	remaining := tx.AbsAmount().Sub(sumMatched(active))
	if input.MatchedAmount.GreaterThan(remaining) {
		return nil, fmt.Errorf("matched %s against remaining %s on transaction %s: %w",
			input.MatchedAmount.String(), remaining.String(), tx.TransactionID, domain.ErrOverAllocation)
	}

	confidence := input.Confidence
	var matchedBy *string
	if !input.AutoMatched {
		confidence = domain.ConfidenceManual
		matchedBy = &input.ActorID
	}

	match := &domain.TransactionMatch{
		MatchID:       uuid.New().String(),
		TransactionID: tx.TransactionID,
		EntityType:    input.EntityType,
		EntityID:      input.EntityID,
		MatchedAmount: input.MatchedAmount,
		Confidence:    confidence,
		MatchingScore: input.Score,
		Criteria:      input.Criteria,
		AutoMatched:   input.AutoMatched,
		IsActive:      true,
		MatchedBy:     matchedBy,
	}

	if err := s.matchRepo.Create(match); err != nil {
		return nil, fmt.Errorf("failed to record match: %w", err)
	}

	newRemaining := remaining.Sub(input.MatchedAmount)
	status := domain.StatusPartiallyMatched
	var matchedDate *time.Time
	if newRemaining.IsZero() {
		now := time.Now()
		matchedDate = &now
		if len(active) == 0 && !input.AutoMatched {
			status = domain.StatusManualMatch
		} else {
			status = domain.StatusMatched
		}
	}

	if err := s.txRepo.UpdateStatus(tx.TransactionID, status, newRemaining, matchedDate); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"transaction_id": tx.TransactionID,
		"entity_id":      input.EntityID,
		"matched_amount": input.MatchedAmount.String(),
		"status":         status,
		"auto_matched":   input.AutoMatched,
	}).Info("Match applied")

	return match, nil
}

// Unmatch deactivates a match and re-derives the transaction's status and
// variance from the matches that remain active. Counters are never
// decremented in place; everything is recomputed to avoid drift.
func (s *matchService) Unmatch(matchID string, actor domain.Actor, reason string) (*domain.BankTransaction, error) {
	if actor.ID == "" {
		return nil, &domain.ValidationError{Field: "actor_id", Reason: "actor is required to unmatch"}
	}

	match, err := s.matchRepo.GetByMatchID(matchID)
	if err != nil {
		return nil, err
	}

	if match.IsActive {
		if err := s.matchRepo.Deactivate(matchID); err != nil {
			return nil, err
		}
	}

	tx, err := s.rederive(match.TransactionID)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"match_id":       matchID,
		"transaction_id": match.TransactionID,
		"actor_id":       actor.ID,
		"reason":         reason,
		"status":         tx.Status,
	}).Info("Match reversed")

	return tx, nil
}

// Dispute marks an unmatched transaction as a disputed statement line.
func (s *matchService) Dispute(transactionID string, actor domain.Actor, reason string) error {
	return s.flag(transactionID, actor, reason, domain.StatusDisputed)
}

// Ignore marks an unmatched transaction as intentionally unreconciled.
func (s *matchService) Ignore(transactionID string, actor domain.Actor, reason string) error {
	return s.flag(transactionID, actor, reason, domain.StatusIgnored)
}

func (s *matchService) flag(transactionID string, actor domain.Actor, reason string, status domain.TransactionStatus) error {
	if actor.ID == "" {
		return &domain.ValidationError{Field: "actor_id", Reason: "actor is required"}
	}
	if reason == "" {
		return &domain.ValidationError{Field: "reason", Reason: "is required"}
	}

	tx, err := s.txRepo.GetByTransactionID(transactionID)
	if err != nil {
		return err
	}

	// Terminal states are reachable only from UNMATCHED.
	if tx.Status != domain.StatusUnmatched {
		return fmt.Errorf("transaction %s is %s: %w", transactionID, tx.Status, domain.ErrStatusTransition)
	}

	return s.txRepo.UpdateStatus(transactionID, status, tx.Variance, nil)
}

// Reopen deactivates every active match and returns the transaction to
// UNMATCHED so a correction can be applied.
func (s *matchService) Reopen(transactionID string, actor domain.Actor) (*domain.BankTransaction, error) {
	if actor.ID == "" {
		return nil, &domain.ValidationError{Field: "actor_id", Reason: "actor is required to reopen"}
	}

	tx, err := s.txRepo.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}

	if !tx.Status.CanTransitionTo(domain.StatusUnmatched) {
		return nil, fmt.Errorf("transaction %s is %s: %w", transactionID, tx.Status, domain.ErrStatusTransition)
	}

	active, err := s.matchRepo.ListActiveByTransaction(transactionID)
	if err != nil {
		return nil, err
	}

	for i := range active {
		if err := s.matchRepo.Deactivate(active[i].MatchID); err != nil {
			return nil, err
		}
	}

	return s.rederive(transactionID)
}

// rederive recomputes status and variance from the active matches.
func (s *matchService) rederive(transactionID string) (*domain.BankTransaction, error) {
	tx, err := s.txRepo.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}

	active, err := s.matchRepo.ListActiveByTransaction(transactionID)
	if err != nil {
		return nil, err
	}

	remaining := tx.AbsAmount().Sub(sumMatched(active))

	status := domain.StatusUnmatched
	var matchedDate *time.Time
	switch {
	case len(active) == 0:
		status = domain.StatusUnmatched
	case remaining.IsZero():
		status = domain.StatusMatched
		now := time.Now()
		matchedDate = &now
	default:
		status = domain.StatusPartiallyMatched
	}

	if err := s.txRepo.UpdateStatus(transactionID, status, remaining, matchedDate); err != nil {
		return nil, err
	}

	tx.Status = status
	tx.Variance = remaining
	tx.MatchedDate = matchedDate
	return tx, nil
}

func validateApplyInput(input *ApplyMatchInput) error {
	if input.TransactionID == "" {
		return &domain.ValidationError{Field: "transaction_id", Reason: "is required"}
	}
	if input.EntityID == "" {
		return &domain.ValidationError{Field: "entity_id", Reason: "is required"}
	}
	if input.EntityType == "" {
		return &domain.ValidationError{Field: "entity_type", Reason: "is required"}
	}
	if !input.MatchedAmount.IsPositive() {
		return &domain.ValidationError{Field: "matched_amount", Reason: "must be positive"}
	}
	if !input.AutoMatched && input.ActorID == "" {
		return &domain.ValidationError{Field: "actor_id", Reason: "actor is required for a manual match"}
	}
	return nil
}

func sumMatched(matches []domain.TransactionMatch) decimal.Decimal {
	total := decimal.Zero
	for i := range matches {
		total = total.Add(matches[i].MatchedAmount)
	}
	return total
}
