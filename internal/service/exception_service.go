package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"bankrecon/internal/config"
	"bankrecon/internal/domain"
	"bankrecon/internal/repository"
	"bankrecon/pkg/logger"
)

type ExceptionService interface {
	Raise(accountID string, transactionID *string, kind domain.ExceptionKind, severity domain.ExceptionSeverity, details string) (*domain.ReconciliationException, error)
	Resolve(exceptionID string, actor domain.Actor, status domain.ExceptionStatus, notes string) (*domain.ReconciliationException, error)
	ListByStatus(status domain.ExceptionStatus) ([]domain.ReconciliationException, error)
	SweepMissingMatches(accountID string) (int, error)
}

type exceptionService struct {
	excRepo repository.ExceptionRepository
	txRepo  repository.TransactionRepository
	cfg     config.EngineConfig
}

func NewExceptionService(excRepo repository.ExceptionRepository, txRepo repository.TransactionRepository, cfg config.EngineConfig) ExceptionService {
	return &exceptionService{
		excRepo: excRepo,
		txRepo:  txRepo,
		cfg:     cfg,
	}
}

func (s *exceptionService) Raise(accountID string, transactionID *string, kind domain.ExceptionKind, severity domain.ExceptionSeverity, details string) (*domain.ReconciliationException, error) {
	exc := &domain.ReconciliationException{
		ExceptionID:   uuid.New().String(),
		AccountID:     accountID,
		TransactionID: transactionID,
		Kind:          kind,
		Severity:      severity,
		Status:        domain.ExceptionOpen,
		Details:       details,
	}

	if err := s.excRepo.Create(exc); err != nil {
		return nil, fmt.Errorf("failed to raise exception: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"exception_id": exc.ExceptionID,
		"account_id":   accountID,
		"kind":         kind,
		"severity":     severity,
	}).Info("Reconciliation exception raised")

	return exc, nil
}

// Resolve transitions an exception's lifecycle. Resolution is always an
// explicit call with an actor; the engine never resolves exceptions on its
// own, and a resolved exception is kept, not deleted.
func (s *exceptionService) Resolve(exceptionID string, actor domain.Actor, status domain.ExceptionStatus, notes string) (*domain.ReconciliationException, error) {
	if actor.ID == "" {
		return nil, &domain.ValidationError{Field: "actor_id", Reason: "actor is required to resolve an exception"}
	}
	if status == domain.ExceptionOpen {
		return nil, &domain.ValidationError{Field: "status", Reason: "cannot transition back to OPEN"}
	}

	exc, err := s.excRepo.GetByExceptionID(exceptionID)
	if err != nil {
		return nil, err
	}

	if !exc.Status.CanTransitionTo(status) {
		return nil, &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot transition from %s to %s", exc.Status, status),
		}
	}

	now := time.Now()
	exc.Status = status
	exc.Notes = notes
	if status == domain.ExceptionResolved || status == domain.ExceptionIgnored {
		exc.ResolvedBy = &actor.ID
		exc.ResolvedAt = &now
	}

	if err := s.excRepo.Update(exc); err != nil {
		return nil, err
	}

	return exc, nil
}

func (s *exceptionService) ListByStatus(status domain.ExceptionStatus) ([]domain.ReconciliationException, error) {
	return s.excRepo.ListByStatus(status)
}

// SweepMissingMatches raises a MISSING_MATCH exception for every transaction
// that has stayed UNMATCHED past the configured age. Transactions already
// carrying an open MISSING_MATCH exception are skipped so repeated sweeps do
// not pile up duplicates.
func (s *exceptionService) SweepMissingMatches(accountID string) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.UnmatchedAgeDays)

	stale, err := s.txRepo.ListUnmatchedOlderThan(accountID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale transactions: %w", err)
	}

	raised := 0
	for i := range stale {
		tx := &stale[i]

		exists, err := s.excRepo.ExistsOpenForTransaction(tx.TransactionID, domain.ExceptionMissingMatch)
		if err != nil {
			return raised, err
		}
		if exists {
			continue
		}

		details := fmt.Sprintf("transaction %s (%s %s) unmatched since %s",
			tx.ExternalRef, tx.Direction, tx.Amount.String(), tx.Date.Format("2006-01-02"))

		if _, err := s.Raise(accountID, &tx.TransactionID, domain.ExceptionMissingMatch, domain.SeverityMedium, details); err != nil {
			return raised, err
		}
		raised++
	}

	return raised, nil
}
