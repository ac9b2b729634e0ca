package service

import (
	"github.com/google/uuid"

	"bankrecon/internal/domain"
	"bankrecon/internal/repository"
)

type AccountService interface {
	Create(account *domain.Account) error
	Get(accountID string) (*domain.Account, error)
	GetBalanceSnapshot(accountID string) (*domain.AccountBalanceSnapshot, error)
}

type accountService struct {
	repo repository.AccountRepository
}

func NewAccountService(repo repository.AccountRepository) AccountService {
	return &accountService{repo: repo}
}

func (s *accountService) Create(account *domain.Account) error {
	if account.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "is required"}
	}
	if account.Number == "" {
		return &domain.ValidationError{Field: "number", Reason: "is required"}
	}
	if account.Institution == "" {
		return &domain.ValidationError{Field: "institution", Reason: "is required"}
	}
	if account.Currency == "" {
		return &domain.ValidationError{Field: "currency", Reason: "is required"}
	}

	if account.AccountID == "" {
		account.AccountID = uuid.New().String()
	}
	account.CurrentBalance = account.OpeningBalance
	account.LastReconciledBalance = account.OpeningBalance
	account.IsActive = true

	return s.repo.Create(account)
}

func (s *accountService) Get(accountID string) (*domain.Account, error) {
	return s.repo.GetByAccountID(accountID)
}

func (s *accountService) GetBalanceSnapshot(accountID string) (*domain.AccountBalanceSnapshot, error) {
	account, err := s.repo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}

	snapshot := account.Snapshot()
	return &snapshot, nil
}
