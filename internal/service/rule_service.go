package service

import (
	"github.com/google/uuid"

	"bankrecon/internal/domain"
	"bankrecon/internal/repository"
)

type RuleService interface {
	Create(rule *domain.MatchingRule) error
	Get(ruleID string) (*domain.MatchingRule, error)
	ListActive() ([]domain.MatchingRule, error)
}

type ruleService struct {
	repo repository.RuleRepository
}

func NewRuleService(repo repository.RuleRepository) RuleService {
	return &ruleService{repo: repo}
}

// Create validates and stores a rule. Edits never affect a pass already in
// flight; the matching service reads the rule set once at pass start.
func (s *ruleService) Create(rule *domain.MatchingRule) error {
	if rule.RuleID == "" {
		rule.RuleID = uuid.New().String()
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	rule.IsActive = true
	return s.repo.Create(rule)
}

func (s *ruleService) Get(ruleID string) (*domain.MatchingRule, error) {
	return s.repo.GetByRuleID(ruleID)
}

func (s *ruleService) ListActive() ([]domain.MatchingRule, error) {
	return s.repo.ListActive()
}
