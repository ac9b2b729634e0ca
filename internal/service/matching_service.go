package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankrecon/internal/config"
	"bankrecon/internal/domain"
	"bankrecon/internal/matcher"
	"bankrecon/internal/repository"
	"bankrecon/pkg/logger"
)

// PassSummary reports what one matching pass did for an account.
type PassSummary struct {
	AccountID string               `json:"account_id"`
	Processed int                  `json:"processed"`
	Applied   int                  `json:"applied"`
	Proposed  int                  `json:"proposed"`
	Unmatched int                  `json:"unmatched"`
	Cancelled bool                 `json:"cancelled"`
	Results   []domain.MatchResult `json:"results"`
}

type MatchingService interface {
	RunPass(ctx context.Context, accountID string) (*PassSummary, error)
	ListUnmatched(accountID string) ([]domain.UnmatchedTransaction, error)
}

type matchingService struct {
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	ruleRepo    repository.RuleRepository
	matchRepo   repository.MatchRepository
	payableRepo repository.PayableRepository
	applier     MatchService
	exceptions  ExceptionService
	engine      *matcher.Engine
	cfg         config.EngineConfig

	// One in-flight pass per account; passes for different accounts may run
	// concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMatchingService(
	accountRepo repository.AccountRepository,
	txRepo repository.TransactionRepository,
	ruleRepo repository.RuleRepository,
	matchRepo repository.MatchRepository,
	payableRepo repository.PayableRepository,
	applier MatchService,
	exceptions ExceptionService,
	cfg config.EngineConfig,
) MatchingService {
	return &matchingService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		ruleRepo:    ruleRepo,
		matchRepo:   matchRepo,
		payableRepo: payableRepo,
		applier:     applier,
		exceptions:  exceptions,
		engine:      matcher.NewEngine(),
		cfg:         cfg,
		locks:       make(map[string]*sync.Mutex),
	}
}

// RunPass evaluates every UNMATCHED transaction of the account, oldest first,
// against the active rule set. The unit of work is one transaction:
// cancellation is honored between transactions, and matches already applied
// stay applied. Candidates consumed by an applied match are excluded from the
// candidate pools of later transactions in the same pass.
func (s *matchingService) RunPass(ctx context.Context, accountID string) (*PassSummary, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.accountRepo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}

	rules, err := s.ruleRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load matching rules: %w", err)
	}

	transactions, err := s.txRepo.ListUnmatched(account.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unmatched transactions: %w", err)
	}

	consumed, err := s.consumedEntityIDs()
	if err != nil {
		return nil, err
	}

	windows := entityWindows(rules)

	summary := &PassSummary{AccountID: account.AccountID}

	logger.GetLogger().WithFields(map[string]interface{}{
		"account_id": account.AccountID,
		"rules":      len(rules),
		"unmatched":  len(transactions),
	}).Info("Starting matching pass")

	for i := range transactions {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		tx := &transactions[i]
		summary.Processed++

		pool, err := s.fetchCandidates(tx, windows, consumed)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("transaction_id", tx.TransactionID).Warn("Skipping transaction, candidate fetch failed")
			summary.Unmatched++
			continue
		}

		proposal := s.engine.Evaluate(tx, rules, pool)
		if proposal == nil {
			summary.Unmatched++
			continue
		}

		if proposal.AutoMatch {
			if err := s.autoApply(proposal, consumed, summary); err != nil {
				logger.GetLogger().WithError(err).WithField("transaction_id", tx.TransactionID).Warn("Auto-apply failed")
				summary.Unmatched++
			}
			continue
		}

		if err := s.propose(proposal, summary); err != nil {
			logger.GetLogger().WithError(err).WithField("transaction_id", tx.TransactionID).Warn("Failed to record proposal")
			summary.Unmatched++
		}
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"account_id": account.AccountID,
		"processed":  summary.Processed,
		"applied":    summary.Applied,
		"proposed":   summary.Proposed,
		"unmatched":  summary.Unmatched,
		"cancelled":  summary.Cancelled,
	}).Info("Matching pass completed")

	return summary, nil
}

// ListUnmatched exposes the manual-review listing with a hint about which
// record type a reviewer should look at first.
func (s *matchingService) ListUnmatched(accountID string) ([]domain.UnmatchedTransaction, error) {
	if _, err := s.accountRepo.GetByAccountID(accountID); err != nil {
		return nil, err
	}

	transactions, err := s.txRepo.ListUnmatched(accountID)
	if err != nil {
		return nil, err
	}

	listing := make([]domain.UnmatchedTransaction, 0, len(transactions))
	for i := range transactions {
		listing = append(listing, domain.UnmatchedTransaction{
			BankTransaction:    transactions[i],
			PotentialMatchType: string(potentialMatchType(transactions[i].Direction)),
		})
	}

	return listing, nil
}

func (s *matchingService) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

func (s *matchingService) consumedEntityIDs() (map[string]bool, error) {
	ids, err := s.matchRepo.ListActiveEntityIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to load consumed entity ids: %w", err)
	}

	consumed := make(map[string]bool, len(ids))
	for _, id := range ids {
		consumed[id] = true
	}
	return consumed, nil
}

// fetchCandidates queries payable records once per transaction, using the
// widest date window any rule declares for each target entity type. Rules
// with narrower windows re-filter during scoring; no I/O happens inside the
// scoring loop.
func (s *matchingService) fetchCandidates(tx *domain.BankTransaction, windows map[domain.EntityType]int, consumed map[string]bool) (matcher.CandidatePool, error) {
	pool := matcher.CandidatePool{
		Records:  make(map[domain.EntityType][]domain.PayableRecord, len(windows)),
		Consumed: consumed,
	}

	for entityType, days := range windows {
		from := tx.Date.AddDate(0, 0, -days)
		to := tx.Date.AddDate(0, 0, days)

		records, err := s.payableRepo.ListByTypeAndDateRange(entityType, from, to)
		if err != nil {
			return pool, err
		}
		pool.Records[entityType] = records
	}

	return pool, nil
}

func (s *matchingService) autoApply(proposal *matcher.Proposal, consumed map[string]bool, summary *PassSummary) error {
	tx := proposal.Transaction
	matchedAmount := proposal.Candidate.Amount.Abs()
	if matchedAmount.GreaterThan(tx.AbsAmount()) {
		matchedAmount = tx.AbsAmount()
	}

	_, err := s.applier.Apply(ApplyMatchInput{
		TransactionID: tx.TransactionID,
		EntityType:    proposal.Candidate.EntityType,
		EntityID:      proposal.Candidate.ID,
		MatchedAmount: matchedAmount,
		Confidence:    proposal.Confidence,
		Score:         proposal.Score,
		Criteria:      proposal.Criteria,
		AutoMatched:   true,
	})
	if err != nil {
		return err
	}

	consumed[proposal.Candidate.ID] = true
	summary.Applied++
	summary.Results = append(summary.Results, resultFromProposal(proposal, true))

	s.raiseVarianceExceptions(proposal)
	return nil
}

// propose records the candidate as an inactive match awaiting human
// confirmation. The candidate is not consumed: a later transaction may still
// claim it with an applied match.
func (s *matchingService) propose(proposal *matcher.Proposal, summary *PassSummary) error {
	match := &domain.TransactionMatch{
		MatchID:       uuid.New().String(),
		TransactionID: proposal.Transaction.TransactionID,
		EntityType:    proposal.Candidate.EntityType,
		EntityID:      proposal.Candidate.ID,
		MatchedAmount: proposal.Candidate.Amount.Abs(),
		Confidence:    proposal.Confidence,
		MatchingScore: proposal.Score,
		Criteria:      proposal.Criteria,
		AutoMatched:   false,
		IsActive:      false,
	}

	if err := s.matchRepo.Create(match); err != nil {
		return err
	}

	summary.Proposed++
	summary.Results = append(summary.Results, resultFromProposal(proposal, false))
	return nil
}

// raiseVarianceExceptions flags applied matches that were accepted through a
// loose rule: the match stands, but the variance needs human eyes.
func (s *matchingService) raiseVarianceExceptions(proposal *matcher.Proposal) {
	tx := proposal.Transaction

	tight := decimal.NewFromFloat(s.cfg.TightAmountTolerance)
	delta := proposal.Candidate.Amount.Abs().Sub(tx.AbsAmount()).Abs()
	if delta.GreaterThan(tight) {
		details := fmt.Sprintf("matched %s against candidate %s, amount off by %s",
			tx.ExternalRef, proposal.Candidate.ID, delta.String())
		if _, err := s.exceptions.Raise(tx.AccountID, &tx.TransactionID, domain.ExceptionAmountVariance, domain.SeverityMedium, details); err != nil {
			logger.GetLogger().WithError(err).Warn("Failed to raise amount variance exception")
		}
	}

	daysOff := matcher.DaysBetween(tx.Date, proposal.Candidate.Date)
	if daysOff > s.cfg.TightDateToleranceDays {
		details := fmt.Sprintf("matched %s against candidate %s, dates %d days apart",
			tx.ExternalRef, proposal.Candidate.ID, daysOff)
		if _, err := s.exceptions.Raise(tx.AccountID, &tx.TransactionID, domain.ExceptionDateVariance, domain.SeverityLow, details); err != nil {
			logger.GetLogger().WithError(err).Warn("Failed to raise date variance exception")
		}
	}
}

func resultFromProposal(proposal *matcher.Proposal, applied bool) domain.MatchResult {
	return domain.MatchResult{
		TransactionID:  proposal.Transaction.TransactionID,
		EntityType:     proposal.Candidate.EntityType,
		EntityID:       proposal.Candidate.ID,
		Confidence:     proposal.Confidence,
		AutoMatched:    applied,
		Applied:        applied,
		ScoreBreakdown: proposal.Breakdown,
	}
}

// entityWindows computes the widest date window per target entity type across
// the valid rules.
func entityWindows(rules []domain.MatchingRule) map[domain.EntityType]int {
	windows := make(map[domain.EntityType]int)
	for i := range rules {
		rule := &rules[i]
		if err := rule.Validate(); err != nil {
			continue
		}
		if rule.DateToleranceDays > windows[rule.TargetEntityType] {
			windows[rule.TargetEntityType] = rule.DateToleranceDays
		}
	}
	return windows
}

// potentialMatchType is the reviewer hint: money in is most likely a recorded
// payment or income, money out an expense.
func potentialMatchType(direction domain.Direction) domain.EntityType {
	if direction == domain.Debit {
		return domain.EntityExpense
	}
	return domain.EntityPayment
}
