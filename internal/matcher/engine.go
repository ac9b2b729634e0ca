package matcher

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

// Weights combine the per-signal scores into one confidence score. They are
// an engine constant: closer amount, date and text always score higher, but
// the exact blend is not part of the external contract.
type Weights struct {
	Amount float64
	Date   float64
	Text   float64
}

// DefaultWeights keep a candidate inside half the amount tolerance, on the
// right day and with clean text, above a 0.8 rule threshold:
// 0.35*0.5 + 0.4 + 0.25 = 0.825.
var DefaultWeights = Weights{Amount: 0.35, Date: 0.4, Text: 0.25}

// Engine scores candidate payable records against unmatched bank transactions
// using the prioritized rule set. The engine is pure computation: candidates
// are handed in, nothing is fetched inside the scoring loop.
type Engine struct {
	weights Weights
}

func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights}
}

// Proposal is the outcome of evaluating one transaction: the best candidate
// of the first rule that produced a score above its threshold.
type Proposal struct {
	Transaction *domain.BankTransaction
	Candidate   domain.PayableRecord
	Rule        *domain.MatchingRule
	Score       float64
	Breakdown   domain.ScoreBreakdown
	Confidence  domain.Confidence
	Criteria    []domain.MatchCriterion
	AutoMatch   bool
}

// CandidatePool holds the records fetched once per transaction, keyed by
// target entity type. Consumed ids are candidates already claimed by an
// applied match earlier in the same pass.
type CandidatePool struct {
	Records  map[domain.EntityType][]domain.PayableRecord
	Consumed map[string]bool
}

// Evaluate walks the rules in priority order and stops at the first rule whose
// best candidate clears its confidence threshold. A misconfigured rule is
// logged and skipped so one bad rule cannot block the pass. Returns nil when
// no rule produced an acceptable candidate.
func (e *Engine) Evaluate(tx *domain.BankTransaction, rules []domain.MatchingRule, pool CandidatePool) *Proposal {
	ordered := make([]domain.MatchingRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for i := range ordered {
		rule := &ordered[i]
		if err := rule.Validate(); err != nil {
			logger.GetLogger().WithError(err).WithField("rule_id", rule.RuleID).Warn("Skipping misconfigured rule")
			continue
		}

		best := e.bestCandidate(tx, rule, pool)
		if best == nil {
			continue
		}
		if best.Score < rule.MinConfidenceScore {
			continue
		}

		best.Confidence = domain.ConfidenceForScore(best.Score)
		best.AutoMatch = rule.AutoMatchEnabled
		return best
	}

	return nil
}

// bestCandidate scores every in-window, in-tolerance candidate of the rule's
// target type and keeps the highest. Ties break by earliest candidate date,
// then lowest entity id, so repeated passes decide identically.
func (e *Engine) bestCandidate(tx *domain.BankTransaction, rule *domain.MatchingRule, pool CandidatePool) *Proposal {
	var best *Proposal

	var pattern *regexp.Regexp
	if rule.ReferencePattern != "" {
		pattern = regexp.MustCompile(rule.ReferencePattern) // validated above
	}

	for _, cand := range pool.Records[rule.TargetEntityType] {
		if pool.Consumed[cand.ID] {
			continue
		}
		if DaysBetween(tx.Date, cand.Date) > rule.DateToleranceDays {
			continue
		}
		delta := cand.Amount.Abs().Sub(tx.AbsAmount()).Abs()
		if delta.GreaterThan(rule.AmountTolerance(cand.Amount)) {
			continue
		}

		proposal := e.score(tx, rule, cand, pattern)
		if best == nil || better(proposal, best) {
			best = proposal
		}
	}

	return best
}

func better(a, b *Proposal) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Candidate.Date.Equal(b.Candidate.Date) {
		return a.Candidate.Date.Before(b.Candidate.Date)
	}
	return a.Candidate.ID < b.Candidate.ID
}

func (e *Engine) score(tx *domain.BankTransaction, rule *domain.MatchingRule, cand domain.PayableRecord, pattern *regexp.Regexp) *Proposal {
	var criteria []domain.MatchCriterion

	amountScore, delta := e.amountScore(tx, rule, cand)
	criteria = append(criteria, domain.MatchCriterion{
		Kind:   domain.CriterionAmount,
		Detail: "delta " + delta.String(),
		Score:  amountScore,
	})

	dateScore, daysOff := e.dateScore(tx, rule, cand)
	criteria = append(criteria, domain.MatchCriterion{
		Kind:   domain.CriterionDate,
		Detail: "days off " + strconv.Itoa(daysOff),
		Score:  dateScore,
	})

	textScore, textCriteria := e.textScore(tx, rule, cand, pattern)
	criteria = append(criteria, textCriteria...)

	total := amountScore*e.weights.Amount + dateScore*e.weights.Date + textScore*e.weights.Text

	return &Proposal{
		Transaction: tx,
		Candidate:   cand,
		Rule:        rule,
		Score:       total,
		Breakdown: domain.ScoreBreakdown{
			Amount: amountScore,
			Date:   dateScore,
			Text:   textScore,
			Total:  total,
		},
		Criteria: criteria,
	}
}

// amountScore decays linearly from 1 at an exact amount to 0 at the tolerance
// boundary.
func (e *Engine) amountScore(tx *domain.BankTransaction, rule *domain.MatchingRule, cand domain.PayableRecord) (float64, decimal.Decimal) {
	delta := cand.Amount.Abs().Sub(tx.AbsAmount()).Abs()
	if delta.IsZero() {
		return 1.0, delta
	}

	tolerance := rule.AmountTolerance(cand.Amount)
	if tolerance.IsZero() {
		return 0.0, delta
	}

	ratio, _ := delta.Div(tolerance).Float64()
	if ratio > 1 {
		ratio = 1
	}
	return 1.0 - ratio, delta
}

// dateScore decays linearly from 1 on the same day to 0 at the day-tolerance
// boundary.
func (e *Engine) dateScore(tx *domain.BankTransaction, rule *domain.MatchingRule, cand domain.PayableRecord) (float64, int) {
	daysOff := DaysBetween(tx.Date, cand.Date)
	if daysOff == 0 {
		return 1.0, 0
	}
	if rule.DateToleranceDays == 0 || daysOff > rule.DateToleranceDays {
		return 0.0, daysOff
	}
	return 1.0 - float64(daysOff)/float64(rule.DateToleranceDays), daysOff
}

// textScore combines keyword hits and the reference pattern over the
// transaction's free-text fields and the candidate's descriptors. A rule with
// no text configuration scores neutral so amount and date alone can decide.
func (e *Engine) textScore(tx *domain.BankTransaction, rule *domain.MatchingRule, cand domain.PayableRecord, pattern *regexp.Regexp) (float64, []domain.MatchCriterion) {
	hasKeywords := len(rule.DescriptionKeywords) > 0
	hasPattern := pattern != nil
	if !hasKeywords && !hasPattern {
		return 1.0, nil
	}

	var criteria []domain.MatchCriterion
	haystack := strings.ToLower(strings.Join([]string{
		tx.Description, tx.Payer, tx.Payee, cand.Description, cand.CounterpartyName,
	}, " "))

	var keywordScore float64
	if hasKeywords {
		hits := 0
		var matched []string
		for _, kw := range rule.DescriptionKeywords {
			if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
				hits++
				matched = append(matched, kw)
			}
		}
		keywordScore = float64(hits) / float64(len(rule.DescriptionKeywords))
		if hits > 0 {
			criteria = append(criteria, domain.MatchCriterion{
				Kind:   domain.CriterionKeyword,
				Detail: strings.Join(matched, ","),
				Score:  keywordScore,
			})
		}
	}

	var patternScore float64
	if hasPattern {
		if pattern.MatchString(tx.ExternalRef) || pattern.MatchString(tx.Description) {
			patternScore = 1.0
			criteria = append(criteria, domain.MatchCriterion{
				Kind:   domain.CriterionPattern,
				Detail: rule.ReferencePattern,
				Score:  patternScore,
			})
		}
	}

	switch {
	case hasKeywords && hasPattern:
		return (keywordScore + patternScore) / 2, criteria
	case hasKeywords:
		return keywordScore, criteria
	default:
		return patternScore, criteria
	}
}

// DaysBetween counts whole calendar days between two dates, ignoring
// time-of-day so a morning transaction still matches an evening record.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
