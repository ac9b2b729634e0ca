package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type RuleRepository interface {
	Create(rule *domain.MatchingRule) error
	GetByRuleID(ruleID string) (*domain.MatchingRule, error)
	ListActive() ([]domain.MatchingRule, error)
}

type ruleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(rule *domain.MatchingRule) error {
	query := `
		INSERT INTO matching_rules (
			rule_id, name, priority, target_entity_type,
			amount_tolerance_absolute, amount_tolerance_percentage,
			date_tolerance_days, description_keywords, reference_pattern,
			min_confidence_score, auto_match_enabled, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		rule.RuleID,
		rule.Name,
		rule.Priority,
		rule.TargetEntityType,
		rule.AmountToleranceAbsolute,
		rule.AmountTolerancePercentage,
		rule.DateToleranceDays,
		pq.Array(rule.DescriptionKeywords),
		rule.ReferencePattern,
		rule.MinConfidenceScore,
		rule.AutoMatchEnabled,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create matching rule")
		return err
	}

	return nil
}

func (r *ruleRepository) GetByRuleID(ruleID string) (*domain.MatchingRule, error) {
	query := `
		SELECT id, rule_id, name, priority, target_entity_type,
			   amount_tolerance_absolute, amount_tolerance_percentage,
			   date_tolerance_days, description_keywords, reference_pattern,
			   min_confidence_score, auto_match_enabled, is_active,
			   created_at, updated_at
		FROM matching_rules
		WHERE rule_id = $1
	`

	rule, err := scanRule(r.db.QueryRow(query, ruleID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s: %w", ruleID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get matching rule")
		return nil, err
	}

	return rule, nil
}

// ListActive returns active rules in evaluation order (priority ascending).
func (r *ruleRepository) ListActive() ([]domain.MatchingRule, error) {
	query := `
		SELECT id, rule_id, name, priority, target_entity_type,
			   amount_tolerance_absolute, amount_tolerance_percentage,
			   date_tolerance_days, description_keywords, reference_pattern,
			   min_confidence_score, auto_match_enabled, is_active,
			   created_at, updated_at
		FROM matching_rules
		WHERE is_active = true
		ORDER BY priority, id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query matching rules")
		return nil, err
	}
	defer rows.Close()

	var rules []domain.MatchingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan matching rule")
			continue
		}
		rules = append(rules, *rule)
	}

	return rules, rows.Err()
}

func scanRule(row rowScanner) (*domain.MatchingRule, error) {
	var rule domain.MatchingRule
	var keywords pq.StringArray

	err := row.Scan(
		&rule.ID,
		&rule.RuleID,
		&rule.Name,
		&rule.Priority,
		&rule.TargetEntityType,
		&rule.AmountToleranceAbsolute,
		&rule.AmountTolerancePercentage,
		&rule.DateToleranceDays,
		&keywords,
		&rule.ReferencePattern,
		&rule.MinConfidenceScore,
		&rule.AutoMatchEnabled,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.DescriptionKeywords = keywords
	return &rule, nil
}
