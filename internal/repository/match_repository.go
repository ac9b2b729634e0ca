package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"bankrecon/internal/domain"
	"bankrecon/pkg/logger"
)

type MatchRepository interface {
	Create(match *domain.TransactionMatch) error
	GetByMatchID(matchID string) (*domain.TransactionMatch, error)
	ListActiveByTransaction(transactionID string) ([]domain.TransactionMatch, error)
	FindActive(transactionID string, entityType domain.EntityType, entityID string) (*domain.TransactionMatch, error)
	ListActiveEntityIDs() ([]string, error)
	Deactivate(matchID string) error
}

type matchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) MatchRepository {
	return &matchRepository{db: db}
}

const matchColumns = `
	id, match_id, transaction_id, entity_type, entity_id, matched_amount,
	confidence, matching_score, matching_criteria, auto_matched, is_active,
	matched_by, created_at, updated_at
`

func (r *matchRepository) Create(match *domain.TransactionMatch) error {
	criteria, err := json.Marshal(match.Criteria)
	if err != nil {
		return fmt.Errorf("marshal matching criteria: %w", err)
	}

	query := `
		INSERT INTO transaction_matches (
			match_id, transaction_id, entity_type, entity_id, matched_amount,
			confidence, matching_score, matching_criteria, auto_matched,
			is_active, matched_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRow(
		query,
		match.MatchID,
		match.TransactionID,
		match.EntityType,
		match.EntityID,
		match.MatchedAmount,
		match.Confidence,
		match.MatchingScore,
		criteria,
		match.AutoMatched,
		match.IsActive,
		match.MatchedBy,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create transaction match")
		return err
	}

	return nil
}

func (r *matchRepository) GetByMatchID(matchID string) (*domain.TransactionMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM transaction_matches WHERE match_id = $1`

	match, err := scanMatch(r.db.QueryRow(query, matchID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match %s: %w", matchID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get transaction match")
		return nil, err
	}

	return match, nil
}

func (r *matchRepository) ListActiveByTransaction(transactionID string) ([]domain.TransactionMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM transaction_matches
		WHERE transaction_id = $1 AND is_active = true
		ORDER BY id
	`

	rows, err := r.db.Query(query, transactionID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query transaction matches")
		return nil, err
	}
	defer rows.Close()

	var matches []domain.TransactionMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan transaction match")
			continue
		}
		matches = append(matches, *match)
	}

	return matches, rows.Err()
}

// FindActive locates an existing active match for the same transaction and
// entity reference; the applier uses it to make retries idempotent.
func (r *matchRepository) FindActive(transactionID string, entityType domain.EntityType, entityID string) (*domain.TransactionMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM transaction_matches
		WHERE transaction_id = $1 AND entity_type = $2 AND entity_id = $3 AND is_active = true
	`

	match, err := scanMatch(r.db.QueryRow(query, transactionID, entityType, entityID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to find active match")
		return nil, err
	}

	return match, nil
}

// ListActiveEntityIDs returns entity ids consumed by active matches so a
// matching pass can exclude them from candidate pools.
func (r *matchRepository) ListActiveEntityIDs() ([]string, error) {
	query := `SELECT DISTINCT entity_id FROM transaction_matches WHERE is_active = true`

	rows, err := r.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query consumed entity ids")
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan entity id")
			continue
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *matchRepository) Deactivate(matchID string) error {
	query := `
		UPDATE transaction_matches
		SET is_active = false, updated_at = NOW()
		WHERE match_id = $1
	`

	result, err := r.db.Exec(query, matchID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to deactivate match")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("match %s: %w", matchID, domain.ErrNotFound)
	}

	return nil
}

func scanMatch(row rowScanner) (*domain.TransactionMatch, error) {
	var match domain.TransactionMatch
	var criteria []byte

	err := row.Scan(
		&match.ID,
		&match.MatchID,
		&match.TransactionID,
		&match.EntityType,
		&match.EntityID,
		&match.MatchedAmount,
		&match.Confidence,
		&match.MatchingScore,
		&criteria,
		&match.AutoMatched,
		&match.IsActive,
		&match.MatchedBy,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &match.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshal matching criteria: %w", err)
		}
	}

	return &match, nil
}
