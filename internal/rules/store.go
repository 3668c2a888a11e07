package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/bonapart3/claimagent-sub002/pkg/logger"
	"github.com/bonapart3/claimagent-sub002/pkg/redis"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrRuleNotFound is returned when no jurisdiction rule is effective for a
// state on a given date
var ErrRuleNotFound = errors.New("jurisdiction rule not found")

// Store provides read access to versioned jurisdiction reference data
type Store interface {
	// GetRule returns the rule for a state effective on the given date
	GetRule(ctx context.Context, state string, asOf time.Time) (lifecycle.JurisdictionRule, error)
	// ListRules returns all rule versions for a state
	ListRules(ctx context.Context, state string) ([]lifecycle.JurisdictionRule, error)
}

// PostgresStore reads jurisdiction rules from PostgreSQL with a Redis
// read-through cache. Rules are reference data versioned by effective date.
type PostgresStore struct {
	db       *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
}

// Ensure the concrete store satisfies the interface
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a jurisdiction rule store. The cache may be nil
// when Redis is unavailable; reads then always hit the database.
func NewPostgresStore(db *pgxpool.Pool, cache *redis.Client) *PostgresStore {
	return &PostgresStore{db: db, cache: cache, cacheTTL: 15 * time.Minute}
}

// GetRule returns the most recent rule version effective on or before asOf
func (s *PostgresStore) GetRule(ctx context.Context, state string, asOf time.Time) (lifecycle.JurisdictionRule, error) {
	cacheKey := fmt.Sprintf("jurisdiction_rule:%s:%s", state, asOf.Format("2006-01-02"))

	if s.cache != nil {
		if cached, err := s.cache.GetString(ctx, cacheKey); err == nil {
			var rule lifecycle.JurisdictionRule
			if err := json.Unmarshal([]byte(cached), &rule); err == nil {
				return rule, nil
			}
		}
	}

	query := `
		SELECT state, effective_date, total_loss_threshold_pct,
		       acknowledgment_days, investigation_days, payment_days
		FROM jurisdiction_rules
		WHERE state = $1 AND effective_date <= $2
		ORDER BY effective_date DESC
		LIMIT 1
	`

	var rule lifecycle.JurisdictionRule
	err := s.db.QueryRow(ctx, query, state, asOf).Scan(
		&rule.State,
		&rule.EffectiveDate,
		&rule.TotalLossThresholdPct,
		&rule.AcknowledgmentDays,
		&rule.InvestigationDays,
		&rule.PaymentDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lifecycle.JurisdictionRule{}, fmt.Errorf("%w: state %s as of %s", ErrRuleNotFound, state, asOf.Format("2006-01-02"))
		}
		return lifecycle.JurisdictionRule{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(rule); err == nil {
			if err := s.cache.SetWithExpiration(ctx, cacheKey, data, s.cacheTTL); err != nil {
				logger.Warn("Failed to cache jurisdiction rule", zap.Error(err), zap.String("state", state))
			}
		}
	}

	return rule, nil
}

// ListRules returns all rule versions for a state, newest first
func (s *PostgresStore) ListRules(ctx context.Context, state string) ([]lifecycle.JurisdictionRule, error) {
	query := `
		SELECT state, effective_date, total_loss_threshold_pct,
		       acknowledgment_days, investigation_days, payment_days
		FROM jurisdiction_rules
		WHERE state = $1
		ORDER BY effective_date DESC
	`

	rows, err := s.db.Query(ctx, query, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]lifecycle.JurisdictionRule, 0)
	for rows.Next() {
		var rule lifecycle.JurisdictionRule
		if err := rows.Scan(
			&rule.State,
			&rule.EffectiveDate,
			&rule.TotalLossThresholdPct,
			&rule.AcknowledgmentDays,
			&rule.InvestigationDays,
			&rule.PaymentDays,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}
