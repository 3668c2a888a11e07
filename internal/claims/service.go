package claims

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/audit"
	"github.com/bonapart3/claimagent-sub002/internal/coverage"
	"github.com/bonapart3/claimagent-sub002/internal/escalation"
	"github.com/bonapart3/claimagent-sub002/internal/fraud"
	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/bonapart3/claimagent-sub002/internal/rules"
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/bonapart3/claimagent-sub002/pkg/config"
	"github.com/bonapart3/claimagent-sub002/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orchestrates the claim decision engine: it assembles the
// snapshot, runs coverage analysis and both fraud scorers, composes the
// risk score, derives and decides escalation triggers, applies the
// resulting lifecycle transition, and persists the decision artifacts.
type Service struct {
	repo     RepositoryInterface
	rules    rules.Store
	analyzer *coverage.Analyzer
	pattern  *fraud.PatternScorer
	medical  *fraud.MedicalScreener
	composer *fraud.Composer
	decider  *escalation.Decider
	machine  *lifecycle.Machine
	auditor  audit.Emitter
	cfg      config.RiskConfig
}

// NewService creates the decision engine service
func NewService(repo RepositoryInterface, ruleStore rules.Store, auditor audit.Emitter, cfg config.RiskConfig) *Service {
	return &Service{
		repo:     repo,
		rules:    ruleStore,
		analyzer: coverage.NewAnalyzer(),
		pattern:  fraud.NewPatternScorer(fraud.DefaultPatternConfig()),
		medical:  fraud.NewMedicalScreener(fraud.DefaultMedicalConfig()),
		composer: fraud.NewComposer(cfg),
		decider:  escalation.NewDecider(cfg),
		machine:  lifecycle.NewMachine(),
		auditor:  auditor,
		cfg:      cfg,
	}
}

// EvaluateCoverage runs coverage analysis alone for a claim
func (s *Service) EvaluateCoverage(ctx context.Context, claimID uuid.UUID) (coverage.Result, error) {
	claim, err := s.repo.GetSnapshot(ctx, claimID, time.Now().UTC())
	if err != nil {
		return coverage.Result{}, err
	}
	if err := claim.Validate(); err != nil {
		return coverage.Result{}, err
	}
	return s.analyzer.Evaluate(claim), nil
}

// ScoreRisk runs both fraud scorers concurrently and composes the result
func (s *Service) ScoreRisk(ctx context.Context, claimID uuid.UUID) (fraud.RiskScore, error) {
	claim, err := s.repo.GetSnapshot(ctx, claimID, time.Now().UTC())
	if err != nil {
		return fraud.RiskScore{}, err
	}
	if err := claim.Validate(); err != nil {
		return fraud.RiskScore{}, err
	}
	return s.scoreRisk(claim), nil
}

// scoreRisk fans the scorers out over the same immutable snapshot. Both
// are pure, so the only shared state is the snapshot itself. The billing
// screener is scoped to injury claims: billing rows on a claim with no
// injured participant never move the composite score.
func (s *Service) scoreRisk(claim *snapshot.ClaimSnapshot) fraud.RiskScore {
	var (
		wg           sync.WaitGroup
		patternScore fraud.PatternScore
		medicalScore *fraud.MedicalScore
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		patternScore = s.pattern.Score(claim)
	}()
	if claim.HasInjuries() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			score := s.medical.Screen(claim)
			medicalScore = &score
		}()
	}
	wg.Wait()

	return s.composer.Compose(claim.ClaimID, &patternScore, medicalScore)
}

// RunDecisionCycle executes one full decision cycle for a claim and
// persists a new decision artifact record
func (s *Service) RunDecisionCycle(ctx context.Context, claimID uuid.UUID, extraTriggers []escalation.Trigger, actor string) (*DecisionArtifacts, error) {
	start := time.Now()
	log := logger.WithContext(ctx)

	state, err := s.repo.GetState(ctx, claimID)
	if err != nil {
		return nil, err
	}

	claim, err := s.repo.GetSnapshot(ctx, claimID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	rule := s.jurisdictionRule(ctx, claim.Jurisdiction, claim.AsOf)

	// Coverage analysis and fraud scoring are independent reads of the
	// same snapshot; run them in parallel
	var (
		wg  sync.WaitGroup
		cov coverage.Result
	)
	var risk fraud.RiskScore
	wg.Add(2)
	go func() {
		defer wg.Done()
		cov = s.analyzer.Evaluate(claim)
	}()
	go func() {
		defer wg.Done()
		risk = s.scoreRisk(claim)
	}()
	wg.Wait()

	triggers := s.deriveTriggers(claim, risk, cov, rule)
	triggers = append(triggers, extraTriggers...)

	outcome := s.decider.Decide(claim, risk, cov, triggers)

	statusAfter := s.applyLifecycle(ctx, state, risk, outcome, actor)

	artifacts := &DecisionArtifacts{
		ID:           uuid.New(),
		ClaimID:      claimID,
		RunAt:        claim.AsOf,
		Risk:         risk,
		Coverage:     cov,
		Escalation:   outcome,
		StatusBefore: state.Status,
		StatusAfter:  statusAfter,
		Actor:        actor,
	}

	if err := s.repo.SaveDecision(ctx, artifacts); err != nil {
		return nil, fmt.Errorf("failed to save decision artifacts: %w", err)
	}

	s.emitAudit(ctx, audit.Event{
		ID:         uuid.New(),
		Action:     audit.ActionScoringRun,
		EntityType: "claim",
		EntityID:   claimID,
		After: map[string]interface{}{
			"decision_id":    artifacts.ID.String(),
			"risk_score":     risk.Score,
			"risk_tier":      string(risk.Tier),
			"siu_referral":   risk.SIUReferral,
			"recommendation": outcome.OverallRecommendation,
			"status_after":   string(statusAfter),
		},
		Actor:     actor,
		Timestamp: claim.AsOf,
	})

	decisionCyclesTotal.WithLabelValues(string(risk.Tier), outcome.OverallRecommendation).Inc()
	if risk.SIUReferral {
		siuReferralsTotal.Inc()
	}
	decisionCycleDuration.Observe(time.Since(start).Seconds())

	log.Info("Decision cycle completed",
		zap.String("claim_id", claimID.String()),
		zap.Float64("risk_score", risk.Score),
		zap.String("risk_tier", string(risk.Tier)),
		zap.String("recommendation", outcome.OverallRecommendation),
		zap.Bool("requires_human_review", outcome.RequiresHumanReview),
		zap.String("status_before", string(state.Status)),
		zap.String("status_after", string(statusAfter)),
	)

	return artifacts, nil
}

// deriveTriggers inspects the snapshot and scoring output for escalation
// facts the engine raises on its own
func (s *Service) deriveTriggers(claim *snapshot.ClaimSnapshot, risk fraud.RiskScore, cov coverage.Result, rule lifecycle.JurisdictionRule) []escalation.Trigger {
	triggers := make([]escalation.Trigger, 0, 4)

	if escalation.IsHighValue(claim.EstimatedAmount) {
		triggers = append(triggers, escalation.Trigger{
			Type:     escalation.TriggerHighValueClaim,
			Severity: escalation.SeverityMedium,
			Reason:   fmt.Sprintf("estimated amount $%.2f", claim.EstimatedAmount),
		})
	}

	if risk.SIUReferral {
		triggers = append(triggers, escalation.Trigger{
			Type:     escalation.TriggerFraudSuspected,
			Severity: escalation.SeverityHigh,
			Reason:   fmt.Sprintf("composite fraud score %.1f", risk.Score),
		})
	}

	if cov.CoverageApplies() && cov.ExclusionApplies() {
		triggers = append(triggers, escalation.Trigger{
			Type:     escalation.TriggerCoverageDispute,
			Severity: escalation.SeverityHigh,
			Reason:   "coverage applies but a policy exclusion also applies",
		})
	}

	if claim.Vehicle != nil && claim.Vehicle.ActualCashValue > 0 {
		threshold := rule.TotalLossThresholdPct / 100 * claim.Vehicle.ActualCashValue
		if claim.EstimatedAmount >= threshold {
			triggers = append(triggers, escalation.Trigger{
				Type:     escalation.TriggerTotalLoss,
				Severity: escalation.SeverityMedium,
				Reason:   fmt.Sprintf("estimate $%.2f at or above %.0f%% of ACV $%.2f", claim.EstimatedAmount, rule.TotalLossThresholdPct, claim.Vehicle.ActualCashValue),
			})
		}
	}

	if claim.HasInjuries() {
		triggers = append(triggers, escalation.Trigger{
			Type:     escalation.TriggerInjuryClaim,
			Severity: escalation.SeverityHigh,
			Reason:   "bodily injury reported by a claim participant",
		})
	}

	return triggers
}

// applyLifecycle maps the decision outcome onto a lifecycle transition.
// An illegal or conflicting transition is logged and skipped: the decision
// record still stands, only the automatic status move is withheld.
func (s *Service) applyLifecycle(ctx context.Context, state lifecycle.ClaimState, risk fraud.RiskScore, outcome escalation.Outcome, actor string) lifecycle.ClaimStatus {
	target := s.targetStatus(state.Status, risk, outcome)
	if target == state.Status {
		return state.Status
	}

	log := logger.WithContext(ctx)
	if !lifecycle.CanTransition(state.Status, target) {
		log.Warn("Skipping automatic status transition",
			zap.String("claim_id", state.ClaimID.String()),
			zap.String("from", string(state.Status)),
			zap.String("to", string(target)),
		)
		return state.Status
	}

	next, record, err := s.machine.Transition(state, target, actor, "decision engine outcome: "+outcome.OverallRecommendation, time.Now().UTC())
	if err != nil {
		log.Warn("Automatic status transition rejected", zap.Error(err))
		return state.Status
	}

	if err := s.repo.UpdateState(ctx, next, state.Version); err != nil {
		// A concurrent cycle won the version race; its transition stands
		log.Warn("Failed to persist automatic status transition",
			zap.Error(err),
			zap.String("claim_id", state.ClaimID.String()),
		)
		return state.Status
	}

	statusTransitionsTotal.WithLabelValues(string(record.From), string(record.To)).Inc()
	s.emitAudit(ctx, audit.Event{
		ID:         uuid.New(),
		Action:     audit.ActionStatusTransition,
		EntityType: "claim",
		EntityID:   state.ClaimID,
		Before:     map[string]interface{}{"status": string(record.From)},
		After:      map[string]interface{}{"status": string(record.To), "reason": record.Reason},
		Actor:      actor,
		Timestamp:  record.OccurredAt,
	})

	return next.Status
}

// targetStatus picks the automatic lifecycle move for a decision outcome.
// SIU referral suspends; denial denies; investigation and ordinary intake
// both land on INVESTIGATION.
func (s *Service) targetStatus(current lifecycle.ClaimStatus, risk fraud.RiskScore, outcome escalation.Outcome) lifecycle.ClaimStatus {
	if risk.SIUReferral {
		return lifecycle.StatusSuspended
	}
	switch outcome.OverallRecommendation {
	case escalation.RecommendationDeny:
		return lifecycle.StatusDenied
	case escalation.RecommendationInvestigate:
		if current == lifecycle.StatusIntake {
			return lifecycle.StatusInvestigation
		}
	default:
		if current == lifecycle.StatusIntake {
			return lifecycle.StatusInvestigation
		}
	}
	return current
}

// RequestStatusChange applies a caller-requested lifecycle transition
func (s *Service) RequestStatusChange(ctx context.Context, claimID uuid.UUID, to lifecycle.ClaimStatus, actor, reason string) (lifecycle.ClaimState, error) {
	state, err := s.repo.GetState(ctx, claimID)
	if err != nil {
		return lifecycle.ClaimState{}, err
	}

	next, record, err := s.machine.Transition(state, to, actor, reason, time.Now().UTC())
	if err != nil {
		return lifecycle.ClaimState{}, err
	}

	if err := s.repo.UpdateState(ctx, next, state.Version); err != nil {
		return lifecycle.ClaimState{}, err
	}

	statusTransitionsTotal.WithLabelValues(string(record.From), string(record.To)).Inc()
	s.emitAudit(ctx, audit.Event{
		ID:         uuid.New(),
		Action:     audit.ActionStatusTransition,
		EntityType: "claim",
		EntityID:   claimID,
		Before:     map[string]interface{}{"status": string(record.From)},
		After:      map[string]interface{}{"status": string(record.To), "reason": reason},
		Actor:      actor,
		Timestamp:  record.OccurredAt,
	})

	logger.WithContext(ctx).Info("Claim status changed",
		zap.String("claim_id", claimID.String()),
		zap.String("from", string(record.From)),
		zap.String("to", string(record.To)),
		zap.String("actor", actor),
	)

	return next, nil
}

// GetObligations returns the deadline obligations for a claim as of now
func (s *Service) GetObligations(ctx context.Context, claimID uuid.UUID) (*ObligationsResponse, error) {
	state, err := s.repo.GetState(ctx, claimID)
	if err != nil {
		return nil, err
	}

	claim, err := s.repo.GetSnapshot(ctx, claimID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	rule := s.jurisdictionRule(ctx, claim.Jurisdiction, claim.AsOf)
	obligations := s.machine.Obligations(state, rule, claim.AsOf)

	anyOverdue := false
	for _, o := range obligations {
		if o.Overdue {
			anyOverdue = true
			break
		}
	}

	return &ObligationsResponse{
		ClaimID:     claimID,
		State:       rule.State,
		Obligations: obligations,
		AnyOverdue:  anyOverdue,
	}, nil
}

// GetLatestDecision returns the most recent decision artifacts for a claim
func (s *Service) GetLatestDecision(ctx context.Context, claimID uuid.UUID) (*DecisionArtifacts, error) {
	return s.repo.GetLatestDecision(ctx, claimID)
}

// ListJurisdictionRules exposes the versioned rule history for a state
func (s *Service) ListJurisdictionRules(ctx context.Context, state string) ([]lifecycle.JurisdictionRule, error) {
	return s.rules.ListRules(ctx, state)
}

// jurisdictionRule loads the effective rule for a state, falling back to
// statutory defaults when no versioned rule is on file
func (s *Service) jurisdictionRule(ctx context.Context, state string, asOf time.Time) lifecycle.JurisdictionRule {
	rule, err := s.rules.GetRule(ctx, state, asOf)
	if err != nil {
		logger.WithContext(ctx).Warn("No jurisdiction rule on file, using defaults",
			zap.String("state", state),
			zap.Error(err),
		)
		return lifecycle.DefaultJurisdictionRule(state)
	}
	return rule
}

// emitAudit publishes an audit event; failures are already logged by the
// emitter and never block the decision path
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	_ = s.auditor.Emit(ctx, event)
}
