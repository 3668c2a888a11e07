package claims

import (
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/coverage"
	"github.com/bonapart3/claimagent-sub002/internal/escalation"
	"github.com/bonapart3/claimagent-sub002/internal/fraud"
	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/google/uuid"
)

// DecisionArtifacts is the persisted output of one decision cycle. Each
// run is a new, fully-attributed record; artifacts are never recomputed in
// place.
type DecisionArtifacts struct {
	ID           uuid.UUID             `json:"id" db:"id"`
	ClaimID      uuid.UUID             `json:"claim_id" db:"claim_id"`
	RunAt        time.Time             `json:"run_at" db:"run_at"`
	Risk         fraud.RiskScore       `json:"risk" db:"risk"`
	Coverage     coverage.Result       `json:"coverage" db:"coverage"`
	Escalation   escalation.Outcome    `json:"escalation" db:"escalation"`
	StatusBefore lifecycle.ClaimStatus `json:"status_before" db:"status_before"`
	StatusAfter  lifecycle.ClaimStatus `json:"status_after" db:"status_after"`
	Actor        string                `json:"actor" db:"actor"`
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// EvaluateRequest triggers a decision cycle for a claim
type EvaluateRequest struct {
	// Triggers are ad-hoc escalation facts supplied by the caller on top
	// of the triggers the engine derives itself
	Triggers []escalation.Trigger `json:"triggers"`
}

// EvaluateResponse returns the decision cycle output
type EvaluateResponse struct {
	DecisionID            uuid.UUID             `json:"decision_id"`
	RiskScore             float64               `json:"risk_score"`
	RiskTier              fraud.RiskTier        `json:"risk_tier"`
	CoverageApplies       bool                  `json:"coverage_applies"`
	OverallRecommendation string                `json:"overall_recommendation"`
	RequiresHumanReview   bool                  `json:"requires_human_review"`
	Status                lifecycle.ClaimStatus `json:"status"`
	SIUReferral           bool                  `json:"siu_referral"`
}

// StatusChangeRequest requests a lifecycle transition
type StatusChangeRequest struct {
	Status lifecycle.ClaimStatus `json:"status" binding:"required"`
	Reason string                `json:"reason" binding:"required"`
}

// ObligationsResponse lists the deadline obligations for a claim
type ObligationsResponse struct {
	ClaimID     uuid.UUID              `json:"claim_id"`
	State       string                 `json:"state"`
	Obligations []lifecycle.Obligation `json:"obligations"`
	AnyOverdue  bool                   `json:"any_overdue"`
}
