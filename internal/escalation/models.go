package escalation

import "time"

// TriggerType identifies the kind of escalation fact being evaluated.
// The set is closed: the decider dispatches exhaustively over these values
// and derives generic handling for anything else from the trigger severity.
type TriggerType string

const (
	TriggerHighValueClaim  TriggerType = "HIGH_VALUE_CLAIM"
	TriggerFraudSuspected  TriggerType = "FRAUD_SUSPECTED"
	TriggerCoverageDispute TriggerType = "COVERAGE_DISPUTE"
	TriggerTotalLoss       TriggerType = "TOTAL_LOSS"
	TriggerComplianceIssue TriggerType = "COMPLIANCE_ISSUE"
	TriggerInjuryClaim     TriggerType = "INJURY_CLAIM"
)

// Severity is the declared severity of a trigger, used to derive priority
// for trigger types without dedicated handling
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Trigger is an input escalation fact
type Trigger struct {
	Type     TriggerType `json:"type"`
	Severity Severity    `json:"severity"`
	Reason   string      `json:"reason"`
}

// Action is the routing decision for a trigger
type Action string

const (
	ActionApprove         Action = "APPROVE"
	ActionReject          Action = "REJECT"
	ActionInvestigate     Action = "INVESTIGATE"
	ActionReferSupervisor Action = "REFER_SUPERVISOR"
	ActionReferLegal      Action = "REFER_LEGAL"
)

// Priority orders decisions for review queues
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// AssigneeRole is the role a decision routes to
type AssigneeRole string

const (
	RoleClaimsAdjuster         AssigneeRole = "CLAIMS_ADJUSTER"
	RoleClaimsSupervisor       AssigneeRole = "CLAIMS_SUPERVISOR"
	RoleClaimsManager          AssigneeRole = "CLAIMS_MANAGER"
	RoleSIUInvestigator        AssigneeRole = "SIU_INVESTIGATOR"
	RoleComplianceOfficer      AssigneeRole = "COMPLIANCE_OFFICER"
	RoleBodilyInjurySpecialist AssigneeRole = "BODILY_INJURY_SPECIALIST"
	RoleCoverageCounsel        AssigneeRole = "COVERAGE_COUNSEL"
)

// Decision is the per-trigger routing outcome. Decisions are never merged,
// only aggregated into the overall recommendation.
type Decision struct {
	TriggerType       TriggerType  `json:"trigger_type"`
	Priority          Priority     `json:"priority"`
	Action            Action       `json:"action"`
	Assignee          AssigneeRole `json:"assignee"`
	Reasoning         string       `json:"reasoning"`
	Deadline          time.Time    `json:"deadline"`
	RequiredDocuments []string     `json:"required_documents"`
	NextSteps         []string     `json:"next_steps"`
}

// Outcome aggregates all per-trigger decisions
type Outcome struct {
	Decisions             []Decision `json:"decisions"`
	OverallRecommendation string     `json:"overall_recommendation"`
	RequiresHumanReview   bool       `json:"requires_human_review"`
}

// Overall recommendation values, in precedence order
const (
	RecommendationDeny        = "DENY"
	RecommendationInvestigate = "INVESTIGATE"
	RecommendationRefer       = "REFER"
	RecommendationProceed     = "PROCEED"
)
