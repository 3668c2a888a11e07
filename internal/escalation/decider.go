package escalation

import (
	"fmt"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/coverage"
	"github.com/bonapart3/claimagent-sub002/internal/fraud"
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/bonapart3/claimagent-sub002/pkg/config"
)

// Amount bands for HIGH_VALUE_CLAIM dispatch
const (
	autoApproveLimit      = 25000
	supervisorReviewLimit = 100000
)

// IsHighValue reports whether an amount exceeds the adjuster's auto-approve
// authority and should raise a HIGH_VALUE_CLAIM trigger
func IsHighValue(amount float64) bool {
	return amount > autoApproveLimit
}

// Decider consumes composite risk, coverage analysis, claim financials,
// and escalation triggers to emit one routing decision per trigger plus an
// overall recommendation. Pure over its inputs; deadlines are computed from
// the snapshot's as-of clock in calendar days.
type Decider struct {
	cfg config.RiskConfig
}

// NewDecider creates a decider over validated risk configuration
func NewDecider(cfg config.RiskConfig) *Decider {
	return &Decider{cfg: cfg}
}

// Decide evaluates every trigger independently and aggregates the results
func (d *Decider) Decide(claim *snapshot.ClaimSnapshot, risk fraud.RiskScore, cov coverage.Result, triggers []Trigger) Outcome {
	decisions := make([]Decision, 0, len(triggers))
	for _, trigger := range triggers {
		decisions = append(decisions, d.decideTrigger(claim, risk, trigger))
	}

	return Outcome{
		Decisions:             decisions,
		OverallRecommendation: overallRecommendation(decisions),
		RequiresHumanReview:   d.requiresHumanReview(claim, decisions),
	}
}

func (d *Decider) decideTrigger(claim *snapshot.ClaimSnapshot, risk fraud.RiskScore, trigger Trigger) Decision {
	switch trigger.Type {
	case TriggerHighValueClaim:
		return d.decideHighValue(claim, trigger)
	case TriggerFraudSuspected:
		return d.decideFraud(claim, risk, trigger)
	case TriggerCoverageDispute:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityHigh,
			Action:            ActionInvestigate,
			Assignee:          RoleCoverageCounsel,
			Reasoning:         "coverage determination in dispute: " + trigger.Reason,
			Deadline:          deadline(claim, 3),
			RequiredDocuments: []string{"reservation of rights letter"},
			NextSteps:         []string{"issue reservation of rights letter", "complete coverage investigation"},
		}
	case TriggerTotalLoss:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityMedium,
			Action:            ActionApprove,
			Assignee:          RoleClaimsAdjuster,
			Reasoning:         "repair estimate exceeds total-loss threshold: " + trigger.Reason,
			Deadline:          deadline(claim, 3),
			RequiredDocuments: []string{"lienholder payoff statement", "fair market valuation report"},
			NextSteps:         []string{"obtain lienholder payoff", "order fair-market valuation", "prepare total-loss settlement"},
		}
	case TriggerComplianceIssue:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityCritical,
			Action:            ActionInvestigate,
			Assignee:          RoleComplianceOfficer,
			Reasoning:         "regulatory compliance concern: " + trigger.Reason,
			Deadline:          deadline(claim, 1),
			RequiredDocuments: []string{"compliance incident report"},
			NextSteps:         []string{"notify compliance officer", "document remediation plan"},
		}
	case TriggerInjuryClaim:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityHigh,
			Action:            ActionReferSupervisor,
			Assignee:          RoleBodilyInjurySpecialist,
			Reasoning:         "bodily injury reported: " + trigger.Reason,
			Deadline:          deadline(claim, 2),
			RequiredDocuments: []string{"medical records authorization"},
			NextSteps:         []string{"assign bodily injury specialist", "request medical records"},
		}
	default:
		// Unknown trigger types route to investigation with priority
		// derived from the declared severity
		return Decision{
			TriggerType: trigger.Type,
			Priority:    priorityFromSeverity(trigger.Severity),
			Action:      ActionInvestigate,
			Assignee:    RoleClaimsAdjuster,
			Reasoning:   fmt.Sprintf("unrecognized trigger %s: %s", trigger.Type, trigger.Reason),
			Deadline:    deadline(claim, 5),
			NextSteps:   []string{"review trigger and classify manually"},
		}
	}
}

func (d *Decider) decideHighValue(claim *snapshot.ClaimSnapshot, trigger Trigger) Decision {
	amount := claim.EstimatedAmount
	switch {
	case amount <= autoApproveLimit:
		return Decision{
			TriggerType: trigger.Type,
			Priority:    PriorityLow,
			Action:      ActionApprove,
			Assignee:    RoleClaimsAdjuster,
			Reasoning:   fmt.Sprintf("amount $%.2f within adjuster authority", amount),
			Deadline:    deadline(claim, 5),
			NextSteps:   []string{"proceed with standard settlement"},
		}
	case amount <= supervisorReviewLimit:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityMedium,
			Action:            ActionReferSupervisor,
			Assignee:          RoleClaimsSupervisor,
			Reasoning:         fmt.Sprintf("amount $%.2f requires supervisor sign-off", amount),
			Deadline:          deadline(claim, 2),
			RequiredDocuments: []string{"itemized damage estimate"},
			NextSteps:         []string{"route to supervisor queue"},
		}
	default:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityHigh,
			Action:            ActionReferSupervisor,
			Assignee:          RoleClaimsManager,
			Reasoning:         fmt.Sprintf("amount $%.2f exceeds supervisor tier", amount),
			Deadline:          deadline(claim, 1),
			RequiredDocuments: []string{"itemized damage estimate", "reserve adequacy review"},
			NextSteps:         []string{"route to claims manager", "review reserve adequacy"},
		}
	}
}

func (d *Decider) decideFraud(claim *snapshot.ClaimSnapshot, risk fraud.RiskScore, trigger Trigger) Decision {
	switch {
	case risk.Score >= d.cfg.AutoDenyScore:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityCritical,
			Action:            ActionReject,
			Assignee:          RoleSIUInvestigator,
			Reasoning:         fmt.Sprintf("composite fraud score %.1f at or above auto-deny threshold", risk.Score),
			Deadline:          deadline(claim, 1),
			RequiredDocuments: []string{"SIU case file", "evidence preservation order"},
			NextSteps:         []string{"open SIU case file", "preserve all claim evidence", "prepare denial letter"},
		}
	case risk.Score >= d.cfg.InvestigateScore:
		return Decision{
			TriggerType:       trigger.Type,
			Priority:          PriorityHigh,
			Action:            ActionInvestigate,
			Assignee:          RoleSIUInvestigator,
			Reasoning:         fmt.Sprintf("composite fraud score %.1f warrants investigation", risk.Score),
			Deadline:          deadline(claim, 5),
			RequiredDocuments: []string{"recorded statement", "supporting repair documentation"},
			NextSteps:         []string{"schedule recorded statement", "request supplemental documentation"},
		}
	default:
		return Decision{
			TriggerType: trigger.Type,
			Priority:    PriorityLow,
			Action:      ActionApprove,
			Assignee:    RoleClaimsAdjuster,
			Reasoning:   fmt.Sprintf("composite fraud score %.1f below investigation threshold; indicators logged", risk.Score),
			Deadline:    deadline(claim, 5),
			NextSteps:   []string{"log fraud indicators and proceed"},
		}
	}
}

// requiresHumanReview aggregates the human-review conditions across
// decisions and claim facts
func (d *Decider) requiresHumanReview(claim *snapshot.ClaimSnapshot, decisions []Decision) bool {
	if claim.InLitigation {
		return true
	}
	approved := false
	for _, dec := range decisions {
		if dec.Priority == PriorityCritical {
			return true
		}
		if dec.Action == ActionReferLegal {
			return true
		}
		if dec.Action == ActionReferSupervisor && dec.Priority == PriorityHigh {
			return true
		}
		if dec.Action == ActionApprove {
			approved = true
		}
	}
	if approved && claim.EstimatedAmount > d.cfg.SupervisorAuthority {
		return true
	}
	return false
}

// overallRecommendation applies the precedence REJECT > INVESTIGATE >
// REFER_* > APPROVE
func overallRecommendation(decisions []Decision) string {
	hasInvestigate := false
	hasRefer := false
	for _, dec := range decisions {
		switch dec.Action {
		case ActionReject:
			return RecommendationDeny
		case ActionInvestigate:
			hasInvestigate = true
		case ActionReferSupervisor, ActionReferLegal:
			hasRefer = true
		}
	}
	if hasInvestigate {
		return RecommendationInvestigate
	}
	if hasRefer {
		return RecommendationRefer
	}
	return RecommendationProceed
}

func priorityFromSeverity(severity Severity) Priority {
	switch severity {
	case SeverityCritical:
		return PriorityCritical
	case SeverityHigh:
		return PriorityHigh
	case SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// deadline computes a calendar-day deadline from the snapshot's embedded
// evaluation clock, keeping decisions reproducible in tests
func deadline(claim *snapshot.ClaimSnapshot, days int) time.Time {
	return claim.AsOf.AddDate(0, 0, days)
}
