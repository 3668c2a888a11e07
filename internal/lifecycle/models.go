package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus represents the lifecycle state of a claim
type ClaimStatus string

const (
	StatusIntake            ClaimStatus = "INTAKE"
	StatusInvestigation     ClaimStatus = "INVESTIGATION"
	StatusEvaluation        ClaimStatus = "EVALUATION"
	StatusPendingApproval   ClaimStatus = "PENDING_APPROVAL"
	StatusApproved          ClaimStatus = "APPROVED"
	StatusPaymentProcessing ClaimStatus = "PAYMENT_PROCESSING"
	StatusClosed            ClaimStatus = "CLOSED"
	StatusDenied            ClaimStatus = "DENIED"
	StatusSuspended         ClaimStatus = "SUSPENDED"
)

// Terminal reports whether no further transitions are allowed from the status
func (s ClaimStatus) Terminal() bool {
	return s == StatusClosed || s == StatusDenied
}

// Valid reports whether the status is a known lifecycle state
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusIntake, StatusInvestigation, StatusEvaluation, StatusPendingApproval,
		StatusApproved, StatusPaymentProcessing, StatusClosed, StatusDenied, StatusSuspended:
		return true
	}
	return false
}

// ClaimState is the lifecycle view of a claim: its status plus the
// timestamps stamped by guarded transitions
type ClaimState struct {
	ClaimID        uuid.UUID   `json:"claim_id"`
	Status         ClaimStatus `json:"status"`
	ReportedAt     time.Time   `json:"reported_at"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	SettledAt      *time.Time  `json:"settled_at,omitempty"`
	ClosedAt       *time.Time  `json:"closed_at,omitempty"`
	Version        int         `json:"version"`
}

// TransitionRecord describes one applied status transition
type TransitionRecord struct {
	ClaimID    uuid.UUID   `json:"claim_id"`
	From       ClaimStatus `json:"from"`
	To         ClaimStatus `json:"to"`
	Actor      string      `json:"actor"`
	Reason     string      `json:"reason"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// ObligationType identifies a statutory deadline obligation
type ObligationType string

const (
	ObligationAcknowledgment ObligationType = "ACKNOWLEDGMENT"
	ObligationInvestigation  ObligationType = "INVESTIGATION"
	ObligationPayment        ObligationType = "PAYMENT"
)

// Obligation is a derived, queryable deadline fact. Claims can legally
// remain open past a deadline; overdue is informational for compliance.
type Obligation struct {
	Type      ObligationType `json:"type"`
	DueDate   time.Time      `json:"due_date"`
	Satisfied bool           `json:"satisfied"`
	Overdue   bool           `json:"overdue"`
}

// JurisdictionRule holds per-state statutory constants, versioned by
// effective date
type JurisdictionRule struct {
	State                 string    `json:"state" db:"state"`
	EffectiveDate         time.Time `json:"effective_date" db:"effective_date"`
	TotalLossThresholdPct float64   `json:"total_loss_threshold_pct" db:"total_loss_threshold_pct"`
	AcknowledgmentDays    int       `json:"acknowledgment_days" db:"acknowledgment_days"`
	InvestigationDays     int       `json:"investigation_days" db:"investigation_days"`
	PaymentDays           int       `json:"payment_days" db:"payment_days"`
}

// DefaultJurisdictionRule is the conservative fallback applied when
// reference data for a state is missing
func DefaultJurisdictionRule(state string) JurisdictionRule {
	return JurisdictionRule{
		State:                 state,
		TotalLossThresholdPct: 75,
		AcknowledgmentDays:    15,
		InvestigationDays:     30,
		PaymentDays:           30,
	}
}
