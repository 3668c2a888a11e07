package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a requested status change violates
// the legal transition rules
var ErrInvalidTransition = errors.New("invalid claim status transition")

// forwardTransitions lists the allowed forward edges. DENIED and SUSPENDED
// are reachable from any non-terminal state and handled separately.
var forwardTransitions = map[ClaimStatus][]ClaimStatus{
	StatusIntake:            {StatusInvestigation},
	StatusInvestigation:     {StatusEvaluation},
	StatusEvaluation:        {StatusPendingApproval},
	StatusPendingApproval:   {StatusApproved},
	StatusApproved:          {StatusPaymentProcessing},
	StatusPaymentProcessing: {StatusClosed},
	StatusSuspended:         {StatusInvestigation},
}

// CanTransition reports whether a status change is legal
func CanTransition(from, to ClaimStatus) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	// Side branches: any open claim can be denied or suspended
	if to == StatusDenied || to == StatusSuspended {
		return true
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine applies guarded status transitions and derives deadline
// obligations from jurisdiction rules. It holds no mutable state.
type Machine struct{}

// NewMachine creates a new lifecycle state machine
func NewMachine() *Machine {
	return &Machine{}
}

// Transition validates and applies a status change, returning the updated
// state and a record of what happened. The input state is not mutated.
func (m *Machine) Transition(state ClaimState, to ClaimStatus, actor, reason string, at time.Time) (ClaimState, TransitionRecord, error) {
	if !CanTransition(state.Status, to) {
		return state, TransitionRecord{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state.Status, to)
	}

	next := state
	next.Status = to
	next.Version = state.Version + 1

	switch to {
	case StatusInvestigation:
		// Acknowledgment is stamped once; re-entry from SUSPENDED keeps it
		if next.AcknowledgedAt == nil {
			ack := at
			next.AcknowledgedAt = &ack
		}
	case StatusApproved:
		settled := at
		next.SettledAt = &settled
	case StatusClosed:
		closed := at
		next.ClosedAt = &closed
	}

	record := TransitionRecord{
		ClaimID:    state.ClaimID,
		From:       state.Status,
		To:         to,
		Actor:      actor,
		Reason:     reason,
		OccurredAt: at,
	}

	return next, record, nil
}

// Obligations derives the deadline obligations for a claim as of a given
// instant. Deadlines use calendar days per the statutory convention.
func (m *Machine) Obligations(state ClaimState, rule JurisdictionRule, asOf time.Time) []Obligation {
	obligations := make([]Obligation, 0, 3)

	ackDue := state.ReportedAt.AddDate(0, 0, rule.AcknowledgmentDays)
	obligations = append(obligations, Obligation{
		Type:      ObligationAcknowledgment,
		DueDate:   ackDue,
		Satisfied: state.AcknowledgedAt != nil && !state.AcknowledgedAt.After(ackDue),
		Overdue:   state.AcknowledgedAt == nil && asOf.After(ackDue),
	})

	invDue := state.ReportedAt.AddDate(0, 0, rule.InvestigationDays)
	investigationDone := state.Status != StatusIntake && state.Status != StatusInvestigation && state.Status != StatusSuspended
	obligations = append(obligations, Obligation{
		Type:      ObligationInvestigation,
		DueDate:   invDue,
		Satisfied: investigationDone,
		Overdue:   !investigationDone && asOf.After(invDue),
	})

	if state.SettledAt != nil {
		payDue := state.SettledAt.AddDate(0, 0, rule.PaymentDays)
		paid := state.Status == StatusClosed
		obligations = append(obligations, Obligation{
			Type:      ObligationPayment,
			DueDate:   payDue,
			Satisfied: paid,
			Overdue:   !paid && asOf.After(payDue),
		})
	}

	return obligations
}
