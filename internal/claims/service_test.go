package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/audit"
	"github.com/bonapart3/claimagent-sub002/internal/escalation"
	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/bonapart3/claimagent-sub002/internal/rules"
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/bonapart3/claimagent-sub002/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// MOCK IMPLEMENTATIONS
// ========================================

// MockRepository implements RepositoryInterface for testing
type MockRepository struct {
	GetSnapshotFunc       func(ctx context.Context, claimID uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error)
	GetStateFunc          func(ctx context.Context, claimID uuid.UUID) (lifecycle.ClaimState, error)
	UpdateStateFunc       func(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error
	SaveDecisionFunc      func(ctx context.Context, artifacts *DecisionArtifacts) error
	GetLatestDecisionFunc func(ctx context.Context, claimID uuid.UUID) (*DecisionArtifacts, error)
}

func (m *MockRepository) GetSnapshot(ctx context.Context, claimID uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
	if m.GetSnapshotFunc != nil {
		return m.GetSnapshotFunc(ctx, claimID, asOf)
	}
	return nil, errors.New("not implemented")
}

func (m *MockRepository) GetState(ctx context.Context, claimID uuid.UUID) (lifecycle.ClaimState, error) {
	if m.GetStateFunc != nil {
		return m.GetStateFunc(ctx, claimID)
	}
	return lifecycle.ClaimState{}, errors.New("not implemented")
}

func (m *MockRepository) UpdateState(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
	if m.UpdateStateFunc != nil {
		return m.UpdateStateFunc(ctx, state, expectedVersion)
	}
	return nil
}

func (m *MockRepository) SaveDecision(ctx context.Context, artifacts *DecisionArtifacts) error {
	if m.SaveDecisionFunc != nil {
		return m.SaveDecisionFunc(ctx, artifacts)
	}
	return nil
}

func (m *MockRepository) GetLatestDecision(ctx context.Context, claimID uuid.UUID) (*DecisionArtifacts, error) {
	if m.GetLatestDecisionFunc != nil {
		return m.GetLatestDecisionFunc(ctx, claimID)
	}
	return nil, errors.New("not found")
}

// MockRuleStore implements rules.Store for testing
type MockRuleStore struct {
	GetRuleFunc   func(ctx context.Context, state string, asOf time.Time) (lifecycle.JurisdictionRule, error)
	ListRulesFunc func(ctx context.Context, state string) ([]lifecycle.JurisdictionRule, error)
}

func (m *MockRuleStore) GetRule(ctx context.Context, state string, asOf time.Time) (lifecycle.JurisdictionRule, error) {
	if m.GetRuleFunc != nil {
		return m.GetRuleFunc(ctx, state, asOf)
	}
	return lifecycle.JurisdictionRule{}, rules.ErrRuleNotFound
}

func (m *MockRuleStore) ListRules(ctx context.Context, state string) ([]lifecycle.JurisdictionRule, error) {
	if m.ListRulesFunc != nil {
		return m.ListRulesFunc(ctx, state)
	}
	return nil, nil
}

// ========================================
// FIXTURES
// ========================================

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		MediumThreshold:     30,
		HighThreshold:       50,
		CriticalThreshold:   75,
		EscalationThreshold: 75,
		AutoDenyScore:       85,
		InvestigateScore:    50,
		SupervisorAuthority: 50000,
	}
}

func cleanSnapshot(claimID uuid.UUID) *snapshot.ClaimSnapshot {
	return &snapshot.ClaimSnapshot{
		ClaimID:         claimID,
		ClaimNumber:     "CLM-2025-0001",
		Status:          lifecycle.StatusIntake,
		Jurisdiction:    "CA",
		LossType:        snapshot.LossCollision,
		LossDate:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		ReportedDate:    time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		LossDescription: "rear-ended at intersection",
		EstimatedAmount: 8000,
		VehicleUse:      snapshot.UsePersonal,
		Policy: &snapshot.PolicySnapshot{
			PolicyNumber:   "POL-1001",
			Status:         snapshot.PolicyActive,
			EffectiveDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			ExpirationDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Coverages: []snapshot.PolicyCoverage{
				{Type: snapshot.CoverageCollision, Status: snapshot.CoverageActive, Limit: 50000, Deductible: 500},
			},
		},
		AsOf: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
	}
}

func fraudSnapshot(claimID uuid.UUID) *snapshot.ClaimSnapshot {
	claim := cleanSnapshot(claimID)
	// Loss two days after inception, staged location, salvage title on an
	// old vehicle with a high estimate: pattern score clamps well past the
	// escalation threshold
	claim.Policy.EffectiveDate = time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	claim.LossLocation = "staged in an abandoned remote parking lot"
	claim.EstimatedAmount = 24000
	claim.Vehicle = &snapshot.VehicleSnapshot{
		VIN:        "VIN-1",
		Year:       2008,
		TitleBrand: snapshot.TitleSalvage,
	}
	return claim
}

func intakeState(claimID uuid.UUID) lifecycle.ClaimState {
	return lifecycle.ClaimState{
		ClaimID:    claimID,
		Status:     lifecycle.StatusIntake,
		ReportedAt: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		Version:    1,
	}
}

func newTestService(repo *MockRepository, ruleStore *MockRuleStore) *Service {
	return NewService(repo, ruleStore, audit.NopEmitter{}, testRiskConfig())
}

// ========================================
// TESTS
// ========================================

func TestRunDecisionCycle_CleanClaimAdvancesToInvestigation(t *testing.T) {
	claimID := uuid.New()
	var savedDecision *DecisionArtifacts
	var updatedState *lifecycle.ClaimState

	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return cleanSnapshot(id), nil
		},
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		UpdateStateFunc: func(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
			updatedState = &state
			assert.Equal(t, 1, expectedVersion)
			return nil
		},
		SaveDecisionFunc: func(ctx context.Context, artifacts *DecisionArtifacts) error {
			savedDecision = artifacts
			return nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	artifacts, err := service.RunDecisionCycle(context.Background(), claimID, nil, "adjuster-1")

	require.NoError(t, err)
	require.NotNil(t, savedDecision)
	assert.Equal(t, claimID, artifacts.ClaimID)
	assert.Equal(t, lifecycle.StatusIntake, artifacts.StatusBefore)
	assert.Equal(t, lifecycle.StatusInvestigation, artifacts.StatusAfter)
	assert.False(t, artifacts.Risk.SIUReferral)
	assert.True(t, artifacts.Coverage.CoverageApplies())
	require.NotNil(t, updatedState)
	assert.Equal(t, lifecycle.StatusInvestigation, updatedState.Status)
	assert.Equal(t, 2, updatedState.Version)
}

func TestRunDecisionCycle_SIUReferralSuspendsClaim(t *testing.T) {
	claimID := uuid.New()
	var updatedState *lifecycle.ClaimState

	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return fraudSnapshot(id), nil
		},
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		UpdateStateFunc: func(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
			updatedState = &state
			return nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	artifacts, err := service.RunDecisionCycle(context.Background(), claimID, nil, "system")

	require.NoError(t, err)
	assert.True(t, artifacts.Risk.SIUReferral)
	assert.Equal(t, lifecycle.StatusSuspended, artifacts.StatusAfter)
	require.NotNil(t, updatedState)
	assert.Equal(t, lifecycle.StatusSuspended, updatedState.Status)
	// A fraud trigger is derived and decided alongside any others
	var fraudDecided bool
	for _, dec := range artifacts.Escalation.Decisions {
		if dec.TriggerType == escalation.TriggerFraudSuspected {
			fraudDecided = true
		}
	}
	assert.True(t, fraudDecided)
}

func TestRunDecisionCycle_DerivesInjuryAndTotalLossTriggers(t *testing.T) {
	claimID := uuid.New()

	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			claim := cleanSnapshot(id)
			claim.EstimatedAmount = 16000
			claim.Vehicle = &snapshot.VehicleSnapshot{VIN: "VIN-1", Year: 2020, ActualCashValue: 20000}
			claim.Participants = []snapshot.ParticipantSnapshot{
				{ID: uuid.New(), Name: "Pat Doe", Role: snapshot.RolePassenger, InjuryDescription: "whiplash"},
			}
			return claim, nil
		},
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	artifacts, err := service.RunDecisionCycle(context.Background(), claimID, nil, "system")

	require.NoError(t, err)
	types := map[escalation.TriggerType]bool{}
	for _, dec := range artifacts.Escalation.Decisions {
		types[dec.TriggerType] = true
	}
	// $16k estimate on a $20k ACV crosses the default 75% total-loss line
	assert.True(t, types[escalation.TriggerTotalLoss])
	assert.True(t, types[escalation.TriggerInjuryClaim])
	assert.False(t, types[escalation.TriggerHighValueClaim])
}

func TestRunDecisionCycle_CallerTriggersAppended(t *testing.T) {
	claimID := uuid.New()

	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return cleanSnapshot(id), nil
		},
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	artifacts, err := service.RunDecisionCycle(context.Background(), claimID, []escalation.Trigger{
		{Type: escalation.TriggerComplianceIssue, Severity: escalation.SeverityCritical, Reason: "regulator inquiry"},
	}, "compliance-1")

	require.NoError(t, err)
	require.Len(t, artifacts.Escalation.Decisions, 1)
	assert.Equal(t, escalation.TriggerComplianceIssue, artifacts.Escalation.Decisions[0].TriggerType)
	assert.True(t, artifacts.Escalation.RequiresHumanReview)
}

func TestRunDecisionCycle_VersionConflictKeepsDecision(t *testing.T) {
	claimID := uuid.New()
	var savedDecision *DecisionArtifacts

	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return cleanSnapshot(id), nil
		},
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		UpdateStateFunc: func(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
			return ErrVersionConflict
		},
		SaveDecisionFunc: func(ctx context.Context, artifacts *DecisionArtifacts) error {
			savedDecision = artifacts
			return nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	artifacts, err := service.RunDecisionCycle(context.Background(), claimID, nil, "system")

	// The losing transition is withheld but the decision record persists
	require.NoError(t, err)
	require.NotNil(t, savedDecision)
	assert.Equal(t, lifecycle.StatusIntake, artifacts.StatusAfter)
}

func TestRunDecisionCycle_InvalidSnapshotFails(t *testing.T) {
	claimID := uuid.New()

	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			claim := cleanSnapshot(id)
			claim.ReportedDate = claim.LossDate.AddDate(0, 0, -5)
			return claim, nil
		},
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		SaveDecisionFunc: func(ctx context.Context, artifacts *DecisionArtifacts) error {
			t.Fatal("no decision may be saved for an invalid snapshot")
			return nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	_, err := service.RunDecisionCycle(context.Background(), claimID, nil, "system")

	require.Error(t, err)
	assert.ErrorIs(t, err, snapshot.ErrInvalidSnapshot)
}

func TestRunDecisionCycle_ClaimNotFound(t *testing.T) {
	repo := &MockRepository{
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return lifecycle.ClaimState{}, ErrClaimNotFound
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	_, err := service.RunDecisionCycle(context.Background(), uuid.New(), nil, "system")

	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestScoreRisk_CleanClaimScoresZero(t *testing.T) {
	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return cleanSnapshot(id), nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	risk, err := service.ScoreRisk(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 0.0, risk.Score)
	assert.False(t, risk.SIUReferral)
}

func TestScoreRisk_BillingWithoutInjuryScoresZero(t *testing.T) {
	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			claim := cleanSnapshot(id)
			// Duplicate billing rows, but no participant reports an injury:
			// the billing screener must not run
			serviceDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
			claim.MedicalBills = []snapshot.MedicalBillSnapshot{
				{ID: uuid.New(), ProviderName: "Valley Ortho", ServiceDate: serviceDate, ProcedureCode: "99213", Amount: 250},
				{ID: uuid.New(), ProviderName: "Valley Ortho", ServiceDate: serviceDate, ProcedureCode: "99213", Amount: 250},
			}
			return claim, nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	risk, err := service.ScoreRisk(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 0.0, risk.Score)
	assert.Empty(t, risk.Indicators)
	assert.False(t, risk.SIUReferral)
}

func TestScoreRisk_BillingWithInjuryIsScreened(t *testing.T) {
	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			claim := cleanSnapshot(id)
			serviceDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
			claim.Participants = []snapshot.ParticipantSnapshot{
				{ID: uuid.New(), Name: "Pat Doe", Role: snapshot.RolePassenger, InjuryDescription: "whiplash"},
			}
			claim.MedicalBills = []snapshot.MedicalBillSnapshot{
				{ID: uuid.New(), ProviderName: "Valley Ortho", ServiceDate: serviceDate, ProcedureCode: "99213", Amount: 250},
				{ID: uuid.New(), ProviderName: "Valley Ortho", ServiceDate: serviceDate, ProcedureCode: "99213", Amount: 250},
			}
			return claim, nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	risk, err := service.ScoreRisk(context.Background(), uuid.New())

	require.NoError(t, err)
	// The same duplicate pair now counts: both bills in the group are flagged
	assert.Equal(t, 25.0, risk.Score)
	assert.Len(t, risk.Indicators, 2)
}

func TestEvaluateCoverage_UsesSnapshot(t *testing.T) {
	repo := &MockRepository{
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return cleanSnapshot(id), nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	result, err := service.EvaluateCoverage(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.True(t, result.CoverageApplies())
}

func TestRequestStatusChange_AppliesTransition(t *testing.T) {
	claimID := uuid.New()
	var updatedState *lifecycle.ClaimState

	repo := &MockRepository{
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		UpdateStateFunc: func(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
			updatedState = &state
			assert.Equal(t, 1, expectedVersion)
			return nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	next, err := service.RequestStatusChange(context.Background(), claimID, lifecycle.StatusInvestigation, "adjuster-1", "intake complete")

	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusInvestigation, next.Status)
	assert.Equal(t, 2, next.Version)
	require.NotNil(t, updatedState)
	assert.NotNil(t, updatedState.AcknowledgedAt)
}

func TestRequestStatusChange_InvalidTransition(t *testing.T) {
	repo := &MockRepository{
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	_, err := service.RequestStatusChange(context.Background(), uuid.New(), lifecycle.StatusApproved, "adjuster-1", "shortcut")

	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestRequestStatusChange_VersionConflictSurfaces(t *testing.T) {
	repo := &MockRepository{
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		UpdateStateFunc: func(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
			return ErrVersionConflict
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	_, err := service.RequestStatusChange(context.Background(), uuid.New(), lifecycle.StatusInvestigation, "adjuster-1", "intake complete")

	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestGetObligations_FallsBackToDefaultRule(t *testing.T) {
	claimID := uuid.New()

	repo := &MockRepository{
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			return cleanSnapshot(id), nil
		},
	}

	ruleStore := &MockRuleStore{
		GetRuleFunc: func(ctx context.Context, state string, asOf time.Time) (lifecycle.JurisdictionRule, error) {
			return lifecycle.JurisdictionRule{}, rules.ErrRuleNotFound
		},
	}

	service := newTestService(repo, ruleStore)

	resp, err := service.GetObligations(context.Background(), claimID)

	require.NoError(t, err)
	assert.Equal(t, "CA", resp.State)
	require.Len(t, resp.Obligations, 2)
	assert.False(t, resp.AnyOverdue)
}

func TestGetObligations_UsesStoredRule(t *testing.T) {
	claimID := uuid.New()

	ruleStore := &MockRuleStore{
		GetRuleFunc: func(ctx context.Context, state string, asOf time.Time) (lifecycle.JurisdictionRule, error) {
			return lifecycle.JurisdictionRule{
				State:                 "CA",
				TotalLossThresholdPct: 80,
				AcknowledgmentDays:    1, // already blown as of the snapshot clock
				InvestigationDays:     30,
				PaymentDays:           30,
			}, nil
		},
	}

	repo := &MockRepository{
		GetStateFunc: func(ctx context.Context, id uuid.UUID) (lifecycle.ClaimState, error) {
			return intakeState(id), nil
		},
		GetSnapshotFunc: func(ctx context.Context, id uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
			claim := cleanSnapshot(id)
			claim.AsOf = claim.ReportedDate.AddDate(0, 0, 3)
			return claim, nil
		},
	}

	service := newTestService(repo, ruleStore)

	resp, err := service.GetObligations(context.Background(), claimID)

	require.NoError(t, err)
	assert.True(t, resp.AnyOverdue)
}

func TestGetLatestDecision_PassesThrough(t *testing.T) {
	claimID := uuid.New()
	want := &DecisionArtifacts{ID: uuid.New(), ClaimID: claimID}

	repo := &MockRepository{
		GetLatestDecisionFunc: func(ctx context.Context, id uuid.UUID) (*DecisionArtifacts, error) {
			assert.Equal(t, claimID, id)
			return want, nil
		},
	}

	service := newTestService(repo, &MockRuleStore{})

	got, err := service.GetLatestDecision(context.Background(), claimID)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
