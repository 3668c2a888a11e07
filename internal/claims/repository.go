package claims

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/coverage"
	"github.com/bonapart3/claimagent-sub002/internal/escalation"
	"github.com/bonapart3/claimagent-sub002/internal/fraud"
	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrClaimNotFound is returned when a claim does not exist
var ErrClaimNotFound = errors.New("claim not found")

// ErrVersionConflict is returned when an optimistic status update loses a
// concurrent write race
var ErrVersionConflict = errors.New("claim status version conflict")

// Repository handles claim data operations
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements
var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new claims repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetSnapshot assembles the immutable claim view for one decision cycle
func (r *Repository) GetSnapshot(ctx context.Context, claimID uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error) {
	claim, err := r.getClaimCore(ctx, claimID)
	if err != nil {
		return nil, err
	}
	claim.AsOf = asOf

	if claim.Policy != nil {
		coverages, err := r.getPolicyCoverages(ctx, claim.Policy.PolicyNumber)
		if err != nil {
			return nil, err
		}
		claim.Policy.Coverages = coverages
	}

	if claim.Participants, err = r.getParticipants(ctx, claimID); err != nil {
		return nil, err
	}
	if claim.Documents, err = r.getDocuments(ctx, claimID); err != nil {
		return nil, err
	}
	if claim.MedicalBills, err = r.getMedicalBills(ctx, claimID); err != nil {
		return nil, err
	}

	return claim, nil
}

func (r *Repository) getClaimCore(ctx context.Context, claimID uuid.UUID) (*snapshot.ClaimSnapshot, error) {
	query := `
		SELECT c.id, c.claim_number, c.status, c.jurisdiction, c.loss_type,
		       c.loss_date, c.reported_date, c.loss_description, c.loss_location,
		       c.damage_description, c.estimated_amount, c.vehicle_use,
		       c.driver_name, c.driver_impaired, c.repair_only,
		       c.subrogation_recovered, c.in_litigation,
		       p.policy_number, p.status, p.effective_date, p.expiration_date,
		       p.named_drivers, p.driver_restricted, p.business_use_endorsement,
		       p.rideshare_endorsement, p.dui_exclusion,
		       v.vin, v.year, v.make, v.model, v.title_brand, v.actual_cash_value
		FROM claims c
		LEFT JOIN policies p ON p.id = c.policy_id
		LEFT JOIN vehicles v ON v.id = c.vehicle_id
		WHERE c.id = $1
	`

	var claim snapshot.ClaimSnapshot
	var policyNumber, policyStatus sql.NullString
	var policyEffective, policyExpiration sql.NullTime
	var namedDrivers []string
	var driverRestricted, businessUse, rideshare, duiExclusion sql.NullBool
	var vin, vehicleMake, vehicleModel, titleBrand sql.NullString
	var vehicleYear sql.NullInt32
	var acv sql.NullFloat64

	err := r.db.QueryRow(ctx, query, claimID).Scan(
		&claim.ClaimID,
		&claim.ClaimNumber,
		&claim.Status,
		&claim.Jurisdiction,
		&claim.LossType,
		&claim.LossDate,
		&claim.ReportedDate,
		&claim.LossDescription,
		&claim.LossLocation,
		&claim.DamageDescription,
		&claim.EstimatedAmount,
		&claim.VehicleUse,
		&claim.DriverName,
		&claim.DriverImpaired,
		&claim.RepairOnly,
		&claim.SubrogationRecovered,
		&claim.InLitigation,
		&policyNumber,
		&policyStatus,
		&policyEffective,
		&policyExpiration,
		&namedDrivers,
		&driverRestricted,
		&businessUse,
		&rideshare,
		&duiExclusion,
		&vin,
		&vehicleYear,
		&vehicleMake,
		&vehicleModel,
		&titleBrand,
		&acv,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
		}
		return nil, err
	}

	if policyNumber.Valid {
		claim.Policy = &snapshot.PolicySnapshot{
			PolicyNumber:           policyNumber.String,
			Status:                 snapshot.PolicyStatus(policyStatus.String),
			EffectiveDate:          policyEffective.Time,
			ExpirationDate:         policyExpiration.Time,
			NamedDrivers:           namedDrivers,
			DriverRestricted:       driverRestricted.Bool,
			BusinessUseEndorsement: businessUse.Bool,
			RideshareEndorsement:   rideshare.Bool,
			DUIExclusion:           duiExclusion.Bool,
		}
	}

	if vin.Valid {
		claim.Vehicle = &snapshot.VehicleSnapshot{
			VIN:             vin.String,
			Year:            int(vehicleYear.Int32),
			Make:            vehicleMake.String,
			Model:           vehicleModel.String,
			TitleBrand:      snapshot.TitleBrand(titleBrand.String),
			ActualCashValue: acv.Float64,
		}
	}

	return &claim, nil
}

func (r *Repository) getPolicyCoverages(ctx context.Context, policyNumber string) ([]snapshot.PolicyCoverage, error) {
	query := `
		SELECT pc.coverage_type, pc.status, pc.coverage_limit, pc.deductible, pc.vehicle_vin
		FROM policy_coverages pc
		JOIN policies p ON p.id = pc.policy_id
		WHERE p.policy_number = $1
		ORDER BY pc.coverage_type
	`

	rows, err := r.db.Query(ctx, query, policyNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coverages := make([]snapshot.PolicyCoverage, 0)
	for rows.Next() {
		var cov snapshot.PolicyCoverage
		var vehicleVIN sql.NullString
		if err := rows.Scan(&cov.Type, &cov.Status, &cov.Limit, &cov.Deductible, &vehicleVIN); err != nil {
			return nil, err
		}
		cov.VehicleVIN = vehicleVIN.String
		coverages = append(coverages, cov)
	}

	return coverages, rows.Err()
}

func (r *Repository) getParticipants(ctx context.Context, claimID uuid.UUID) ([]snapshot.ParticipantSnapshot, error) {
	query := `
		SELECT id, name, role, license_status, injury_description
		FROM claim_participants
		WHERE claim_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]snapshot.ParticipantSnapshot, 0)
	for rows.Next() {
		var p snapshot.ParticipantSnapshot
		var licenseStatus, injury sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &licenseStatus, &injury); err != nil {
			return nil, err
		}
		p.LicenseStatus = snapshot.LicenseStatus(licenseStatus.String)
		p.InjuryDescription = injury.String
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (r *Repository) getDocuments(ctx context.Context, claimID uuid.UUID) ([]snapshot.DocumentSnapshot, error) {
	query := `
		SELECT id, doc_type, file_name, uploaded_at, analysis_score, analysis_summary
		FROM claim_documents
		WHERE claim_id = $1
		ORDER BY uploaded_at
	`

	rows, err := r.db.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := make([]snapshot.DocumentSnapshot, 0)
	for rows.Next() {
		var d snapshot.DocumentSnapshot
		var score sql.NullFloat64
		var summary sql.NullString
		if err := rows.Scan(&d.ID, &d.Type, &d.FileName, &d.UploadedAt, &score, &summary); err != nil {
			return nil, err
		}
		if score.Valid {
			d.AnalysisScore = &score.Float64
		}
		d.AnalysisSummary = summary.String
		documents = append(documents, d)
	}

	return documents, rows.Err()
}

func (r *Repository) getMedicalBills(ctx context.Context, claimID uuid.UUID) ([]snapshot.MedicalBillSnapshot, error) {
	query := `
		SELECT id, provider_name, provider_state, service_date,
		       procedure_code, procedure_description, amount, documentation_pages
		FROM medical_bills
		WHERE claim_id = $1
		ORDER BY service_date, procedure_code
	`

	rows, err := r.db.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]snapshot.MedicalBillSnapshot, 0)
	for rows.Next() {
		var b snapshot.MedicalBillSnapshot
		var providerState sql.NullString
		if err := rows.Scan(&b.ID, &b.ProviderName, &providerState, &b.ServiceDate,
			&b.ProcedureCode, &b.ProcedureDescription, &b.Amount, &b.DocumentationPages); err != nil {
			return nil, err
		}
		b.ProviderState = providerState.String
		bills = append(bills, b)
	}

	return bills, rows.Err()
}

// GetState returns the lifecycle state of a claim
func (r *Repository) GetState(ctx context.Context, claimID uuid.UUID) (lifecycle.ClaimState, error) {
	query := `
		SELECT id, status, reported_date, acknowledged_at, settled_at, closed_at, version
		FROM claims
		WHERE id = $1
	`

	var state lifecycle.ClaimState
	var acknowledgedAt, settledAt, closedAt sql.NullTime

	err := r.db.QueryRow(ctx, query, claimID).Scan(
		&state.ClaimID,
		&state.Status,
		&state.ReportedAt,
		&acknowledgedAt,
		&settledAt,
		&closedAt,
		&state.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lifecycle.ClaimState{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
		}
		return lifecycle.ClaimState{}, err
	}

	if acknowledgedAt.Valid {
		state.AcknowledgedAt = &acknowledgedAt.Time
	}
	if settledAt.Valid {
		state.SettledAt = &settledAt.Time
	}
	if closedAt.Valid {
		state.ClosedAt = &closedAt.Time
	}

	return state, nil
}

// UpdateState persists a lifecycle state with an optimistic version check
func (r *Repository) UpdateState(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error {
	query := `
		UPDATE claims
		SET status = $2,
		    acknowledged_at = COALESCE($3, acknowledged_at),
		    settled_at = COALESCE($4, settled_at),
		    closed_at = COALESCE($5, closed_at),
		    version = $6,
		    updated_at = NOW()
		WHERE id = $1 AND version = $7
	`

	tag, err := r.db.Exec(ctx, query,
		state.ClaimID,
		state.Status,
		state.AcknowledgedAt,
		state.SettledAt,
		state.ClosedAt,
		state.Version,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: claim %s expected version %d", ErrVersionConflict, state.ClaimID, expectedVersion)
	}

	return nil
}

// SaveDecision persists the artifacts of one decision cycle
func (r *Repository) SaveDecision(ctx context.Context, artifacts *DecisionArtifacts) error {
	riskJSON, err := json.Marshal(artifacts.Risk)
	if err != nil {
		return err
	}
	coverageJSON, err := json.Marshal(artifacts.Coverage)
	if err != nil {
		return err
	}
	escalationJSON, err := json.Marshal(artifacts.Escalation)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO claim_decisions (
			id, claim_id, run_at, risk, coverage, escalation,
			status_before, status_after, actor
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Exec(ctx, query,
		artifacts.ID,
		artifacts.ClaimID,
		artifacts.RunAt,
		riskJSON,
		coverageJSON,
		escalationJSON,
		artifacts.StatusBefore,
		artifacts.StatusAfter,
		artifacts.Actor,
	)

	return err
}

// GetLatestDecision returns the most recent decision artifacts for a claim
func (r *Repository) GetLatestDecision(ctx context.Context, claimID uuid.UUID) (*DecisionArtifacts, error) {
	query := `
		SELECT id, claim_id, run_at, risk, coverage, escalation,
		       status_before, status_after, actor
		FROM claim_decisions
		WHERE claim_id = $1
		ORDER BY run_at DESC
		LIMIT 1
	`

	var artifacts DecisionArtifacts
	var riskJSON, coverageJSON, escalationJSON []byte

	err := r.db.QueryRow(ctx, query, claimID).Scan(
		&artifacts.ID,
		&artifacts.ClaimID,
		&artifacts.RunAt,
		&riskJSON,
		&coverageJSON,
		&escalationJSON,
		&artifacts.StatusBefore,
		&artifacts.StatusAfter,
		&artifacts.Actor,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no decisions for claim %s", ErrClaimNotFound, claimID)
		}
		return nil, err
	}

	if err := json.Unmarshal(riskJSON, &artifacts.Risk); err != nil {
		artifacts.Risk = fraud.RiskScore{}
	}
	if err := json.Unmarshal(coverageJSON, &artifacts.Coverage); err != nil {
		artifacts.Coverage = coverage.Result{}
	}
	if err := json.Unmarshal(escalationJSON, &artifacts.Escalation); err != nil {
		artifacts.Escalation = escalation.Outcome{}
	}

	return &artifacts, nil
}
