package snapshot

import (
	"sync"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/google/uuid"
)

// LossType categorizes the reported loss
type LossType string

const (
	LossCollision       LossType = "COLLISION"
	LossTheft           LossType = "THEFT"
	LossVandalism       LossType = "VANDALISM"
	LossHitAndRun       LossType = "HIT_AND_RUN"
	LossWeather         LossType = "WEATHER"
	LossFire            LossType = "FIRE"
	LossGlass           LossType = "GLASS"
	LossAnimalCollision LossType = "ANIMAL_COLLISION"
)

// CoverageType identifies a policy coverage
type CoverageType string

const (
	CoverageCollision           CoverageType = "COLLISION"
	CoverageComprehensive       CoverageType = "COMPREHENSIVE"
	CoverageTheft               CoverageType = "THEFT"
	CoverageUninsuredMotoristPD CoverageType = "UNINSURED_MOTORIST_PD"
	CoverageMedicalPayments     CoverageType = "MEDICAL_PAYMENTS"
	CoverageLiabilityPD         CoverageType = "LIABILITY_PD"
	CoverageLiabilityBI         CoverageType = "LIABILITY_BI"
)

// VehicleUse describes how the vehicle was being used at the time of loss
type VehicleUse string

const (
	UsePersonal   VehicleUse = "PERSONAL"
	UseCommercial VehicleUse = "COMMERCIAL"
	UseRideshare  VehicleUse = "RIDESHARE"
)

// ParticipantRole identifies a person's role in the claim
type ParticipantRole string

const (
	RoleDriver     ParticipantRole = "DRIVER"
	RolePassenger  ParticipantRole = "PASSENGER"
	RolePedestrian ParticipantRole = "PEDESTRIAN"
	RoleWitness    ParticipantRole = "WITNESS"
)

// LicenseStatus describes a driver's license state at time of loss
type LicenseStatus string

const (
	LicenseValid      LicenseStatus = "VALID"
	LicenseSuspended  LicenseStatus = "SUSPENDED"
	LicenseUnlicensed LicenseStatus = "UNLICENSED"
	LicenseExcluded   LicenseStatus = "EXCLUDED"
)

// TitleBrand is the vehicle title classification
type TitleBrand string

const (
	TitleClean   TitleBrand = "CLEAN"
	TitleSalvage TitleBrand = "SALVAGE"
	TitleRebuilt TitleBrand = "REBUILT"
)

// CoverageStatus is the status of a single policy coverage line
type CoverageStatus string

const (
	CoverageActive             CoverageStatus = "ACTIVE"
	CoverageInactive           CoverageStatus = "INACTIVE"
	CoveragePendingEndorsement CoverageStatus = "PENDING_ENDORSEMENT"
)

// PolicyStatus is the status of the policy as a whole
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "ACTIVE"
	PolicyLapsed    PolicyStatus = "LAPSED"
	PolicyCancelled PolicyStatus = "CANCELLED"
)

// PolicyCoverage is a single coverage line on a policy
type PolicyCoverage struct {
	Type       CoverageType   `json:"type"`
	Status     CoverageStatus `json:"status"`
	Limit      float64        `json:"limit"`
	Deductible float64        `json:"deductible"`
	// VehicleVIN scopes the coverage to one vehicle; empty means policy-wide
	VehicleVIN string `json:"vehicle_vin,omitempty"`
}

// PolicySnapshot is the read-only policy view used for coverage analysis
type PolicySnapshot struct {
	PolicyNumber           string           `json:"policy_number"`
	Status                 PolicyStatus     `json:"status"`
	EffectiveDate          time.Time        `json:"effective_date"`
	ExpirationDate         time.Time        `json:"expiration_date"`
	Coverages              []PolicyCoverage `json:"coverages"`
	NamedDrivers           []string         `json:"named_drivers"`
	DriverRestricted       bool             `json:"driver_restricted"`
	BusinessUseEndorsement bool             `json:"business_use_endorsement"`
	RideshareEndorsement   bool             `json:"rideshare_endorsement"`
	DUIExclusion           bool             `json:"dui_exclusion"`

	coverageIndex map[CoverageType]PolicyCoverage
	indexOnce     sync.Once
}

// CoverageByType returns the policy coverage for a type, if present.
// Lookups go through a type-keyed index built on first use; on duplicate
// coverage lines the first one on the policy wins, matching scan order.
func (p *PolicySnapshot) CoverageByType(t CoverageType) (PolicyCoverage, bool) {
	p.indexOnce.Do(func() {
		p.coverageIndex = make(map[CoverageType]PolicyCoverage, len(p.Coverages))
		for _, c := range p.Coverages {
			if _, ok := p.coverageIndex[c.Type]; !ok {
				p.coverageIndex[c.Type] = c
			}
		}
	})
	c, ok := p.coverageIndex[t]
	return c, ok
}

// IsNamedDriver reports whether a driver name appears on the policy
func (p *PolicySnapshot) IsNamedDriver(name string) bool {
	for _, d := range p.NamedDrivers {
		if d == name {
			return true
		}
	}
	return false
}

// VehicleSnapshot is the read-only vehicle view
type VehicleSnapshot struct {
	VIN        string     `json:"vin"`
	Year       int        `json:"year"`
	Make       string     `json:"make"`
	Model      string     `json:"model"`
	TitleBrand TitleBrand `json:"title_brand"`
	// ActualCashValue is the pre-loss market value used for total-loss math
	ActualCashValue float64 `json:"actual_cash_value"`
}

// ParticipantSnapshot is a person involved in the claim
type ParticipantSnapshot struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Role              ParticipantRole `json:"role"`
	LicenseStatus     LicenseStatus   `json:"license_status,omitempty"`
	InjuryDescription string          `json:"injury_description,omitempty"`
}

// DocumentSnapshot is a document attached to the claim, including any
// prior AI/OCR analysis result consumed as an opaque scored input
type DocumentSnapshot struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	FileName        string    `json:"file_name"`
	UploadedAt      time.Time `json:"uploaded_at"`
	AnalysisScore   *float64  `json:"analysis_score,omitempty"`
	AnalysisSummary string    `json:"analysis_summary,omitempty"`
}

// DocumentTypePoliceReport is the document type consulted by the
// hit-and-run deductible waiver rule
const DocumentTypePoliceReport = "POLICE_REPORT"

// MedicalBillSnapshot is one billed line item from an injury claim
type MedicalBillSnapshot struct {
	ID                   uuid.UUID `json:"id"`
	ProviderName         string    `json:"provider_name"`
	ProviderState        string    `json:"provider_state"`
	ServiceDate          time.Time `json:"service_date"`
	ProcedureCode        string    `json:"procedure_code"`
	ProcedureDescription string    `json:"procedure_description"`
	Amount               float64   `json:"amount"`
	// DocumentationPages approximates documentation complexity for
	// upcoding cross-checks
	DocumentationPages int `json:"documentation_pages"`
}

// ClaimSnapshot is the immutable, read-only claim view assembled once per
// decision cycle. All "days since" computations use AsOf, never the wall
// clock, so scoring the same snapshot twice yields identical results.
type ClaimSnapshot struct {
	ClaimID              uuid.UUID             `json:"claim_id"`
	ClaimNumber          string                `json:"claim_number"`
	Status               lifecycle.ClaimStatus `json:"status"`
	Jurisdiction         string                `json:"jurisdiction"`
	LossType             LossType              `json:"loss_type"`
	LossDate             time.Time             `json:"loss_date"`
	ReportedDate         time.Time             `json:"reported_date"`
	LossDescription      string                `json:"loss_description"`
	LossLocation         string                `json:"loss_location"`
	DamageDescription    string                `json:"damage_description"`
	EstimatedAmount      float64               `json:"estimated_amount"`
	VehicleUse           VehicleUse            `json:"vehicle_use"`
	DriverName           string                `json:"driver_name"`
	DriverImpaired       bool                  `json:"driver_impaired"`
	RepairOnly           bool                  `json:"repair_only"`
	SubrogationRecovered bool                  `json:"subrogation_recovered"`
	InLitigation         bool                  `json:"in_litigation"`
	Policy               *PolicySnapshot       `json:"policy,omitempty"`
	Vehicle              *VehicleSnapshot      `json:"vehicle,omitempty"`
	Participants         []ParticipantSnapshot `json:"participants"`
	Documents            []DocumentSnapshot    `json:"documents"`
	MedicalBills         []MedicalBillSnapshot `json:"medical_bills"`
	// AsOf is the embedded evaluation clock for this decision cycle
	AsOf time.Time `json:"as_of"`
}

// HasInjuries reports whether any participant carries an injury description
func (c *ClaimSnapshot) HasInjuries() bool {
	for _, p := range c.Participants {
		if p.InjuryDescription != "" {
			return true
		}
	}
	return false
}

// HasDocumentOfType reports whether a document of the given type is attached
func (c *ClaimSnapshot) HasDocumentOfType(docType string) bool {
	for _, d := range c.Documents {
		if d.Type == docType {
			return true
		}
	}
	return false
}

// Driver returns the participant with the DRIVER role, if any
func (c *ClaimSnapshot) Driver() (ParticipantSnapshot, bool) {
	for _, p := range c.Participants {
		if p.Role == RoleDriver {
			return p, true
		}
	}
	return ParticipantSnapshot{}, false
}
