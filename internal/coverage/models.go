package coverage

import (
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/google/uuid"
)

// Verdict is a per-coverage-type applicability determination
type Verdict struct {
	CoverageType snapshot.CoverageType `json:"coverage_type"`
	Applies      bool                  `json:"applies"`
	Reason       string                `json:"reason"`
	Limit        float64               `json:"limit"`
	Deductible   float64               `json:"deductible"`
}

// Exclusion is one evaluated policy exclusion. Exclusions are evaluated
// independently so multiple simultaneous exclusions are all recorded.
type Exclusion struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Applies     bool   `json:"applies"`
}

// WaiverDetermination records whether a deductible waiver rule applied
type WaiverDetermination struct {
	CoverageType snapshot.CoverageType `json:"coverage_type"`
	Waived       bool                  `json:"waived"`
	Reason       string                `json:"reason"`
}

// Result is the full coverage analysis output for one claim snapshot
type Result struct {
	ClaimID         uuid.UUID               `json:"claim_id"`
	Verdicts        []Verdict               `json:"verdicts"`
	Exclusions      []Exclusion             `json:"exclusions"`
	Waivers         []WaiverDetermination   `json:"waivers"`
	Gaps            []snapshot.CoverageType `json:"gaps"`
	Warnings        []string                `json:"warnings"`
	Recommendations []string                `json:"recommendations"`
}

// CoverageApplies reports the overall determination: coverage applies iff
// any verdict applies
func (r *Result) CoverageApplies() bool {
	for _, v := range r.Verdicts {
		if v.Applies {
			return true
		}
	}
	return false
}

// ExclusionApplies reports whether any evaluated exclusion applies
func (r *Result) ExclusionApplies() bool {
	for _, e := range r.Exclusions {
		if e.Applies {
			return true
		}
	}
	return false
}

// Exclusion codes, in their fixed evaluation order
const (
	ExclusionIntentionalAct = "INTENTIONAL_ACT"
	ExclusionBusinessUse    = "BUSINESS_USE"
	ExclusionRacing         = "RACING"
	ExclusionDUI            = "DUI"
	ExclusionExcludedDriver = "EXCLUDED_DRIVER"
	ExclusionWearAndTear    = "WEAR_AND_TEAR"
	ExclusionWarTerrorism   = "WAR_TERRORISM"
)

// Verdict reasons for non-applicability
const (
	ReasonNotOnPolicy        = "not on policy"
	ReasonPolicyDataMissing  = "policy data unavailable"
	ReasonCoverageInactive   = "coverage not active"
	ReasonPendingEndorsement = "endorsement pending"
	ReasonVehicleMismatch    = "vehicle not covered"
	ReasonDriverNotNamed     = "driver not on named-driver list"
	ReasonPolicyNotInForce   = "policy not in force on loss date"
)
