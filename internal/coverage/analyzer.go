package coverage

import (
	"fmt"
	"strings"

	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
)

// lossTypeCoverages maps each loss type to the coverage types that could
// respond to it
var lossTypeCoverages = map[snapshot.LossType][]snapshot.CoverageType{
	snapshot.LossCollision:       {snapshot.CoverageCollision},
	snapshot.LossTheft:           {snapshot.CoverageComprehensive, snapshot.CoverageTheft},
	snapshot.LossVandalism:       {snapshot.CoverageComprehensive},
	snapshot.LossHitAndRun:       {snapshot.CoverageCollision, snapshot.CoverageUninsuredMotoristPD},
	snapshot.LossWeather:         {snapshot.CoverageComprehensive},
	snapshot.LossFire:            {snapshot.CoverageComprehensive},
	snapshot.LossGlass:           {snapshot.CoverageComprehensive},
	snapshot.LossAnimalCollision: {snapshot.CoverageComprehensive},
}

// Analyzer determines coverage applicability, evaluates exclusions, and
// computes deductible waivers. It is a pure function over the snapshot:
// missing policy data degrades to not-applicable verdicts with a warning,
// never an error.
type Analyzer struct{}

// NewAnalyzer creates a new coverage analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Evaluate produces the CoverageResult for a claim snapshot
func (a *Analyzer) Evaluate(claim *snapshot.ClaimSnapshot) Result {
	result := Result{
		ClaimID:         claim.ClaimID,
		Verdicts:        make([]Verdict, 0, 2),
		Exclusions:      make([]Exclusion, 0, 7),
		Waivers:         make([]WaiverDetermination, 0, 1),
		Gaps:            make([]snapshot.CoverageType, 0),
		Warnings:        make([]string, 0),
		Recommendations: make([]string, 0),
	}

	candidates, ok := lossTypeCoverages[claim.LossType]
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no coverage mapping for loss type %s", claim.LossType))
		result.Recommendations = append(result.Recommendations, "route to coverage counsel for loss type classification")
		return result
	}

	if claim.Policy == nil {
		for _, ct := range candidates {
			result.Verdicts = append(result.Verdicts, Verdict{
				CoverageType: ct,
				Applies:      false,
				Reason:       ReasonPolicyDataMissing,
			})
			result.Gaps = append(result.Gaps, ct)
		}
		result.Warnings = append(result.Warnings, "policy data missing; coverage degraded to not-applicable")
		result.Recommendations = append(result.Recommendations, "verify policy before any payment")
		return result
	}

	policy := claim.Policy
	for _, ct := range candidates {
		result.Verdicts = append(result.Verdicts, a.evaluateCoverage(claim, policy, ct))
	}

	result.Exclusions = a.evaluateExclusions(claim, policy)
	result.Waivers = a.evaluateWaivers(claim, result.Verdicts)

	// Coverage gaps: coverage expected by loss type but not applicable
	for _, v := range result.Verdicts {
		if !v.Applies {
			result.Gaps = append(result.Gaps, v.CoverageType)
		}
	}

	a.deriveRecommendations(&result)

	return result
}

// evaluateCoverage applies the applicability chain for one coverage type
func (a *Analyzer) evaluateCoverage(claim *snapshot.ClaimSnapshot, policy *snapshot.PolicySnapshot, ct snapshot.CoverageType) Verdict {
	cov, found := policy.CoverageByType(ct)
	if !found {
		return Verdict{CoverageType: ct, Applies: false, Reason: ReasonNotOnPolicy}
	}

	verdict := Verdict{CoverageType: ct, Limit: cov.Limit, Deductible: cov.Deductible}

	if policy.Status != snapshot.PolicyActive ||
		claim.LossDate.Before(policy.EffectiveDate) || claim.LossDate.After(policy.ExpirationDate) {
		verdict.Reason = ReasonPolicyNotInForce
		return verdict
	}

	switch cov.Status {
	case snapshot.CoverageActive:
	case snapshot.CoveragePendingEndorsement:
		verdict.Reason = ReasonPendingEndorsement
		return verdict
	default:
		verdict.Reason = ReasonCoverageInactive
		return verdict
	}

	if cov.VehicleVIN != "" {
		if claim.Vehicle == nil || claim.Vehicle.VIN != cov.VehicleVIN {
			verdict.Reason = ReasonVehicleMismatch
			return verdict
		}
	}

	if policy.DriverRestricted && claim.DriverName != "" && !policy.IsNamedDriver(claim.DriverName) {
		verdict.Reason = ReasonDriverNotNamed
		return verdict
	}

	verdict.Applies = true
	verdict.Reason = "coverage in force for loss"
	return verdict
}

// evaluateExclusions runs the fixed, ordered exclusion list. Each exclusion
// is evaluated independently and never short-circuits the others.
func (a *Analyzer) evaluateExclusions(claim *snapshot.ClaimSnapshot, policy *snapshot.PolicySnapshot) []Exclusion {
	desc := strings.ToLower(claim.LossDescription)
	driver, hasDriver := claim.Driver()

	exclusions := []Exclusion{
		{
			Code:        ExclusionIntentionalAct,
			Description: "loss caused intentionally by an insured",
			Applies:     containsAny(desc, "intentional", "deliberately", "on purpose"),
		},
		{
			Code:        ExclusionBusinessUse,
			Description: "vehicle in commercial use without business-use endorsement",
			Applies: (claim.VehicleUse == snapshot.UseCommercial && !policy.BusinessUseEndorsement) ||
				(claim.VehicleUse == snapshot.UseRideshare && !policy.RideshareEndorsement),
		},
		{
			Code:        ExclusionRacing,
			Description: "vehicle used in racing or speed contest",
			Applies:     containsAny(desc, "racing", "speed contest", "street race"),
		},
		{
			Code:        ExclusionDUI,
			Description: "driver impaired at time of loss",
			Applies:     policy.DUIExclusion && claim.DriverImpaired,
		},
		{
			Code:        ExclusionExcludedDriver,
			Description: "driver unlicensed or excluded from the policy",
			Applies: hasDriver &&
				(driver.LicenseStatus == snapshot.LicenseUnlicensed ||
					driver.LicenseStatus == snapshot.LicenseSuspended ||
					driver.LicenseStatus == snapshot.LicenseExcluded),
		},
		{
			Code:        ExclusionWearAndTear,
			Description: "mechanical breakdown or wear and tear",
			Applies:     containsAny(desc, "wear and tear", "mechanical failure", "breakdown", "corrosion"),
		},
		{
			Code:        ExclusionWarTerrorism,
			Description: "loss arising from war or terrorism",
			Applies:     containsAny(desc, "war", "terrorism", "insurrection"),
		},
	}

	return exclusions
}

// evaluateWaivers applies the narrow deductible-waiver rules
func (a *Analyzer) evaluateWaivers(claim *snapshot.ClaimSnapshot, verdicts []Verdict) []WaiverDetermination {
	waivers := make([]WaiverDetermination, 0, 1)

	for _, v := range verdicts {
		if !v.Applies || v.Deductible == 0 {
			continue
		}

		switch {
		case claim.LossType == snapshot.LossHitAndRun && claim.HasDocumentOfType(snapshot.DocumentTypePoliceReport):
			waivers = append(waivers, WaiverDetermination{
				CoverageType: v.CoverageType,
				Waived:       true,
				Reason:       "hit-and-run with police report on file",
			})
		case claim.LossType == snapshot.LossGlass && claim.RepairOnly:
			waivers = append(waivers, WaiverDetermination{
				CoverageType: v.CoverageType,
				Waived:       true,
				Reason:       "glass repair-only claim",
			})
		case claim.SubrogationRecovered:
			waivers = append(waivers, WaiverDetermination{
				CoverageType: v.CoverageType,
				Waived:       true,
				Reason:       "subrogation recovery completed",
			})
		}
	}

	return waivers
}

// deriveRecommendations derives deterministic advisory output from the
// verdict and exclusion sets
func (a *Analyzer) deriveRecommendations(result *Result) {
	applies := result.CoverageApplies()
	excluded := result.ExclusionApplies()

	switch {
	case !applies:
		result.Recommendations = append(result.Recommendations, "deny claim: no applicable coverage")
	case excluded:
		result.Recommendations = append(result.Recommendations, "escalate to coverage counsel: exclusion applies to otherwise covered loss")
		result.Warnings = append(result.Warnings, "exclusion conflict requires coverage review")
	case len(result.Gaps) > 0:
		result.Recommendations = append(result.Recommendations, "proceed with partial coverage only")
	default:
		result.Recommendations = append(result.Recommendations, "coverage confirmed for loss")
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
