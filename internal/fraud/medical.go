package fraud

import (
	"fmt"
	"strings"

	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
)

// MedicalConfig holds keyword tables, code tables, and weights for the
// medical billing screener. Injected as versioned reference data.
type MedicalConfig struct {
	SevereInjuryKeywords   []string
	ModerateInjuryKeywords []string
	MinorDamageKeywords    []string
	SevereMismatchWeight   float64
	ModerateMismatchWeight float64

	ProviderWatchlist        []string
	WatchlistProviderWeight  float64
	ManyProvidersCount       int
	ManyProvidersWeight      float64
	SeveralProvidersCount    int
	SeveralProvidersWeight   float64
	OutOfStateProviderWeight float64
	ProviderRiskCap          float64

	// HighRiskCodes maps procedure codes prone to upcoding to the billed
	// amount above which the code is suspect
	HighRiskCodes       map[string]float64
	UpcodingKeywords    []string
	UpcodingMinDocPages int
	UpcodingWeight      float64
	BundlingPatterns    [][]string
	SameDateCodeLimit   int
	UnbundlingWeight    float64
	DuplicateWeight     float64
	BillingAnomalyCap   float64

	LongTreatmentDays     int
	LongTreatmentWeight   float64
	PhysicalTherapyPrefix string
	ManyPTSessionsCount   int
	ManyPTSessionsWeight  float64
}

// DefaultMedicalConfig returns the standard deployment tables
func DefaultMedicalConfig() MedicalConfig {
	return MedicalConfig{
		SevereInjuryKeywords:   []string{"fracture", "traumatic brain", "herniated", "surgery", "spinal", "concussion"},
		ModerateInjuryKeywords: []string{"whiplash", "sprain", "strain", "contusion", "soft tissue"},
		MinorDamageKeywords:    []string{"scratch", "dent", "scuff", "bumper", "cosmetic", "minor"},
		SevereMismatchWeight:   30,
		ModerateMismatchWeight: 15,

		ProviderWatchlist:        []string{"wellness center", "rapid recovery", "accident clinic", "injury mill"},
		WatchlistProviderWeight:  15,
		ManyProvidersCount:       5,
		ManyProvidersWeight:      20,
		SeveralProvidersCount:    3,
		SeveralProvidersWeight:   10,
		OutOfStateProviderWeight: 10,
		ProviderRiskCap:          45,

		HighRiskCodes: map[string]float64{
			"99215": 300, // highest-level established patient visit
			"99205": 450, // highest-level new patient visit
			"99285": 900, // highest-level emergency department visit
		},
		UpcodingKeywords:    []string{"comprehensive", "complex", "high severity"},
		UpcodingMinDocPages: 3,
		UpcodingWeight:      20,
		BundlingPatterns: [][]string{
			{"97110", "97112", "97140"}, // therapeutic exercise billed piecewise
			{"80053", "80048"},          // comprehensive + basic metabolic panel
		},
		SameDateCodeLimit: 3,
		UnbundlingWeight:  15,
		DuplicateWeight:   25,
		BillingAnomalyCap: 60,

		LongTreatmentDays:     90,
		LongTreatmentWeight:   15,
		PhysicalTherapyPrefix: "971",
		ManyPTSessionsCount:   50,
		ManyPTSessionsWeight:  10,
	}
}

// MedicalScreener evaluates injury-related billing data for upcoding,
// unbundling, duplicate billing, and provider risk. Deterministic: the same
// bill data flags the same anomalies on every run.
type MedicalScreener struct {
	cfg MedicalConfig
}

// NewMedicalScreener creates a screener with the given config
func NewMedicalScreener(cfg MedicalConfig) *MedicalScreener {
	return &MedicalScreener{cfg: cfg}
}

// Screen scores the claim's medical billing. Callers invoke it only when a
// participant carries an injury description; an empty bill list still
// produces a severity-mismatch check over the injury text.
func (s *MedicalScreener) Screen(claim *snapshot.ClaimSnapshot) MedicalScore {
	result := MedicalScore{Anomalies: make([]Anomaly, 0, 4)}

	result.Score += s.scoreSeverityMismatch(claim, &result)
	result.Score += s.scoreProviderRisk(claim, &result)
	result.Score += s.scoreBillingAnomalies(claim, &result)
	result.Score += s.scoreTreatmentDuration(claim, &result)

	result.Score = clamp(result.Score)
	return result
}

// scoreSeverityMismatch compares injury severity keywords against vehicle
// damage keywords using independent classifiers for each text
func (s *MedicalScreener) scoreSeverityMismatch(claim *snapshot.ClaimSnapshot, result *MedicalScore) float64 {
	injuryText := strings.ToLower(collectInjuryText(claim))
	damageText := strings.ToLower(claim.DamageDescription)

	if injuryText == "" || damageText == "" {
		return 0
	}
	if !containsAnyKeyword(damageText, s.cfg.MinorDamageKeywords) {
		return 0
	}

	if containsAnyKeyword(injuryText, s.cfg.SevereInjuryKeywords) {
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:        AnomalySeverityMismatch,
			Description: "severe injury reported with minor vehicle damage",
			Weight:      s.cfg.SevereMismatchWeight,
		})
		return s.cfg.SevereMismatchWeight
	}
	if containsAnyKeyword(injuryText, s.cfg.ModerateInjuryKeywords) {
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:        AnomalySeverityMismatch,
			Description: "moderate injury reported with minor vehicle damage",
			Weight:      s.cfg.ModerateMismatchWeight,
		})
		return s.cfg.ModerateMismatchWeight
	}
	return 0
}

// scoreProviderRisk evaluates watchlist matches, doctor-shopping, and
// out-of-state providers, capped as a group
func (s *MedicalScreener) scoreProviderRisk(claim *snapshot.ClaimSnapshot, result *MedicalScore) float64 {
	if len(claim.MedicalBills) == 0 {
		return 0
	}

	var score float64
	providers := make(map[string]string) // lowered name -> state
	for _, bill := range claim.MedicalBills {
		providers[strings.ToLower(bill.ProviderName)] = bill.ProviderState
	}

	for name := range providers {
		if containsAnyKeyword(name, s.cfg.ProviderWatchlist) {
			score += s.cfg.WatchlistProviderWeight
			result.Anomalies = append(result.Anomalies, Anomaly{
				Type:        AnomalyProviderRisk,
				Description: fmt.Sprintf("provider %q matches watchlist pattern", name),
				Weight:      s.cfg.WatchlistProviderWeight,
			})
		}
	}

	switch {
	case len(providers) > s.cfg.ManyProvidersCount:
		score += s.cfg.ManyProvidersWeight
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:        AnomalyProviderRisk,
			Description: fmt.Sprintf("%d distinct providers billed", len(providers)),
			Weight:      s.cfg.ManyProvidersWeight,
		})
	case len(providers) > s.cfg.SeveralProvidersCount:
		score += s.cfg.SeveralProvidersWeight
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:        AnomalyProviderRisk,
			Description: fmt.Sprintf("%d distinct providers billed", len(providers)),
			Weight:      s.cfg.SeveralProvidersWeight,
		})
	}

	for name, state := range providers {
		if state != "" && claim.Jurisdiction != "" && state != claim.Jurisdiction {
			score += s.cfg.OutOfStateProviderWeight
			result.Anomalies = append(result.Anomalies, Anomaly{
				Type:        AnomalyProviderRisk,
				Description: fmt.Sprintf("provider %q bills from out of state (%s)", name, state),
				Weight:      s.cfg.OutOfStateProviderWeight,
			})
			break
		}
	}

	if score > s.cfg.ProviderRiskCap {
		score = s.cfg.ProviderRiskCap
	}
	return score
}

// scoreBillingAnomalies runs per-bill upcoding, unbundling, and duplicate
// checks, capped as a group
func (s *MedicalScreener) scoreBillingAnomalies(claim *snapshot.ClaimSnapshot, result *MedicalScore) float64 {
	bills := claim.MedicalBills
	if len(bills) == 0 {
		return 0
	}

	var score float64

	// Upcoding: high-risk code with thin documentation or severity
	// keywords, cross-checked against the per-code amount threshold
	for _, bill := range bills {
		threshold, highRisk := s.cfg.HighRiskCodes[bill.ProcedureCode]
		if !highRisk {
			continue
		}
		desc := strings.ToLower(bill.ProcedureDescription)
		thinDocumentation := bill.DocumentationPages < s.cfg.UpcodingMinDocPages
		severityLanguage := containsAnyKeyword(desc, s.cfg.UpcodingKeywords)
		overThreshold := bill.Amount > threshold
		if (thinDocumentation && severityLanguage) || overThreshold {
			score += s.cfg.UpcodingWeight
			result.Anomalies = append(result.Anomalies, Anomaly{
				Type:        AnomalyUpcoding,
				BillID:      bill.ID,
				Description: fmt.Sprintf("code %s billed at $%.2f with documentation inconsistent with level", bill.ProcedureCode, bill.Amount),
				Weight:      s.cfg.UpcodingWeight,
			})
		}
	}

	// Unbundling: bundled-pattern codes co-occurring on the same service
	// date, or too many same-date codes spanning eval/lab/procedure work
	byDate := make(map[string][]snapshot.MedicalBillSnapshot)
	for _, bill := range bills {
		key := bill.ServiceDate.Format("2006-01-02")
		byDate[key] = append(byDate[key], bill)
	}
	for date, sameDate := range byDate {
		codes := make(map[string]bool, len(sameDate))
		for _, bill := range sameDate {
			codes[bill.ProcedureCode] = true
		}

		unbundled := false
		for _, pattern := range s.cfg.BundlingPatterns {
			matched := 0
			for _, code := range pattern {
				if codes[code] {
					matched++
				}
			}
			if matched >= 2 {
				unbundled = true
				break
			}
		}
		if !unbundled && len(codes) > s.cfg.SameDateCodeLimit && spansCategories(codes) {
			unbundled = true
		}

		if unbundled {
			score += s.cfg.UnbundlingWeight
			result.Anomalies = append(result.Anomalies, Anomaly{
				Type:        AnomalyUnbundling,
				Description: fmt.Sprintf("same-date codes on %s match unbundling pattern", date),
				Weight:      s.cfg.UnbundlingWeight,
			})
		}
	}

	// Exact duplicates: same date, amount, and code across bills. Symmetric
	// by construction: every bill in a duplicate group is flagged.
	seen := make(map[string][]snapshot.MedicalBillSnapshot)
	for _, bill := range bills {
		key := fmt.Sprintf("%s|%.2f|%s", bill.ServiceDate.Format("2006-01-02"), bill.Amount, bill.ProcedureCode)
		seen[key] = append(seen[key], bill)
	}
	for _, group := range seen {
		if len(group) < 2 {
			continue
		}
		score += s.cfg.DuplicateWeight
		for _, bill := range group {
			result.Anomalies = append(result.Anomalies, Anomaly{
				Type:        AnomalyDuplicateBilling,
				BillID:      bill.ID,
				Description: fmt.Sprintf("bill duplicates code %s on %s for $%.2f", bill.ProcedureCode, bill.ServiceDate.Format("2006-01-02"), bill.Amount),
				Weight:      s.cfg.DuplicateWeight,
			})
		}
	}

	if score > s.cfg.BillingAnomalyCap {
		score = s.cfg.BillingAnomalyCap
	}
	return score
}

// scoreTreatmentDuration applies the long-treatment heuristics
func (s *MedicalScreener) scoreTreatmentDuration(claim *snapshot.ClaimSnapshot, result *MedicalScore) float64 {
	bills := claim.MedicalBills
	if len(bills) == 0 {
		return 0
	}

	var score float64
	first, last := bills[0].ServiceDate, bills[0].ServiceDate
	ptSessions := 0
	for _, bill := range bills {
		if bill.ServiceDate.Before(first) {
			first = bill.ServiceDate
		}
		if bill.ServiceDate.After(last) {
			last = bill.ServiceDate
		}
		if strings.HasPrefix(bill.ProcedureCode, s.cfg.PhysicalTherapyPrefix) {
			ptSessions++
		}
	}

	treatmentDays := int(last.Sub(first).Hours() / 24)
	if treatmentDays > s.cfg.LongTreatmentDays {
		score += s.cfg.LongTreatmentWeight
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:        AnomalyTreatmentDuration,
			Description: fmt.Sprintf("treatment span of %d days", treatmentDays),
			Weight:      s.cfg.LongTreatmentWeight,
		})
	}
	if ptSessions > s.cfg.ManyPTSessionsCount {
		score += s.cfg.ManyPTSessionsWeight
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:        AnomalyTreatmentDuration,
			Description: fmt.Sprintf("%d physical therapy sessions billed", ptSessions),
			Weight:      s.cfg.ManyPTSessionsWeight,
		})
	}
	return score
}

// spansCategories reports whether a code set mixes evaluation, lab, and
// procedure families
func spansCategories(codes map[string]bool) bool {
	categories := make(map[string]bool, 3)
	for code := range codes {
		switch {
		case strings.HasPrefix(code, "992"):
			categories["evaluation"] = true
		case strings.HasPrefix(code, "8"):
			categories["lab"] = true
		case strings.HasPrefix(code, "97"):
			categories["procedure"] = true
		}
	}
	return len(categories) >= 3
}

func collectInjuryText(claim *snapshot.ClaimSnapshot) string {
	var parts []string
	for _, p := range claim.Participants {
		if p.InjuryDescription != "" {
			parts = append(parts, p.InjuryDescription)
		}
	}
	return strings.Join(parts, " ")
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
