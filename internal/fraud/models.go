package fraud

import "github.com/google/uuid"

// RiskTier is the ordered classification derived from a composite score
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierMedium   RiskTier = "MEDIUM"
	TierHigh     RiskTier = "HIGH"
	TierCritical RiskTier = "CRITICAL"
)

// Indicator is one detected fraud signal. Indicators accumulate and are
// never removed once detected in a run; they form the audit trail of the
// score.
type Indicator struct {
	Source      string  `json:"source"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// PatternScore is the behavioral/timing/location/vehicle scoring output
type PatternScore struct {
	Score      float64     `json:"score"`
	Indicators []Indicator `json:"indicators"`
}

// AnomalyType classifies a medical billing anomaly
type AnomalyType string

const (
	AnomalySeverityMismatch  AnomalyType = "SEVERITY_MISMATCH"
	AnomalyProviderRisk      AnomalyType = "PROVIDER_RISK"
	AnomalyUpcoding          AnomalyType = "UPCODING"
	AnomalyUnbundling        AnomalyType = "UNBUNDLING"
	AnomalyDuplicateBilling  AnomalyType = "DUPLICATE_BILLING"
	AnomalyTreatmentDuration AnomalyType = "TREATMENT_DURATION"
)

// Anomaly is one flagged medical billing irregularity
type Anomaly struct {
	Type        AnomalyType `json:"type"`
	BillID      uuid.UUID   `json:"bill_id,omitempty"`
	Description string      `json:"description"`
	Weight      float64     `json:"weight"`
}

// MedicalScore is the medical billing screening output
type MedicalScore struct {
	Score     float64   `json:"score"`
	Anomalies []Anomaly `json:"anomalies"`
}

// Indicators converts the anomaly list into fraud indicators so the
// composite score carries a single attributed trail
func (m *MedicalScore) Indicators() []Indicator {
	indicators := make([]Indicator, 0, len(m.Anomalies))
	for _, a := range m.Anomalies {
		indicators = append(indicators, Indicator{
			Source:      "medical:" + string(a.Type),
			Description: a.Description,
			Weight:      a.Weight,
		})
	}
	return indicators
}

// RiskScore is the composite scoring result: a clamped 0-100 score, the
// tier derived from it, and the indicators that produced it
type RiskScore struct {
	ClaimID    uuid.UUID   `json:"claim_id"`
	Score      float64     `json:"score"`
	Tier       RiskTier    `json:"tier"`
	Indicators []Indicator `json:"indicators"`
	// SIUReferral is set when the score crosses the escalation threshold
	SIUReferral bool `json:"siu_referral"`
}

// clamp bounds a score to the canonical 0-100 range
func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
