package fraud

import (
	"fmt"
	"strings"

	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/google/uuid"
)

// PatternConfig holds the weights and keyword tables for the pattern
// scorer. Injected as versioned reference data so thresholds can vary per
// jurisdiction and deployment without code changes.
type PatternConfig struct {
	InceptionWindowDays        int
	InceptionWindowWeight      float64
	EarlyInceptionDays         int
	EarlyInceptionWeight       float64
	LateReportingDays          int
	LateReportingWeight        float64
	LocationKeywords           []string
	LocationKeywordWeight      float64
	SalvageTitleWeight         float64
	HighAmountThreshold        float64
	OldVehicleYears            int
	HighAmountOldVehicleWeight float64
}

// DefaultPatternConfig returns the standard deployment weights
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		InceptionWindowDays:        30,
		InceptionWindowWeight:      20,
		EarlyInceptionDays:         7,
		EarlyInceptionWeight:       15,
		LateReportingDays:          30,
		LateReportingWeight:        15,
		LocationKeywords:           []string{"parking lot", "staged", "abandoned", "remote", "unwitnessed"},
		LocationKeywordWeight:      10,
		SalvageTitleWeight:         15,
		HighAmountThreshold:        20000,
		OldVehicleYears:            10,
		HighAmountOldVehicleWeight: 20,
	}
}

// HistoryProvider surfaces cross-claim history for the repeat-claimant
// check. The zero-valued default contributes nothing until the hook is
// wired to historical claim data.
type HistoryProvider interface {
	PriorClaimCount(claimant uuid.UUID) int
}

// noHistory is the default provider: no historical data available
type noHistory struct{}

func (noHistory) PriorClaimCount(uuid.UUID) int { return 0 }

// PatternScorer evaluates claim-level behavioral, timing, location, and
// vehicle signals into an additive pre-clamp score. All four sub-checks run
// unconditionally; absence of a signal source contributes zero.
type PatternScorer struct {
	cfg     PatternConfig
	history HistoryProvider
}

// NewPatternScorer creates a pattern scorer with the given config
func NewPatternScorer(cfg PatternConfig) *PatternScorer {
	return &PatternScorer{cfg: cfg, history: noHistory{}}
}

// WithHistory wires the repeat-claimant hook to a history source
func (s *PatternScorer) WithHistory(h HistoryProvider) *PatternScorer {
	s.history = h
	return s
}

// Score evaluates a claim snapshot. Deterministic over the snapshot: day
// counts use the snapshot's embedded timestamps, never the wall clock.
func (s *PatternScorer) Score(claim *snapshot.ClaimSnapshot) PatternScore {
	result := PatternScore{Indicators: make([]Indicator, 0, 4)}

	s.scoreTiming(claim, &result)
	s.scoreLocation(claim, &result)
	s.scoreVehicle(claim, &result)
	s.scoreHistory(claim, &result)

	result.Score = clamp(result.Score)
	return result
}

func (s *PatternScorer) scoreTiming(claim *snapshot.ClaimSnapshot, result *PatternScore) {
	if claim.Policy != nil {
		daysSinceInception := int(claim.LossDate.Sub(claim.Policy.EffectiveDate).Hours() / 24)
		if daysSinceInception >= 0 && daysSinceInception <= s.cfg.InceptionWindowDays {
			result.add("timing", fmt.Sprintf("loss %d days after policy inception (within %d-day window)",
				daysSinceInception, s.cfg.InceptionWindowDays), s.cfg.InceptionWindowWeight)
		}
		if daysSinceInception >= 0 && daysSinceInception <= s.cfg.EarlyInceptionDays {
			result.add("timing", fmt.Sprintf("loss %d days after policy inception (within %d-day window)",
				daysSinceInception, s.cfg.EarlyInceptionDays), s.cfg.EarlyInceptionWeight)
		}
	}

	reportingDelay := int(claim.ReportedDate.Sub(claim.LossDate).Hours() / 24)
	if reportingDelay > s.cfg.LateReportingDays {
		result.add("timing", fmt.Sprintf("claim reported %d days after loss", reportingDelay), s.cfg.LateReportingWeight)
	}
}

func (s *PatternScorer) scoreLocation(claim *snapshot.ClaimSnapshot, result *PatternScore) {
	location := strings.ToLower(claim.LossLocation)
	for _, keyword := range s.cfg.LocationKeywords {
		if strings.Contains(location, keyword) {
			result.add("location", fmt.Sprintf("loss location matches pattern %q", keyword), s.cfg.LocationKeywordWeight)
		}
	}
}

func (s *PatternScorer) scoreVehicle(claim *snapshot.ClaimSnapshot, result *PatternScore) {
	if claim.Vehicle == nil {
		return
	}

	if claim.Vehicle.TitleBrand == snapshot.TitleSalvage || claim.Vehicle.TitleBrand == snapshot.TitleRebuilt {
		result.add("vehicle", fmt.Sprintf("vehicle carries %s title", strings.ToLower(string(claim.Vehicle.TitleBrand))), s.cfg.SalvageTitleWeight)
	}

	vehicleAge := claim.AsOf.Year() - claim.Vehicle.Year
	if claim.EstimatedAmount > s.cfg.HighAmountThreshold && vehicleAge > s.cfg.OldVehicleYears {
		result.add("vehicle", fmt.Sprintf("claim of $%.0f on %d-year-old vehicle", claim.EstimatedAmount, vehicleAge),
			s.cfg.HighAmountOldVehicleWeight)
	}
}

// scoreHistory is the repeat-claimant/network check hook. It contributes
// zero until a HistoryProvider backed by historical claim data is wired.
func (s *PatternScorer) scoreHistory(claim *snapshot.ClaimSnapshot, result *PatternScore) {
	if s.history.PriorClaimCount(claim.ClaimID) > 0 {
		// TODO(history): weight repeat-claimant signal once the cross-claim
		// read model lands; the hook currently always reports zero.
		return
	}
}

// add records an indicator and its score contribution
func (p *PatternScore) add(source, description string, weight float64) {
	p.Indicators = append(p.Indicators, Indicator{Source: source, Description: description, Weight: weight})
	p.Score += weight
}
