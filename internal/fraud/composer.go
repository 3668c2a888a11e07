package fraud

import (
	"github.com/bonapart3/claimagent-sub002/pkg/config"
	"github.com/google/uuid"
)

// Composer merges pattern and medical scores into one composite risk score
// and tier. Thresholds come from validated deployment configuration, so a
// non-monotonic breakpoint set can never reach scoring time.
type Composer struct {
	cfg config.RiskConfig
}

// NewComposer creates a composer over validated risk configuration
func NewComposer(cfg config.RiskConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Compose combines the two fraud signals. The combined score is
// max(pattern, medical) when both ran: either signal alone can justify
// escalation, and averaging would dilute a single strong signal.
func (c *Composer) Compose(claimID uuid.UUID, pattern *PatternScore, medical *MedicalScore) RiskScore {
	var score float64
	indicators := make([]Indicator, 0)

	if pattern != nil {
		score = pattern.Score
		indicators = append(indicators, pattern.Indicators...)
	}
	if medical != nil {
		if medical.Score > score {
			score = medical.Score
		}
		indicators = append(indicators, medical.Indicators()...)
	}

	score = clamp(score)
	return RiskScore{
		ClaimID:     claimID,
		Score:       score,
		Tier:        c.TierFor(score),
		Indicators:  indicators,
		SIUReferral: score >= c.cfg.EscalationThreshold,
	}
}

// TierFor derives the risk tier from a clamped score. Monotonic: a higher
// score can never produce a lower tier.
func (c *Composer) TierFor(score float64) RiskTier {
	switch {
	case score >= c.cfg.CriticalThreshold:
		return TierCritical
	case score >= c.cfg.HighThreshold:
		return TierHigh
	case score >= c.cfg.MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}
