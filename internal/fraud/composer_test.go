package fraud

import (
	"testing"

	"github.com/bonapart3/claimagent-sub002/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func riskConfig() config.RiskConfig {
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

func TestCompose_TakesMaxOfSignals(t *testing.T) {
	composer := NewComposer(riskConfig())
	claimID := uuid.New()

	pattern := &PatternScore{Score: 40, Indicators: []Indicator{{Source: "timing", Weight: 40}}}
	medical := &MedicalScore{Score: 65, Anomalies: []Anomaly{{Type: AnomalyUpcoding, Weight: 65}}}

	result := composer.Compose(claimID, pattern, medical)

	assert.Equal(t, 65.0, result.Score)
	assert.Equal(t, TierHigh, result.Tier)
	assert.Equal(t, claimID, result.ClaimID)
	// Indicators from both signals are merged
	assert.Len(t, result.Indicators, 2)
	assert.False(t, result.SIUReferral)
}

func TestCompose_PatternDominates(t *testing.T) {
	composer := NewComposer(riskConfig())

	pattern := &PatternScore{Score: 80}
	medical := &MedicalScore{Score: 20}

	result := composer.Compose(uuid.New(), pattern, medical)

	assert.Equal(t, 80.0, result.Score)
	assert.Equal(t, TierCritical, result.Tier)
	assert.True(t, result.SIUReferral)
}

func TestCompose_MedicalOnly(t *testing.T) {
	composer := NewComposer(riskConfig())

	result := composer.Compose(uuid.New(), nil, &MedicalScore{Score: 55})

	assert.Equal(t, 55.0, result.Score)
	assert.Equal(t, TierHigh, result.Tier)
}

func TestCompose_NoSignals(t *testing.T) {
	composer := NewComposer(riskConfig())

	result := composer.Compose(uuid.New(), nil, nil)

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, TierLow, result.Tier)
	assert.False(t, result.SIUReferral)
	assert.Empty(t, result.Indicators)
}

func TestCompose_SIUReferralAtEscalationThreshold(t *testing.T) {
	composer := NewComposer(riskConfig())

	result := composer.Compose(uuid.New(), &PatternScore{Score: 75}, nil)

	assert.True(t, result.SIUReferral)
	assert.Equal(t, TierCritical, result.Tier)
}

func TestCompose_ScoreOf90IsCritical(t *testing.T) {
	composer := NewComposer(riskConfig())

	result := composer.Compose(uuid.New(), &PatternScore{Score: 90}, nil)

	assert.Equal(t, 90.0, result.Score)
	assert.Equal(t, TierCritical, result.Tier)
	assert.True(t, result.SIUReferral)
}

func TestTierFor_Boundaries(t *testing.T) {
	composer := NewComposer(riskConfig())

	assert.Equal(t, TierLow, composer.TierFor(0))
	assert.Equal(t, TierLow, composer.TierFor(29.9))
	assert.Equal(t, TierMedium, composer.TierFor(30))
	assert.Equal(t, TierMedium, composer.TierFor(49.9))
	assert.Equal(t, TierHigh, composer.TierFor(50))
	assert.Equal(t, TierHigh, composer.TierFor(74.9))
	assert.Equal(t, TierCritical, composer.TierFor(75))
	assert.Equal(t, TierCritical, composer.TierFor(100))
}

func TestTierFor_Monotonic(t *testing.T) {
	composer := NewComposer(riskConfig())

	order := map[RiskTier]int{TierLow: 0, TierMedium: 1, TierHigh: 2, TierCritical: 3}
	prev := TierLow
	for score := 0.0; score <= 100; score++ {
		tier := composer.TierFor(score)
		assert.GreaterOrEqual(t, order[tier], order[prev], "tier regressed at score %.0f", score)
		prev = tier
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5))
	assert.Equal(t, 0.0, clamp(0))
	assert.Equal(t, 50.0, clamp(50))
	assert.Equal(t, 100.0, clamp(100))
	assert.Equal(t, 100.0, clamp(135))
}
