package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRisk() RiskConfig {
	return RiskConfig{
		MediumThreshold:     30,
		HighThreshold:       50,
		CriticalThreshold:   75,
		EscalationThreshold: 75,
		AutoDenyScore:       85,
		InvestigateScore:    50,
		SupervisorAuthority: 50000,
	}
}

func TestRiskConfig_ValidDefaults(t *testing.T) {
	cfg := validRisk()
	assert.NoError(t, cfg.Validate())
}

func TestRiskConfig_NonMonotonicBreakpoints(t *testing.T) {
	cfg := validRisk()
	cfg.HighThreshold = 25

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly increasing")
}

func TestRiskConfig_EqualBreakpointsRejected(t *testing.T) {
	cfg := validRisk()
	cfg.CriticalThreshold = cfg.HighThreshold

	assert.Error(t, cfg.Validate())
}

func TestRiskConfig_EscalationBelowHighRejected(t *testing.T) {
	cfg := validRisk()
	cfg.EscalationThreshold = 40

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "escalation threshold")
}

func TestRiskConfig_InvestigateAboveAutoDenyRejected(t *testing.T) {
	cfg := validRisk()
	cfg.InvestigateScore = 90

	assert.Error(t, cfg.Validate())
}

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := Load("test-service")

	require.NoError(t, err)
	assert.Equal(t, "test-service", cfg.Server.ServiceName)
	assert.NoError(t, cfg.Risk.Validate())
	assert.Equal(t, 75.0, cfg.Risk.EscalationThreshold)
}

func TestLoad_InvalidRiskFailsFast(t *testing.T) {
	t.Setenv("RISK_HIGH_THRESHOLD", "20")

	_, err := Load("test-service")

	assert.Error(t, err)
}
