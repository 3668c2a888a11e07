package snapshot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSnapshot() *ClaimSnapshot {
	return &ClaimSnapshot{
		ClaimID:      uuid.New(),
		LossType:     LossCollision,
		LossDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		ReportedDate: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		AsOf:         time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validSnapshot().Validate())
}

func TestValidate_MissingClaimID(t *testing.T) {
	c := validSnapshot()
	c.ClaimID = uuid.Nil

	err := c.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestValidate_MissingDates(t *testing.T) {
	c := validSnapshot()
	c.LossDate = time.Time{}
	assert.ErrorIs(t, c.Validate(), ErrInvalidSnapshot)

	c = validSnapshot()
	c.ReportedDate = time.Time{}
	assert.ErrorIs(t, c.Validate(), ErrInvalidSnapshot)

	c = validSnapshot()
	c.AsOf = time.Time{}
	assert.ErrorIs(t, c.Validate(), ErrInvalidSnapshot)
}

func TestValidate_MissingLossType(t *testing.T) {
	c := validSnapshot()
	c.LossType = ""
	assert.ErrorIs(t, c.Validate(), ErrInvalidSnapshot)
}

func TestValidate_NegativeAmount(t *testing.T) {
	c := validSnapshot()
	c.EstimatedAmount = -1
	assert.ErrorIs(t, c.Validate(), ErrInvalidSnapshot)
}

func TestValidate_ReportedBeforeLoss(t *testing.T) {
	c := validSnapshot()
	c.ReportedDate = c.LossDate.AddDate(0, 0, -1)
	assert.ErrorIs(t, c.Validate(), ErrInvalidSnapshot)
}

func TestValidate_OptionalSignalSourcesMayBeAbsent(t *testing.T) {
	c := validSnapshot()
	c.Policy = nil
	c.Vehicle = nil
	c.MedicalBills = nil
	assert.NoError(t, c.Validate())
}

func TestHasInjuries(t *testing.T) {
	c := validSnapshot()
	assert.False(t, c.HasInjuries())

	c.Participants = []ParticipantSnapshot{
		{Name: "Pat Doe", Role: RolePassenger, InjuryDescription: "whiplash"},
	}
	assert.True(t, c.HasInjuries())
}

func TestDriver(t *testing.T) {
	c := validSnapshot()
	_, found := c.Driver()
	assert.False(t, found)

	c.Participants = []ParticipantSnapshot{
		{Name: "Pat Doe", Role: RolePassenger},
		{Name: "Sam Smith", Role: RoleDriver},
	}
	driver, found := c.Driver()
	require.True(t, found)
	assert.Equal(t, "Sam Smith", driver.Name)
}

func TestCoverageByType(t *testing.T) {
	policy := &PolicySnapshot{
		Coverages: []PolicyCoverage{
			{Type: CoverageCollision, Limit: 50000},
		},
	}

	cov, found := policy.CoverageByType(CoverageCollision)
	require.True(t, found)
	assert.Equal(t, 50000.0, cov.Limit)

	_, found = policy.CoverageByType(CoverageTheft)
	assert.False(t, found)
}

func TestCoverageByType_DuplicateLinesFirstWins(t *testing.T) {
	policy := &PolicySnapshot{
		Coverages: []PolicyCoverage{
			{Type: CoverageCollision, Limit: 50000},
			{Type: CoverageCollision, Limit: 25000},
			{Type: CoverageComprehensive, Limit: 30000},
		},
	}

	// Repeated lookups hit the same index; the first line of a duplicated
	// type keeps winning
	for i := 0; i < 3; i++ {
		cov, found := policy.CoverageByType(CoverageCollision)
		require.True(t, found)
		assert.Equal(t, 50000.0, cov.Limit)
	}

	cov, found := policy.CoverageByType(CoverageComprehensive)
	require.True(t, found)
	assert.Equal(t, 30000.0, cov.Limit)
}
