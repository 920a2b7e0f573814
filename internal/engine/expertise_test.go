package engine

import (
	"testing"

	"AlertIntelAPI/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpertiseModel_AsymmetricAdjustment(t *testing.T) {
	m := NewExpertiseModel()

	m.Update("alice", models.TypeDatabase, true)
	assert.InDelta(t, 0.1, m.Score("alice", models.TypeDatabase), 1e-9)

	m.Update("alice", models.TypeDatabase, false)
	assert.InDelta(t, 0.05, m.Score("alice", models.TypeDatabase), 1e-9)
}

func TestExpertiseModel_ScoreNeverLeavesBounds(t *testing.T) {
	m := NewExpertiseModel()

	// Force to the ceiling and keep pushing.
	for i := 0; i < 150; i++ {
		m.Update("bob", models.TypeNetwork, true)
	}
	require.Equal(t, expertiseMax, m.Score("bob", models.TypeNetwork))

	m.Update("bob", models.TypeNetwork, true)
	assert.Equal(t, expertiseMax, m.Score("bob", models.TypeNetwork), "clamping at the ceiling is idempotent")

	// Force to the floor and keep pushing.
	for i := 0; i < 400; i++ {
		m.Update("bob", models.TypeNetwork, false)
	}
	require.Equal(t, expertiseMin, m.Score("bob", models.TypeNetwork))

	m.Update("bob", models.TypeNetwork, false)
	assert.Equal(t, expertiseMin, m.Score("bob", models.TypeNetwork), "clamping at the floor is idempotent")
}

func TestExpertiseModel_ScoresAreScopedPerAlertType(t *testing.T) {
	m := NewExpertiseModel()

	m.Update("carol", models.TypeDatabase, true)

	assert.InDelta(t, 0.1, m.Score("carol", models.TypeDatabase), 1e-9)
	assert.Zero(t, m.Score("carol", models.TypeSecurity))
}

func TestExpertiseModel_TopExpertsOrderAndLimit(t *testing.T) {
	m := NewExpertiseModel()

	bump := func(user string, n int) {
		for i := 0; i < n; i++ {
			m.Update(user, models.TypeDatabase, true)
		}
	}
	bump("dave", 30)
	bump("erin", 20)
	bump("frank", 10)
	bump("grace", 5)
	m.Update("heidi", models.TypeNetwork, true) // different type, excluded

	experts := m.TopExperts(models.TypeDatabase, 3)

	require.Len(t, experts, 3)
	assert.Equal(t, "dave", experts[0].UserID)
	assert.Equal(t, "erin", experts[1].UserID)
	assert.Equal(t, "frank", experts[2].UserID)
}

func TestExpertiseModel_TopExpertsTieBreaksOnUserID(t *testing.T) {
	m := NewExpertiseModel()

	m.Update("zoe", models.TypeSecurity, true)
	m.Update("adam", models.TypeSecurity, true)

	experts := m.TopExperts(models.TypeSecurity, 3)

	require.Len(t, experts, 2)
	assert.Equal(t, "adam", experts[0].UserID)
	assert.Equal(t, "zoe", experts[1].UserID)
}

func TestExpertiseModel_SnapshotRoundTrip(t *testing.T) {
	m := NewExpertiseModel()
	m.Update("alice", models.TypeDatabase, true)
	m.Update("bob", models.TypeNetwork, true)

	snaps := m.Snapshot()
	require.Len(t, snaps, 2)
	// Sorted by user ID.
	assert.Equal(t, "alice", snaps[0].UserID)
	assert.Equal(t, "bob", snaps[1].UserID)

	restored := NewExpertiseModel()
	restored.Restore(snaps)

	assert.InDelta(t, 0.1, restored.Score("alice", models.TypeDatabase), 1e-9)
	assert.Equal(t, 2, restored.Len())
}
