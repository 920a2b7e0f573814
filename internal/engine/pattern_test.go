package engine

import (
	"testing"
	"time"

	"AlertIntelAPI/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternStore_ConsolidatesSimilarAlerts(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())

	a1 := makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 14)
	a2 := makeAlert(models.TypeDatabase, models.SeverityMedium, "db-02", 14)

	id1, created1 := store.Observe(a1)
	id2, created2 := store.Observe(a2)

	assert.True(t, created1)
	assert.False(t, created2, "second similar alert must join the existing pattern")
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, store.Len())
}

func TestPatternStore_OccurrenceCountMatchesAlertCount(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())

	var id string
	for i := 0; i < 25; i++ {
		id, _ = store.Observe(makeAlert(models.TypeNetwork, models.SeverityHigh, "core-sw", 9))
	}

	p, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, 25, p.Occurrences)
	assert.Equal(t, 25, p.Hours[9])
}

func TestPatternStore_DistinctAlertsCreateDistinctPatterns(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())

	// Different type, different hour, severity gap beyond 1.0 on the
	// numeric scale: neither side of the relaxed match can hold.
	id1, _ := store.Observe(makeAlert(models.TypeDatabase, models.SeverityCritical, "db-01", 3))
	id2, _ := store.Observe(makeAlert(models.TypeNetwork, models.SeverityInfo, "edge-09", 10))

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, store.Len())
}

func TestPatternStore_MatchesViaHourAndSeverity(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())

	// Same hour, severity within 1.0, but a different type: the second
	// clause of the relaxed rule should still consolidate.
	id1, _ := store.Observe(makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 8))
	id2, created := store.Observe(makeAlert(models.TypePerformance, models.SeverityCritical, "app-02", 8))

	assert.Equal(t, id1, id2)
	assert.False(t, created)

	p, _ := store.Get(id1)
	assert.Contains(t, p.Types, models.TypeDatabase)
	assert.Contains(t, p.Types, models.TypePerformance)
}

func TestPatternStore_RunningAverageSeverity(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())

	id, _ := store.Observe(makeAlert(models.TypeSystem, models.SeverityCritical, "host-1", 6)) // 4.0
	store.Observe(makeAlert(models.TypeSystem, models.SeverityMedium, "host-1", 6))           // 2.0

	p, ok := store.Get(id)
	require.True(t, ok)
	assert.InDelta(t, 3.0, p.AvgSeverity, 1e-9)

	store.Observe(makeAlert(models.TypeSystem, models.SeverityLow, "host-1", 6)) // 1.0
	p, _ = store.Get(id)
	assert.InDelta(t, (4.0+2.0+1.0)/3.0, p.AvgSeverity, 1e-9)
}

func TestPatternStore_EvictsOldestWhenFull(t *testing.T) {
	store := NewPatternStore(2, newTestLogger())

	id1, _ := store.Observe(makeAlert(models.TypeDatabase, models.SeverityCritical, "db-01", 1))
	id2, _ := store.Observe(makeAlert(models.TypeNetwork, models.SeverityInfo, "edge-01", 12))

	// Make id1 clearly the oldest.
	store.mu.Lock()
	store.patterns[id1].LastSeen = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	id3, created := store.Observe(makeAlert(models.TypeSecurity, models.SeverityHigh, "fw-01", 20))
	require.True(t, created)

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get(id1)
	assert.False(t, ok, "oldest pattern should have been evicted")
	_, ok = store.Get(id2)
	assert.True(t, ok)
	_, ok = store.Get(id3)
	assert.True(t, ok)
}

func TestPatternStore_SnapshotRoundTrip(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())
	id, _ := store.Observe(makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 14))
	store.SetRecommendedAction(id, ActionRestartService)

	snaps := store.Snapshot()
	require.Len(t, snaps, 1)

	restored := NewPatternStore(0, newTestLogger())
	restored.Restore(snaps)

	p, ok := restored.Get(id)
	require.True(t, ok)
	assert.Equal(t, 1, p.Occurrences)
	assert.Equal(t, ActionRestartService, p.RecommendedAction)
	assert.Equal(t, []models.AlertType{models.TypeDatabase}, p.Types)
}
