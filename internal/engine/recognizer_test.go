package engine

import (
	"context"
	"errors"
	"testing"

	"AlertIntelAPI/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAction(t *testing.T) {
	assert.Equal(t, ActionRestartService, extractAction("Restarted the payment service"))
	assert.Equal(t, ActionScaleResources, extractAction("had to scale out the pool"))
	assert.Equal(t, ActionUpdateConfiguration, extractAction("fixed a bad config entry"))
	assert.Equal(t, ActionApplyPatch, extractAction("applied security patch 4.2"))
	assert.Equal(t, ActionInvestigate, extractAction("root cause still unclear"))
}

func TestRecognizer_NewPatternDefaultsToInvestigate(t *testing.T) {
	store := NewPatternStore(0, newTestLogger())
	rec := NewRecognizer(store, &fakeHistory{}, newTestLogger())

	id, created := rec.Recognize(context.Background(), makeAlert(models.TypeSystem, models.SeverityLow, "host-9", 4))
	require.True(t, created)

	p, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, ActionInvestigate, p.RecommendedAction)
}

func TestRecognizer_DerivesMostFrequentAction(t *testing.T) {
	history := &fakeHistory{alerts: map[string][]models.Alert{
		"corr-1": {
			resolvedAlert("corr-1", "restarted the daemon"),
			resolvedAlert("corr-1", "restart fixed it again"),
			resolvedAlert("corr-1", "scaled the workers"),
		},
	}}
	store := NewPatternStore(0, newTestLogger())
	rec := NewRecognizer(store, history, newTestLogger())

	alert := makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 11)
	alert.CorrelationID = "corr-1"

	id, _ := rec.Recognize(context.Background(), alert)

	p, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, ActionRestartService, p.RecommendedAction)
}

func TestRecognizer_TieBreaksLexicographically(t *testing.T) {
	// One restart_service vs one scale_resources: apply_patch < investigate
	// is not in play, restart_service < scale_resources wins the tie.
	history := &fakeHistory{alerts: map[string][]models.Alert{
		"corr-2": {
			resolvedAlert("corr-2", "restart helped"),
			resolvedAlert("corr-2", "scale up solved it"),
		},
	}}
	store := NewPatternStore(0, newTestLogger())
	rec := NewRecognizer(store, history, newTestLogger())

	alert := makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 11)
	alert.CorrelationID = "corr-2"

	id, _ := rec.Recognize(context.Background(), alert)

	p, _ := store.Get(id)
	assert.Equal(t, ActionRestartService, p.RecommendedAction)
}

func TestRecognizer_HistoryFailureKeepsExistingAction(t *testing.T) {
	history := &fakeHistory{err: errors.New("connection refused")}
	store := NewPatternStore(0, newTestLogger())
	rec := NewRecognizer(store, history, newTestLogger())

	alert := makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 11)
	alert.CorrelationID = "corr-3"

	id, _ := rec.Recognize(context.Background(), alert)
	store.SetRecommendedAction(id, ActionApplyPatch)

	// Recognize again; the failing query must not clobber the action.
	rec.Recognize(context.Background(), alert)

	p, _ := store.Get(id)
	assert.Equal(t, ActionApplyPatch, p.RecommendedAction)
	assert.Equal(t, 2, history.queries)
}

func TestRecognizer_AlertsWithoutNotesAreIgnored(t *testing.T) {
	history := &fakeHistory{alerts: map[string][]models.Alert{
		"corr-4": {
			resolvedAlert("corr-4", ""),
			resolvedAlert("corr-4", ""),
		},
	}}
	store := NewPatternStore(0, newTestLogger())
	rec := NewRecognizer(store, history, newTestLogger())

	alert := makeAlert(models.TypeDatabase, models.SeverityHigh, "db-01", 11)
	alert.CorrelationID = "corr-4"

	id, _ := rec.Recognize(context.Background(), alert)

	p, _ := store.Get(id)
	assert.Equal(t, ActionInvestigate, p.RecommendedAction, "no tallies means the default stays")
}
