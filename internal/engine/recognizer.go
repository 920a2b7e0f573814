package engine

import (
	"context"
	"sort"
	"strings"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
)

// HistoryQuerier is the read-only view of historical alert storage the
// recognizer needs to learn remediation actions from past resolutions.
type HistoryQuerier interface {
	AlertsByCorrelation(ctx context.Context, correlationID string) ([]models.Alert, error)
}

// Recognizer assigns incoming alerts to patterns and keeps each pattern's
// recommended action in sync with resolution history.
type Recognizer struct {
	store   *PatternStore
	history HistoryQuerier
	log     *logger.Logger
}

func NewRecognizer(store *PatternStore, history HistoryQuerier, log *logger.Logger) *Recognizer {
	return &Recognizer{
		store:   store,
		history: history,
		log:     log,
	}
}

// Recognize matches the alert to a pattern (creating one on a miss) and then
// refreshes the pattern's recommended action from resolution history. History
// unavailability never blocks recognition; the previous action just stays.
func (r *Recognizer) Recognize(ctx context.Context, alert *models.Alert) (string, bool) {
	patternID, created := r.store.Observe(alert)
	if created {
		// A fresh pattern starts with the safe default until history
		// says otherwise.
		r.store.SetRecommendedAction(patternID, ActionInvestigate)
	}

	r.deriveRecommendedAction(ctx, patternID, alert.CorrelationID)
	return patternID, created
}

// deriveRecommendedAction tallies the remediation actions extracted from the
// resolution notes of alerts sharing the correlation ID and promotes the most
// frequent one. Ties resolve lexicographically on the action label so the
// outcome is stable across runs.
func (r *Recognizer) deriveRecommendedAction(ctx context.Context, patternID, correlationID string) {
	if r.history == nil || correlationID == "" {
		return
	}

	historical, err := r.history.AlertsByCorrelation(ctx, correlationID)
	if err != nil {
		r.log.Warn("History query for correlation %s failed, keeping current action for %s: %v",
			correlationID, patternID, err)
		return
	}

	counts := make(map[string]int)
	for _, h := range historical {
		if h.ResolutionNotes == "" {
			continue
		}
		counts[extractAction(h.ResolutionNotes)]++
	}
	if len(counts) == 0 {
		return
	}

	actions := make([]string, 0, len(counts))
	for action := range counts {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	best := actions[0]
	for _, action := range actions[1:] {
		if counts[action] > counts[best] {
			best = action
		}
	}

	r.store.SetRecommendedAction(patternID, best)
}

// extractAction maps free-text resolution notes onto the closed action set by
// keyword. Unmatched notes fall through to investigate.
func extractAction(notes string) string {
	n := strings.ToLower(notes)
	switch {
	case strings.Contains(n, "restart"):
		return ActionRestartService
	case strings.Contains(n, "scale"):
		return ActionScaleResources
	case strings.Contains(n, "config"):
		return ActionUpdateConfiguration
	case strings.Contains(n, "patch"):
		return ActionApplyPatch
	}
	return ActionInvestigate
}
