package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
)

// Config carries the engine's tunables. Zero values fall back to defaults.
type Config struct {
	MaxPatterns     int
	ExpertFanout    int
	DispatchTimeout time.Duration
}

// RoutingStatistics is the read-only snapshot served to dashboards.
type RoutingStatistics struct {
	TotalPatterns int                     `json:"totalPatterns"`
	TotalRules    int                     `json:"totalRules"`
	ExpertUsers   int                     `json:"expertUsers"`
	Patterns      map[string]PatternStats `json:"patterns"`
}

type PatternStats struct {
	Occurrences       int       `json:"occurrences"`
	Severity          float64   `json:"severity"`
	LastSeen          time.Time `json:"lastSeen"`
	RecommendedAction string    `json:"recommendedAction"`
}

// Snapshot is the durable checkpoint of the engine's learned state.
type Snapshot struct {
	Patterns  []PatternSnapshot   `json:"patterns"`
	Expertise []ExpertiseSnapshot `json:"expertise"`
	TakenAt   time.Time           `json:"taken_at"`
}

// AnnotationSink receives the pipeline's annotated alert copy once the
// threshold stage has written its metadata, so the annotations reach storage
// and dashboards instead of dying with the pipeline goroutine. May be nil.
type AnnotationSink interface {
	RecordAnnotations(ctx context.Context, alert *models.Alert) error
}

// Engine is the alert-intelligence orchestrator. Each alert runs through
// RECOGNIZE, ROUTE and ADJUST on its own goroutine; a failure in one stage is
// logged and the next stage still runs. Resolution feedback arrives
// separately and updates the expertise model.
type Engine struct {
	store     *PatternStore
	rules     *RuleSet
	expertise *ExpertiseModel

	recognizer *Recognizer
	router     *Router
	adjuster   *ThresholdAdjuster
	sink       AnnotationSink

	log *logger.Logger
	wg  sync.WaitGroup
}

func New(cfg Config, history HistoryQuerier, notifier Notifier, sink AnnotationSink, log *logger.Logger) *Engine {
	store := NewPatternStore(cfg.MaxPatterns, log)
	rules := NewRuleSet()
	expertise := NewExpertiseModel()

	for _, rule := range DefaultRules() {
		if err := rules.Add(rule); err != nil {
			log.Error("Failed to seed default rule %s: %v", rule.ID, err)
		}
	}

	return &Engine{
		store:      store,
		rules:      rules,
		expertise:  expertise,
		recognizer: NewRecognizer(store, history, log),
		router:     NewRouter(rules, expertise, notifier, cfg.ExpertFanout, cfg.DispatchTimeout, log),
		adjuster:   NewThresholdAdjuster(store, log),
		sink:       sink,
		log:        log,
	}
}

// ProcessAlert validates the alert and schedules its pipeline. Invalid input
// is rejected here, before any engine state is touched; everything after the
// return runs asynchronously and never reports back to the caller.
func (e *Engine) ProcessAlert(alert *models.Alert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("alert rejected: %w", err)
	}

	// The pipeline annotates its own deep copy. The caller's instance may
	// already be in a response encoder or a broadcast queue, so it must
	// never be written to again after this returns.
	own := alert.Clone()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(own)
	}()
	return nil
}

// run executes the three synchronous stages for one alert. Each stage is
// wrapped in its own failure boundary.
func (e *Engine) run(alert *models.Alert) {
	ctx := context.Background()

	var patternID string
	e.stage(alert, "recognize", func() {
		patternID, _ = e.recognizer.Recognize(ctx, alert)
	})

	e.stage(alert, "route", func() {
		notified := e.router.Route(ctx, alert)
		e.log.Info("Alert %s routed to %d target(s)", alert.ID, len(notified))
	})

	e.stage(alert, "adjust", func() {
		if patternID != "" {
			e.adjuster.Adjust(alert, patternID)
		}
	})

	if e.sink != nil && alert.Metadata[MetaPatternBased] != "" {
		e.stage(alert, "record", func() {
			if err := e.sink.RecordAnnotations(ctx, alert); err != nil {
				e.log.Error("Alert %s: failed to record annotations: %v", alert.ID, err)
			}
		})
	}
}

// stage runs one pipeline stage, turning panics into logged errors so a bug
// in one stage cannot take down the pipeline or the process.
func (e *Engine) stage(alert *models.Alert, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Alert %s: stage %s panicked: %v", alert.ID, name, r)
		}
	}()
	fn()
}

// RecordResolutionOutcome feeds one resolution result into the expertise
// model. The outcome must be supplied by the caller; the engine never infers
// it from alert processing.
func (e *Engine) RecordResolutionOutcome(userID, alertType string, successful bool) error {
	if userID == "" {
		return fmt.Errorf("resolution outcome needs a user ID")
	}
	t, err := models.ParseAlertType(alertType)
	if err != nil {
		return fmt.Errorf("resolution outcome rejected: %w", err)
	}

	e.expertise.Update(userID, t, successful)
	e.log.Debug("Expertise updated for %s/%s (successful=%t)", userID, t, successful)
	return nil
}

// AddRule installs a routing rule at runtime.
func (e *Engine) AddRule(rule RoutingRule) error {
	return e.rules.Add(rule)
}

// RemoveRule drops a routing rule, reporting whether it existed.
func (e *Engine) RemoveRule(id string) bool {
	return e.rules.Remove(id)
}

// Rules lists the current rule set, priority ordered.
func (e *Engine) Rules() []RoutingRule {
	return e.rules.Rules()
}

// Statistics snapshots pattern, rule and expertise totals for dashboards.
func (e *Engine) Statistics() RoutingStatistics {
	patterns := e.store.Snapshot()

	stats := RoutingStatistics{
		TotalPatterns: len(patterns),
		TotalRules:    e.rules.Len(),
		ExpertUsers:   e.expertise.Len(),
		Patterns:      make(map[string]PatternStats, len(patterns)),
	}
	for _, p := range patterns {
		stats.Patterns[p.ID] = PatternStats{
			Occurrences:       p.Occurrences,
			Severity:          p.AvgSeverity,
			LastSeen:          p.LastSeen,
			RecommendedAction: p.RecommendedAction,
		}
	}
	return stats
}

// Snapshot exports the learned state for checkpointing.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Patterns:  e.store.Snapshot(),
		Expertise: e.expertise.Snapshot(),
		TakenAt:   time.Now(),
	}
}

// Restore loads a previously checkpointed state, replacing whatever the
// engine has learned so far.
func (e *Engine) Restore(snap Snapshot) {
	e.store.Restore(snap.Patterns)
	e.expertise.Restore(snap.Expertise)
	e.log.Info("Engine state restored: %d pattern(s), %d expertise score(s)",
		len(snap.Patterns), len(snap.Expertise))
}

// Wait blocks until every in-flight alert pipeline has finished. Used during
// graceful shutdown so learned state is complete before the final checkpoint.
func (e *Engine) Wait() {
	e.wg.Wait()
}
