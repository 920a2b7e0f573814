package engine

import (
	"fmt"
	"sync"
	"time"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"

	"github.com/google/uuid"
)

// Recommended remediation actions a pattern can carry.
const (
	ActionRestartService      = "restart_service"
	ActionScaleResources      = "scale_resources"
	ActionUpdateConfiguration = "update_configuration"
	ActionApplyPatch          = "apply_patch"
	ActionInvestigate         = "investigate"
)

const defaultMaxPatterns = 1000

// AlertPattern accumulates what the engine has learned about one recurring
// class of alerts: which types it spans, what hours it fires, how severe it
// tends to be, and what historically fixed it.
type AlertPattern struct {
	ID                string
	Types             []models.AlertType
	Hours             [24]int
	AvgSeverity       float64
	Occurrences       int
	LastSeen          time.Time
	RecommendedAction string
	RelatedPatterns   []string
}

func (p *AlertPattern) hasType(t models.AlertType) bool {
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}

// absorb folds an alert into the pattern: bump occurrence count, record the
// type if new, bump the hour bucket, and fold the severity into the running
// mean as newAvg = (oldAvg*(n-1) + w) / n.
func (p *AlertPattern) absorb(alert *models.Alert) {
	p.Occurrences++
	p.LastSeen = time.Now()

	if !p.hasType(alert.Type) {
		p.Types = append(p.Types, alert.Type)
	}

	hour := alert.CreatedAt.Hour()
	p.Hours[hour]++

	n := float64(p.Occurrences)
	p.AvgSeverity = (p.AvgSeverity*(n-1) + alert.Severity.Weight()) / n
}

// PatternSnapshot is the serializable form of a pattern, used both for the
// statistics endpoint and for durability checkpoints.
type PatternSnapshot struct {
	ID                string             `json:"id"`
	Types             []models.AlertType `json:"types"`
	Hours             [24]int            `json:"hours"`
	AvgSeverity       float64            `json:"avg_severity"`
	Occurrences       int                `json:"occurrences"`
	LastSeen          time.Time          `json:"last_seen"`
	RecommendedAction string             `json:"recommended_action"`
	RelatedPatterns   []string           `json:"related_patterns,omitempty"`
}

// PatternStore holds every recognized pattern behind a single lock. Match and
// update happen in one critical section so a concurrent pipeline never reads
// an occurrence count mid-update.
type PatternStore struct {
	mu          sync.Mutex
	patterns    map[string]*AlertPattern
	order       []string // insertion order, for a deterministic match scan
	maxPatterns int
	log         *logger.Logger
}

func NewPatternStore(maxPatterns int, log *logger.Logger) *PatternStore {
	if maxPatterns <= 0 {
		maxPatterns = defaultMaxPatterns
	}
	return &PatternStore{
		patterns:    make(map[string]*AlertPattern),
		maxPatterns: maxPatterns,
		log:         log,
	}
}

// signature identifies the raw shape of an alert. Patterns consolidate more
// loosely than this, so the signature is only logged when a new pattern is
// born.
func signature(alert *models.Alert) string {
	return fmt.Sprintf("%s_%s_%s_%d", alert.Type, alert.Severity, alert.Source, alert.CreatedAt.Hour())
}

// matches applies the relaxed consolidation rule: the alert's type is already
// part of the pattern, or the pattern has fired in the same hour bucket and
// the alert's severity sits within 1.0 of the pattern's running average.
func (s *PatternStore) matches(p *AlertPattern, alert *models.Alert) bool {
	if p.hasType(alert.Type) {
		return true
	}

	hourSeen := p.Hours[alert.CreatedAt.Hour()] > 0
	diff := p.AvgSeverity - alert.Severity.Weight()
	if diff < 0 {
		diff = -diff
	}
	return hourSeen && diff <= 1.0
}

// Observe finds the pattern an alert belongs to, creating one if nothing
// matches, and folds the alert in. The whole match-then-update step is atomic.
// Returns the pattern ID and whether a new pattern was created.
func (s *PatternStore) Observe(alert *models.Alert) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		p := s.patterns[id]
		if s.matches(p, alert) {
			p.absorb(alert)
			return p.ID, false
		}
	}

	if len(s.patterns) >= s.maxPatterns {
		s.evictOldestLocked()
	}

	p := &AlertPattern{ID: fmt.Sprintf("pattern_%s", uuid.NewString())}
	p.absorb(alert)
	s.patterns[p.ID] = p
	s.order = append(s.order, p.ID)
	s.log.Debug("New alert pattern %s for signature %s", p.ID, signature(alert))
	return p.ID, true
}

// evictOldestLocked drops the pattern with the oldest lastSeen. Caller holds
// the lock.
func (s *PatternStore) evictOldestLocked() {
	oldestIdx := -1
	var oldest time.Time
	for i, id := range s.order {
		p := s.patterns[id]
		if oldestIdx == -1 || p.LastSeen.Before(oldest) {
			oldestIdx = i
			oldest = p.LastSeen
		}
	}
	if oldestIdx == -1 {
		return
	}

	id := s.order[oldestIdx]
	delete(s.patterns, id)
	s.order = append(s.order[:oldestIdx], s.order[oldestIdx+1:]...)
	s.log.Warn("Pattern store full (%d), evicted %s (last seen %s)", s.maxPatterns, id, oldest.Format(time.RFC3339))
}

// Get returns a copy of the pattern, so callers can read counters without
// holding the store lock.
func (s *PatternStore) Get(id string) (AlertPattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[id]
	if !ok {
		return AlertPattern{}, false
	}
	return s.copyLocked(p), true
}

func (s *PatternStore) copyLocked(p *AlertPattern) AlertPattern {
	cp := *p
	cp.Types = append([]models.AlertType(nil), p.Types...)
	cp.RelatedPatterns = append([]string(nil), p.RelatedPatterns...)
	return cp
}

// SetRecommendedAction overwrites a pattern's recommended action. A missing
// pattern is a no-op; it may have been evicted between recognition and
// derivation.
func (s *PatternStore) SetRecommendedAction(id, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.patterns[id]; ok {
		p.RecommendedAction = action
	}
}

func (s *PatternStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patterns)
}

// Snapshot exports every pattern in insertion order.
func (s *PatternStore) Snapshot() []PatternSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PatternSnapshot, 0, len(s.order))
	for _, id := range s.order {
		p := s.patterns[id]
		out = append(out, PatternSnapshot{
			ID:                p.ID,
			Types:             append([]models.AlertType(nil), p.Types...),
			Hours:             p.Hours,
			AvgSeverity:       p.AvgSeverity,
			Occurrences:       p.Occurrences,
			LastSeen:          p.LastSeen,
			RecommendedAction: p.RecommendedAction,
			RelatedPatterns:   append([]string(nil), p.RelatedPatterns...),
		})
	}
	return out
}

// Restore replaces the store contents from a checkpoint.
func (s *PatternStore) Restore(snaps []PatternSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patterns = make(map[string]*AlertPattern, len(snaps))
	s.order = s.order[:0]
	for _, snap := range snaps {
		p := &AlertPattern{
			ID:                snap.ID,
			Types:             append([]models.AlertType(nil), snap.Types...),
			Hours:             snap.Hours,
			AvgSeverity:       snap.AvgSeverity,
			Occurrences:       snap.Occurrences,
			LastSeen:          snap.LastSeen,
			RecommendedAction: snap.RecommendedAction,
			RelatedPatterns:   append([]string(nil), snap.RelatedPatterns...),
		}
		s.patterns[p.ID] = p
		s.order = append(s.order, p.ID)
	}
}
