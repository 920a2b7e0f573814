package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"AlertIntelAPI/internal/models"
)

// ConditionKind selects which alert field a condition tests.
type ConditionKind string

const (
	CondSeverity       ConditionKind = "severity"
	CondType           ConditionKind = "type"
	CondSourceContains ConditionKind = "source_contains"
)

// Condition is a single predicate over an alert. A rule matches only when
// every one of its conditions holds.
type Condition struct {
	Kind  ConditionKind `json:"kind"`
	Value string        `json:"value"`
}

func (c Condition) Matches(alert *models.Alert) bool {
	switch c.Kind {
	case CondSeverity:
		return strings.EqualFold(string(alert.Severity), c.Value)
	case CondType:
		return strings.EqualFold(string(alert.Type), c.Value)
	case CondSourceContains:
		return strings.Contains(alert.Source, c.Value)
	}
	return false
}

func (c Condition) validate() error {
	switch c.Kind {
	case CondSeverity, CondType, CondSourceContains:
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	if c.Value == "" {
		return fmt.Errorf("condition %s has empty value", c.Kind)
	}
	return nil
}

// RoutingRule routes matching alerts to its targets. Targets keep their
// insertion order; lower priority values are evaluated first, but every
// matching active rule fires.
type RoutingRule struct {
	ID             string            `json:"id"`
	Conditions     []Condition       `json:"conditions"`
	Targets        []string          `json:"targets"`
	EscalationPath string            `json:"escalation_path,omitempty"`
	Priority       int               `json:"priority"`
	Active         bool              `json:"active"`
	Actions        map[string]string `json:"actions,omitempty"`
}

// Matches reports whether all conditions hold for the alert.
func (r *RoutingRule) Matches(alert *models.Alert) bool {
	for _, c := range r.Conditions {
		if !c.Matches(alert) {
			return false
		}
	}
	return true
}

func (r *RoutingRule) clone() RoutingRule {
	cp := *r
	cp.Conditions = append([]Condition(nil), r.Conditions...)
	cp.Targets = append([]string(nil), r.Targets...)
	if r.Actions != nil {
		cp.Actions = make(map[string]string, len(r.Actions))
		for k, v := range r.Actions {
			cp.Actions[k] = v
		}
	}
	return cp
}

// RuleSet is the runtime-mutable collection of routing rules.
type RuleSet struct {
	mu    sync.RWMutex
	rules map[string]*RoutingRule
}

func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]*RoutingRule)}
}

// Add inserts or replaces a rule after validating it.
func (rs *RuleSet) Add(rule RoutingRule) error {
	if rule.ID == "" {
		return fmt.Errorf("routing rule needs an ID")
	}
	if len(rule.Conditions) == 0 {
		return fmt.Errorf("routing rule %s has no conditions", rule.ID)
	}
	if len(rule.Targets) == 0 {
		return fmt.Errorf("routing rule %s has no targets", rule.ID)
	}
	for _, c := range rule.Conditions {
		if err := c.validate(); err != nil {
			return fmt.Errorf("routing rule %s: %w", rule.ID, err)
		}
	}

	stored := rule.clone()
	rs.mu.Lock()
	rs.rules[rule.ID] = &stored
	rs.mu.Unlock()
	return nil
}

// Remove deletes a rule, reporting whether it existed.
func (rs *RuleSet) Remove(id string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.rules[id]; !ok {
		return false
	}
	delete(rs.rules, id)
	return true
}

// FindMatching returns copies of every active rule whose conditions all hold,
// ascending by priority with rule ID as the stable tie-break.
func (rs *RuleSet) FindMatching(alert *models.Alert) []RoutingRule {
	rs.mu.RLock()
	matched := make([]RoutingRule, 0, len(rs.rules))
	for _, rule := range rs.rules {
		if rule.Active && rule.Matches(alert) {
			matched = append(matched, rule.clone())
		}
	}
	rs.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority < matched[j].Priority
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

// Rules returns copies of all rules, priority then ID ordered.
func (rs *RuleSet) Rules() []RoutingRule {
	rs.mu.RLock()
	out := make([]RoutingRule, 0, len(rs.rules))
	for _, rule := range rs.rules {
		out = append(out, rule.clone())
	}
	rs.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (rs *RuleSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rules)
}

// DefaultRules is the seed set an operator starts from: critical and security
// incidents at priority 1, database at 2, network at 3.
func DefaultRules() []RoutingRule {
	return []RoutingRule{
		{
			ID:             "critical_alerts",
			Priority:       1,
			Active:         true,
			Conditions:     []Condition{{Kind: CondSeverity, Value: string(models.SeverityCritical)}},
			Targets:        []string{"admin", "ops_manager"},
			EscalationPath: "immediate",
			Actions: map[string]string{
				"notification":    "all_channels",
				"escalation_time": "5",
			},
		},
		{
			ID:             "security_alerts",
			Priority:       1,
			Active:         true,
			Conditions:     []Condition{{Kind: CondType, Value: string(models.TypeSecurity)}},
			Targets:        []string{"security_team", "ciso"},
			EscalationPath: "security_incident",
		},
		{
			ID:             "database_alerts",
			Priority:       2,
			Active:         true,
			Conditions:     []Condition{{Kind: CondType, Value: string(models.TypeDatabase)}},
			Targets:        []string{"dba", "backend_team"},
			EscalationPath: "database_team",
		},
		{
			ID:         "network_alerts",
			Priority:   3,
			Active:     true,
			Conditions: []Condition{{Kind: CondType, Value: string(models.TypeNetwork)}},
			Targets:    []string{"network_admin", "infrastructure_team"},
		},
	}
}
