package engine

import (
	"testing"

	"AlertIntelAPI/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs := NewRuleSet()
	for _, rule := range DefaultRules() {
		require.NoError(t, rs.Add(rule))
	}
	return rs
}

func TestRuleSet_CriticalAlertMatchesDefaultCriticalRule(t *testing.T) {
	rs := seededRuleSet(t)

	matched := rs.FindMatching(makeAlert(models.TypeSystem, models.SeverityCritical, "host-1", 10))

	ids := make([]string, len(matched))
	for i, r := range matched {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, "critical_alerts")
}

func TestRuleSet_DatabaseAlertMatchesDefaultDatabaseRule(t *testing.T) {
	rs := seededRuleSet(t)

	matched := rs.FindMatching(makeAlert(models.TypeDatabase, models.SeverityMedium, "db-01", 10))

	require.Len(t, matched, 1)
	assert.Equal(t, "database_alerts", matched[0].ID)
	assert.Equal(t, []string{"dba", "backend_team"}, matched[0].Targets)
}

func TestRuleSet_MatchingIsSortedByPriorityThenID(t *testing.T) {
	rs := seededRuleSet(t)

	// SECURITY + CRITICAL hits two priority-1 rules; ID breaks the tie.
	matched := rs.FindMatching(makeAlert(models.TypeSecurity, models.SeverityCritical, "web-01", 10))

	require.Len(t, matched, 2)
	assert.Equal(t, "critical_alerts", matched[0].ID)
	assert.Equal(t, "security_alerts", matched[1].ID)
}

func TestRuleSet_AllConditionsMustHold(t *testing.T) {
	rs := NewRuleSet()
	require.NoError(t, rs.Add(RoutingRule{
		ID:       "db_primary",
		Priority: 1,
		Active:   true,
		Conditions: []Condition{
			{Kind: CondType, Value: "DATABASE"},
			{Kind: CondSourceContains, Value: "primary"},
		},
		Targets: []string{"dba"},
	}))

	assert.Empty(t, rs.FindMatching(makeAlert(models.TypeDatabase, models.SeverityHigh, "db-replica-2", 10)))
	assert.Len(t, rs.FindMatching(makeAlert(models.TypeDatabase, models.SeverityHigh, "db-primary-1", 10)), 1)
}

func TestRuleSet_InactiveRulesNeverMatch(t *testing.T) {
	rs := NewRuleSet()
	require.NoError(t, rs.Add(RoutingRule{
		ID:         "disabled",
		Priority:   1,
		Active:     false,
		Conditions: []Condition{{Kind: CondSeverity, Value: "CRITICAL"}},
		Targets:    []string{"admin"},
	}))

	assert.Empty(t, rs.FindMatching(makeAlert(models.TypeSystem, models.SeverityCritical, "host-1", 10)))
}

func TestRuleSet_AddValidation(t *testing.T) {
	rs := NewRuleSet()

	assert.Error(t, rs.Add(RoutingRule{Priority: 1}), "missing ID")
	assert.Error(t, rs.Add(RoutingRule{ID: "r1", Targets: []string{"a"}}), "missing conditions")
	assert.Error(t, rs.Add(RoutingRule{
		ID:         "r2",
		Conditions: []Condition{{Kind: CondType, Value: "DATABASE"}},
	}), "missing targets")
	assert.Error(t, rs.Add(RoutingRule{
		ID:         "r3",
		Conditions: []Condition{{Kind: "regex", Value: ".*"}},
		Targets:    []string{"a"},
	}), "unknown condition kind")
}

func TestRuleSet_RemoveRule(t *testing.T) {
	rs := seededRuleSet(t)

	assert.True(t, rs.Remove("network_alerts"))
	assert.False(t, rs.Remove("network_alerts"))
	assert.Equal(t, 3, rs.Len())

	assert.Empty(t, rs.FindMatching(makeAlert(models.TypeNetwork, models.SeverityLow, "edge-01", 10)))
}

func TestRuleSet_ConditionMatchingIsCaseInsensitive(t *testing.T) {
	c := Condition{Kind: CondSeverity, Value: "critical"}
	assert.True(t, c.Matches(makeAlert(models.TypeSystem, models.SeverityCritical, "h", 1)))

	c = Condition{Kind: CondType, Value: "database"}
	assert.True(t, c.Matches(makeAlert(models.TypeDatabase, models.SeverityLow, "h", 1)))
}
