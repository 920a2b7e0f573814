package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, sev)

	sev, err = ParseSeverity("  High ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)

	_, err = ParseSeverity("")
	assert.Error(t, err)
}

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 4.0, SeverityCritical.Weight())
	assert.Equal(t, 3.0, SeverityHigh.Weight())
	assert.Equal(t, 2.0, SeverityMedium.Weight())
	assert.Equal(t, 1.0, SeverityLow.Weight())
	assert.Equal(t, 0.5, SeverityInfo.Weight())
	assert.Zero(t, Severity("BOGUS").Weight())
}

func TestParseAlertType(t *testing.T) {
	typ, err := ParseAlertType("database")
	require.NoError(t, err)
	assert.Equal(t, TypeDatabase, typ)

	typ, err = ParseAlertType(" Security ")
	require.NoError(t, err)
	assert.Equal(t, TypeSecurity, typ)

	_, err = ParseAlertType("mainframe")
	assert.Error(t, err)
}

func TestAlertValidate(t *testing.T) {
	alert := &Alert{
		ID:        "a-1",
		Title:     "replication lag",
		Type:      TypeDatabase,
		Severity:  SeverityHigh,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	assert.NoError(t, alert.Validate())

	bad := *alert
	bad.Severity = "URGENT"
	assert.Error(t, bad.Validate())

	bad = *alert
	bad.Type = ""
	assert.Error(t, bad.Validate())

	var nilAlert *Alert
	assert.Error(t, nilAlert.Validate())
}

func TestAlertCloneIsFullyIndependent(t *testing.T) {
	resolved := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alert := &Alert{
		ID:         "a-1",
		Type:       TypeNetwork,
		Severity:   SeverityMedium,
		Metadata:   map[string]string{"ingest_channel": "mqtt"},
		ResolvedAt: &resolved,
	}

	cp := alert.Clone()
	cp.Annotate("patternOccurrences", "12")
	*cp.ResolvedAt = cp.ResolvedAt.Add(time.Hour)

	assert.NotContains(t, alert.Metadata, "patternOccurrences")
	assert.Equal(t, "mqtt", cp.Metadata["ingest_channel"])
	assert.Equal(t, resolved, *alert.ResolvedAt)
}

func TestAlertCloneWithoutOptionalFields(t *testing.T) {
	alert := &Alert{ID: "a-2", Type: TypeSystem, Severity: SeverityLow}

	cp := alert.Clone()
	cp.Annotate("patternBasedThreshold", "true")

	assert.Nil(t, alert.Metadata)
	assert.Nil(t, alert.ResolvedAt)
}

func TestAlertAnnotate(t *testing.T) {
	alert := &Alert{Metadata: map[string]string{"ingest_channel": "mqtt"}}

	alert.Annotate("patternOccurrences", "12")

	assert.Equal(t, "mqtt", alert.Metadata["ingest_channel"])
	assert.Equal(t, "12", alert.Metadata["patternOccurrences"])

	fresh := &Alert{}
	fresh.Annotate("patternBasedThreshold", "true")
	assert.Equal(t, "true", fresh.Metadata["patternBasedThreshold"])
}
