package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the closed set of alert severities, ordered CRITICAL > HIGH >
// MEDIUM > LOW > INFO.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Weight maps a severity onto the numeric scale used by the pattern model.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 4.0
	case SeverityHigh:
		return 3.0
	case SeverityMedium:
		return 2.0
	case SeverityLow:
		return 1.0
	case SeverityInfo:
		return 0.5
	}
	return 0
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// AlertType is the closed set of alert categories.
type AlertType string

const (
	TypeDatabase    AlertType = "DATABASE"
	TypeNetwork     AlertType = "NETWORK"
	TypeSecurity    AlertType = "SECURITY"
	TypePerformance AlertType = "PERFORMANCE"
	TypeSystem      AlertType = "SYSTEM"
)

func (t AlertType) Valid() bool {
	switch t {
	case TypeDatabase, TypeNetwork, TypeSecurity, TypePerformance, TypeSystem:
		return true
	}
	return false
}

func ParseAlertType(s string) (AlertType, error) {
	t := AlertType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown alert type %q", s)
	}
	return t, nil
}

// Alert status lifecycle
const (
	StatusActive       = "ACTIVE"
	StatusAcknowledged = "ACKNOWLEDGED"
	StatusResolved     = "RESOLVED"
)

// Alert represents an incoming monitoring event. Severity and Type are fixed
// at creation; Metadata carries additive engine annotations and must never
// drop keys written by other components.
type Alert struct {
	ID              string            `json:"id" db:"id"`
	Title           string            `json:"title" db:"title"`
	Description     string            `json:"description" db:"description"`
	Type            AlertType         `json:"type" db:"type"`
	Severity        Severity          `json:"severity" db:"severity"`
	Source          string            `json:"source" db:"source"`
	Status          string            `json:"status" db:"status"`
	CorrelationID   string            `json:"correlation_id" db:"correlation_id"`
	ResolutionNotes string            `json:"resolution_notes" db:"resolution_notes"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	ResolvedAt      *time.Time        `json:"resolved_at" db:"resolved_at"`
	Metadata        map[string]string `json:"metadata" db:"metadata"`
}

// Validate rejects alerts the engine cannot process. Called at the pipeline
// entry before any pattern or routing state is touched.
func (a *Alert) Validate() error {
	if a == nil {
		return fmt.Errorf("alert is nil")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("alert %s: missing or unknown type %q", a.ID, a.Type)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("alert %s: missing or unknown severity %q", a.ID, a.Severity)
	}
	return nil
}

// Clone returns a deep copy. The engine pipeline annotates its own copy so
// the caller's instance is never written to from another goroutine.
func (a *Alert) Clone() *Alert {
	cp := *a
	if a.Metadata != nil {
		cp.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	if a.ResolvedAt != nil {
		resolved := *a.ResolvedAt
		cp.ResolvedAt = &resolved
	}
	return &cp
}

// Annotate writes an engine-derived metadata key, allocating the map on first
// use. Existing keys from other writers are preserved.
func (a *Alert) Annotate(key, value string) {
	if a.Metadata == nil {
		a.Metadata = make(map[string]string)
	}
	a.Metadata[key] = value
}

// CreateAlertRequest is the ingest payload accepted over HTTP and MQTT.
type CreateAlertRequest struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Type          string            `json:"type"`
	Severity      string            `json:"severity"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id"`
	Metadata      map[string]string `json:"metadata"`
}

// ResolveAlertRequest closes an alert and feeds the expertise model.
type ResolveAlertRequest struct {
	ResolvedBy      string `json:"resolved_by"`
	ResolutionNotes string `json:"resolution_notes"`
	Successful      bool   `json:"successful"`
}

// ResolutionEvent is the MQTT feedback payload for expertise updates.
type ResolutionEvent struct {
	UserID     string `json:"user_id"`
	AlertType  string `json:"alert_type"`
	Successful bool   `json:"successful"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  struct {
		Database bool `json:"database"`
		MQTT     bool `json:"mqtt"`
	} `json:"services"`
}
