package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
)

func newTestLogger() *logger.Logger {
	log, _ := logger.New(logger.Config{Level: logger.FATAL, Mode: logger.MINIMAL})
	return log
}

// makeAlert builds a valid alert whose creation time lands in the given
// hour-of-day bucket.
func makeAlert(t models.AlertType, sev models.Severity, source string, hour int) *models.Alert {
	return &models.Alert{
		ID:        fmt.Sprintf("alert-%s-%s-%d", t, sev, hour),
		Title:     fmt.Sprintf("%s alert from %s", t, source),
		Type:      t,
		Severity:  sev,
		Source:    source,
		Status:    models.StatusActive,
		CreatedAt: time.Date(2025, 6, 1, hour, 30, 0, 0, time.UTC),
	}
}

// fakeNotifier records every dispatch, optionally failing all of them.
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentNotification
	failWith error
}

type sentNotification struct {
	UserID  string
	Subject string
	Body    string
}

func (f *fakeNotifier) Notify(_ context.Context, userID, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{UserID: userID, Subject: subject, Body: body})
	return f.failWith
}

func (f *fakeNotifier) notified() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]string, len(f.sent))
	for i, s := range f.sent {
		users[i] = s.UserID
	}
	return users
}

// fakeSink records annotated alert copies handed over by the pipeline.
type fakeSink struct {
	mu       sync.Mutex
	recorded []*models.Alert
	failWith error
}

func (f *fakeSink) RecordAnnotations(_ context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, alert)
	return f.failWith
}

func (f *fakeSink) annotated() []*models.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Alert(nil), f.recorded...)
}

// fakeHistory serves canned correlated alerts, optionally failing.
type fakeHistory struct {
	alerts  map[string][]models.Alert
	err     error
	queries int
}

func (f *fakeHistory) AlertsByCorrelation(_ context.Context, correlationID string) ([]models.Alert, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	return f.alerts[correlationID], nil
}

func resolvedAlert(correlationID, notes string) models.Alert {
	return models.Alert{
		ID:              fmt.Sprintf("hist-%s-%d", correlationID, len(notes)),
		Type:            models.TypeDatabase,
		Severity:        models.SeverityHigh,
		Status:          models.StatusResolved,
		CorrelationID:   correlationID,
		ResolutionNotes: notes,
		CreatedAt:       time.Now(),
	}
}
