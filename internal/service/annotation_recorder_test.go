package service

import (
	"context"
	"errors"
	"testing"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
	"AlertIntelAPI/internal/repository"
	"AlertIntelAPI/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAlertRepo implements only the metadata update; the recorder touches
// nothing else on the repository.
type stubAlertRepo struct {
	repository.IAlertRepository
	updated map[string]map[string]string
	err     error
}

func (s *stubAlertRepo) UpdateMetadata(_ context.Context, id string, metadata map[string]string) error {
	if s.err != nil {
		return s.err
	}
	if s.updated == nil {
		s.updated = make(map[string]map[string]string)
	}
	s.updated[id] = metadata
	return nil
}

type stubBroadcaster struct {
	types    []string
	payloads []interface{}
}

func (s *stubBroadcaster) Broadcast(msgType string, payload interface{}) {
	s.types = append(s.types, msgType)
	s.payloads = append(s.payloads, payload)
}

func newTestLogger() *logger.Logger {
	log, _ := logger.New(logger.Config{Level: logger.FATAL, Mode: logger.MINIMAL})
	return log
}

func annotatedAlert() *models.Alert {
	return &models.Alert{
		ID:       "a-1",
		Type:     models.TypeNetwork,
		Severity: models.SeverityMedium,
		Metadata: map[string]string{
			"dynamicThresholdAdjustment": "1",
			"patternBasedThreshold":      "true",
			"patternOccurrences":         "11",
		},
	}
}

func TestAnnotationRecorder_PersistsAndBroadcasts(t *testing.T) {
	repo := &stubAlertRepo{}
	hub := &stubBroadcaster{}
	rec := NewAnnotationRecorder(repo, hub, newTestLogger())

	alert := annotatedAlert()
	require.NoError(t, rec.RecordAnnotations(context.Background(), alert))

	require.Contains(t, repo.updated, "a-1")
	assert.Equal(t, "11", repo.updated["a-1"]["patternOccurrences"])
	assert.Equal(t, "true", repo.updated["a-1"]["patternBasedThreshold"])

	require.Len(t, hub.types, 1)
	assert.Equal(t, websocket.MessageAlert, hub.types[0])
	assert.Equal(t, alert, hub.payloads[0])
}

func TestAnnotationRecorder_RepoFailureSkipsBroadcast(t *testing.T) {
	repo := &stubAlertRepo{err: errors.New("db down")}
	hub := &stubBroadcaster{}
	rec := NewAnnotationRecorder(repo, hub, newTestLogger())

	err := rec.RecordAnnotations(context.Background(), annotatedAlert())

	assert.Error(t, err)
	assert.Empty(t, hub.types)
}

func TestAnnotationRecorder_NilHubStillPersists(t *testing.T) {
	repo := &stubAlertRepo{}
	rec := NewAnnotationRecorder(repo, nil, newTestLogger())

	require.NoError(t, rec.RecordAnnotations(context.Background(), annotatedAlert()))
	assert.Contains(t, repo.updated, "a-1")
}
