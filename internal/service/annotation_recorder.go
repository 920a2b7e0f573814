package service

import (
	"context"
	"fmt"
	"time"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
	"AlertIntelAPI/internal/repository"
	"AlertIntelAPI/internal/websocket"
)

// Broadcaster mirrors engine events to connected dashboards. The websocket
// hub satisfies it.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// AnnotationRecorder persists the threshold metadata the engine pipeline
// writes after routing and pushes the annotated alert to dashboards. Without
// it the annotations would only exist on the pipeline's private copy.
type AnnotationRecorder struct {
	repo repository.IAlertRepository
	hub  Broadcaster
	log  *logger.Logger
}

func NewAnnotationRecorder(repo repository.IAlertRepository, hub Broadcaster, log *logger.Logger) *AnnotationRecorder {
	return &AnnotationRecorder{
		repo: repo,
		hub:  hub,
		log:  log,
	}
}

// RecordAnnotations stores the annotated alert's metadata and broadcasts the
// updated record.
func (r *AnnotationRecorder) RecordAnnotations(ctx context.Context, alert *models.Alert) error {
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.repo.UpdateMetadata(sctx, alert.ID, alert.Metadata); err != nil {
		return fmt.Errorf("failed to persist annotations for alert %s: %w", alert.ID, err)
	}

	if r.hub != nil {
		r.hub.Broadcast(websocket.MessageAlert, alert)
	}

	r.log.Debug("Alert %s metadata updated with %d annotation key(s)", alert.ID, len(alert.Metadata))
	return nil
}
