package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AlertIntelAPI/internal/engine"
	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
	"AlertIntelAPI/internal/repository"
	"AlertIntelAPI/internal/websocket"

	"github.com/google/uuid"
)

// IAlertService defines the business logic for ingesting and resolving alerts
// and for operating the intelligence engine around them.
type IAlertService interface {
	Ingest(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error)
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	GetAlertHistory(ctx context.Context, limit, offset int) ([]models.Alert, error)
	GetAlertStatistics(ctx context.Context) (map[string]int, error)
	Acknowledge(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string, req *models.ResolveAlertRequest) error
	DeleteAlert(ctx context.Context, id string) error
	RecordResolutionOutcome(userID, alertType string, successful bool) error
}

type AlertService struct {
	repo      repository.IAlertRepository
	snapshots repository.ISnapshotRepository
	engine    *engine.Engine
	hub       *websocket.Hub
	log       *logger.Logger
}

func NewAlertService(
	repo repository.IAlertRepository,
	snapshots repository.ISnapshotRepository,
	eng *engine.Engine,
	hub *websocket.Hub,
	log *logger.Logger,
) *AlertService {
	return &AlertService{
		repo:      repo,
		snapshots: snapshots,
		engine:    eng,
		hub:       hub,
		log:       log,
	}
}

// Ingest validates and persists a new alert, then hands it to the
// intelligence engine. The engine pipeline runs asynchronously; ingestion
// returns as soon as the alert is stored.
func (s *AlertService) Ingest(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	alertType, err := models.ParseAlertType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid alert: %w", err)
	}
	severity, err := models.ParseSeverity(req.Severity)
	if err != nil {
		return nil, fmt.Errorf("invalid alert: %w", err)
	}

	alert := &models.Alert{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		Type:          alertType,
		Severity:      severity,
		Source:        req.Source,
		Status:        models.StatusActive,
		CorrelationID: req.CorrelationID,
		CreatedAt:     time.Now(),
		Metadata:      req.Metadata,
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	s.notify(websocket.MessageAlert, alert)

	if err := s.engine.ProcessAlert(alert); err != nil {
		// Cannot happen for an alert built from parsed enums, but the
		// engine's verdict is authoritative.
		s.log.Error("Engine rejected alert %s: %v", alert.ID, err)
	}

	if alert.Severity == models.SeverityCritical {
		s.log.Warn("[CRITICAL ALERT] %s: %s (source: %s)", alert.Type, alert.Title, alert.Source)
	}

	return alert, nil
}

// GetAlert retrieves a single alert.
func (s *AlertService) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAlertHistory provides the paginated audit trail.
func (s *AlertService) GetAlertHistory(ctx context.Context, limit, offset int) ([]models.Alert, error) {
	return s.repo.GetHistory(ctx, limit, offset)
}

// GetAlertStatistics counts unresolved alerts grouped by severity.
func (s *AlertService) GetAlertStatistics(ctx context.Context) (map[string]int, error) {
	return s.repo.GetStatistics(ctx)
}

// Acknowledge marks an alert as seen by a responder.
func (s *AlertService) Acknowledge(ctx context.Context, id string) error {
	if err := s.repo.Acknowledge(ctx, id); err != nil {
		return fmt.Errorf("failed to acknowledge alert %s: %w", id, err)
	}
	return nil
}

// Resolve closes an alert, stores the resolution notes the recognizer will
// later mine, and feeds the outcome into the expertise model.
func (s *AlertService) Resolve(ctx context.Context, id string, req *models.ResolveAlertRequest) error {
	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load alert %s: %w", id, err)
	}
	if alert == nil {
		return fmt.Errorf("alert %s not found", id)
	}

	if err := s.repo.Resolve(ctx, id, req.ResolutionNotes); err != nil {
		return fmt.Errorf("failed to resolve alert %s: %w", id, err)
	}

	if req.ResolvedBy != "" {
		if err := s.engine.RecordResolutionOutcome(req.ResolvedBy, string(alert.Type), req.Successful); err != nil {
			s.log.Error("Failed to record resolution outcome for alert %s: %v", id, err)
		}
	}

	s.notify(websocket.MessageResolution, map[string]interface{}{
		"alert_id":    id,
		"resolved_by": req.ResolvedBy,
		"successful":  req.Successful,
	})

	return nil
}

// DeleteAlert removes the alert from the system.
func (s *AlertService) DeleteAlert(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// RecordResolutionOutcome forwards external feedback (e.g. from the MQTT
// resolution topic) into the expertise model.
func (s *AlertService) RecordResolutionOutcome(userID, alertType string, successful bool) error {
	return s.engine.RecordResolutionOutcome(userID, alertType, successful)
}

// notify handles the actual transmission of engine events to connected
// dashboard clients via WebSockets.
func (s *AlertService) notify(msgType string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(msgType, payload)
	}
}

// RestoreEngineState loads the last checkpoint, if any. Called once at boot;
// an empty table means a cold start and the engine simply relearns.
func (s *AlertService) RestoreEngineState(ctx context.Context) error {
	payload, err := s.snapshots.Load(ctx, repository.SnapshotEngine)
	if err != nil {
		return fmt.Errorf("failed to load engine checkpoint: %w", err)
	}
	if payload == nil {
		s.log.Info("No engine checkpoint found, starting cold")
		return nil
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode engine checkpoint: %w", err)
	}

	s.engine.Restore(snap)
	return nil
}

// CheckpointEngineState writes the engine's learned state to storage.
func (s *AlertService) CheckpointEngineState(ctx context.Context) error {
	snap := s.engine.Snapshot()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode engine checkpoint: %w", err)
	}

	if err := s.snapshots.Save(ctx, repository.SnapshotEngine, payload); err != nil {
		return fmt.Errorf("failed to save engine checkpoint: %w", err)
	}

	s.log.Debug("Engine checkpoint saved: %d pattern(s), %d expertise score(s)",
		len(snap.Patterns), len(snap.Expertise))
	return nil
}

// CheckpointLoop periodically checkpoints engine state until the context is
// cancelled. Checkpoint failures are transient: logged, never fatal.
func (s *AlertService) CheckpointLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.CheckpointEngineState(cctx); err != nil {
				s.log.Error("Engine checkpoint failed: %v", err)
			}
			cancel()
		}
	}
}

// CleanUpTask can be run as a background cron to remove ancient resolved alerts.
func (s *AlertService) CleanUpTask(ctx context.Context) {
	count, err := s.repo.DeleteOld(ctx, 30*24*time.Hour)
	if err == nil && count > 0 {
		s.log.Info("[CLEANUP] Removed %d old resolved alerts from history", count)
	}
}
