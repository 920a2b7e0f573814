package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"AlertIntelAPI/internal/models"
)

// IAlertRepository defines the persistence operations for alerts, including
// the correlation query the recognizer uses to mine resolution history.
type IAlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	GetHistory(ctx context.Context, limit int, offset int) ([]models.Alert, error)
	AlertsByCorrelation(ctx context.Context, correlationID string) ([]models.Alert, error)
	UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error
	Acknowledge(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string, notes string) error
	Delete(ctx context.Context, id string) error
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
	GetStatistics(ctx context.Context) (map[string]int, error)
}

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, title, description, type, severity, source, status,
	       correlation_id, resolution_notes, created_at, resolved_at, metadata`

// Create inserts a new alert record.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (
			id, title, description, type, severity, source, status,
			correlation_id, resolution_notes, created_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	if alert.Status == "" {
		alert.Status = models.StatusActive
	}

	meta, err := marshalMetadata(alert.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(
		ctx, query,
		alert.ID,
		alert.Title,
		alert.Description,
		alert.Type,
		alert.Severity,
		alert.Source,
		alert.Status,
		alert.CorrelationID,
		alert.ResolutionNotes,
		alert.CreatedAt,
		meta,
	)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// GetByID retrieves a single alert by its identifier.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}

	return alert, nil
}

// GetHistory returns a paginated list of all alerts, newest first.
func (r *AlertRepository) GetHistory(ctx context.Context, limit int, offset int) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + `
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// AlertsByCorrelation returns all alerts sharing a correlation identifier.
// The recognizer mines the resolution notes of these for recommended actions.
func (r *AlertRepository) AlertsByCorrelation(ctx context.Context, correlationID string) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + `
		FROM alerts
		WHERE correlation_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query correlated alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// UpdateMetadata replaces an alert's metadata document with the engine's
// annotated version.
func (r *AlertRepository) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	meta, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}

	query := `UPDATE alerts SET metadata = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, meta, id); err != nil {
		return fmt.Errorf("failed to update alert metadata: %w", err)
	}
	return nil
}

// Acknowledge marks an alert as acknowledged.
func (r *AlertRepository) Acknowledge(ctx context.Context, id string) error {
	query := `UPDATE alerts SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, models.StatusAcknowledged, id)
	return err
}

// Resolve marks an alert resolved and stores the free-text resolution notes.
func (r *AlertRepository) Resolve(ctx context.Context, id string, notes string) error {
	query := `UPDATE alerts SET status = $1, resolution_notes = $2, resolved_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.StatusResolved, notes, time.Now(), id)
	return err
}

// Delete removes an alert record.
func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM alerts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteOld removes resolved alerts older than the specified duration.
func (r *AlertRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM alerts WHERE status = $1 AND resolved_at < $2`
	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.ExecContext(ctx, query, models.StatusResolved, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetStatistics returns a count of unresolved alerts grouped by severity.
func (r *AlertRepository) GetStatistics(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM alerts
		WHERE status != $1
		GROUP BY severity
	`
	rows, err := r.db.QueryContext(ctx, query, models.StatusResolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var sev string
		var count int
		if err := rows.Scan(&sev, &count); err != nil {
			return nil, err
		}
		stats[sev] = count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		a    models.Alert
		meta []byte
	)
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.Type, &a.Severity, &a.Source,
		&a.Status, &a.CorrelationID, &a.ResolutionNotes, &a.CreatedAt,
		&a.ResolvedAt, &meta,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode alert metadata: %w", err)
		}
	}
	return &a, nil
}

func collectAlerts(rows *sql.Rows) ([]models.Alert, error) {
	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func marshalMetadata(meta map[string]string) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alert metadata: %w", err)
	}
	return b, nil
}
