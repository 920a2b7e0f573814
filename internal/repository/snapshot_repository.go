package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ISnapshotRepository persists engine state checkpoints so learned patterns
// and expertise survive a restart.
type ISnapshotRepository interface {
	Save(ctx context.Context, kind string, payload []byte) error
	Load(ctx context.Context, kind string) ([]byte, error)
}

// Snapshot kinds stored in the engine_snapshots table.
const (
	SnapshotEngine = "engine_state"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the latest checkpoint for the given kind.
func (r *SnapshotRepository) Save(ctx context.Context, kind string, payload []byte) error {
	query := `
		INSERT INTO engine_snapshots (kind, payload, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind) DO UPDATE
		SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at
	`

	_, err := r.db.ExecContext(ctx, query, kind, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}
	return nil
}

// Load returns the latest checkpoint for the given kind, or nil if none has
// been written yet.
func (r *SnapshotRepository) Load(ctx context.Context, kind string) ([]byte, error) {
	query := `SELECT payload FROM engine_snapshots WHERE kind = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", kind, err)
	}
	return payload, nil
}
