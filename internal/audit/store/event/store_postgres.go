package event

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"formtrail/internal/audit/models"
)

// Postgres persists audit events in the audit_events table. The bigserial seq
// column preserves per-session arrival order.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the audit_events table when missing. Called once at
// startup and from integration test setup.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS audit_events (
    id             UUID PRIMARY KEY,
    session_id     UUID NOT NULL,
    seq            BIGSERIAL,
    kind           TEXT NOT NULL,
    node_path      TEXT NOT NULL DEFAULT '',
    start_ms       BIGINT NOT NULL,
    end_ms         BIGINT NOT NULL DEFAULT 0,
    end_set        BOOLEAN NOT NULL DEFAULT FALSE,
    latitude       TEXT NOT NULL DEFAULT '',
    longitude      TEXT NOT NULL DEFAULT '',
    accuracy       TEXT NOT NULL DEFAULT '',
    old_value      TEXT NOT NULL DEFAULT '',
    new_value      TEXT NOT NULL DEFAULT '',
    track_location BOOLEAN NOT NULL DEFAULT FALSE,
    track_changes  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_events_session_seq_idx ON audit_events (session_id, seq);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure audit_events schema: %w", err)
	}
	return nil
}

func (s *Postgres) Append(ctx context.Context, sessionID uuid.UUID, snap models.Snapshot) error {
	const query = `
INSERT INTO audit_events (
    id, session_id, kind, node_path, start_ms, end_ms, end_set,
    latitude, longitude, accuracy, old_value, new_value,
    track_location, track_changes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), sessionID, string(snap.Kind), snap.NodePath,
		snap.Start, snap.End, snap.EndSet,
		snap.Latitude, snap.Longitude, snap.Accuracy,
		snap.OldValue, snap.NewValue,
		snap.TrackLocation, snap.TrackChanges,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Postgres) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Snapshot, error) {
	const query = `
SELECT kind, node_path, start_ms, end_ms, end_set,
       latitude, longitude, accuracy, old_value, new_value,
       track_location, track_changes
FROM audit_events
WHERE session_id = $1
ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		var kind string
		if err := rows.Scan(
			&kind, &snap.NodePath, &snap.Start, &snap.End, &snap.EndSet,
			&snap.Latitude, &snap.Longitude, &snap.Accuracy,
			&snap.OldValue, &snap.NewValue,
			&snap.TrackLocation, &snap.TrackChanges,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		snap.Kind = models.Kind(kind)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return snaps, nil
}

func (s *Postgres) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_events WHERE session_id = $1`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return count, nil
}
