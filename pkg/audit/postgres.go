package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRecorder persists events to the security_events table.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder creates a recorder and ensures its table exists.
func NewPostgresRecorder(db *sql.DB) (*PostgresRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	r := &PostgresRecorder{db: db}
	if err := r.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure security_events table: %w", err)
	}
	return r, nil
}

func (r *PostgresRecorder) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS security_events (
		id BIGSERIAL PRIMARY KEY,
		occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		user_id BIGINT,
		username VARCHAR(255),
		organization_id BIGINT,
		client_ip VARCHAR(45),
		request_id VARCHAR(100),
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_security_events_occurred_at ON security_events(occurred_at DESC);
	CREATE INDEX IF NOT EXISTS idx_security_events_event_type ON security_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_security_events_user_id ON security_events(user_id);
	`
	_, err := r.db.Exec(query)
	return err
}

// Record implements Recorder.
func (r *PostgresRecorder) Record(ctx context.Context, event *Event) error {
	stamp(event)

	query := `INSERT INTO security_events
		(occurred_at, event_type, user_id, username, organization_id, client_ip, request_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		event.OccurredAt, string(event.Type), event.UserID, event.Username,
		event.OrganizationID, event.ClientIP, event.RequestID, event.Detail,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record security event: %w", err)
	}
	return nil
}
