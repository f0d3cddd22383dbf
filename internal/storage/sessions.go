// ABOUTME: SessionStore operations for planned training sessions.
// ABOUTME: The full session payload is kept as JSON alongside index columns.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// SavePlannedSession creates or replaces a planned session.
func (d *DB) SavePlannedSession(ctx context.Context, s *models.PlannedSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO planned_sessions (id, athlete_id, scheduled_for, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			scheduled_for = excluded.scheduled_for,
			payload = excluded.payload`,
		s.ID,
		s.AthleteID,
		s.ScheduledFor.UTC().Format(time.RFC3339),
		string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save planned session: %w", err)
	}
	return nil
}

// GetPlannedSession retrieves a planned session by ID.
func (d *DB) GetPlannedSession(ctx context.Context, id string) (*models.PlannedSession, error) {
	row := d.db.QueryRowContext(ctx, `SELECT payload FROM planned_sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, err
}

// GetNextPlannedSession returns the earliest session for the athlete
// scheduled at or after from.
func (d *DB) GetNextPlannedSession(ctx context.Context, athleteID string, from time.Time) (*models.PlannedSession, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT payload FROM planned_sessions
		WHERE athlete_id = ? AND scheduled_for >= ?
		ORDER BY scheduled_for ASC
		LIMIT 1`,
		athleteID, from.UTC().Format(time.RFC3339),
	)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("athlete %s: %w", athleteID, ErrNoPlannedSession)
	}
	return s, err
}

// ListPlannedSessions returns an athlete's sessions, soonest first.
func (d *DB) ListPlannedSessions(ctx context.Context, athleteID string, limit int) ([]*models.PlannedSession, error) {
	query := `SELECT payload FROM planned_sessions WHERE athlete_id = ? ORDER BY scheduled_for ASC`
	args := []interface{}{athleteID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list planned sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.PlannedSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*models.PlannedSession, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	var s models.PlannedSession
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
