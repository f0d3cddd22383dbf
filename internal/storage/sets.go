// ABOUTME: Server-side set log with idempotent merge on the client key.
// ABOUTME: A replayed idempotency key is acknowledged without a second row.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// LoggedSet is a set as accepted by the authoritative store.
type LoggedSet struct {
	models.PendingSetEntry
	DeviceID   string    `json:"device_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// SubmitSet records a set under idempotencyKey. It reports duplicate=true
// when the key was already recorded; the stored row is left unchanged.
func (d *DB) SubmitSet(ctx context.Context, idempotencyKey, deviceID string, e models.PendingSetEntry) (duplicate bool, err error) {
	if idempotencyKey == "" {
		return false, fmt.Errorf("submit set: empty idempotency key")
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO logged_sets (idempotency_key, session_id, exercise, weight, reps, rpe, tempo, velocity, device_id, created_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING`,
		idempotencyKey,
		e.SessionID,
		e.Exercise,
		e.Weight,
		e.Reps,
		e.RPE,
		e.Tempo,
		e.Velocity,
		deviceID,
		e.CreatedAt.UTC().Format(timestampLayout),
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return false, fmt.Errorf("submit set: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("submit set: %w", err)
	}
	return affected == 0, nil
}

// ListLoggedSets returns the accepted sets for a session in capture order.
func (d *DB) ListLoggedSets(ctx context.Context, sessionID string) ([]LoggedSet, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT idempotency_key, session_id, exercise, weight, reps, rpe, tempo, velocity, device_id, created_at, received_at
		FROM logged_sets
		WHERE session_id = ?
		ORDER BY created_at ASC, idempotency_key ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list logged sets: %w", err)
	}
	defer rows.Close()

	var sets []LoggedSet
	for rows.Next() {
		var s LoggedSet
		var createdAt, receivedAt string
		var deviceID *string
		err := rows.Scan(&s.LocalID, &s.SessionID, &s.Exercise, &s.Weight, &s.Reps,
			&s.RPE, &s.Tempo, &s.Velocity, &deviceID, &createdAt, &receivedAt)
		if err != nil {
			return nil, fmt.Errorf("scan logged set: %w", err)
		}
		if deviceID != nil {
			s.DeviceID = *deviceID
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		s.ReceivedAt, _ = time.Parse(time.RFC3339Nano, receivedAt)
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
