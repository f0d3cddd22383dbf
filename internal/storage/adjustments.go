// ABOUTME: ProgramAdjustment audit log for SQLite storage.
// ABOUTME: Insert-only; triggers in the schema reject updates and deletes.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/readiness/internal/models"
)

// AppendAdjustment records a new adjustment. Existing rows are never touched.
func (d *DB) AppendAdjustment(ctx context.Context, a *models.ProgramAdjustment) error {
	oldPayload, err := json.Marshal(a.OldPayload)
	if err != nil {
		return fmt.Errorf("marshal old payload: %w", err)
	}
	newPayload, err := json.Marshal(a.NewPayload)
	if err != nil {
		return fmt.Errorf("marshal new payload: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO program_adjustments (id, session_id, athlete_id, reason, factor, old_payload, new_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(),
		a.SessionID,
		a.AthleteID,
		string(a.Reason),
		a.Factor,
		string(oldPayload),
		string(newPayload),
		a.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("append adjustment: %w", err)
	}
	return nil
}

// ListAdjustments returns the adjustment history for a session, newest first.
func (d *DB) ListAdjustments(ctx context.Context, sessionID string) ([]*models.ProgramAdjustment, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, session_id, athlete_id, reason, factor, old_payload, new_payload, created_at
		FROM program_adjustments
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	var out []*models.ProgramAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAthleteAdjustments returns an athlete's most recent adjustments across sessions.
func (d *DB) ListAthleteAdjustments(ctx context.Context, athleteID string, limit int) ([]*models.ProgramAdjustment, error) {
	query := `
		SELECT id, session_id, athlete_id, reason, factor, old_payload, new_payload, created_at
		FROM program_adjustments
		WHERE athlete_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{athleteID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list athlete adjustments: %w", err)
	}
	defer rows.Close()

	var out []*models.ProgramAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CurrentAdjustment returns the most recent adjustment for a session, which
// is the session's current effective load.
func (d *DB) CurrentAdjustment(ctx context.Context, sessionID string) (*models.ProgramAdjustment, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, session_id, athlete_id, reason, factor, old_payload, new_payload, created_at
		FROM program_adjustments
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, sessionID)

	a, err := scanAdjustment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("adjustment for session %s: %w", sessionID, ErrNotFound)
	}
	return a, err
}

func scanAdjustment(row scanner) (*models.ProgramAdjustment, error) {
	var a models.ProgramAdjustment
	var id, reason, oldPayload, newPayload, createdAt string

	err := row.Scan(&id, &a.SessionID, &a.AthleteID, &reason, &a.Factor, &oldPayload, &newPayload, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan adjustment: %w", err)
	}

	a.ID, _ = uuid.Parse(id)
	a.Reason = models.Reason(reason)
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(oldPayload), &a.OldPayload); err != nil {
		return nil, fmt.Errorf("unmarshal old payload: %w", err)
	}
	if err := json.Unmarshal([]byte(newPayload), &a.NewPayload); err != nil {
		return nil, fmt.Errorf("unmarshal new payload: %w", err)
	}
	return &a, nil
}
