// ABOUTME: Readiness score and load record snapshots for SQLite storage.
// ABOUTME: One row per athlete and day; recomputation overwrites.
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

// SaveReadiness stores a readiness score, replacing any for the same day.
func (d *DB) SaveReadiness(ctx context.Context, r models.ReadinessScore) error {
	components, err := json.Marshal(r.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	weights, err := json.Marshal(r.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO readiness_scores (athlete_id, date, score, band, components, weights, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, date) DO UPDATE SET
			score = excluded.score,
			band = excluded.band,
			components = excluded.components,
			weights = excluded.weights,
			computed_at = excluded.computed_at`,
		r.AthleteID,
		r.Date.Format(models.DateLayout),
		nullFloat(r.Score),
		string(r.Band),
		string(components),
		string(weights),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save readiness: %w", err)
	}
	return nil
}

// GetReadiness returns the stored score for an athlete and day.
func (d *DB) GetReadiness(ctx context.Context, athleteID string, date time.Time) (*models.ReadinessScore, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT athlete_id, date, score, components, weights
		FROM readiness_scores
		WHERE athlete_id = ? AND date = ?`,
		athleteID, models.Day(date).Format(models.DateLayout),
	)

	var athlete, day, components, weights string
	var score sql.NullFloat64
	if err := row.Scan(&athlete, &day, &score, &components, &weights); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("readiness for %s on %s: %w", athleteID, date.Format(models.DateLayout), ErrNotFound)
		}
		return nil, fmt.Errorf("scan readiness: %w", err)
	}

	parsed, err := models.ParseDay(day)
	if err != nil {
		return nil, fmt.Errorf("parse readiness date: %w", err)
	}

	// Band is re-derived from the stored number rather than trusted from the row.
	r := models.NewReadinessScore(athlete, parsed, floatPtr(score))
	if err := json.Unmarshal([]byte(components), &r.Components); err != nil {
		return nil, fmt.Errorf("unmarshal components: %w", err)
	}
	if err := json.Unmarshal([]byte(weights), &r.Weights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	return &r, nil
}

// SaveLoad stores a load record, replacing any for the same day.
func (d *DB) SaveLoad(ctx context.Context, l models.LoadRecord) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO load_records (athlete_id, date, daily_load, acute_7d, chronic_28d, acwr, band, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, date) DO UPDATE SET
			daily_load = excluded.daily_load,
			acute_7d = excluded.acute_7d,
			chronic_28d = excluded.chronic_28d,
			acwr = excluded.acwr,
			band = excluded.band,
			computed_at = excluded.computed_at`,
		l.AthleteID,
		l.Date.Format(models.DateLayout),
		nullFloat(l.DailyLoad),
		nullFloat(l.Acute7d),
		nullFloat(l.Chronic28),
		nullFloat(l.ACWR),
		string(l.Band),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save load: %w", err)
	}
	return nil
}

// GetLoad returns the stored load record for an athlete and day.
func (d *DB) GetLoad(ctx context.Context, athleteID string, date time.Time) (*models.LoadRecord, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT athlete_id, date, daily_load, acute_7d, chronic_28d
		FROM load_records
		WHERE athlete_id = ? AND date = ?`,
		athleteID, models.Day(date).Format(models.DateLayout),
	)

	var athlete, day string
	var daily, acute, chronic sql.NullFloat64
	if err := row.Scan(&athlete, &day, &daily, &acute, &chronic); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load for %s on %s: %w", athleteID, date.Format(models.DateLayout), ErrNotFound)
		}
		return nil, fmt.Errorf("scan load: %w", err)
	}

	parsed, err := models.ParseDay(day)
	if err != nil {
		return nil, fmt.Errorf("parse load date: %w", err)
	}

	l := models.NewLoadRecord(athlete, parsed, floatPtr(daily), floatPtr(acute), floatPtr(chronic))
	return &l, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
