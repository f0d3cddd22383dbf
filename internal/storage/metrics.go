// ABOUTME: MetricStore operations for SQLite storage.
// ABOUTME: Samples are upserted on (athlete, metric type, day).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// UpsertMetric stores a sample, replacing any value for the same key.
func (d *DB) UpsertMetric(ctx context.Context, s *models.MetricSample) error {
	query := `
		INSERT INTO metric_samples (athlete_id, metric_type, date, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, metric_type, date) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := d.db.ExecContext(ctx, query,
		s.AthleteID,
		string(s.MetricType),
		s.Date.Format(models.DateLayout),
		s.Value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert metric: %w", err)
	}
	return nil
}

// ReadMetrics returns samples for one athlete and metric with dates in
// [from, to], inclusive, sorted oldest first.
func (d *DB) ReadMetrics(ctx context.Context, athleteID string, metricType models.MetricType, from, to time.Time) ([]models.MetricSample, error) {
	query := `
		SELECT athlete_id, metric_type, date, value
		FROM metric_samples
		WHERE athlete_id = ? AND metric_type = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := d.db.QueryContext(ctx, query,
		athleteID,
		string(metricType),
		models.Day(from).Format(models.DateLayout),
		models.Day(to).Format(models.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("read metrics: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// ListMetrics returns an athlete's most recent samples, optionally filtered
// by type. Results are sorted by date descending.
func (d *DB) ListMetrics(ctx context.Context, athleteID string, metricType *models.MetricType, limit int) ([]models.MetricSample, error) {
	query := `
		SELECT athlete_id, metric_type, date, value
		FROM metric_samples
		WHERE athlete_id = ?
	`
	args := []interface{}{athleteID}

	if metricType != nil {
		query += " AND metric_type = ?"
		args = append(args, string(*metricType))
	}
	query += " ORDER BY date DESC, metric_type ASC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// ListAthletes returns every athlete ID that has at least one sample.
func (d *DB) ListAthletes(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT athlete_id FROM metric_samples ORDER BY athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanSamples scans multiple rows into MetricSamples.
func scanSamples(rows *sql.Rows) ([]models.MetricSample, error) {
	var samples []models.MetricSample

	for rows.Next() {
		var s models.MetricSample
		var metricType, date string

		if err := rows.Scan(&s.AthleteID, &metricType, &date, &s.Value); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}

		s.MetricType = models.MetricType(metricType)
		day, err := models.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("parse metric date %q: %w", date, err)
		}
		s.Date = day

		samples = append(samples, s)
	}

	return samples, rows.Err()
}
