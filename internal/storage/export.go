// ABOUTME: Export of an athlete's engine data for backup and review.
// ABOUTME: Supports JSON and YAML formats.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/readiness/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for one athlete.
type ExportData struct {
	Version     string                      `json:"version" yaml:"version"`
	ExportedAt  time.Time                   `json:"exported_at" yaml:"exported_at"`
	Tool        string                      `json:"tool" yaml:"tool"`
	AthleteID   string                      `json:"athlete_id" yaml:"athlete_id"`
	Metrics     []models.MetricSample       `json:"metrics" yaml:"metrics"`
	Sessions    []*models.PlannedSession    `json:"sessions" yaml:"sessions"`
	Adjustments []*models.ProgramAdjustment `json:"adjustments" yaml:"adjustments"`
}

// GetAllData retrieves all of an athlete's data for export.
func (d *DB) GetAllData(ctx context.Context, athleteID string) (*ExportData, error) {
	metrics, err := d.ListMetrics(ctx, athleteID, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	sessions, err := d.ListPlannedSessions(ctx, athleteID, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	adjustments, err := d.ListAthleteAdjustments(ctx, athleteID, 0)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}

	return &ExportData{
		Version:     "1.0",
		ExportedAt:  time.Now(),
		Tool:        "readiness",
		AthleteID:   athleteID,
		Metrics:     metrics,
		Sessions:    sessions,
		Adjustments: adjustments,
	}, nil
}

// ExportJSON exports an athlete's data as indented JSON.
func ExportJSON(data *ExportData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports an athlete's data as YAML.
func ExportYAML(data *ExportData) ([]byte, error) {
	return yaml.Marshal(data)
}
