// ABOUTME: Repository interface for readiness engine storage.
// ABOUTME: Defines the contract for samples, snapshots, sessions, audit log and sets.
package storage

import (
	"context"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// Repository defines the storage interface for the engine and its surfaces.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// MetricStore
	UpsertMetric(ctx context.Context, s *models.MetricSample) error
	ReadMetrics(ctx context.Context, athleteID string, metricType models.MetricType, from, to time.Time) ([]models.MetricSample, error)
	ListMetrics(ctx context.Context, athleteID string, metricType *models.MetricType, limit int) ([]models.MetricSample, error)
	ListAthletes(ctx context.Context) ([]string, error)

	// Dashboard snapshots
	SaveReadiness(ctx context.Context, r models.ReadinessScore) error
	GetReadiness(ctx context.Context, athleteID string, date time.Time) (*models.ReadinessScore, error)
	SaveLoad(ctx context.Context, l models.LoadRecord) error
	GetLoad(ctx context.Context, athleteID string, date time.Time) (*models.LoadRecord, error)

	// SessionStore
	SavePlannedSession(ctx context.Context, s *models.PlannedSession) error
	GetPlannedSession(ctx context.Context, id string) (*models.PlannedSession, error)
	GetNextPlannedSession(ctx context.Context, athleteID string, from time.Time) (*models.PlannedSession, error)
	ListPlannedSessions(ctx context.Context, athleteID string, limit int) ([]*models.PlannedSession, error)

	// ProgramAdjustment audit log
	AppendAdjustment(ctx context.Context, a *models.ProgramAdjustment) error
	ListAdjustments(ctx context.Context, sessionID string) ([]*models.ProgramAdjustment, error)
	ListAthleteAdjustments(ctx context.Context, athleteID string, limit int) ([]*models.ProgramAdjustment, error)
	CurrentAdjustment(ctx context.Context, sessionID string) (*models.ProgramAdjustment, error)

	// Set log
	SubmitSet(ctx context.Context, idempotencyKey, deviceID string, e models.PendingSetEntry) (bool, error)
	ListLoggedSets(ctx context.Context, sessionID string) ([]LoggedSet, error)

	// Export
	GetAllData(ctx context.Context, athleteID string) (*ExportData, error)

	// Lifecycle
	Close() error
}

var _ Repository = (*DB)(nil)
