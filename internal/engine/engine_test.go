// ABOUTME: Shared in-memory store and helpers for engine tests.
// ABOUTME: memStore implements the pipeline Store without touching disk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

var errInjected = errors.New("injected read failure")

type memStore struct {
	mu          sync.Mutex
	samples     []models.MetricSample
	readiness   []models.ReadinessScore
	loads       []models.LoadRecord
	sessions    []*models.PlannedSession
	adjustments []*models.ProgramAdjustment
	failAthlete string
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) add(athleteID string, mt models.MetricType, date string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, *models.NewMetricSample(athleteID, mt, value).WithDate(day(date)))
}

func (m *memStore) ReadMetrics(ctx context.Context, athleteID string, mt models.MetricType, from, to time.Time) ([]models.MetricSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if athleteID == m.failAthlete {
		return nil, errInjected
	}
	var out []models.MetricSample
	for _, s := range m.samples {
		if s.AthleteID != athleteID || s.MetricType != mt {
			continue
		}
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) AppendAdjustment(ctx context.Context, a *models.ProgramAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments = append(m.adjustments, a)
	return nil
}

func (m *memStore) SaveReadiness(ctx context.Context, r models.ReadinessScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readiness = append(m.readiness, r)
	return nil
}

func (m *memStore) SaveLoad(ctx context.Context, l models.LoadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, l)
	return nil
}

func (m *memStore) GetNextPlannedSession(ctx context.Context, athleteID string, from time.Time) (*models.PlannedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []*models.PlannedSession
	for _, s := range m.sessions {
		if s.AthleteID == athleteID && !s.ScheduledFor.Before(from) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("athlete %s: %w", athleteID, storage.ErrNoPlannedSession)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ScheduledFor.Before(candidates[j].ScheduledFor)
	})
	return candidates[0], nil
}

func day(s string) time.Time {
	d, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fptr(v float64) *float64 { return &v }

// seedScenario loads the reference athlete: HRV 40, 7.5h sleep, soreness 3,
// jump 55cm, giving a composite score of 65.
func seedScenario(m *memStore, athleteID, date string) {
	m.add(athleteID, models.MetricHRV, date, 40)
	m.add(athleteID, models.MetricSleepMinutes, date, 450)
	m.add(athleteID, models.MetricSoreness, date, 3)
	m.add(athleteID, models.MetricJumpHeight, date, 55)
}

// seedLoad writes acute for the last 7 days up to asOf and rest for the 21
// days before them.
func seedLoad(m *memStore, athleteID, asOf string, acute, rest float64) {
	end := day(asOf)
	for i := 0; i < WindowChronic; i++ {
		v := rest
		if i < WindowAcute {
			v = acute
		}
		m.add(athleteID, models.MetricTrainingLoad, end.AddDate(0, 0, -i).Format(models.DateLayout), v)
	}
}
