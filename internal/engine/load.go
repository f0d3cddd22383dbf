// ABOUTME: LoadClassifier computing the acute:chronic workload ratio.
// ABOUTME: Acute is the 7-day average load, chronic the 28-day average.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// Classifier computes LoadRecords from training-load samples.
type Classifier struct {
	agg *Aggregator
}

// NewClassifier creates a Classifier.
func NewClassifier(agg *Aggregator) *Classifier {
	return &Classifier{agg: agg}
}

// Classify computes the load record for an athlete on date. A missing or
// zero chronic load yields the insufficient_data band.
func (c *Classifier) Classify(ctx context.Context, athleteID string, date time.Time) (models.LoadRecord, error) {
	daily, dailyOK, err := c.agg.Average(ctx, athleteID, models.MetricTrainingLoad, date, WindowSameDay)
	if err != nil {
		return models.LoadRecord{}, fmt.Errorf("classify load: %w", err)
	}
	acute, acuteOK, err := c.agg.Average(ctx, athleteID, models.MetricTrainingLoad, date, WindowAcute)
	if err != nil {
		return models.LoadRecord{}, fmt.Errorf("classify load: %w", err)
	}
	chronic, chronicOK, err := c.agg.Average(ctx, athleteID, models.MetricTrainingLoad, date, WindowChronic)
	if err != nil {
		return models.LoadRecord{}, fmt.Errorf("classify load: %w", err)
	}

	return models.NewLoadRecord(athleteID, date,
		optional(daily, dailyOK),
		optional(acute, acuteOK),
		optional(chronic, chronicOK),
	), nil
}
