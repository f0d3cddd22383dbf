// ABOUTME: RollingAggregator computing trailing-window averages of samples.
// ABOUTME: Missing days are skipped; an empty window reports no data.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// Standard trailing windows, in days.
const (
	WindowAcute    = 7
	WindowChronic  = 28
	WindowMonth    = 30
	WindowBaseline = 90
	WindowSameDay  = 1
)

// TrendWindows are the windows reported by Aggregator.Trend.
var TrendWindows = []int{WindowAcute, WindowChronic, WindowMonth, WindowBaseline}

// MetricReader reads samples for one athlete and metric over an inclusive day range.
type MetricReader interface {
	ReadMetrics(ctx context.Context, athleteID string, metricType models.MetricType, from, to time.Time) ([]models.MetricSample, error)
}

// Aggregator computes rolling statistics directly from the metric store.
// It holds no state of its own.
type Aggregator struct {
	store MetricReader
}

// NewAggregator creates an Aggregator over store.
func NewAggregator(store MetricReader) *Aggregator {
	return &Aggregator{store: store}
}

// Window returns the average over [asOf-windowDays+1, asOf].
func (a *Aggregator) Window(ctx context.Context, athleteID string, metricType models.MetricType, asOf time.Time, windowDays int) (models.RollingWindow, error) {
	if windowDays < 1 {
		return models.RollingWindow{}, fmt.Errorf("window must be at least 1 day, got %d", windowDays)
	}

	end := models.Day(asOf)
	start := end.AddDate(0, 0, -(windowDays - 1))

	samples, err := a.store.ReadMetrics(ctx, athleteID, metricType, start, end)
	if err != nil {
		return models.RollingWindow{}, fmt.Errorf("read %s window: %w", metricType, err)
	}

	w := models.RollingWindow{
		AthleteID:  athleteID,
		MetricType: metricType,
		AsOf:       end,
		WindowDays: windowDays,
	}

	var sum float64
	for _, s := range samples {
		// The store contract is inclusive, but guard against a looser implementation.
		if s.Date.Before(start) || s.Date.After(end) {
			continue
		}
		sum += s.Value
		w.Samples++
	}
	if w.Samples > 0 {
		avg := sum / float64(w.Samples)
		w.Average = &avg
	}
	return w, nil
}

// Average returns the window average and ok=false when no samples exist.
func (a *Aggregator) Average(ctx context.Context, athleteID string, metricType models.MetricType, asOf time.Time, windowDays int) (avg float64, ok bool, err error) {
	w, err := a.Window(ctx, athleteID, metricType, asOf, windowDays)
	if err != nil {
		return 0, false, err
	}
	if w.Average == nil {
		return 0, false, nil
	}
	return *w.Average, true, nil
}

// Trend returns the standard trailing windows for a metric.
func (a *Aggregator) Trend(ctx context.Context, athleteID string, metricType models.MetricType, asOf time.Time) ([]models.RollingWindow, error) {
	out := make([]models.RollingWindow, 0, len(TrendWindows))
	for _, days := range TrendWindows {
		w, err := a.Window(ctx, athleteID, metricType, asOf, days)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// optional converts an (avg, ok) pair into a nil-able value.
func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
