// ABOUTME: Tests for the rolling aggregator.
// ABOUTME: Covers inclusive windows, skipped days, and no-data handling.
package engine

import (
	"context"
	"testing"

	"github.com/harperreed/readiness/internal/models"
)

func TestAverageEmptyWindowIsNoData(t *testing.T) {
	agg := NewAggregator(newMemStore())

	avg, ok, err := agg.Average(context.Background(), "ath-1", models.MetricHRV, day("2025-03-10"), WindowAcute)
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	if ok {
		t.Errorf("expected no data, got %f", avg)
	}
}

func TestAverageSkipsMissingDays(t *testing.T) {
	m := newMemStore()
	m.add("ath-1", models.MetricTrainingLoad, "2025-03-04", 300)
	m.add("ath-1", models.MetricTrainingLoad, "2025-03-10", 600)
	agg := NewAggregator(m)

	avg, ok, err := agg.Average(context.Background(), "ath-1", models.MetricTrainingLoad, day("2025-03-10"), WindowAcute)
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	if !ok {
		t.Fatal("expected data")
	}
	if avg != 450 {
		t.Errorf("avg = %f, want 450 (missing days must not count as zero)", avg)
	}
}

func TestWindowBoundsAreInclusive(t *testing.T) {
	m := newMemStore()
	m.add("ath-1", models.MetricTrainingLoad, "2025-03-03", 1000) // one day outside 7d
	m.add("ath-1", models.MetricTrainingLoad, "2025-03-04", 200)  // first day inside
	m.add("ath-1", models.MetricTrainingLoad, "2025-03-10", 400)  // as-of day
	m.add("ath-1", models.MetricTrainingLoad, "2025-03-11", 1000) // after as-of
	agg := NewAggregator(m)

	w, err := agg.Window(context.Background(), "ath-1", models.MetricTrainingLoad, day("2025-03-10"), WindowAcute)
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if w.Samples != 2 {
		t.Errorf("Samples = %d, want 2", w.Samples)
	}
	if w.Average == nil || *w.Average != 300 {
		t.Errorf("Average = %v, want 300", w.Average)
	}
	if !w.AsOf.Equal(day("2025-03-10")) {
		t.Errorf("AsOf = %v", w.AsOf)
	}
}

func TestWindowRejectsNonPositiveDays(t *testing.T) {
	agg := NewAggregator(newMemStore())
	for _, days := range []int{0, -3} {
		if _, err := agg.Window(context.Background(), "ath-1", models.MetricHRV, day("2025-03-10"), days); err == nil {
			t.Errorf("expected error for windowDays=%d", days)
		}
	}
}

func TestTrend(t *testing.T) {
	m := newMemStore()
	m.add("ath-1", models.MetricHRV, "2025-03-10", 50)
	m.add("ath-1", models.MetricHRV, "2025-01-01", 30)
	agg := NewAggregator(m)

	trend, err := agg.Trend(context.Background(), "ath-1", models.MetricHRV, day("2025-03-10"))
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if len(trend) != len(TrendWindows) {
		t.Fatalf("got %d windows, want %d", len(trend), len(TrendWindows))
	}

	tests := []struct {
		days    int
		samples int
		avg     float64
	}{
		{WindowAcute, 1, 50},
		{WindowChronic, 1, 50},
		{WindowMonth, 1, 50},
		{WindowBaseline, 2, 40},
	}
	for i, tt := range tests {
		w := trend[i]
		if w.WindowDays != tt.days {
			t.Errorf("window %d: days = %d, want %d", i, w.WindowDays, tt.days)
		}
		if w.Samples != tt.samples {
			t.Errorf("window %d: samples = %d, want %d", i, w.Samples, tt.samples)
		}
		if w.Average == nil || *w.Average != tt.avg {
			t.Errorf("window %d: avg = %v, want %f", i, w.Average, tt.avg)
		}
	}
}
