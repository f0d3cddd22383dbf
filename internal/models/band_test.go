// ABOUTME: Tests for readiness and ACWR banding.
// ABOUTME: Covers threshold boundaries and the no-data bands.
package models

import (
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestReadinessBandFor(t *testing.T) {
	tests := []struct {
		name  string
		score *float64
		want  ReadinessBand
	}{
		{"no data", nil, ReadinessNoData},
		{"zero", ptr(0), ReadinessLow},
		{"just below moderate", ptr(69.99), ReadinessLow},
		{"moderate boundary", ptr(70), ReadinessModerate},
		{"just below high", ptr(84.99), ReadinessModerate},
		{"high boundary", ptr(85), ReadinessHigh},
		{"max", ptr(100), ReadinessHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadinessBandFor(tt.score); got != tt.want {
				t.Errorf("ReadinessBandFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLoadBandFor(t *testing.T) {
	tests := []struct {
		name  string
		ratio *float64
		want  LoadBand
	}{
		{"undefined", nil, LoadInsufficientData},
		{"under-trained is optimal for risk", ptr(0.5), LoadOptimal},
		{"lower optimal", ptr(0.8), LoadOptimal},
		{"upper optimal inclusive", ptr(1.3), LoadOptimal},
		{"caution", ptr(1.4), LoadCaution},
		{"upper caution inclusive", ptr(1.5), LoadCaution},
		{"danger", ptr(1.51), LoadDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoadBandFor(tt.ratio); got != tt.want {
				t.Errorf("LoadBandFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewLoadRecordRatio(t *testing.T) {
	day := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	rec := NewLoadRecord("ath-1", day, nil, ptr(900), ptr(600))
	if rec.ACWR == nil || *rec.ACWR != 1.5 {
		t.Fatalf("ACWR = %v, want 1.5", rec.ACWR)
	}
	if rec.Band != LoadCaution {
		t.Errorf("Band = %s, want caution", rec.Band)
	}
}

func TestNewLoadRecordZeroChronic(t *testing.T) {
	day := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	for name, chronic := range map[string]*float64{"zero": ptr(0), "missing": nil} {
		t.Run(name, func(t *testing.T) {
			rec := NewLoadRecord("ath-1", day, ptr(300), ptr(900), chronic)
			if rec.ACWR != nil {
				t.Errorf("ACWR = %v, want nil", *rec.ACWR)
			}
			if rec.Band != LoadInsufficientData {
				t.Errorf("Band = %s, want insufficient_data", rec.Band)
			}
			if rec.UnderTrained() {
				t.Error("undefined ratio must not count as under-trained")
			}
		})
	}
}

func TestPlannedSessionScale(t *testing.T) {
	s := NewPlannedSession("ath-1", time.Now()).
		WithExercise(PlannedExercise{Name: "squat", Sets: 5, Reps: 5, Weight: 100, Volume: 2500}).
		WithExercise(PlannedExercise{Name: "bench", Sets: 3, Reps: 8, Weight: 72.5})

	scaled := s.Scale(0.8)

	if scaled.Exercises[0].Weight != 80 || scaled.Exercises[0].Volume != 2000 {
		t.Errorf("squat scaled to %+v", scaled.Exercises[0])
	}
	if scaled.Exercises[1].Weight != 58 {
		t.Errorf("bench weight = %f, want 58", scaled.Exercises[1].Weight)
	}
	if scaled.Exercises[0].Sets != 5 || scaled.Exercises[0].Reps != 5 {
		t.Error("set and rep counts must not be scaled")
	}
	if s.Exercises[0].Weight != 100 {
		t.Error("Scale must not mutate the original session")
	}
}
