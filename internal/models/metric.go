// ABOUTME: MetricSample model and MetricType enum for athlete signals.
// ABOUTME: Samples are keyed by athlete, metric type and calendar day.
package models

import (
	"time"
)

// MetricType represents the type of daily signal being recorded.
type MetricType string

const (
	// Biometrics
	MetricHRV          MetricType = "hrv"
	MetricRestingHR    MetricType = "resting_hr"
	MetricSleepMinutes MetricType = "sleep_minutes"
	MetricSoreness     MetricType = "soreness"
	MetricJumpHeight   MetricType = "jump_height"

	// Training load
	MetricTrainingLoad MetricType = "training_load"
)

// MetricUnits maps metric types to their display units.
var MetricUnits = map[MetricType]string{
	MetricHRV:          "ms",
	MetricRestingHR:    "bpm",
	MetricSleepMinutes: "min",
	MetricSoreness:     "scale",
	MetricJumpHeight:   "cm",
	MetricTrainingLoad: "au",
}

// AllMetricTypes returns all valid metric types.
var AllMetricTypes = []MetricType{
	MetricHRV, MetricRestingHR, MetricSleepMinutes,
	MetricSoreness, MetricJumpHeight, MetricTrainingLoad,
}

// IsValidMetricType checks if a string is a valid metric type.
func IsValidMetricType(s string) bool {
	for _, mt := range AllMetricTypes {
		if string(mt) == s {
			return true
		}
	}
	return false
}

// DateLayout is the canonical day-granularity format used for keys.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// MetricSample is one value for one athlete, metric and day.
// Writing the same key again replaces the value.
type MetricSample struct {
	AthleteID  string     `json:"athlete_id"`
	MetricType MetricType `json:"metric_type"`
	Date       time.Time  `json:"date"`
	Value      float64    `json:"value"`
}

// NewMetricSample creates a sample for today.
func NewMetricSample(athleteID string, metricType MetricType, value float64) *MetricSample {
	return &MetricSample{
		AthleteID:  athleteID,
		MetricType: metricType,
		Date:       Day(time.Now()),
		Value:      value,
	}
}

// WithDate sets the sample day. The time of day is discarded.
func (s *MetricSample) WithDate(t time.Time) *MetricSample {
	s.Date = Day(t)
	return s
}

// Unit returns the display unit for the sample's metric type.
func (s *MetricSample) Unit() string {
	return MetricUnits[s.MetricType]
}

// RollingWindow is a derived trailing-window statistic. It is never stored.
type RollingWindow struct {
	AthleteID  string     `json:"athlete_id"`
	MetricType MetricType `json:"metric_type"`
	AsOf       time.Time  `json:"as_of"`
	WindowDays int        `json:"window_days"`
	// Average is nil when the window holds no samples.
	Average *float64 `json:"average"`
	Samples int      `json:"samples"`
}
