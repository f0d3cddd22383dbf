// ABOUTME: ReadinessScore model and the authoritative readiness banding.
// ABOUTME: Bands are derived from the score, never set on their own.
package models

import "time"

// ReadinessBand is the discrete category of a readiness score.
type ReadinessBand string

const (
	ReadinessLow      ReadinessBand = "low"
	ReadinessModerate ReadinessBand = "moderate"
	ReadinessHigh     ReadinessBand = "high"
	ReadinessNoData   ReadinessBand = "no_data"
)

// Readiness band thresholds.
const (
	ReadinessHighMin     = 85.0
	ReadinessModerateMin = 70.0
)

// ReadinessBandFor returns the band for a score. A nil score means no data.
func ReadinessBandFor(score *float64) ReadinessBand {
	if score == nil {
		return ReadinessNoData
	}
	switch s := *score; {
	case s >= ReadinessHighMin:
		return ReadinessHigh
	case s >= ReadinessModerateMin:
		return ReadinessModerate
	default:
		return ReadinessLow
	}
}

// ReadinessScore is the composite same-day readiness for an athlete.
type ReadinessScore struct {
	AthleteID string    `json:"athlete_id"`
	Date      time.Time `json:"date"`
	// Score is nil when no component had data.
	Score *float64      `json:"score"`
	Band  ReadinessBand `json:"band"`
	// Components maps each present metric to its weighted contribution.
	Components map[MetricType]float64 `json:"components"`
	// Weights are the renormalized weights actually applied.
	Weights map[MetricType]float64 `json:"weights"`
}

// NewReadinessScore builds a score and derives its band.
func NewReadinessScore(athleteID string, date time.Time, score *float64) ReadinessScore {
	return ReadinessScore{
		AthleteID:  athleteID,
		Date:       Day(date),
		Score:      score,
		Band:       ReadinessBandFor(score),
		Components: map[MetricType]float64{},
		Weights:    map[MetricType]float64{},
	}
}

// HasData reports whether the score was computed from at least one component.
func (r ReadinessScore) HasData() bool {
	return r.Score != nil
}
