// ABOUTME: ReadinessScorer combining same-day signals into a 0-100 score.
// ABOUTME: Missing components are dropped and the remaining weights renormalized.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harperreed/readiness/internal/models"
)

// ErrInvalidWeights is returned when a weight table cannot be used.
var ErrInvalidWeights = errors.New("invalid readiness weights")

// weightTolerance bounds floating point drift when checking weight sums.
const weightTolerance = 1e-9

// Weights is the readiness weighting table. Values must sum to 1.0.
type Weights struct {
	HRV      float64 `json:"hrv"`
	Sleep    float64 `json:"sleep"`
	Soreness float64 `json:"soreness"`
	Jump     float64 `json:"jump"`
}

// DefaultWeights is the standard readiness weighting.
var DefaultWeights = Weights{HRV: 0.3, Sleep: 0.3, Soreness: 0.2, Jump: 0.2}

// Validate checks that weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	var sum float64
	for metric, v := range w.byMetric() {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, metric, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

func (w Weights) byMetric() map[models.MetricType]float64 {
	return map[models.MetricType]float64{
		models.MetricHRV:          w.HRV,
		models.MetricSleepMinutes: w.Sleep,
		models.MetricSoreness:     w.Soreness,
		models.MetricJumpHeight:   w.Jump,
	}
}

// Normalization maps a raw value onto 0-100 linearly between Min and Max.
// Inverted components score 100 at Min.
type Normalization struct {
	Min    float64
	Max    float64
	Invert bool
}

// Apply normalizes v and clamps the result to [0, 100].
func (n Normalization) Apply(v float64) float64 {
	if n.Max <= n.Min {
		return 0
	}
	out := clamp((v-n.Min)*100/(n.Max-n.Min), 0, 100)
	if n.Invert {
		out = 100 - out
	}
	return out
}

// DefaultNormalization holds the reference ranges for each component.
var DefaultNormalization = map[models.MetricType]Normalization{
	models.MetricHRV:          {Min: 20, Max: 60},
	models.MetricSleepMinutes: {Min: 210, Max: 510},
	models.MetricSoreness:     {Min: 0, Max: 10, Invert: true},
	models.MetricJumpHeight:   {Min: 25, Max: 75},
}

// component is one weighted input to the composite score.
type component struct {
	metric models.MetricType
	weight float64
	norm   Normalization
}

// Scorer computes readiness scores.
type Scorer struct {
	agg        *Aggregator
	components []component
}

// NewScorer creates a Scorer with the given weights and the default ranges.
func NewScorer(agg *Aggregator, w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	byMetric := w.byMetric()
	order := []models.MetricType{
		models.MetricHRV, models.MetricSleepMinutes, models.MetricSoreness, models.MetricJumpHeight,
	}

	s := &Scorer{agg: agg}
	for _, m := range order {
		s.components = append(s.components, component{
			metric: m,
			weight: byMetric[m],
			norm:   DefaultNormalization[m],
		})
	}
	return s, nil
}

// Score computes the readiness score for an athlete on date. When no
// component has a same-day sample the result carries no score and the
// no_data band.
func (s *Scorer) Score(ctx context.Context, athleteID string, date time.Time) (models.ReadinessScore, error) {
	values := make(map[models.MetricType]float64, len(s.components))
	for _, c := range s.components {
		v, ok, err := s.agg.Average(ctx, athleteID, c.metric, date, WindowSameDay)
		if err != nil {
			return models.ReadinessScore{}, fmt.Errorf("score readiness: %w", err)
		}
		if ok {
			values[c.metric] = v
		}
	}
	return s.Combine(athleteID, date, values), nil
}

// Combine builds a score from raw same-day values keyed by metric.
func (s *Scorer) Combine(athleteID string, date time.Time, values map[models.MetricType]float64) models.ReadinessScore {
	var present float64
	for _, c := range s.components {
		if _, ok := values[c.metric]; ok {
			present += c.weight
		}
	}
	if present <= 0 {
		return models.NewReadinessScore(athleteID, date, nil)
	}

	var total float64
	contributions := make(map[models.MetricType]float64)
	applied := make(map[models.MetricType]float64)
	for _, c := range s.components {
		v, ok := values[c.metric]
		if !ok || c.weight == 0 {
			continue
		}
		w := c.weight / present
		contrib := w * c.norm.Apply(v)
		applied[c.metric] = w
		contributions[c.metric] = contrib
		total += contrib
	}

	score := clamp(total, 0, 100)
	r := models.NewReadinessScore(athleteID, date, &score)
	r.Components = contributions
	r.Weights = applied
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
