// ABOUTME: PlannedSession model for upcoming training sessions.
// ABOUTME: Scale multiplies the load-bearing fields (weight, volume).
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// PlannedExercise is one prescribed exercise within a session.
type PlannedExercise struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
	// Volume is an optional load target such as tonnage or distance.
	Volume float64 `json:"volume,omitempty"`
}

// PlannedSession is the payload a scheduling surface hands to the engine.
type PlannedSession struct {
	ID           string            `json:"id"`
	AthleteID    string            `json:"athlete_id"`
	ScheduledFor time.Time         `json:"scheduled_for"`
	Exercises    []PlannedExercise `json:"exercises"`
	Notes        *string           `json:"notes,omitempty"`
}

// NewPlannedSession creates a session with a generated ID.
func NewPlannedSession(athleteID string, scheduledFor time.Time) *PlannedSession {
	return &PlannedSession{
		ID:           uuid.New().String(),
		AthleteID:    athleteID,
		ScheduledFor: scheduledFor,
	}
}

// WithExercise appends an exercise to the session.
func (s *PlannedSession) WithExercise(e PlannedExercise) *PlannedSession {
	s.Exercises = append(s.Exercises, e)
	return s
}

// WithNotes sets notes on the session.
func (s *PlannedSession) WithNotes(notes string) *PlannedSession {
	s.Notes = &notes
	return s
}

// Clone returns a deep copy of the session.
func (s PlannedSession) Clone() PlannedSession {
	out := s
	out.Exercises = append([]PlannedExercise(nil), s.Exercises...)
	if s.Notes != nil {
		n := *s.Notes
		out.Notes = &n
	}
	return out
}

// Scale returns a copy with weight and volume multiplied by factor and
// rounded to two decimals. Set and rep counts are left as prescribed.
func (s PlannedSession) Scale(factor float64) PlannedSession {
	out := s.Clone()
	for i := range out.Exercises {
		out.Exercises[i].Weight = round2(out.Exercises[i].Weight * factor)
		out.Exercises[i].Volume = round2(out.Exercises[i].Volume * factor)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
