// ABOUTME: ProgramAdjustment audit record and reason codes.
// ABOUTME: Adjustments are append-only; the newest per session is current.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Reason is the tagged outcome of the adjustment decision table.
type Reason string

const (
	ReasonLowReadiness  Reason = "low_readiness"
	ReasonHighReadiness Reason = "high_readiness"
	ReasonOverStrain    Reason = "over_strain"
	ReasonUnderStrain   Reason = "under_strain"
	ReasonNone          Reason = "none"
)

// AllReasons lists reasons that produce an adjustment record.
var AllReasons = []Reason{
	ReasonLowReadiness, ReasonOverStrain, ReasonUnderStrain, ReasonHighReadiness,
}

// IsValidReason checks if a string names a recordable reason.
func IsValidReason(s string) bool {
	for _, r := range AllReasons {
		if string(r) == s {
			return true
		}
	}
	return false
}

// ProgramAdjustment is one immutable scaling decision for a session.
type ProgramAdjustment struct {
	ID         uuid.UUID      `json:"id"`
	SessionID  string         `json:"session_id"`
	AthleteID  string         `json:"athlete_id"`
	Reason     Reason         `json:"reason"`
	Factor     float64        `json:"adjustment_factor"`
	OldPayload PlannedSession `json:"old_payload"`
	NewPayload PlannedSession `json:"new_payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewProgramAdjustment scales the planned session by factor and snapshots
// the original for audit.
func NewProgramAdjustment(planned PlannedSession, reason Reason, factor float64) *ProgramAdjustment {
	return &ProgramAdjustment{
		ID:         uuid.New(),
		SessionID:  planned.ID,
		AthleteID:  planned.AthleteID,
		Reason:     reason,
		Factor:     factor,
		OldPayload: planned.Clone(),
		NewPayload: planned.Scale(factor),
		CreatedAt:  time.Now().UTC(),
	}
}
