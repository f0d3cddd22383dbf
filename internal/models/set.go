// ABOUTME: PendingSetEntry and SyncState models for offline set logging.
// ABOUTME: LocalID is client-generated and doubles as the idempotency key.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingSetEntry is a completed set waiting to be accepted remotely.
type PendingSetEntry struct {
	LocalID   string    `json:"local_id"`
	SessionID string    `json:"session_id"`
	Exercise  string    `json:"exercise"`
	Weight    float64   `json:"weight"`
	Reps      int       `json:"reps"`
	RPE       *float64  `json:"rpe,omitempty"`
	Tempo     *string   `json:"tempo,omitempty"`
	Velocity  *float64  `json:"velocity,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPendingSetEntry creates an entry with a fresh local ID.
func NewPendingSetEntry(sessionID, exercise string, weight float64, reps int) *PendingSetEntry {
	return &PendingSetEntry{
		LocalID:   uuid.New().String(),
		SessionID: sessionID,
		Exercise:  exercise,
		Weight:    weight,
		Reps:      reps,
		CreatedAt: time.Now().UTC(),
	}
}

// WithRPE sets the rate of perceived exertion.
func (e *PendingSetEntry) WithRPE(rpe float64) *PendingSetEntry {
	e.RPE = &rpe
	return e
}

// WithTempo sets the tempo notation (e.g. "3-1-1-0").
func (e *PendingSetEntry) WithTempo(tempo string) *PendingSetEntry {
	e.Tempo = &tempo
	return e
}

// WithVelocity sets the mean concentric velocity in m/s.
func (e *PendingSetEntry) WithVelocity(v float64) *PendingSetEntry {
	e.Velocity = &v
	return e
}

// SyncState is the process-wide view of the set queue.
type SyncState struct {
	IsOnline     bool         `json:"is_online"`
	IsSyncing    bool         `json:"is_syncing"`
	PendingCount int          `json:"pending_count"`
	Failures     int          `json:"failures"`
	LastFlush    *FlushResult `json:"last_flush,omitempty"`
}

// FlushResult summarizes one flush pass.
type FlushResult struct {
	Attempted  int       `json:"attempted"`
	Uploaded   int       `json:"uploaded"`
	Failed     int       `json:"failed"`
	Aborted    bool      `json:"aborted"`
	FinishedAt time.Time `json:"finished_at"`
}

// SetAck is the remote acknowledgement of a submitted set.
type SetAck struct {
	IdempotencyKey string `json:"idempotency_key"`
	Duplicate      bool   `json:"duplicate"`
}
