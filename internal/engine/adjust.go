// ABOUTME: AdjustmentEngine deciding whether to scale the next planned session.
// ABOUTME: Decisions come from an ordered rule table; every decision is appended to the audit log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/readiness/internal/models"
)

// ErrDecisionInvariant is returned in strict mode when a rule matches even
// though neither readiness nor load carried a signal.
var ErrDecisionInvariant = errors.New("decision invariant violated")

// Signals are the inputs to the decision table.
type Signals struct {
	Readiness models.ReadinessScore
	Load      models.LoadRecord
}

// Rule is one row of the decision table.
type Rule struct {
	Reason models.Reason
	Factor float64
	Match  func(Signals) bool
}

// DefaultRules is the decision table in priority order. The first matching
// rule wins; no match means the session proceeds unmodified.
var DefaultRules = []Rule{
	{
		Reason: models.ReasonLowReadiness,
		Factor: 0.8,
		Match: func(s Signals) bool {
			return s.Readiness.Band == models.ReadinessLow
		},
	},
	{
		Reason: models.ReasonOverStrain,
		Factor: 0.85,
		Match: func(s Signals) bool {
			return s.Load.Band == models.LoadDanger
		},
	},
	{
		Reason: models.ReasonUnderStrain,
		Factor: 1.1,
		Match: func(s Signals) bool {
			return s.Readiness.Band == models.ReadinessHigh && s.Load.UnderTrained()
		},
	},
	{
		Reason: models.ReasonHighReadiness,
		Factor: 1.05,
		Match: func(s Signals) bool {
			return s.Readiness.Band == models.ReadinessHigh && s.Load.Band == models.LoadOptimal
		},
	},
}

// Decision is the outcome of running the rule table.
type Decision struct {
	Reason models.Reason
	Factor float64
}

// NoAdjustment is the decision when no rule matches.
var NoAdjustment = Decision{Reason: models.ReasonNone, Factor: 1}

// Adjusts reports whether the decision changes the session.
func (d Decision) Adjusts() bool {
	return d.Reason != models.ReasonNone
}

// Decide runs rules against s and returns the first match. It is pure, so
// identical signals always give an identical decision.
func Decide(rules []Rule, s Signals) (Decision, error) {
	for _, r := range rules {
		if !r.Match(s) {
			continue
		}
		if !s.Readiness.HasData() && s.Load.ACWR == nil {
			return NoAdjustment, fmt.Errorf("%w: rule %s matched without readiness or load signal", ErrDecisionInvariant, r.Reason)
		}
		return Decision{Reason: r.Reason, Factor: r.Factor}, nil
	}
	return NoAdjustment, nil
}

// AdjustmentLog is the append-only audit log.
type AdjustmentLog interface {
	AppendAdjustment(ctx context.Context, a *models.ProgramAdjustment) error
}

// Adjuster evaluates planned sessions and records adjustments.
type Adjuster struct {
	scorer     *Scorer
	classifier *Classifier
	audit      AdjustmentLog
	rules      []Rule
	strict     bool
	now        func() time.Time
	logger     *log.Logger
}

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithStrict makes invariant violations return ErrDecisionInvariant instead
// of failing closed.
func WithStrict(strict bool) Option {
	return func(a *Adjuster) { a.strict = strict }
}

// WithRules replaces the decision table.
func WithRules(rules []Rule) Option {
	return func(a *Adjuster) { a.rules = rules }
}

// WithClock sets the clock used for the evaluation date.
func WithClock(now func() time.Time) Option {
	return func(a *Adjuster) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Adjuster) { a.logger = l }
}

// NewAdjuster creates an Adjuster using DefaultRules.
func NewAdjuster(scorer *Scorer, classifier *Classifier, audit AdjustmentLog, opts ...Option) *Adjuster {
	a := &Adjuster{
		scorer:     scorer,
		classifier: classifier,
		audit:      audit,
		rules:      DefaultRules,
		now:        time.Now,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Evaluate scores the athlete for today and applies the decision table to
// planned. sessionID identifies the session being evaluated. It returns nil
// when no adjustment is made.
func (a *Adjuster) Evaluate(ctx context.Context, athleteID, sessionID string, planned models.PlannedSession) (*models.ProgramAdjustment, error) {
	date := models.Day(a.now())

	readiness, err := a.scorer.Score(ctx, athleteID, date)
	if err != nil {
		return nil, err
	}
	load, err := a.classifier.Classify(ctx, athleteID, date)
	if err != nil {
		return nil, err
	}

	planned.ID = sessionID
	planned.AthleteID = athleteID
	return a.Apply(ctx, readiness, load, planned)
}

// Apply runs the decision table with precomputed signals and appends an
// audit record when a rule matches.
func (a *Adjuster) Apply(ctx context.Context, readiness models.ReadinessScore, load models.LoadRecord, planned models.PlannedSession) (*models.ProgramAdjustment, error) {
	logger := a.logger.With("athlete_id", planned.AthleteID, "session_id", planned.ID)

	d, err := Decide(a.rules, Signals{Readiness: readiness, Load: load})
	if err != nil {
		if a.strict {
			return nil, err
		}
		logger.Error("failing closed", "error", err)
		return nil, nil
	}
	if !d.Adjusts() {
		logger.Debug("no adjustment", "readiness", readiness.Band, "load", load.Band)
		return nil, nil
	}

	adj := models.NewProgramAdjustment(planned, d.Reason, d.Factor)
	adj.CreatedAt = a.now().UTC()
	if err := a.audit.AppendAdjustment(ctx, adj); err != nil {
		return nil, fmt.Errorf("record adjustment: %w", err)
	}

	logger.Info("session adjusted", "reason", d.Reason, "factor", d.Factor)
	return adj, nil
}
