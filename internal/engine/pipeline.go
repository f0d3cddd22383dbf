// ABOUTME: Pipeline running aggregation, scoring, classification and adjustment for athletes.
// ABOUTME: Steps are sequential per athlete; RunBatch parallelizes across athletes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

// Store is everything the pipeline reads and writes.
type Store interface {
	MetricReader
	AdjustmentLog
	SaveReadiness(ctx context.Context, r models.ReadinessScore) error
	SaveLoad(ctx context.Context, l models.LoadRecord) error
	GetNextPlannedSession(ctx context.Context, athleteID string, from time.Time) (*models.PlannedSession, error)
}

// Result is the outcome of one athlete's pipeline run.
type Result struct {
	AthleteID  string                    `json:"athlete_id"`
	Date       time.Time                 `json:"date"`
	Readiness  models.ReadinessScore     `json:"readiness"`
	Load       models.LoadRecord         `json:"load"`
	Session    *models.PlannedSession    `json:"session,omitempty"`
	Adjustment *models.ProgramAdjustment `json:"adjustment,omitempty"`
}

// Pipeline wires the engine components over a single store.
type Pipeline struct {
	store       Store
	agg         *Aggregator
	scorer      *Scorer
	classifier  *Classifier
	adjuster    *Adjuster
	concurrency int
	logger      *log.Logger
}

// PipelineConfig holds the tunables for NewPipeline.
type PipelineConfig struct {
	Weights     Weights
	Strict      bool
	Concurrency int
	Logger      *log.Logger
	Now         func() time.Time
}

// NewPipeline builds a pipeline over store.
func NewPipeline(store Store, cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	agg := NewAggregator(store)
	scorer, err := NewScorer(agg, cfg.Weights)
	if err != nil {
		return nil, err
	}
	classifier := NewClassifier(agg)
	adjuster := NewAdjuster(scorer, classifier, store,
		WithStrict(cfg.Strict),
		WithClock(cfg.Now),
		WithLogger(cfg.Logger.With("component", "adjuster")),
	)

	return &Pipeline{
		store:       store,
		agg:         agg,
		scorer:      scorer,
		classifier:  classifier,
		adjuster:    adjuster,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger.With("component", "pipeline"),
	}, nil
}

// Aggregator returns the pipeline's rolling-window aggregator.
func (p *Pipeline) Aggregator() *Aggregator { return p.agg }

// Scorer returns the pipeline's readiness scorer.
func (p *Pipeline) Scorer() *Scorer { return p.scorer }

// Classifier returns the pipeline's load classifier.
func (p *Pipeline) Classifier() *Classifier { return p.classifier }

// Adjuster returns the pipeline's adjustment engine.
func (p *Pipeline) Adjuster() *Adjuster { return p.adjuster }

// Run scores and classifies the athlete for date, persists both snapshots
// and evaluates the next planned session on or after date.
func (p *Pipeline) Run(ctx context.Context, athleteID string, date time.Time) (*Result, error) {
	date = models.Day(date)
	res := &Result{AthleteID: athleteID, Date: date}

	readiness, err := p.scorer.Score(ctx, athleteID, date)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveReadiness(ctx, readiness); err != nil {
		return nil, fmt.Errorf("save readiness: %w", err)
	}
	res.Readiness = readiness

	load, err := p.classifier.Classify(ctx, athleteID, date)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveLoad(ctx, load); err != nil {
		return nil, fmt.Errorf("save load: %w", err)
	}
	res.Load = load

	session, err := p.store.GetNextPlannedSession(ctx, athleteID, date)
	if errors.Is(err, storage.ErrNoPlannedSession) {
		p.logger.Debug("nothing scheduled", "athlete_id", athleteID, "date", date.Format(models.DateLayout))
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next planned session: %w", err)
	}
	res.Session = session

	adj, err := p.adjuster.Apply(ctx, readiness, load, *session)
	if err != nil {
		return nil, err
	}
	res.Adjustment = adj
	return res, nil
}

// RunBatch runs the pipeline for each athlete in parallel. Results are in
// athlete order; a failed athlete leaves a nil result and its error is
// joined into the returned error without stopping the others.
func (p *Pipeline) RunBatch(ctx context.Context, athleteIDs []string, date time.Time) ([]*Result, error) {
	results := make([]*Result, len(athleteIDs))
	errs := make([]error, len(athleteIDs))

	sem := semaphore.NewWeighted(int64(p.concurrency))
	var wg sync.WaitGroup
	for i, id := range athleteIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("athlete %s: %w", id, err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			res, err := p.Run(ctx, id, date)
			if err != nil {
				p.logger.Error("pipeline failed", "athlete_id", id, "error", err)
				errs[i] = fmt.Errorf("athlete %s: %w", id, err)
				return
			}
			results[i] = res
		}()
	}
	wg.Wait()

	return results, errors.Join(errs...)
}
