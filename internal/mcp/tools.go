// ABOUTME: MCP tool implementations for the readiness engine.
// ABOUTME: Provides metric entry, dashboard reads, evaluation and sync status.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

func (s *Server) registerTools() {
	// add_metric
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_metric",
		Description: "Record a daily metric sample for an athlete (hrv, sleep_minutes, soreness, jump_height, resting_hr, training_load)",
	}, s.handleAddMetric)

	// list_metrics
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_metrics",
		Description: "List recent metric samples for an athlete, optionally filtered by type",
	}, s.handleListMetrics)

	// get_readiness
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_readiness",
		Description: "Get an athlete's readiness score and band for a day",
	}, s.handleGetReadiness)

	// get_load
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_load",
		Description: "Get an athlete's acute:chronic workload ratio and risk band for a day",
	}, s.handleGetLoad)

	// trend
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "trend",
		Description: "Get 7, 28, 30 and 90 day averages for a metric",
	}, s.handleTrend)

	// plan_session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "plan_session",
		Description: "Schedule a planned training session with one or more exercises",
	}, s.handlePlanSession)

	// run_pipeline
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_pipeline",
		Description: "Score, classify and evaluate the next planned session for an athlete",
	}, s.handleRunPipeline)

	// evaluate_session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "evaluate_session",
		Description: "Evaluate a planned session against today's readiness and load, recording any adjustment",
	}, s.handleEvaluateSession)

	// list_adjustments
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_adjustments",
		Description: "List the adjustment history for a session, newest first",
	}, s.handleListAdjustments)

	// current_adjustment
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "current_adjustment",
		Description: "Get the current effective adjustment for a session",
	}, s.handleCurrentAdjustment)

	// sync_status
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_status",
		Description: "Show the offline set queue state",
	}, s.handleSyncStatus)
}

// Tool input/output types

type addMetricInput struct {
	AthleteID  string  `json:"athlete_id" jsonschema:"Athlete identifier"`
	MetricType string  `json:"metric_type" jsonschema:"Type of metric"`
	Value      float64 `json:"value" jsonschema:"The metric value"`
	Date       string  `json:"date,omitempty" jsonschema:"Day (YYYY-MM-DD), defaults to today"`
}

type metricOutput struct {
	AthleteID  string  `json:"athlete_id"`
	MetricType string  `json:"metric_type"`
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Message    string  `json:"message"`
}

type listMetricsInput struct {
	AthleteID  string `json:"athlete_id" jsonschema:"Athlete identifier"`
	MetricType string `json:"metric_type,omitempty" jsonschema:"Filter by metric type"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type athleteDayInput struct {
	AthleteID string `json:"athlete_id" jsonschema:"Athlete identifier"`
	Date      string `json:"date,omitempty" jsonschema:"Day (YYYY-MM-DD), defaults to today"`
}

type readinessOutput struct {
	AthleteID  string             `json:"athlete_id"`
	Date       string             `json:"date"`
	Score      *float64           `json:"score"`
	Band       string             `json:"band"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights"`
	Source     string             `json:"source"`
}

func toReadinessOutput(r models.ReadinessScore, source string) readinessOutput {
	out := readinessOutput{
		AthleteID:  r.AthleteID,
		Date:       r.Date.Format(models.DateLayout),
		Score:      r.Score,
		Band:       string(r.Band),
		Components: make(map[string]float64, len(r.Components)),
		Weights:    make(map[string]float64, len(r.Weights)),
		Source:     source,
	}
	for mt, v := range r.Components {
		out.Components[string(mt)] = v
	}
	for mt, v := range r.Weights {
		out.Weights[string(mt)] = v
	}
	return out
}

type loadOutput struct {
	AthleteID    string   `json:"athlete_id"`
	Date         string   `json:"date"`
	DailyLoad    *float64 `json:"daily_load"`
	Acute7d      *float64 `json:"acute_7d"`
	Chronic28d   *float64 `json:"chronic_28d"`
	ACWR         *float64 `json:"acwr"`
	Band         string   `json:"band"`
	UnderTrained bool     `json:"under_trained"`
	Source       string   `json:"source"`
}

func toLoadOutput(l models.LoadRecord, source string) loadOutput {
	return loadOutput{
		AthleteID:    l.AthleteID,
		Date:         l.Date.Format(models.DateLayout),
		DailyLoad:    l.DailyLoad,
		Acute7d:      l.Acute7d,
		Chronic28d:   l.Chronic28,
		ACWR:         l.ACWR,
		Band:         string(l.Band),
		UnderTrained: l.UnderTrained(),
		Source:       source,
	}
}

type trendInput struct {
	AthleteID  string `json:"athlete_id" jsonschema:"Athlete identifier"`
	MetricType string `json:"metric_type" jsonschema:"Metric to summarize"`
	Date       string `json:"date,omitempty" jsonschema:"As-of day (YYYY-MM-DD), defaults to today"`
}

type windowOutput struct {
	WindowDays int      `json:"window_days"`
	Average    *float64 `json:"average"`
	Samples    int      `json:"samples"`
}

type trendOutput struct {
	AthleteID  string         `json:"athlete_id"`
	MetricType string         `json:"metric_type"`
	AsOf       string         `json:"as_of"`
	Windows    []windowOutput `json:"windows"`
}

type exerciseInput struct {
	Name   string  `json:"name" jsonschema:"Exercise name"`
	Sets   int     `json:"sets" jsonschema:"Prescribed sets"`
	Reps   int     `json:"reps" jsonschema:"Reps per set"`
	Weight float64 `json:"weight" jsonschema:"Prescribed weight"`
	Volume float64 `json:"volume,omitempty" jsonschema:"Optional volume target"`
}

type planSessionInput struct {
	AthleteID string          `json:"athlete_id" jsonschema:"Athlete identifier"`
	Date      string          `json:"date,omitempty" jsonschema:"Scheduled day (YYYY-MM-DD), defaults to today"`
	Exercises []exerciseInput `json:"exercises" jsonschema:"Exercises in the session"`
	Notes     string          `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type planSessionOutput struct {
	ID           string `json:"id"`
	ScheduledFor string `json:"scheduled_for"`
	Exercises    int    `json:"exercises"`
	Message      string `json:"message"`
}

type evaluateSessionInput struct {
	AthleteID string `json:"athlete_id,omitempty" jsonschema:"Athlete identifier, defaults to the session's athlete"`
	SessionID string `json:"session_id" jsonschema:"Planned session ID"`
}

type adjustmentOutput struct {
	Adjusted  bool                     `json:"adjusted"`
	ID        string                   `json:"id,omitempty"`
	SessionID string                   `json:"session_id,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
	Factor    float64                  `json:"adjustment_factor,omitempty"`
	Original  []models.PlannedExercise `json:"original,omitempty"`
	Exercises []models.PlannedExercise `json:"exercises,omitempty"`
	CreatedAt string                   `json:"created_at,omitempty"`
	Message   string                   `json:"message"`
}

func toAdjustmentOutput(a *models.ProgramAdjustment, message string) adjustmentOutput {
	return adjustmentOutput{
		Adjusted:  true,
		ID:        a.ID.String(),
		SessionID: a.SessionID,
		Reason:    string(a.Reason),
		Factor:    a.Factor,
		Original:  a.OldPayload.Exercises,
		Exercises: a.NewPayload.Exercises,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		Message:   message,
	}
}

type syncOutput struct {
	IsOnline     bool   `json:"is_online"`
	IsSyncing    bool   `json:"is_syncing"`
	PendingCount int    `json:"pending_count"`
	Failures     int    `json:"failures"`
	LastFlushAt  string `json:"last_flush_at,omitempty"`
	LastUploaded int    `json:"last_uploaded"`
	LastFailed   int    `json:"last_failed"`
	LastAborted  bool   `json:"last_aborted"`
}

func toSyncOutput(st models.SyncState) syncOutput {
	out := syncOutput{
		IsOnline:     st.IsOnline,
		IsSyncing:    st.IsSyncing,
		PendingCount: st.PendingCount,
		Failures:     st.Failures,
	}
	if f := st.LastFlush; f != nil {
		out.LastFlushAt = f.FinishedAt.Format(time.RFC3339)
		out.LastUploaded = f.Uploaded
		out.LastFailed = f.Failed
		out.LastAborted = f.Aborted
	}
	return out
}

type sessionInput struct {
	SessionID string `json:"session_id" jsonschema:"Planned session ID"`
}

type emptyInput struct{}

// Tool handlers

func (s *Server) handleAddMetric(ctx context.Context, req *mcp.CallToolRequest, input addMetricInput) (*mcp.CallToolResult, metricOutput, error) {
	if input.AthleteID == "" {
		return nil, metricOutput{}, fmt.Errorf("athlete_id is required")
	}
	if !models.IsValidMetricType(input.MetricType) {
		return nil, metricOutput{}, fmt.Errorf("unknown metric type: %s", input.MetricType)
	}
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, metricOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	m := models.NewMetricSample(input.AthleteID, models.MetricType(input.MetricType), input.Value).WithDate(date)
	if err := s.repo.UpsertMetric(ctx, m); err != nil {
		return nil, metricOutput{}, fmt.Errorf("failed to record metric: %w", err)
	}

	day := m.Date.Format(models.DateLayout)
	return nil, metricOutput{
		AthleteID:  m.AthleteID,
		MetricType: input.MetricType,
		Date:       day,
		Value:      m.Value,
		Unit:       m.Unit(),
		Message:    fmt.Sprintf("Recorded %s for %s on %s: %.2f %s", input.MetricType, m.AthleteID, day, m.Value, m.Unit()),
	}, nil
}

func (s *Server) handleListMetrics(ctx context.Context, req *mcp.CallToolRequest, input listMetricsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	var metricType *models.MetricType
	if input.MetricType != "" {
		mt := models.MetricType(input.MetricType)
		metricType = &mt
	}

	samples, err := s.repo.ListMetrics(ctx, input.AthleteID, metricType, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	if len(samples) == 0 {
		return nil, map[string]interface{}{"message": "No metrics found."}, nil
	}

	return nil, samples, nil
}

// handleGetReadiness returns the stored snapshot, computing it live when
// the pipeline has not run for that day yet.
func (s *Server) handleGetReadiness(ctx context.Context, req *mcp.CallToolRequest, input athleteDayInput) (*mcp.CallToolResult, readinessOutput, error) {
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, readinessOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	stored, err := s.repo.GetReadiness(ctx, input.AthleteID, date)
	if err == nil {
		return nil, toReadinessOutput(*stored, "stored"), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, readinessOutput{}, fmt.Errorf("failed to get readiness: %w", err)
	}

	live, err := s.pipeline.Scorer().Score(ctx, input.AthleteID, date)
	if err != nil {
		return nil, readinessOutput{}, fmt.Errorf("failed to score readiness: %w", err)
	}
	return nil, toReadinessOutput(live, "computed"), nil
}

func (s *Server) handleGetLoad(ctx context.Context, req *mcp.CallToolRequest, input athleteDayInput) (*mcp.CallToolResult, loadOutput, error) {
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, loadOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	stored, err := s.repo.GetLoad(ctx, input.AthleteID, date)
	if err == nil {
		return nil, toLoadOutput(*stored, "stored"), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, loadOutput{}, fmt.Errorf("failed to get load: %w", err)
	}

	live, err := s.pipeline.Classifier().Classify(ctx, input.AthleteID, date)
	if err != nil {
		return nil, loadOutput{}, fmt.Errorf("failed to classify load: %w", err)
	}
	return nil, toLoadOutput(live, "computed"), nil
}

func (s *Server) handleTrend(ctx context.Context, req *mcp.CallToolRequest, input trendInput) (*mcp.CallToolResult, trendOutput, error) {
	if !models.IsValidMetricType(input.MetricType) {
		return nil, trendOutput{}, fmt.Errorf("unknown metric type: %s", input.MetricType)
	}
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, trendOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	windows, err := s.pipeline.Aggregator().Trend(ctx, input.AthleteID, models.MetricType(input.MetricType), date)
	if err != nil {
		return nil, trendOutput{}, fmt.Errorf("failed to compute trend: %w", err)
	}
	out := trendOutput{
		AthleteID:  input.AthleteID,
		MetricType: input.MetricType,
		AsOf:       date.Format(models.DateLayout),
	}
	for _, w := range windows {
		out.Windows = append(out.Windows, windowOutput{
			WindowDays: w.WindowDays,
			Average:    w.Average,
			Samples:    w.Samples,
		})
	}
	return nil, out, nil
}

func (s *Server) handlePlanSession(ctx context.Context, req *mcp.CallToolRequest, input planSessionInput) (*mcp.CallToolResult, planSessionOutput, error) {
	if input.AthleteID == "" {
		return nil, planSessionOutput{}, fmt.Errorf("athlete_id is required")
	}
	if len(input.Exercises) == 0 {
		return nil, planSessionOutput{}, fmt.Errorf("at least one exercise is required")
	}
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, planSessionOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	session := models.NewPlannedSession(input.AthleteID, date)
	for _, e := range input.Exercises {
		if e.Name == "" {
			return nil, planSessionOutput{}, fmt.Errorf("exercise name is required")
		}
		session.WithExercise(models.PlannedExercise{
			Name:   e.Name,
			Sets:   e.Sets,
			Reps:   e.Reps,
			Weight: e.Weight,
			Volume: e.Volume,
		})
	}
	if input.Notes != "" {
		session.WithNotes(input.Notes)
	}

	if err := s.repo.SavePlannedSession(ctx, session); err != nil {
		return nil, planSessionOutput{}, fmt.Errorf("failed to save session: %w", err)
	}

	day := date.Format(models.DateLayout)
	return nil, planSessionOutput{
		ID:           session.ID,
		ScheduledFor: day,
		Exercises:    len(session.Exercises),
		Message:      fmt.Sprintf("Planned session %s for %s on %s", session.ID[:8], input.AthleteID, day),
	}, nil
}

func (s *Server) handleRunPipeline(ctx context.Context, req *mcp.CallToolRequest, input athleteDayInput) (*mcp.CallToolResult, any, error) {
	if input.AthleteID == "" {
		return nil, nil, fmt.Errorf("athlete_id is required")
	}
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	res, err := s.pipeline.Run(ctx, input.AthleteID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline failed: %w", err)
	}
	return nil, res, nil
}

func (s *Server) handleEvaluateSession(ctx context.Context, req *mcp.CallToolRequest, input evaluateSessionInput) (*mcp.CallToolResult, adjustmentOutput, error) {
	planned, err := s.repo.GetPlannedSession(ctx, input.SessionID)
	if err != nil {
		return nil, adjustmentOutput{}, fmt.Errorf("session not found: %s", input.SessionID)
	}
	athleteID := input.AthleteID
	if athleteID == "" {
		athleteID = planned.AthleteID
	}

	adj, err := s.pipeline.Adjuster().Evaluate(ctx, athleteID, planned.ID, *planned)
	if err != nil {
		return nil, adjustmentOutput{}, fmt.Errorf("evaluation failed: %w", err)
	}
	if adj == nil {
		return nil, adjustmentOutput{Message: "No adjustment: session proceeds as planned."}, nil
	}
	return nil, toAdjustmentOutput(adj, fmt.Sprintf("Adjusted session %s: %s (x%.2f)", planned.ID, adj.Reason, adj.Factor)), nil
}

func (s *Server) handleListAdjustments(ctx context.Context, req *mcp.CallToolRequest, input sessionInput) (*mcp.CallToolResult, any, error) {
	adjustments, err := s.repo.ListAdjustments(ctx, input.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	if len(adjustments) == 0 {
		return nil, map[string]interface{}{"message": "No adjustments found."}, nil
	}
	return nil, adjustments, nil
}

func (s *Server) handleCurrentAdjustment(ctx context.Context, req *mcp.CallToolRequest, input sessionInput) (*mcp.CallToolResult, adjustmentOutput, error) {
	adj, err := s.repo.CurrentAdjustment(ctx, input.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, adjustmentOutput{Message: "No adjustment recorded: session runs as planned."}, nil
	}
	if err != nil {
		return nil, adjustmentOutput{}, fmt.Errorf("failed to get adjustment: %w", err)
	}
	return nil, toAdjustmentOutput(adj, fmt.Sprintf("Current adjustment: %s (x%.2f)", adj.Reason, adj.Factor)), nil
}

func (s *Server) handleSyncStatus(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, syncOutput, error) {
	if s.queue == nil {
		return nil, syncOutput{}, fmt.Errorf("no set queue attached to this server")
	}
	return nil, toSyncOutput(s.queue.State()), nil
}
