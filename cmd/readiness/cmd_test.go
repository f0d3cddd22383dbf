// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs commands against temp XDG directories and checks stored state.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/readiness/internal/api"
	"github.com/harperreed/readiness/internal/config"
	"github.com/harperreed/readiness/internal/engine"
	"github.com/harperreed/readiness/internal/logging"
	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
	"github.com/harperreed/readiness/internal/syncqueue"
)

func TestParseExercise(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.PlannedExercise
		wantErr bool
	}{
		{
			name:  "sets reps weight",
			input: "squat:5x5@100",
			want:  models.PlannedExercise{Name: "squat", Sets: 5, Reps: 5, Weight: 100},
		},
		{
			name:  "with volume",
			input: "row:3x10@60.5/1800",
			want:  models.PlannedExercise{Name: "row", Sets: 3, Reps: 10, Weight: 60.5, Volume: 1800},
		},
		{
			name:  "bodyweight",
			input: "pullup:3x8@0",
			want:  models.PlannedExercise{Name: "pullup", Sets: 3, Reps: 8},
		},
		{name: "missing name", input: ":5x5@100", wantErr: true},
		{name: "missing weight", input: "squat:5x5", wantErr: true},
		{name: "missing reps", input: "squat:5@100", wantErr: true},
		{name: "zero sets", input: "squat:0x5@100", wantErr: true},
		{name: "negative weight", input: "squat:5x5@-10", wantErr: true},
		{name: "bad volume", input: "squat:5x5@100/lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExercise(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseExercise(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseExercise(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseExercise(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-02")
	if err != nil {
		t.Fatalf("parseDate failed: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseDate = %v", got)
	}

	today, err := parseDate("")
	if err != nil {
		t.Fatalf("parseDate(\"\") failed: %v", err)
	}
	if !today.Equal(models.Day(time.Now())) {
		t.Errorf("parseDate(\"\") = %v, want today", today)
	}

	if _, err := parseDate("03/02/2026"); err == nil {
		t.Error("Expected error for non ISO date")
	}
}

func TestEveryBandHasAColor(t *testing.T) {
	bands := []string{
		string(models.ReadinessHigh), string(models.ReadinessModerate),
		string(models.ReadinessLow), string(models.ReadinessNoData),
		string(models.LoadOptimal), string(models.LoadCaution),
		string(models.LoadDanger), string(models.LoadInsufficientData),
	}
	for _, b := range bands {
		if _, ok := bandColors[b]; !ok {
			t.Errorf("No colour for band %q", b)
		}
		if !strings.Contains(colorBand(b), b) {
			t.Errorf("colorBand(%q) dropped the band name", b)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("squat, bench, deadlift", 10); got != "squat, ..." {
		t.Errorf("truncate = %q, want %q", got, "squat, ...")
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("hrv", 6); got != "hrv   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("training_load", 4); got != "training_load" {
		t.Errorf("padRight = %q", got)
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	if rootCmd.Use != "readiness" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "readiness")
	}

	want := []string{
		"metric", "score", "load", "trend", "session", "run", "evaluate",
		"adjustments", "set", "sync", "serve", "mcp", "schedule", "export",
		"config", "install-skill",
	}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %q subcommand", name)
		}
	}

	if rootCmd.PersistentFlags().Lookup("log-level") == nil {
		t.Error("Expected --log-level persistent flag")
	}
}

func TestMetricListCmdFlags(t *testing.T) {
	limitFlag := metricListCmd.Flags().Lookup("limit")
	if limitFlag == nil {
		t.Fatal("Expected --limit flag on metric list command")
	}
	if limitFlag.DefValue != "20" {
		t.Errorf("Expected default limit 20, got %s", limitFlag.DefValue)
	}
}

// resetFlags restores every command flag variable between executions.
func resetFlags() {
	logLevelFlag, dataDirFlag = "", ""
	metricAthlete, metricDate, metricType, metricLimit = "", "", "", 20
	readAthlete, readDate = "", ""
	sessionAthlete, sessionDate, sessionExercises, sessionNotes, sessionLimit = "", "", nil, "", 20
	runAthlete, runDate, runAll = "", "", false
	evaluateAthlete, adjustmentsCurrent = "", false
	setRPE, setTempo, setVelocity, setOffline = 0, "", 0, false
	exportAthlete, exportOutput = "", ""
	scheduleSpec, scheduleNow = "", false
	cfg, repo = nil, nil
}

// setupTestCLI points config and data at a temp directory and returns the
// data directory the CLI will use.
func setupTestCLI(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	resetFlags()
	t.Cleanup(resetFlags)

	return filepath.Join(tmpDir, "data", "readiness")
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func openTestDB(t *testing.T, dataDir string) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(dataDir, "readiness.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedLowReadiness records samples that score 65 on date.
func seedLowReadiness(t *testing.T, db *storage.DB, athleteID string, date time.Time) {
	t.Helper()
	samples := map[models.MetricType]float64{
		models.MetricHRV:          40,
		models.MetricSleepMinutes: 450,
		models.MetricSoreness:     3,
		models.MetricJumpHeight:   55,
	}
	for mt, v := range samples {
		if err := db.UpsertMetric(context.Background(), models.NewMetricSample(athleteID, mt, v).WithDate(date)); err != nil {
			t.Fatalf("UpsertMetric failed: %v", err)
		}
	}
}

func seedSession(t *testing.T, db *storage.DB, athleteID string, date time.Time) *models.PlannedSession {
	t.Helper()
	s := models.NewPlannedSession(athleteID, date).
		WithExercise(models.PlannedExercise{Name: "squat", Sets: 5, Reps: 5, Weight: 100})
	if err := db.SavePlannedSession(context.Background(), s); err != nil {
		t.Fatalf("SavePlannedSession failed: %v", err)
	}
	return s
}

func TestMetricAddCmdWithDB(t *testing.T) {
	dataDir := setupTestCLI(t)

	if err := execute(t, "metric", "add", "hrv", "48", "-a", "ath-1", "--date", "2026-03-02"); err != nil {
		t.Fatalf("metric add failed: %v", err)
	}
	if err := execute(t, "metric", "add", "hrv", "51", "-a", "ath-1", "--date", "2026-03-02"); err != nil {
		t.Fatalf("metric add failed: %v", err)
	}

	db := openTestDB(t, dataDir)
	samples, err := db.ListMetrics(context.Background(), "ath-1", nil, 0)
	if err != nil {
		t.Fatalf("ListMetrics failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("Expected 1 sample after same-day replace, got %d", len(samples))
	}
	if samples[0].Value != 51 {
		t.Errorf("Expected value 51, got %f", samples[0].Value)
	}
}

func TestMetricAddCmdErrors(t *testing.T) {
	setupTestCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing athlete", []string{"metric", "add", "hrv", "48"}},
		{"invalid type", []string{"metric", "add", "weight", "80", "-a", "ath-1"}},
		{"invalid value", []string{"metric", "add", "hrv", "lots", "-a", "ath-1"}},
		{"invalid date", []string{"metric", "add", "hrv", "48", "-a", "ath-1", "--date", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	setupTestCLI(t)

	err := execute(t, "metric", "list", "-a", "ath-1", "--log-level", "loud")
	if err == nil {
		t.Fatal("Expected error for unknown log level")
	}
	if !strings.Contains(err.Error(), "log level") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestReadCmds(t *testing.T) {
	dataDir := setupTestCLI(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedLowReadiness(t, openTestDB(t, dataDir), "ath-1", date)

	for _, args := range [][]string{
		{"score", "-a", "ath-1", "--date", "2026-03-02"},
		{"load", "-a", "ath-1", "--date", "2026-03-02"},
		{"trend", "hrv", "-a", "ath-1", "--date", "2026-03-02"},
		{"metric", "list", "-a", "ath-1"},
	} {
		if err := execute(t, args...); err != nil {
			t.Errorf("%v failed: %v", args, err)
		}
	}

	if err := execute(t, "score"); err == nil {
		t.Error("Expected error without --athlete")
	}
	if err := execute(t, "trend", "mood", "-a", "ath-1"); err == nil {
		t.Error("Expected error for unknown metric type")
	}
}

func TestSessionAddCmd(t *testing.T) {
	dataDir := setupTestCLI(t)

	err := execute(t, "session", "add", "-a", "ath-1", "--date", "2026-03-03",
		"-e", "bench:4x8@70", "-e", "row:3x10@60/1800", "--notes", "upper")
	if err != nil {
		t.Fatalf("session add failed: %v", err)
	}

	db := openTestDB(t, dataDir)
	sessions, err := db.ListPlannedSessions(context.Background(), "ath-1", 0)
	if err != nil {
		t.Fatalf("ListPlannedSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if len(s.Exercises) != 2 || s.Exercises[1].Volume != 1800 {
		t.Errorf("Unexpected exercises: %+v", s.Exercises)
	}
	if s.Notes == nil || *s.Notes != "upper" {
		t.Errorf("Expected notes to be saved, got %v", s.Notes)
	}

	if err := execute(t, "session", "show", s.ID); err != nil {
		t.Errorf("session show failed: %v", err)
	}
}

func TestSessionAddCmdRequiresExercise(t *testing.T) {
	setupTestCLI(t)
	if err := execute(t, "session", "add", "-a", "ath-1"); err == nil {
		t.Error("Expected error without --exercise")
	}
}

func TestRunCmdAdjustsSession(t *testing.T) {
	dataDir := setupTestCLI(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	db := openTestDB(t, dataDir)
	seedLowReadiness(t, db, "ath-1", date)
	s := seedSession(t, db, "ath-1", date)

	if err := execute(t, "run", "-a", "ath-1", "--date", "2026-03-02"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	ctx := context.Background()
	adj, err := db.CurrentAdjustment(ctx, s.ID)
	if err != nil {
		t.Fatalf("CurrentAdjustment failed: %v", err)
	}
	if adj.Reason != models.ReasonLowReadiness {
		t.Errorf("Reason = %q, want low_readiness", adj.Reason)
	}
	if adj.NewPayload.Exercises[0].Weight != 80 {
		t.Errorf("Scaled weight = %v, want 80", adj.NewPayload.Exercises[0].Weight)
	}

	if _, err := db.GetReadiness(ctx, "ath-1", date); err != nil {
		t.Errorf("Expected stored readiness: %v", err)
	}
	if _, err := db.GetLoad(ctx, "ath-1", date); err != nil {
		t.Errorf("Expected stored load: %v", err)
	}

	if err := execute(t, "adjustments", s.ID); err != nil {
		t.Errorf("adjustments failed: %v", err)
	}
	if err := execute(t, "adjustments", s.ID, "--current"); err != nil {
		t.Errorf("adjustments --current failed: %v", err)
	}
}

func TestRunCmdAll(t *testing.T) {
	dataDir := setupTestCLI(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	db := openTestDB(t, dataDir)
	seedLowReadiness(t, db, "ath-1", date)
	seedLowReadiness(t, db, "ath-2", date)

	if err := execute(t, "run", "--all", "--date", "2026-03-02"); err != nil {
		t.Fatalf("run --all failed: %v", err)
	}

	for _, id := range []string{"ath-1", "ath-2"} {
		if _, err := db.GetReadiness(context.Background(), id, date); err != nil {
			t.Errorf("Expected stored readiness for %s: %v", id, err)
		}
	}
}

func TestRunCmdRequiresTarget(t *testing.T) {
	setupTestCLI(t)
	if err := execute(t, "run"); err == nil {
		t.Error("Expected error without --athlete or --all")
	}
}

func TestEvaluateCmd(t *testing.T) {
	dataDir := setupTestCLI(t)
	today := models.Day(time.Now())
	db := openTestDB(t, dataDir)
	seedLowReadiness(t, db, "ath-1", today)
	s := seedSession(t, db, "ath-1", today)

	for i := 0; i < 2; i++ {
		if err := execute(t, "evaluate", s.ID); err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
	}

	history, err := db.ListAdjustments(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("ListAdjustments failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 audit rows, got %d", len(history))
	}
	for _, a := range history {
		if a.Factor != 0.8 {
			t.Errorf("Factor = %v, want 0.8", a.Factor)
		}
	}

	if err := execute(t, "evaluate", "missing"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestExportCmd(t *testing.T) {
	dataDir := setupTestCLI(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedLowReadiness(t, openTestDB(t, dataDir), "ath-1", date)

	out := filepath.Join(t.TempDir(), "ath-1.json")
	if err := execute(t, "export", "json", "-a", "ath-1", "-o", out); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	var export storage.ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("Invalid JSON export: %v", err)
	}
	if export.AthleteID != "ath-1" || len(export.Metrics) != 4 {
		t.Errorf("Unexpected export: athlete=%q metrics=%d", export.AthleteID, len(export.Metrics))
	}

	if err := execute(t, "export", "csv", "-a", "ath-1"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestConfigInitCmd(t *testing.T) {
	setupTestCLI(t)

	if err := execute(t, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	loaded, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.DeviceID) != 26 {
		t.Errorf("Expected ULID device id, got %q", loaded.DeviceID)
	}
	first := loaded.DeviceID

	if err := execute(t, "config", "init"); err != nil {
		t.Fatalf("second config init failed: %v", err)
	}
	loaded, _ = config.Load()
	if loaded.DeviceID != first {
		t.Errorf("Device id changed from %q to %q", first, loaded.DeviceID)
	}
}

func TestSetLogOfflineIsQueued(t *testing.T) {
	dataDir := setupTestCLI(t)

	if err := execute(t, "set", "log", "sess-1", "squat", "100", "5", "--offline"); err != nil {
		t.Fatalf("set log failed: %v", err)
	}

	store, err := syncqueue.OpenBadger(filepath.Join(dataDir, "queue"))
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	defer store.Close()

	entries, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 pending entry, got %d", len(entries))
	}
	if entries[0].SessionID != "sess-1" || entries[0].Weight != 100 || entries[0].Reps != 5 {
		t.Errorf("Unexpected entry: %+v", entries[0])
	}
}

func TestSetLogUploadsWhenOnline(t *testing.T) {
	dataDir := setupTestCLI(t)

	serverDB, err := storage.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("Failed to open server database: %v", err)
	}
	defer serverDB.Close()
	ts := httptest.NewServer(api.NewServer(serverDB, logging.Discard()).Handler(nil))
	defer ts.Close()

	if err := (&config.Config{ServerURL: ts.URL}).Save(); err != nil {
		t.Fatalf("Save config failed: %v", err)
	}

	if err := execute(t, "set", "log", "sess-1", "squat", "100", "5"); err != nil {
		t.Fatalf("set log failed: %v", err)
	}

	logged, err := serverDB.ListLoggedSets(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ListLoggedSets failed: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("Expected 1 logged set on the server, got %d", len(logged))
	}

	loaded, _ := config.Load()
	if logged[0].DeviceID != loaded.DeviceID {
		t.Errorf("DeviceID = %q, want %q", logged[0].DeviceID, loaded.DeviceID)
	}

	store, err := syncqueue.OpenBadger(filepath.Join(dataDir, "queue"))
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	defer store.Close()
	entries, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty local queue after upload, got %d", len(entries))
	}
}

func TestRunDailyBatch(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	db := openTestDB(t, t.TempDir())
	seedLowReadiness(t, db, "ath-1", date)
	seedSession(t, db, "ath-1", date)
	seedLowReadiness(t, db, "ath-2", date)

	p, err := engine.NewPipeline(db, engine.PipelineConfig{})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	if got := runDailyBatch(context.Background(), db, p, date, logging.Discard()); got != 1 {
		t.Errorf("runDailyBatch adjusted %d sessions, want 1", got)
	}
}

func TestDeviceQueueStartStop(t *testing.T) {
	dataDir := setupTestCLI(t)

	serverDB, err := storage.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("Failed to open server database: %v", err)
	}
	defer serverDB.Close()
	ts := httptest.NewServer(api.NewServer(serverDB, logging.Discard()).Handler(nil))
	defer ts.Close()

	cfg = &config.Config{ServerURL: ts.URL}
	logger = logging.Discard()
	ctx := context.Background()

	dq, err := openDeviceQueue(ctx)
	if err != nil {
		t.Fatalf("openDeviceQueue failed: %v", err)
	}
	if err := dq.queue.Capture(ctx, *models.NewPendingSetEntry("sess-1", "squat", 100, 5)); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	stop := dq.start(ctx)
	deadline := time.Now().Add(5 * time.Second)
	for dq.queue.State().PendingCount != 0 {
		if time.Now().After(deadline) {
			stop()
			t.Fatal("queue did not drain after coming online")
		}
		time.Sleep(10 * time.Millisecond)
	}
	stop()

	// Badger holds a directory lock until the store is closed.
	store, err := syncqueue.OpenBadger(filepath.Join(dataDir, "queue"))
	if err != nil {
		t.Fatalf("queue store still open after stop: %v", err)
	}
	defer store.Close()

	logged, err := serverDB.ListLoggedSets(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListLoggedSets failed: %v", err)
	}
	if len(logged) != 1 {
		t.Errorf("Expected 1 logged set on the server, got %d", len(logged))
	}
}
