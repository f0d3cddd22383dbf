// ABOUTME: Tests for the HTTP API against a real SQLite store.
// ABOUTME: Includes an end-to-end replay through the sync queue client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
	"github.com/harperreed/readiness/internal/syncqueue"
)

func setupServer(t *testing.T) (*storage.DB, *httptest.Server) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "readiness.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(NewServer(db, nil).Handler(nil))
	t.Cleanup(srv.Close)
	return db, srv
}

func postSet(t *testing.T, url, key string, e models.PendingSetEntry) *http.Response {
	t.Helper()
	body, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url+"/v1/sets", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if key != "" {
		req.Header.Set(syncqueue.HeaderIdempotencyKey, key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	_, srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSubmitSetReplayIsIdempotent(t *testing.T) {
	db, srv := setupServer(t)
	e := *models.NewPendingSetEntry("sess-1", "bench", 80, 8)

	first := postSet(t, srv.URL, e.LocalID, e)
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first submit status = %d, want 201", first.StatusCode)
	}
	second := postSet(t, srv.URL, e.LocalID, e)
	if second.StatusCode != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", second.StatusCode)
	}

	var ack models.SetAck
	if err := json.NewDecoder(second.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Duplicate || ack.IdempotencyKey != e.LocalID {
		t.Errorf("ack = %+v, want duplicate for %s", ack, e.LocalID)
	}

	sets, err := db.ListLoggedSets(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ListLoggedSets failed: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("expected exactly one recorded set, got %d", len(sets))
	}
}

func TestSubmitSetValidation(t *testing.T) {
	_, srv := setupServer(t)
	valid := *models.NewPendingSetEntry("sess-1", "bench", 80, 8)

	noSession := valid
	noSession.SessionID = ""
	zeroReps := valid
	zeroReps.Reps = 0

	tests := []struct {
		name  string
		key   string
		entry models.PendingSetEntry
	}{
		{"missing key", "", valid},
		{"missing session", "k-1", noSession},
		{"zero reps", "k-2", zeroReps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postSet(t, srv.URL, tt.key, tt.entry)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestGetReadiness(t *testing.T) {
	db, srv := setupServer(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	score := 65.0
	if err := db.SaveReadiness(ctx, models.NewReadinessScore("ath-1", date, &score)); err != nil {
		t.Fatalf("SaveReadiness failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/v1/athletes/ath-1/readiness/2025-03-10")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got models.ReadinessScore
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Band != models.ReadinessLow || got.Score == nil || *got.Score != 65 {
		t.Errorf("got %+v", got)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/athletes/ath-1/readiness/2025-03-11", http.StatusNotFound},
		{"/v1/athletes/ath-1/readiness/yesterday", http.StatusBadRequest},
		{"/v1/athletes/ath-1/load/2025-03-10", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.status {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.status)
		}
	}
}

func TestGetLoadInsufficientData(t *testing.T) {
	db, srv := setupServer(t)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	acute := 400.0
	if err := db.SaveLoad(context.Background(), models.NewLoadRecord("ath-1", date, nil, &acute, nil)); err != nil {
		t.Fatalf("SaveLoad failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/v1/athletes/ath-1/load/2025-03-10")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var got models.LoadRecord
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Band != models.LoadInsufficientData || got.ACWR != nil {
		t.Errorf("got band %s acwr %v, want insufficient_data and no ratio", got.Band, got.ACWR)
	}
}

func TestAdjustmentRoutes(t *testing.T) {
	db, srv := setupServer(t)
	ctx := context.Background()

	planned := models.NewPlannedSession("ath-1", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)).
		WithExercise(models.PlannedExercise{Name: "squat", Sets: 5, Reps: 5, Weight: 140})
	older := models.NewProgramAdjustment(*planned, models.ReasonOverStrain, 0.85)
	older.CreatedAt = time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	newer := models.NewProgramAdjustment(*planned, models.ReasonLowReadiness, 0.8)
	newer.CreatedAt = time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC)
	for _, a := range []*models.ProgramAdjustment{older, newer} {
		if err := db.AppendAdjustment(ctx, a); err != nil {
			t.Fatalf("AppendAdjustment failed: %v", err)
		}
	}

	resp, err := http.Get(srv.URL + "/v1/sessions/" + planned.ID + "/adjustments")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	var history []models.ProgramAdjustment
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 adjustments, got %d", len(history))
	}

	resp2, err := http.Get(srv.URL + "/v1/sessions/" + planned.ID + "/adjustments/current")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp2.Body.Close()
	var current models.ProgramAdjustment
	if err := json.NewDecoder(resp2.Body).Decode(&current); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if current.Reason != models.ReasonLowReadiness {
		t.Errorf("current reason = %s, want low_readiness (most recent)", current.Reason)
	}

	resp3, err := http.Get(srv.URL + "/v1/sessions/unknown/adjustments/current")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp3.StatusCode)
	}
}

func TestQueueReplayAgainstServer(t *testing.T) {
	db, srv := setupServer(t)
	ctx := context.Background()

	store, err := syncqueue.OpenBadger("", syncqueue.WithInMemory())
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	defer store.Close()

	endpoint := syncqueue.NewHTTPEndpoint(srv.URL, "device-1", nil)
	e := *models.NewPendingSetEntry("sess-9", "row", 60, 10)

	// Simulate an upload whose ack was lost: the server has the set but the
	// entry is still queued locally.
	if _, err := endpoint.Submit(ctx, e.LocalID, e); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	q, err := syncqueue.New(ctx, store, endpoint)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := q.Capture(ctx, e); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	q.SetOnline(true)
	res, _ := q.Flush(ctx)
	if res.Uploaded != 1 {
		t.Errorf("uploaded = %d, want 1", res.Uploaded)
	}
	if q.State().PendingCount != 0 {
		t.Errorf("pending = %d, want 0", q.State().PendingCount)
	}

	sets, err := db.ListLoggedSets(ctx, "sess-9")
	if err != nil {
		t.Fatalf("ListLoggedSets failed: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected one set server-side, got %d", len(sets))
	}
	if sets[0].DeviceID != "device-1" {
		t.Errorf("device = %q, want device-1", sets[0].DeviceID)
	}
}
