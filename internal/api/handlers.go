// ABOUTME: HTTP handlers for the readiness API.
// ABOUTME: Replayed set submissions are acknowledged without a second write.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
	"github.com/harperreed/readiness/internal/syncqueue"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitSet(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(syncqueue.HeaderIdempotencyKey))
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing "+syncqueue.HeaderIdempotencyKey+" header")
		return
	}

	var e models.PendingSetEntry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid set body: "+err.Error())
		return
	}
	if e.SessionID == "" || e.Exercise == "" {
		writeError(w, http.StatusBadRequest, "session_id and exercise are required")
		return
	}
	if e.Reps <= 0 || e.Weight < 0 {
		writeError(w, http.StatusBadRequest, "reps must be positive and weight non-negative")
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	deviceID := r.Header.Get(syncqueue.HeaderDeviceID)
	duplicate, err := s.store.SubmitSet(r.Context(), key, deviceID, e)
	if err != nil {
		s.logger.Error("submit set", "idempotency_key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "could not record set")
		return
	}

	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
		s.logger.Debug("replayed set", "idempotency_key", key, "device_id", deviceID)
	}
	writeJSON(w, status, models.SetAck{IdempotencyKey: key, Duplicate: duplicate})
}

func (s *Server) handleGetReadiness(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	date, err := models.ParseDay(vars["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	score, err := s.store.GetReadiness(r.Context(), vars["athlete"], date)
	if s.handleLookupError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleGetLoad(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	date, err := models.ParseDay(vars["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rec, err := s.store.GetLoad(r.Context(), vars["athlete"], date)
	if s.handleLookupError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments, err := s.store.ListAdjustments(r.Context(), mux.Vars(r)["session"])
	if s.handleLookupError(w, err) {
		return
	}
	if adjustments == nil {
		adjustments = []*models.ProgramAdjustment{}
	}
	writeJSON(w, http.StatusOK, adjustments)
}

func (s *Server) handleCurrentAdjustment(w http.ResponseWriter, r *http.Request) {
	adj, err := s.store.CurrentAdjustment(r.Context(), mux.Vars(r)["session"])
	if s.handleLookupError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

// handleLookupError writes a response for err and reports whether it did.
func (s *Server) handleLookupError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return true
	}
	s.logger.Error("lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
	return true
}
