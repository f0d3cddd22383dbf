// ABOUTME: HTTP API for set submission and dashboard reads.
// ABOUTME: Routes are keyed exactly as the engine stores them: athlete and day, or session.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

// Store is the storage the API reads and writes.
type Store interface {
	SubmitSet(ctx context.Context, idempotencyKey, deviceID string, e models.PendingSetEntry) (bool, error)
	GetReadiness(ctx context.Context, athleteID string, date time.Time) (*models.ReadinessScore, error)
	GetLoad(ctx context.Context, athleteID string, date time.Time) (*models.LoadRecord, error)
	ListAdjustments(ctx context.Context, sessionID string) ([]*models.ProgramAdjustment, error)
	CurrentAdjustment(ctx context.Context, sessionID string) (*models.ProgramAdjustment, error)
}

var _ Store = (*storage.DB)(nil)

// Server serves the HTTP API.
type Server struct {
	store  Store
	logger *log.Logger
}

// NewServer creates an API server over store.
func NewServer(store Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{store: store, logger: logger}
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/sets", s.handleSubmitSet).Methods(http.MethodPost)
	r.HandleFunc("/v1/athletes/{athlete}/readiness/{date}", s.handleGetReadiness).Methods(http.MethodGet)
	r.HandleFunc("/v1/athletes/{athlete}/load/{date}", s.handleGetLoad).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{session}/adjustments", s.handleListAdjustments).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{session}/adjustments/current", s.handleCurrentAdjustment).Methods(http.MethodGet)

	return r
}

// Handler wraps the router with panic recovery and access logging to accessLog.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	var h http.Handler = s.Router()
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.logger}))(h)
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, accessLog io.Writer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(accessLog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// recoveryLogger adapts a charm logger to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	l *log.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error("handler panic", "panic", fmt.Sprint(v...))
}
