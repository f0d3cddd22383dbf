// ABOUTME: SyncQueue holding captured sets until the remote store acknowledges them.
// ABOUTME: Capture is durable first; flushes are single-flight and tolerate per-entry failure.
package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/harperreed/readiness/internal/models"
)

// ErrCaptureFailed is returned when a set could not be written locally.
// The set was not queued and the caller must surface or retry it.
var ErrCaptureFailed = errors.New("capture failed")

// DefaultConcurrency bounds parallel uploads across sessions.
const DefaultConcurrency = 2

// Queue is the device-side set queue.
type Queue struct {
	store       PendingStore
	endpoint    Endpoint
	logger      *log.Logger
	concurrency int
	now         func() time.Time

	online   atomic.Bool
	flushing atomic.Bool
	kick     chan struct{}

	mu         sync.Mutex
	pending    int
	failures   int
	lastFlush  *models.FlushResult
	cancelPass context.CancelFunc
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLogger sets the queue logger.
func WithLogger(l *log.Logger) QueueOption {
	return func(q *Queue) { q.logger = l }
}

// WithConcurrency bounds how many sessions upload at once.
func WithConcurrency(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

// WithClock sets the clock used for flush timestamps.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// New creates a queue and rehydrates its pending count from store. The
// queue starts offline until SetOnline or a monitor reports otherwise.
func New(ctx context.Context, store PendingStore, endpoint Endpoint, opts ...QueueOption) (*Queue, error) {
	q := &Queue{
		store:       store,
		endpoint:    endpoint,
		logger:      log.New(io.Discard),
		concurrency: DefaultConcurrency,
		now:         time.Now,
		kick:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}

	entries, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("rehydrate queue: %w", err)
	}
	q.pending = len(entries)
	if q.pending > 0 {
		q.logger.Info("rehydrated queue", "pending", q.pending)
	}
	return q, nil
}

// Capture durably stores a completed set. It returns ErrCaptureFailed if
// the local write fails. When online it then flushes synchronously; upload
// failures are not returned since the set is already safe locally.
func (q *Queue) Capture(ctx context.Context, e models.PendingSetEntry) error {
	if e.LocalID == "" {
		return fmt.Errorf("%w: entry has no local id", ErrCaptureFailed)
	}
	if err := q.store.Append(ctx, e); err != nil {
		q.logger.Error("capture failed", "local_id", e.LocalID, "session_id", e.SessionID, "error", err)
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	q.mu.Lock()
	q.pending++
	q.mu.Unlock()
	q.logger.Debug("captured set", "local_id", e.LocalID, "session_id", e.SessionID)

	if q.online.Load() {
		q.Flush(ctx)
	}
	return nil
}

// SetOnline records a reachability change. Going online requests a flush;
// going offline aborts the remainder of any pass in progress.
func (q *Queue) SetOnline(online bool) {
	prev := q.online.Swap(online)
	if prev == online {
		return
	}

	if !online {
		q.logger.Info("offline")
		q.mu.Lock()
		if q.cancelPass != nil {
			q.cancelPass()
		}
		q.mu.Unlock()
		return
	}

	q.logger.Info("online")
	select {
	case q.kick <- struct{}{}:
	default:
	}
}

// Run subscribes to monitor and flushes whenever the queue comes online,
// until ctx is cancelled.
func (q *Queue) Run(ctx context.Context, monitor NetworkMonitor) error {
	if monitor != nil {
		unsubscribe := monitor.Subscribe(q.SetOnline)
		defer unsubscribe()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.kick:
			q.Flush(ctx)
		}
	}
}

// Flush uploads every pending entry. Entries of one session are sent in
// capture order; sessions upload in parallel up to the concurrency bound.
// A failed entry stays queued and the pass continues. It reports false
// without doing anything when another flush is already running.
func (q *Queue) Flush(ctx context.Context) (models.FlushResult, bool) {
	if !q.flushing.CompareAndSwap(false, true) {
		q.logger.Debug("flush already in progress")
		return models.FlushResult{}, false
	}
	defer q.flushing.Store(false)

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	q.mu.Lock()
	q.cancelPass = cancel
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.cancelPass = nil
		q.mu.Unlock()
	}()

	res := q.flush(passCtx)
	res.FinishedAt = q.now().UTC()

	q.mu.Lock()
	q.failures += res.Failed
	q.lastFlush = &res
	q.mu.Unlock()
	q.refreshPending(ctx)

	q.logger.Info("flush finished",
		"attempted", res.Attempted,
		"uploaded", res.Uploaded,
		"failed", res.Failed,
		"aborted", res.Aborted,
	)
	return res, true
}

func (q *Queue) flush(ctx context.Context) models.FlushResult {
	var res models.FlushResult
	if !q.online.Load() {
		res.Aborted = true
		return res
	}

	entries, err := q.store.ListAll(ctx)
	if err != nil {
		q.logger.Error("list pending entries", "error", err)
		res.Aborted = true
		return res
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(q.concurrency))

	for _, group := range groupBySession(entries) {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			res.Aborted = true
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			for _, e := range group {
				if ctx.Err() != nil || !q.online.Load() {
					mu.Lock()
					res.Aborted = true
					mu.Unlock()
					return
				}

				uploaded, aborted := q.upload(ctx, e)

				mu.Lock()
				switch {
				case aborted:
					res.Aborted = true
				case uploaded:
					res.Attempted++
					res.Uploaded++
				default:
					res.Attempted++
					res.Failed++
				}
				mu.Unlock()

				if aborted {
					return
				}
			}
		}()
	}
	wg.Wait()
	return res
}

// upload sends one entry and removes it once acknowledged. aborted is set
// when the pass was cancelled underneath the request.
func (q *Queue) upload(ctx context.Context, e models.PendingSetEntry) (uploaded, aborted bool) {
	logger := q.logger.With("local_id", e.LocalID, "session_id", e.SessionID)

	ack, err := q.endpoint.Submit(ctx, e.LocalID, e)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("upload aborted", "error", err)
			return false, true
		}
		logger.Warn("upload failed", "error", err)
		return false, false
	}

	if err := q.store.Remove(context.WithoutCancel(ctx), e.LocalID); err != nil {
		// The server has the set; the next pass replays it and the
		// idempotency key makes that harmless.
		logger.Error("remove acknowledged entry", "error", err)
		return true, false
	}
	q.mu.Lock()
	if q.pending > 0 {
		q.pending--
	}
	q.mu.Unlock()

	logger.Debug("uploaded", "duplicate", ack.Duplicate)
	return true, false
}

func (q *Queue) refreshPending(ctx context.Context) {
	entries, err := q.store.ListAll(ctx)
	if err != nil {
		q.logger.Warn("refresh pending count", "error", err)
		return
	}
	q.mu.Lock()
	q.pending = len(entries)
	q.mu.Unlock()
}

// State returns a snapshot of the queue state.
func (q *Queue) State() models.SyncState {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := models.SyncState{
		IsOnline:     q.online.Load(),
		IsSyncing:    q.flushing.Load(),
		PendingCount: q.pending,
		Failures:     q.failures,
	}
	if q.lastFlush != nil {
		last := *q.lastFlush
		s.LastFlush = &last
	}
	return s
}

// groupBySession splits entries by session, keeping capture order within
// each group and ordering groups by their first entry.
func groupBySession(entries []models.PendingSetEntry) [][]models.PendingSetEntry {
	index := make(map[string]int)
	var groups [][]models.PendingSetEntry
	for _, e := range entries {
		i, ok := index[e.SessionID]
		if !ok {
			i = len(groups)
			index[e.SessionID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}
