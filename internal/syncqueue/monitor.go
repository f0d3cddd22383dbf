// ABOUTME: Network reachability monitors feeding the queue's online state.
// ABOUTME: HTTPProbe polls the server health endpoint on an interval.
package syncqueue

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HealthPath is polled by HTTPProbe.
const HealthPath = "/healthz"

// NetworkMonitor reports reachability changes. Subscribe returns a function
// that removes the callback.
type NetworkMonitor interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// HTTPProbe considers the network online when GET {base}/healthz succeeds.
type HTTPProbe struct {
	url      string
	interval time.Duration
	client   *http.Client

	mu     sync.Mutex
	subs   map[int]func(bool)
	nextID int
	last   *bool
}

// NewHTTPProbe creates a probe against baseURL.
func NewHTTPProbe(baseURL string, interval time.Duration) *HTTPProbe {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HTTPProbe{
		url:      strings.TrimRight(baseURL, "/") + HealthPath,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		subs:     make(map[int]func(bool)),
	}
}

// Subscribe registers fn for reachability changes. A subscriber joining
// after the first probe immediately receives the last known state.
func (p *HTTPProbe) Subscribe(fn func(online bool)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	last := p.last
	p.mu.Unlock()

	if last != nil {
		fn(*last)
	}

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Check probes once and returns reachability.
func (p *HTTPProbe) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Run probes until ctx is cancelled, notifying subscribers on changes only.
func (p *HTTPProbe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.publish(p.Check(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *HTTPProbe) publish(online bool) {
	p.mu.Lock()
	if p.last != nil && *p.last == online {
		p.mu.Unlock()
		return
	}
	p.last = &online
	subs := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}
