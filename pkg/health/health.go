// Package health provides Kubernetes-style liveness and readiness probes.
// Registered checks run in a single background goroutine at a fixed interval;
// the HTTP endpoints only read cached results, so probes stay cheap even when
// a dependency is slow.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. Return nil when healthy.
type CheckFunc func(ctx context.Context) error

type kind int

const (
	liveness kind = iota
	readiness
)

type check struct {
	name    string
	kind    kind
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
	c.healthy.Store(err == nil)
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu     sync.Mutex
	checks []*check
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Health instance. The service starts not ready; call
// SetReady(true) once initialization finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check. Failing liveness means the
// process should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(name, liveness, timeout, fn)
}

// AddReadinessCheck registers a readiness check. Failing readiness means the
// service should stop receiving traffic but keep running.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(name, readiness, timeout, fn)
}

func (h *Health) add(name string, k kind, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: k, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// SetReady flips the top-level readiness gate. Readiness endpoints report
// unhealthy while the gate is down regardless of check results.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Start launches the background check loop. Each check runs once immediately
// and then every interval until Stop or context cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.done = make(chan struct{})
	checks := h.checks
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for _, c := range checks {
			c.run(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, c := range checks {
					c.run(ctx)
				}
			}
		}
	}()
}

// Stop terminates the background loop and waits for it to exit.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// LiveEndpoint is an http.HandlerFunc serving the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.serve(w, liveness, true)
}

// ReadyEndpoint is an http.HandlerFunc serving the readiness probe. It also
// includes liveness checks: a dead process is never ready.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.serve(w, readiness, h.ready.Load())
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Health) serve(w http.ResponseWriter, k kind, gate bool) {
	h.mu.Lock()
	checks := h.checks
	h.mu.Unlock()

	resp := probeResponse{Status: "ok", Checks: make(map[string]string)}
	healthy := gate
	for _, c := range checks {
		if k == readiness || c.kind == k {
			status := "ok"
			if !c.healthy.Load() {
				healthy = false
				status = "failed"
				if p := c.lastErr.Load(); p != nil && *p != nil {
					status = (*p).Error()
				}
			}
			resp.Checks[c.name] = status
		}
	}

	code := http.StatusOK
	if !healthy {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
