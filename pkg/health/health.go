// Package health exposes Kubernetes-style liveness and readiness probes.
//
// Checks are evaluated together by a single background loop; the probe
// endpoints serve the latest snapshot and never run a check inline, so a slow
// database ping cannot stall the kubelet.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// snapshot maps failing check names to their error messages. An empty map
// means all checks passed.
type snapshot map[string]string

// Service aggregates liveness and readiness checks for one process.
type Service struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []check
	readiness []check
	cancel    context.CancelFunc

	liveState  atomic.Pointer[snapshot]
	readyState atomic.Pointer[snapshot]
}

// New creates a Service. The process starts not-ready; call SetReady(true)
// once initialization finishes.
func New() *Service {
	s := &Service{}
	empty := snapshot{}
	s.liveState.Store(&empty)
	s.readyState.Store(&empty)
	return s
}

// AddLiveness registers a liveness check, e.g. goroutine count. A failing
// liveness probe tells the orchestrator to restart the process.
func (s *Service) AddLiveness(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadiness registers a readiness check, e.g. a database ping. A failing
// readiness probe only takes the process out of the load balancer.
func (s *Service) AddReadiness(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, check{name: name, timeout: timeout, fn: fn})
}

// Start launches the evaluation loop. All checks run once immediately and
// then every interval until the context is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	live := make([]check, len(s.liveness))
	copy(live, s.liveness)
	ready := make([]check, len(s.readiness))
	copy(ready, s.readiness)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.evaluate(ctx, live, ready)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evaluate(ctx, live, ready)
			}
		}
	}()
}

// Stop halts the evaluation loop. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it to
// false before draining so the load balancer stops routing new traffic.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and the last readiness
// evaluation found no failures.
func (s *Service) IsReady() bool {
	return s.ready.Load() && len(*s.readyState.Load()) == 0
}

func (s *Service) evaluate(ctx context.Context, live, ready []check) {
	liveSnap := runChecks(ctx, live)
	readySnap := runChecks(ctx, ready)
	s.liveState.Store(&liveSnap)
	s.readyState.Store(&readySnap)
}

func runChecks(ctx context.Context, checks []check) snapshot {
	failures := snapshot{}
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.fn(checkCtx)
		cancel()
		if err != nil {
			failures[c.name] = err.Error()
		}
	}
	return failures
}

// LiveHandler serves the /livez endpoint: 200 when every liveness check
// passed its last evaluation, 503 with the failure details otherwise.
func (s *Service) LiveHandler(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, *s.liveState.Load())
}

// ReadyHandler serves the /readyz endpoint. The manual gate counts as a
// failing check so shutdown shows up in the response body.
func (s *Service) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	failures := snapshot{}
	for name, msg := range *s.readyState.Load() {
		failures[name] = msg
	}
	if !s.ready.Load() {
		failures["_gate"] = "service not marked ready"
	}
	writeProbe(w, failures)
}

type probeResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

func writeProbe(w http.ResponseWriter, failures snapshot) {
	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Failures = failures
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
