package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pinger is anything whose reachability can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker runs named dependency checks
type HealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]Pinger), timeout: 5 * time.Second}
}

// Register adds or replaces a named check
func (h *HealthChecker) Register(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = p
}

// Ready reports whether every check passes
func (h *HealthChecker) Ready(ctx context.Context) bool {
	status := h.GetHealthStatus(ctx)
	return status["status"] == "ok"
}

// GetHealthStatus runs every check and returns the overall status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]interface{}, len(names))
	overall := "ok"
	for _, name := range names {
		h.mu.RLock()
		p := h.checks[name]
		h.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := p.Ping(cctx)
		cancel()
		if err != nil {
			overall = "degraded"
			checks[name] = map[string]interface{}{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]interface{}{"status": "ok"}
	}

	return map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    overall,
		"checks":    checks,
	}
}
