package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK TYPES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports the state of the ledger's dependencies for /health
// and /ready.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthCheckFunc checks one dependency; a non-nil error means it is down.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is the aggregated check result. Healthy and Ready differ only
// when an optional dependency fails: the ledger stays ready without it.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is one check's outcome.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSITE CHECKER
// ══════════════════════════════════════════════════════════════════════════════

type registeredCheck struct {
	name     string
	fn       HealthCheckFunc
	optional bool
}

// CompositeHealthChecker runs every registered check in parallel, each under
// its own timeout.
type CompositeHealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]registeredCheck
	started time.Time
	version string
	timeout time.Duration
}

func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:  make(map[string]registeredCheck),
		started: time.Now(),
		version: version,
		timeout: 5 * time.Second,
	}
}

// SetTimeout bounds each check.
func (c *CompositeHealthChecker) SetTimeout(d time.Duration) {
	c.timeout = d
}

// AddCheck registers a required check; its failure makes the ledger unready.
func (c *CompositeHealthChecker) AddCheck(name string, fn HealthCheckFunc) {
	c.register(registeredCheck{name: name, fn: fn})
}

// AddOptionalCheck registers a check whose failure is reported but leaves
// readiness alone, e.g. the catalog cache.
func (c *CompositeHealthChecker) AddOptionalCheck(name string, fn HealthCheckFunc) {
	c.register(registeredCheck{name: name, fn: fn, optional: true})
}

func (c *CompositeHealthChecker) register(p registeredCheck) {
	c.mu.Lock()
	c.checks[p.name] = p
	c.mu.Unlock()
}

func (c *CompositeHealthChecker) snapshot() []registeredCheck {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]registeredCheck, 0, len(c.checks))
	for _, p := range c.checks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Check runs all registered checks and folds them into one status.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	registered := c.snapshot()
	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}
	if len(registered) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	results := make([]CheckResult, len(registered))
	var g errgroup.Group
	for i, p := range registered {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			began := time.Now()
			err := p.fn(pctx)
			res := CheckResult{
				Healthy:  err == nil,
				Message:  "OK",
				Duration: time.Since(began).Round(time.Millisecond).String(),
				Optional: p.optional,
			}
			if err != nil {
				res.Message = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	status.Checks = make(map[string]CheckResult, len(registered))
	var failed []string
	for i, p := range registered {
		res := results[i]
		status.Checks[p.name] = res
		if res.Healthy {
			continue
		}
		failed = append(failed, p.name)
		if !res.Optional {
			status.Healthy = false
			status.Ready = false
		}
	}

	if len(failed) == 0 {
		status.Message = "All checks passed"
	} else {
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return status
}

// ══════════════════════════════════════════════════════════════════════════════
// CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// Pinger is satisfied by the stores and the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPingCheck turns a Pinger into a check.
func NewPingCheck(p Pinger) HealthCheckFunc {
	return p.Ping
}
