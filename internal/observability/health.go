package observability

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	Health(ctx context.Context) types.HealthStatus
}

// HealthMonitor checks a set of named components and logs state changes.
// It is safe for concurrent use.
type HealthMonitor struct {
	logger     *slog.Logger
	mu         sync.Mutex
	components map[string]HealthChecker
	last       map[string]types.HealthState
}

// NewHealthMonitor creates an empty monitor.
func NewHealthMonitor(logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthMonitor{
		logger:     logger,
		components: make(map[string]HealthChecker),
		last:       make(map[string]types.HealthState),
	}
}

// Register adds or replaces a component.
func (m *HealthMonitor) Register(name string, checker HealthChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = checker
}

// Check probes every component concurrently and returns their statuses.
// Probes share a context derived from ctx; once it is done, components
// that have not been probed yet are reported unhealthy without a probe.
func (m *HealthMonitor) Check(ctx context.Context) map[string]types.HealthStatus {
	m.mu.Lock()
	checkers := make(map[string]HealthChecker, len(m.components))
	for name, checker := range m.components {
		checkers[name] = checker
	}
	m.mu.Unlock()

	var (
		resultsMu sync.Mutex
		results   = make(map[string]types.HealthStatus, len(checkers))
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, checker := range checkers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			status := checker.Health(gctx)
			resultsMu.Lock()
			results[name] = status
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("health check interrupted", "error", err)
		for name := range checkers {
			if _, ok := results[name]; !ok {
				results[name] = types.Unhealthy("health check not run: " + err.Error())
			}
		}
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.observe(name, results[name])
	}
	return results
}

// Overall returns healthy only if every status is healthy.
func Overall(statuses map[string]types.HealthStatus) types.HealthState {
	for _, status := range statuses {
		if !status.IsHealthy() {
			return types.HealthStateUnhealthy
		}
	}
	return types.HealthStateHealthy
}

func (m *HealthMonitor) observe(name string, status types.HealthStatus) {
	m.mu.Lock()
	previous, seen := m.last[name]
	m.last[name] = status.State
	m.mu.Unlock()

	if seen && previous == status.State {
		return
	}
	if status.IsHealthy() {
		m.logger.Info("component healthy", "component", name, "latency", status.Latency)
		return
	}
	m.logger.Warn("component unhealthy", "component", name, "message", status.Message)
}
