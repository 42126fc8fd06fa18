// Package health aggregates per-dependency health probes for the /health
// endpoint. The server registers one checker per backing service (the
// database, when one is configured) and CheckAll runs them on demand.
package health

import (
	"context"
	"sync"
)

// Status is one probe's verdict. Detail carries the failure reason and is
// empty on healthy probes.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one dependency. Checkers must honor ctx deadlines; the
// health handler runs them with a short timeout.
type Checker func(ctx context.Context) Status

// Registry holds the registered checkers in registration order.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
}

type namedChecker struct {
	name  string
	check Checker
}

// NewRegistry creates an empty registry. A registry with no checkers reports
// healthy.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named checker. Safe for concurrent use.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, namedChecker{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll runs every checker sequentially and reports the aggregate verdict
// alongside the individual statuses, in registration order.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(checkers))

	for i, nc := range checkers {
		statuses[i] = nc.check(ctx)
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}
