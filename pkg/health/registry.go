package health

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/sidekick/internal/logger"
)

// NamedResult is a Result tagged with the check that produced it.
type NamedResult struct {
	Name string `json:"name"`
	Result
}

// Registry holds named checks. The lock only guards the map; checks run
// outside of it so a slow check never blocks registration or other callers.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// Register adds check under name. Names must be unique.
func (r *Registry) Register(name string, check Check) error {
	if name == "" {
		return fmt.Errorf("health check name is required")
	}
	if check == nil {
		return fmt.Errorf("health check %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[name]; exists {
		return fmt.Errorf("health check %q already registered", name)
	}
	r.checks[name] = check
	return nil
}

// Unregister removes the check registered under name, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.checks, name)
	r.mu.Unlock()
}

// Names returns the registered check names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Run executes the named check. The boolean is false when no such check
// exists.
func (r *Registry) Run(ctx context.Context, name string) (Result, bool) {
	r.mu.RLock()
	check, ok := r.checks[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	return runCheck(ctx, name, check), true
}

// RunAll executes every check and returns the results sorted by name.
func (r *Registry) RunAll(ctx context.Context) []NamedResult {
	r.mu.RLock()
	snapshot := make(map[string]Check, len(r.checks))
	for name, check := range r.checks {
		snapshot[name] = check
	}
	r.mu.RUnlock()

	results := make([]NamedResult, 0, len(snapshot))
	for name, check := range snapshot {
		results = append(results, NamedResult{Name: name, Result: runCheck(ctx, name, check)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// AllHealthy reports whether every result is healthy.
func AllHealthy(results []NamedResult) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}

func runCheck(ctx context.Context, name string, check Check) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Health check panicked", logger.Check(name), "panic", p)
			res = Unhealthy(fmt.Sprintf("check panicked: %v", p))
		}
	}()
	return check.Check(ctx)
}
