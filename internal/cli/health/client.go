// Package health fetches and renders the admin side-car's health report.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/marmos91/sidekick/pkg/health"
)

// Report is the decoded body of the admin health check endpoint.
type Report struct {
	Status    string                   `json:"status" yaml:"status"`
	Timestamp time.Time                `json:"timestamp" yaml:"timestamp"`
	Checks    map[string]health.Result `json:"data" yaml:"checks"`
	Error     string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	return r.Status == "healthy"
}

func (r *Report) Headers() []string {
	return []string{"Check", "Healthy", "Message"}
}

// Rows lists the checks sorted by name.
func (r *Report) Rows() [][]string {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		res := r.Checks[name]
		healthy := "yes"
		if !res.Healthy {
			healthy = "no"
		}
		rows = append(rows, []string{name, healthy, res.Message})
	}
	return rows
}

// Fetch calls the health endpoint at url. An unhealthy process answers 500
// with a regular report, so only transport and decoding problems are errors.
func Fetch(ctx context.Context, client *http.Client, url string) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		return nil, fmt.Errorf("unexpected status from %s: %s", url, resp.Status)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode health report: %w", err)
	}
	return &report, nil
}
