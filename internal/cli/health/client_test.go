package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sidekick/pkg/admin"
	"github.com/marmos91/sidekick/pkg/health"
)

func newAdminServer(t *testing.T, checks *health.Registry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(admin.NewRouter(admin.Config{}, checks, admin.VersionInfo{Service: "sidekick"}, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Unhealthy(t *testing.T) {
	checks := health.NewRegistry()
	require.NoError(t, checks.Register("thread_deadlock", health.CheckFunc(func(context.Context) health.Result {
		return health.Healthy("")
	})))
	require.NoError(t, checks.Register("all_services_healthy", health.CheckFunc(func(context.Context) health.Result {
		return health.Unhealthy("Incorrect state: FAILED: admin")
	})))
	srv := newAdminServer(t, checks)

	report, err := Fetch(context.Background(), &http.Client{Timeout: 2 * time.Second}, srv.URL+"/healthcheck")
	require.NoError(t, err)

	assert.False(t, report.Healthy())
	assert.Equal(t, [][]string{
		{"all_services_healthy", "no", "Incorrect state: FAILED: admin"},
		{"thread_deadlock", "yes", ""},
	}, report.Rows())
}

func TestFetch_Healthy(t *testing.T) {
	checks := health.NewRegistry()
	require.NoError(t, checks.Register("thread_deadlock", health.CheckFunc(func(context.Context) health.Result {
		return health.Healthy("")
	})))
	srv := newAdminServer(t, checks)

	report, err := Fetch(context.Background(), http.DefaultClient, srv.URL+"/healthcheck")
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Len(t, report.Checks, 1)
}

func TestFetch_NotFound(t *testing.T) {
	srv := newAdminServer(t, health.NewRegistry())

	_, err := Fetch(context.Background(), http.DefaultClient, srv.URL+"/nope")
	assert.Error(t, err)
}
