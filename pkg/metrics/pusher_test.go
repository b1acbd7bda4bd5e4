package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewPusher_EmptyURLIsNoop(t *testing.T) {
	p := NewPusher("", "job", nil)
	require.Nil(t, p)
	require.NoError(t, p.Push(context.Background()))
}

func TestPusher_PushesRegistry(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "approvals_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	require.NoError(t, NewPusher(srv.URL, "approvals_cli", reg).Push(context.Background()))
	require.True(t, strings.HasPrefix(gotPath, "/metrics/job/approvals_cli/instance/"), gotPath)
	require.NotEmpty(t, gotBody)
}

func TestPusher_ReportsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewPusher(srv.URL, "approvals_cli", prometheus.NewRegistry()).Push(context.Background())
	require.Error(t, err)
}
