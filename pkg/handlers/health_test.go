package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body PingResponse
	decodeInto(t, rec, &body)
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "moop-engine", body.Service)
	require.Equal(t, "test", body.Environment)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
