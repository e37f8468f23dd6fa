package metrics

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDispatch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDispatch(true, time.Second)
	m.ObserveDispatch(false, 2*time.Second)
	m.ObserveDispatch(false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsDispatched.WithLabelValues("delivered")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeadsDispatched.WithLabelValues("failed")))
}

func TestActiveSessionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterActiveSessions(reg, func() float64 { return 3 })

	n, err := testutil.GatherAndCount(reg, "salesbot_active_sessions")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SessionsStarted.Inc()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, reg, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "salesbot_sessions_started_total 1")

	cancel()
	assert.NoError(t, <-done)
}
