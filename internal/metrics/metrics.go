// Package metrics собирает счётчики опроса и отдаёт их Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesbot"

type Metrics struct {
	SessionsStarted  prometheus.Counter
	Transitions      *prometheus.CounterVec
	LeadsDispatched  *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Number of /start commands that opened a new session.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session state machine transitions by kind.",
		}, []string{"transition"}),
		LeadsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_dispatched_total",
			Help:      "Leads sent to the CRM by result.",
		}, []string{"result"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lead_dispatch_duration_seconds",
			Help:      "Time spent sending a lead to the CRM.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
	reg.MustRegister(m.SessionsStarted, m.Transitions, m.LeadsDispatched, m.DispatchDuration)
	return m
}

// RegisterActiveSessions публикует число активных сессий, считая его при каждом scrape
func RegisterActiveSessions(reg prometheus.Registerer, count func() float64) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently in progress.",
	}, count))
}

func (m *Metrics) ObserveDispatch(ok bool, elapsed time.Duration) {
	result := "failed"
	if ok {
		result = "delivered"
	}
	m.LeadsDispatched.WithLabelValues(result).Inc()
	m.DispatchDuration.Observe(elapsed.Seconds())
}

// Serve поднимает /metrics и /healthz и блокируется до отмены ctx
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
