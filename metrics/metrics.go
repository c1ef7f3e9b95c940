// Package metrics exposes Prometheus counters for the auction service and
// an optional standalone metrics HTTP server.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the operation counters incremented by the HTTP handlers.
type Metrics struct {
	AuctionsCreated prometheus.Counter
	BidsAccepted    prometheus.Counter
	BidsRejected    prometheus.Counter
	Settlements     prometheus.Counter
	Withdrawals     prometheus.Counter

	registry *prometheus.Registry
}

func newMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}

	return &Metrics{
		AuctionsCreated: counter("auctions_created_total", "Auctions opened in the house."),
		BidsAccepted:    counter("bids_accepted_total", "Bids accepted across all auctions."),
		BidsRejected:    counter("bids_rejected_total", "Bids rejected across all auctions."),
		Settlements:     counter("settlements_total", "Auctions settled or ended."),
		Withdrawals:     counter("withdrawals_total", "Successful refund withdrawals."),
		registry:        registry,
	}
}

// MetricsServer serves the registry over HTTP on its own listener.
// With an empty address the server is inert and all methods are no-ops.
type MetricsServer struct {
	Metrics *Metrics
	srv     *http.Server
}

// New creates the counters and, when addr is non-empty, an HTTP server
// exposing them on /metrics.
func New(namespace, addr string) (*MetricsServer, error) {
	m := newMetrics(namespace)
	s := &MetricsServer{Metrics: m}
	if addr == "" {
		return s, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// RunInBackground starts the metrics listener if one is configured.
func (s *MetricsServer) RunInBackground(log func(error)) {
	if s.srv == nil {
		return
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log(err)
		}
	}()
}

// Shutdown stops the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
