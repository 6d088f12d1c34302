package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/fleetops/dispatchd/core/metrics"
)

// PromSink records mutation and broadcast counters in Prometheus metrics.
type PromSink struct {
	mutations   *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	subscribers prometheus.Gauge
}

// NewPromSink registers the dispatch metrics on the default registerer.
// The Prometheus server is started separately via StartPromServer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_mutations_total",
		Help: "Total number of committed mutations",
	}, []string{"entity", "action"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_deliveries_total",
		Help: "Total realtime event deliveries by outcome",
	}, []string{"outcome"})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_subscribers",
		Help: "Number of connected realtime subscribers",
	})

	if err := reg.Register(mutations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			mutations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(deliveries); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			deliveries = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(subscribers); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			subscribers = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	return &PromSink{mutations: mutations, deliveries: deliveries, subscribers: subscribers}, nil
}

// RecordMutation increments the mutation counter.
func (s *PromSink) RecordMutation(entity, action string) {
	s.mutations.WithLabelValues(entity, action).Inc()
}

// RecordBroadcast counts one sweep's delivered and failed sends.
func (s *PromSink) RecordBroadcast(delivered, failed int) {
	s.deliveries.WithLabelValues("delivered").Add(float64(delivered))
	s.deliveries.WithLabelValues("failed").Add(float64(failed))
}

// RecordSubscribers sets the subscriber gauge.
func (s *PromSink) RecordSubscribers(n int) {
	s.subscribers.Set(float64(n))
}

// StartPromServer serves /metrics on the given port until ctx is done.
func StartPromServer(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
