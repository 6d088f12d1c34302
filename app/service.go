// Package app wires the dispatch service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetops/dispatchd/api/alerts"
	"github.com/fleetops/dispatchd/api/audit"
	"github.com/fleetops/dispatchd/api/fleet"
	"github.com/fleetops/dispatchd/api/jobs"
	"github.com/fleetops/dispatchd/api/reports"
	"github.com/fleetops/dispatchd/api/webhooks"
	"github.com/fleetops/dispatchd/config"
	"github.com/fleetops/dispatchd/core/dispatch"
	coremetrics "github.com/fleetops/dispatchd/core/metrics"
	"github.com/fleetops/dispatchd/core/realtime"
	"github.com/fleetops/dispatchd/core/store"
	"github.com/fleetops/dispatchd/infra/logger"
	"github.com/fleetops/dispatchd/infra/metrics"
	"github.com/fleetops/dispatchd/infra/mqtt"
	"github.com/fleetops/dispatchd/infra/sqlite"
	"github.com/fleetops/dispatchd/infra/ws"
)

// Service orchestrates the store, the dispatch engine, the realtime hub
// and the ingress adapters.
type Service struct {
	Engine *dispatch.Engine
	Hub    *realtime.Hub
	Store  store.Store

	cfg     *config.Config
	mux     *http.ServeMux
	ingress *mqtt.Ingress
	log     logger.Logger
	closers []func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var st store.Store
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		st = s
	default:
		st = store.NewMemoryStore()
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	hub := realtime.NewHub(logger.New("realtime"), sink)
	engine := dispatch.NewEngine(st, hub, logger.New("dispatch"), sink)

	svc := &Service{
		Engine: engine,
		Hub:    hub,
		Store:  st,
		cfg:    cfg,
		log:    logg,
	}
	svc.closers = append(svc.closers, st.Close)
	for _, s := range sinks {
		if c, ok := s.(interface{ Close() }); ok {
			closeSink := c
			svc.closers = append(svc.closers, func() error {
				closeSink.Close()
				return nil
			})
		}
	}

	if cfg.MQTT.Enabled {
		ing, err := mqtt.NewIngress(cfg.MQTT, engine, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt ingress: %w", err)
		}
		svc.ingress = ing
	}

	svc.mux = svc.routes()
	return svc, nil
}

func (s *Service) routes() *http.ServeMux {
	mux := http.NewServeMux()
	jobs.NewHandler(s.Store, s.Engine, logger.New("api.jobs")).Register(mux)
	fleet.NewHandler(s.Store).Register(mux)
	alerts.NewHandler(s.Store, s.Engine).Register(mux)
	audit.NewHandler(s.Store).Register(mux)
	reports.NewHandler(s.Store).Register(mux)
	webhooks.NewHandler(s.Engine, logger.New("api.webhooks")).Register(mux)

	writeTimeout := time.Duration(s.cfg.Realtime.WriteTimeoutSeconds) * time.Second
	mux.Handle("GET /ws", ws.NewHandler(s.Hub, writeTimeout, logger.New("ws")))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Handler exposes the HTTP surface, mostly for tests.
func (s *Service) Handler() http.Handler { return s.mux }

// Run starts the HTTP listener and blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
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

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.ingress != nil {
		s.ingress.Close()
	}
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
