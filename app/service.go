package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/wcs/config"
	"github.com/kilianp07/wcs/core/alloc"
	"github.com/kilianp07/wcs/core/events"
	coremetrics "github.com/kilianp07/wcs/core/metrics"
	"github.com/kilianp07/wcs/core/orchestrator"
	"github.com/kilianp07/wcs/core/shuttle"
	"github.com/kilianp07/wcs/infra/logger"
	"github.com/kilianp07/wcs/infra/metrics"
	"github.com/kilianp07/wcs/infra/mqtt"
	"github.com/kilianp07/wcs/infra/store"
	"github.com/kilianp07/wcs/internal/eventbus"
)

// Service wires the warehouse control core: storage, shuttle link and
// orchestrator.
type Service struct {
	Orchestrator *orchestrator.Orchestrator
	Session      *shuttle.Session

	link        *mqtt.PahoLink
	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	st, err := store.New(db)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	link, err := mqtt.NewPahoLink(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt link: %w", err)
	}
	ackTimeout := time.Duration(cfg.Orchestrator.AckTimeoutSeconds) * time.Second
	session, err := shuttle.NewSession(link, logger.New("shuttle"), ackTimeout)
	if err != nil {
		return nil, fmt.Errorf("shuttle session: %w", err)
	}
	link.OnState = session.HandleState

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	dispatcher := events.NewDispatcher(cfg.Orchestrator.MaxEventDepth, logger.New("events"))
	rules := alloc.NewRegistry(
		alloc.NewSingleDeepRule(st, logger.New("alloc")),
		alloc.NewDoubleDeepRule(st, logger.New("alloc")),
	)

	sender, err := NewShuttleSender(session, st, sink, logger.New("sender"), cfg.MQTT.ShuttleID)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	orch, err := orchestrator.New(st, sender, rules, dispatcher, bus, sink, logg, cfg.Orchestrator)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	return &Service{
		Orchestrator: orch,
		Session:      session,
		link:         link,
		bus:          bus,
		log:          logg,
		promEnabled:  cfg.Metrics.PrometheusEnabled,
		promPort:     cfg.Metrics.PrometheusPort,
	}, nil
}

// Run connects the shuttle and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Session.Connect(ctx); err != nil {
		return err
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	// Prime the session with a state report so the send gate opens.
	if err := s.Session.Send(ctx, shuttle.Inquire()); err != nil {
		s.log.Warnf("initial inquire: %v", err)
	} else if _, err := s.Session.WaitForAck(ctx); err != nil {
		s.log.Warnf("initial inquire ack: %v", err)
	}

	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.Session.Disconnect()
	s.bus.Close()
}
