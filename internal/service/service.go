package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/geofencer/core"
	"github.com/signalsfoundry/geofencer/internal/bus"
	"github.com/signalsfoundry/geofencer/internal/logging"
	"github.com/signalsfoundry/geofencer/internal/observability"
	"github.com/signalsfoundry/geofencer/model"
)

// Service consumes location updates from the bus, runs them through the
// filter chain and the engine, and republishes the resulting zone
// events. Messages are handled in arrival order; the engine's own
// locking covers any concurrent callers outside this loop.
type Service struct {
	engine  *core.Engine
	filters *core.FilterChain
	pub     *bus.Publisher
	sub     *bus.Subscriber
	metrics *observability.Collector
	log     logging.Logger
	tracer  trace.Tracer
}

func New(engine *core.Engine, filters *core.FilterChain, pub *bus.Publisher, sub *bus.Subscriber, metrics *observability.Collector, log logging.Logger) *Service {
	if log == nil {
		log = logging.Noop()
	}
	return &Service{
		engine:  engine,
		filters: filters,
		pub:     pub,
		sub:     sub,
		metrics: metrics,
		log:     log,
		tracer:  otel.Tracer("geofencer/service"),
	}
}

// Run blocks consuming location messages until ctx is cancelled or the
// subscription fails.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info(ctx, "service started")
	return s.sub.Run(ctx, s.handleMessage)
}

func (s *Service) handleMessage(ctx context.Context, msg bus.Message) {
	ctx, log := logging.WithUpdateLogger(ctx, s.log)
	log = log.With(logging.String("account", msg.Account))

	ctx, span := s.tracer.Start(ctx, "geofence.update",
		trace.WithAttributes(attribute.String("geofence.account", msg.Account)))
	defer span.End()

	loc, err := model.ParseLocation(msg.Payload)
	if err != nil {
		s.metrics.RecordUpdate(observability.UpdateMalformed)
		span.SetStatus(codes.Error, "malformed payload")
		log.Warn(ctx, "dropping malformed location payload",
			logging.String("error", err.Error()))
		return
	}

	if ok, by := s.filters.Accept(loc); !ok {
		s.metrics.RecordUpdate(observability.UpdateFiltered)
		span.SetAttributes(attribute.String("geofence.filtered_by", by))
		log.Debug(ctx, "location rejected by filter",
			logging.String("filter", by),
			logging.Float("accuracy", loc.Accuracy))
		return
	}

	start := time.Now()
	result, err := s.engine.ProcessUpdate(ctx, msg.Account, loc)
	s.metrics.RecordEvaluation(time.Since(start))
	if err != nil {
		if errors.Is(err, core.ErrUnknownAccount) {
			s.metrics.RecordUpdate(observability.UpdateUnknownAccount)
			log.Warn(ctx, "no zones configured for account")
			return
		}
		s.metrics.RecordUpdate(observability.UpdateError)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(ctx, "update evaluation failed", logging.String("error", err.Error()))
		return
	}
	s.metrics.RecordUpdate(observability.UpdateAccepted)

	s.publishChanges(ctx, log, result)
}

// publishChanges emits one message per state transition. A publish
// failure loses that event; the registry already holds the new state,
// so subscribers converge on the next transition.
func (s *Service) publishChanges(ctx context.Context, log logging.Logger, result *core.UpdateResult) {
	statusEvents := 0
	for _, change := range result.StatusChanges {
		if err := s.pub.PublishZoneStatus(ctx, change); err != nil {
			log.Warn(ctx, "failed to publish zone status",
				logging.String("zone", change.Zone),
				logging.String("error", err.Error()))
			continue
		}
		statusEvents++
		log.Info(ctx, "zone status changed",
			logging.String("zone", change.Zone),
			logging.Any("inside", change.Inside))
	}
	if statusEvents > 0 {
		s.metrics.RecordEvents(observability.EventZoneStatus, statusEvents)
	}

	if change := result.CurrentChange; change != nil {
		if err := s.pub.PublishCurrentZone(ctx, *change); err != nil {
			log.Warn(ctx, "failed to publish current zone",
				logging.String("error", err.Error()))
			return
		}
		s.metrics.RecordEvents(observability.EventCurrentZone, 1)
		log.Info(ctx, "current zone changed", logging.String("zone", change.Zone))
	}
}
