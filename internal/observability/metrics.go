package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Update outcome labels for the updates counter.
const (
	UpdateAccepted       = "accepted"
	UpdateFiltered       = "filtered"
	UpdateMalformed      = "malformed"
	UpdateUnknownAccount = "unknown_account"
	UpdateError          = "error"
)

// Event kind labels for the published-events counter.
const (
	EventZoneStatus  = "zone_status"
	EventCurrentZone = "current_zone"
)

// Collector bundles the service's Prometheus metrics and provides a
// ready-made /metrics handler.
type Collector struct {
	gatherer prometheus.Gatherer

	Updates         *prometheus.CounterVec
	EvaluationSecs  prometheus.Histogram
	EventsPublished *prometheus.CounterVec

	AccountsTracked prometheus.Gauge
	ZonesLoaded     prometheus.Gauge
}

// NewCollector registers the geofence metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_updates_total",
		Help: "Location updates consumed from the bus, labeled by outcome.",
	}, []string{"result"})
	updates, err := registerCounterVec(reg, updates, "geofence_updates_total")
	if err != nil {
		return nil, err
	}

	evaluation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geofence_evaluation_duration_seconds",
		Help:    "Zone evaluation latency per accepted update.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	evaluation, err = registerHistogram(reg, evaluation, "geofence_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_events_published_total",
		Help: "Change events published to the bus, labeled by kind.",
	}, []string{"kind"})
	events, err = registerCounterVec(reg, events, "geofence_events_published_total")
	if err != nil {
		return nil, err
	}

	accounts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geofence_accounts_tracked",
		Help: "Accounts with a loaded zone set.",
	}), "geofence_accounts_tracked")
	if err != nil {
		return nil, err
	}
	zones, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geofence_zones_loaded",
		Help: "Active zone definitions across all accounts.",
	}), "geofence_zones_loaded")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		Updates:         updates,
		EvaluationSecs:  evaluation,
		EventsPublished: events,
		AccountsTracked: accounts,
		ZonesLoaded:     zones,
	}, nil
}

// RecordUpdate counts one consumed update by outcome.
func (c *Collector) RecordUpdate(result string) {
	if c == nil || c.Updates == nil {
		return
	}
	c.Updates.WithLabelValues(result).Inc()
}

// RecordEvaluation observes the latency of one accepted update's
// evaluate-and-commit sequence.
func (c *Collector) RecordEvaluation(d time.Duration) {
	if c == nil || c.EvaluationSecs == nil {
		return
	}
	c.EvaluationSecs.Observe(d.Seconds())
}

// RecordEvents counts published change events by kind.
func (c *Collector) RecordEvents(kind string, n int) {
	if c == nil || c.EventsPublished == nil || n <= 0 {
		return
	}
	c.EventsPublished.WithLabelValues(kind).Add(float64(n))
}

// SetZoneCounts satisfies the zone-set metrics hook so the provider's
// load path can drive the gauges directly.
func (c *Collector) SetZoneCounts(accounts, zones int) {
	if c == nil {
		return
	}
	if c.AccountsTracked != nil {
		c.AccountsTracked.Set(float64(accounts))
	}
	if c.ZonesLoaded != nil {
		c.ZonesLoaded.Set(float64(zones))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
