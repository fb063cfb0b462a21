// core/filter.go
package core

import (
	"time"

	"github.com/signalsfoundry/geofencer/model"
)

// Filter is one admission predicate on an incoming location sample.
// A rejected sample is dropped before it reaches the engine: no state
// change, no event, no retry. Rejection is an expected outcome, not an
// error.
type Filter interface {
	Name() string
	Accept(loc model.Location) bool
}

// FilterConfig carries the thresholds for the standard filter chain.
type FilterConfig struct {
	// MaxAge is the oldest acceptable sample age. Zero disables the
	// age filter.
	MaxAge time.Duration

	// MaxAccuracy is the worst acceptable reported accuracy in metres.
	// Zero disables the accuracy filter.
	MaxAccuracy float64
}

// AgeFilter rejects samples whose origin timestamp is older than MaxAge.
// A sample without a timestamp is never rejected on age grounds: the
// origin marks it "now".
type AgeFilter struct {
	MaxAge time.Duration

	// now is swappable for tests; nil means time.Now.
	now func() time.Time
}

func (f *AgeFilter) Name() string { return "age" }

func (f *AgeFilter) Accept(loc model.Location) bool {
	if !loc.HasTimestamp() {
		return true
	}
	nowFn := f.now
	if nowFn == nil {
		nowFn = time.Now
	}
	return nowFn().Sub(loc.Timestamp) <= f.MaxAge
}

// AccuracyFilter rejects samples whose reported accuracy is MaxAccuracy
// metres or worse. Zero/absent accuracy means "unknown" and passes.
type AccuracyFilter struct {
	MaxAccuracy float64
}

func (f *AccuracyFilter) Name() string { return "accuracy" }

func (f *AccuracyFilter) Accept(loc model.Location) bool {
	if !loc.HasAccuracy() {
		return true
	}
	return loc.Accuracy < f.MaxAccuracy
}

// FilterChain applies an ordered sequence of filters, short-circuiting
// on the first rejection.
type FilterChain struct {
	filters []Filter
}

// NewFilterChain builds the standard chain from config. Thresholds left
// at zero leave the corresponding filter out entirely.
func NewFilterChain(cfg FilterConfig) *FilterChain {
	var filters []Filter
	if cfg.MaxAge > 0 {
		filters = append(filters, &AgeFilter{MaxAge: cfg.MaxAge})
	}
	if cfg.MaxAccuracy > 0 {
		filters = append(filters, &AccuracyFilter{MaxAccuracy: cfg.MaxAccuracy})
	}
	return &FilterChain{filters: filters}
}

// Accept runs the chain. When a sample is rejected, the second return
// value names the filter that rejected it, for logging and metrics.
func (c *FilterChain) Accept(loc model.Location) (bool, string) {
	for _, f := range c.filters {
		if !f.Accept(loc) {
			return false, f.Name()
		}
	}
	return true, ""
}
