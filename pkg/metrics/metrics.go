package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/batchby/pkg/batch"
)

const namespace = "batchby"

// Metrics holds the instruments updated by an instrumented control.
type Metrics struct {
	entries    prometheus.Counter
	batches    prometheus.Counter
	batchItems prometheus.Histogram
	errors     *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
// A collector already registered under the same name is reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Total entries folded into batches",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total batches pushed",
		}),
		batchItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_items",
			Help:      "Number of entries per pushed batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total control errors by operation",
		}, []string{"op"}),
	}

	var err error
	if m.entries, err = register(reg, m.entries); err != nil {
		return nil, err
	}
	if m.batches, err = register(reg, m.batches); err != nil {
		return nil, err
	}
	if m.batchItems, err = register(reg, m.batchItems); err != nil {
		return nil, err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// sizer is implemented by batch types that know their entry count.
type sizer interface {
	Len() int
}

type instrumented[B, E, P any] struct {
	next batch.Control[B, E, P]
	m    *Metrics
}

// Instrument wraps control so that every call updates m. Batches that
// implement Len() int are also observed in the batch_items histogram.
// A nil m returns control unchanged.
func Instrument[B, E, P any](control batch.Control[B, E, P], m *Metrics) batch.Control[B, E, P] {
	if m == nil || control == nil {
		return control
	}
	return &instrumented[B, E, P]{next: control, m: m}
}

func (c *instrumented[B, E, P]) BeginWith() (B, error) {
	acc, err := c.next.BeginWith()
	if err != nil {
		c.m.errors.WithLabelValues(string(batch.OpBegin)).Inc()
	}
	return acc, err
}

func (c *instrumented[B, E, P]) ForEachEntry(acc B, entry E) (batch.Step[B, P], error) {
	step, err := c.next.ForEachEntry(acc, entry)
	if err != nil {
		c.m.errors.WithLabelValues(string(batch.OpEntry)).Inc()
		return step, err
	}
	c.m.entries.Inc()
	c.observe(step.Pushed)
	return step, nil
}

func (c *instrumented[B, E, P]) End(last B) ([]P, error) {
	pushed, err := c.next.End(last)
	if err != nil {
		c.m.errors.WithLabelValues(string(batch.OpEnd)).Inc()
		return pushed, err
	}
	c.observe(pushed)
	return pushed, nil
}

func (c *instrumented[B, E, P]) observe(pushed []P) {
	for _, p := range pushed {
		c.m.batches.Inc()
		if s, ok := any(p).(sizer); ok {
			c.m.batchItems.Observe(float64(s.Len()))
		}
	}
}
