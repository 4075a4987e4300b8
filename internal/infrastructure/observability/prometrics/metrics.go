package prometrics

import (
	"sync"

	"github.com/chowline/chowline/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// instrument declares the Prometheus shape of one MetricKey. Keeping the
// declarations in one table guarantees every key application code asks for
// is registered with consistent help text and label keys.
type instrument struct {
	help    string
	labels  []string
	buckets []float64 // nil means counter
}

var instruments = map[observability.MetricKey]instrument{
	observability.MUsecaseRequests: {
		help:   "Total number of use case invocations.",
		labels: []string{"use_case", "outcome"},
	},
	observability.MUsecaseDuration: {
		help:    "Duration of use case execution in seconds.",
		labels:  []string{"use_case"},
		buckets: prometheus.DefBuckets,
	},
	observability.MHTTPRequests: {
		help:   "Total number of HTTP requests.",
		labels: []string{"method", "route", "status"},
	},
	observability.MHTTPRequestDuration: {
		help:    "Duration of HTTP requests in seconds.",
		labels:  []string{"method", "route"},
		buckets: prometheus.DefBuckets,
	},
	observability.MReconcileItems: {
		help:   "Menu items processed by the availability reconciler.",
		labels: []string{"outcome"},
	},
	observability.MLowStock: {
		help: "Low-stock alerts raised for ingredients.",
	},
	observability.MOrdersPlaced: {
		help: "Orders accepted by the admission gate.",
	},
}

// Registry implements observability.Metrics on top of a Prometheus
// registerer, creating each instrument lazily and exactly once.
type Registry struct {
	namespace  string
	reg        prometheus.Registerer
	counters   sync.Map // MetricKey -> *prometheus.CounterVec
	histograms sync.Map // MetricKey -> *prometheus.HistogramVec
}

func New(namespace string, reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{namespace: namespace, reg: reg}
}

func (r *Registry) Counter(name observability.MetricKey) observability.Counter {
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	spec, ok := instruments[name]
	if !ok || spec.buckets != nil {
		return observability.NopCounter()
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: string(name), Help: spec.help,
	}, spec.labels)
	if actual, loaded := r.counters.LoadOrStore(name, cv); loaded {
		return &counter{v: actual.(*prometheus.CounterVec)}
	}
	r.reg.MustRegister(cv)
	return &counter{v: cv}
}

func (r *Registry) Histogram(name observability.MetricKey) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	spec, ok := instruments[name]
	if !ok || spec.buckets == nil {
		return observability.NopHistogram()
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: string(name), Help: spec.help, Buckets: spec.buckets,
	}, spec.labels)
	if actual, loaded := r.histograms.LoadOrStore(name, hv); loaded {
		return &histogram{v: actual.(*prometheus.HistogramVec)}
	}
	r.reg.MustRegister(hv)
	return &histogram{v: hv}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return &boundCounter{v: c.v, labels: labelMap(labels)}
}

type boundCounter struct {
	v      *prometheus.CounterVec
	labels prometheus.Labels
}

func (c *boundCounter) Add(d float64) {
	c.v.With(c.labels).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return &boundHistogram{v: h.v, labels: labelMap(labels)}
}

type boundHistogram struct {
	v      *prometheus.HistogramVec
	labels prometheus.Labels
}

func (h *boundHistogram) Observe(v float64) {
	h.v.With(h.labels).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}
