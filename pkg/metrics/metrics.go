// Package metrics exposes request, admission and cache counters to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pario-ai/memogate/pkg/models"
)

// CacheStatter provides cache statistics without coupling to a concrete cache.
type CacheStatter interface {
	Stats() models.CacheStats
}

// Metrics records per-request outcomes and admission decisions.
type Metrics struct {
	requests  *prometheus.CounterVec
	admission *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	gatherer  prometheus.Gatherer
}

// New registers collectors on reg. Cache gauges are read from cache at
// scrape time; cache may be nil.
func New(reg *prometheus.Registry, cache CacheStatter) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memogate_requests_total",
			Help: "Analyze requests by outcome (hit, miss, denied, error).",
		}, []string{"outcome"}),
		admission: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memogate_admission_decisions_total",
			Help: "Admission decisions by reason.",
		}, []string{"allowed", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "memogate_analyze_duration_seconds",
			Help:    "Analyze latency by outcome.",
			Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		gatherer: reg,
	}

	collectors := []prometheus.Collector{m.requests, m.admission, m.duration}
	if cache != nil {
		collectors = append(collectors, newCacheCollector(cache))
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveRequest counts one analyze request and its latency.
func (m *Metrics) ObserveRequest(outcome models.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(outcome)).Inc()
	m.duration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// ObserveAdmission counts one admission decision.
func (m *Metrics) ObserveAdmission(d models.LimitDecision) {
	if m == nil {
		return
	}
	allowed := "false"
	if d.Allowed {
		allowed = "true"
	}
	m.admission.WithLabelValues(allowed, d.Reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// cacheCollector reads cache stats once per scrape.
type cacheCollector struct {
	cache     CacheStatter
	size      *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	hitRate   *prometheus.Desc
}

func newCacheCollector(cache CacheStatter) *cacheCollector {
	return &cacheCollector{
		cache:     cache,
		size:      prometheus.NewDesc("memogate_cache_entries", "Live cache entries.", nil, nil),
		hits:      prometheus.NewDesc("memogate_cache_hits_total", "Cache hits.", nil, nil),
		misses:    prometheus.NewDesc("memogate_cache_misses_total", "Cache misses, including expired entries.", nil, nil),
		evictions: prometheus.NewDesc("memogate_cache_evictions_total", "LRU evictions.", nil, nil),
		hitRate:   prometheus.NewDesc("memogate_cache_hit_rate", "hits / (hits + misses).", nil, nil),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.hitRate
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.cache.Stats()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, s.HitRate)
}
