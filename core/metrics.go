package core

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics collects search statistics in its own registry.
type Metrics struct {
	registry       *prometheus.Registry
	searchesTotal  *prometheus.CounterVec
	expandedNodes  *prometheus.HistogramVec
	searchDuration *prometheus.HistogramVec
	pathCost       *prometheus.GaugeVec
}

// NewMetrics initializes a new metrics registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "threatnav_searches_total", Help: "Total number of finished searches"},
			[]string{"variant", "found"},
		),
		expandedNodes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "threatnav_expanded_nodes",
				Help:    "Vertices closed per search",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"variant"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "threatnav_search_duration_seconds",
				Help:    "Search duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"variant"},
		),
		pathCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "threatnav_last_path_cost", Help: "Cost of the most recent path found"},
			[]string{"variant"},
		),
	}

	registry.MustRegister(m.searchesTotal, m.expandedNodes, m.searchDuration, m.pathCost)
	return m
}

// Registry returns the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSearch records a finished search.
func (m *Metrics) ObserveSearch(variant string, found bool, expanded int, elapsed time.Duration) {
	m.searchesTotal.WithLabelValues(variant, strconv.FormatBool(found)).Inc()
	m.expandedNodes.WithLabelValues(variant).Observe(float64(expanded))
	m.searchDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
}

// ObservePathCost records the cost of a found path.
func (m *Metrics) ObservePathCost(variant string, cost float64) {
	m.pathCost.WithLabelValues(variant).Set(cost)
}

// WriteText writes all metrics in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	metricFamilies, err := m.registry.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range metricFamilies {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	_, err = w.Write(buf.Bytes())
	return err
}
