package exporter

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"

	"stathive-hq/stathive/pkg/registry"
)

// Collector exposes every live registry counter as a Prometheus counter.
type Collector struct {
	reg    *registry.Registry
	logger *slog.Logger

	entries  *prometheus.Desc
	capacity *prometheus.Desc

	// descs caches one Desc per raw registry name; promNames maps an
	// exported name back to the raw name that claimed it, to detect
	// sanitization collisions.
	mu        sync.Mutex
	descs     map[string]*prometheus.Desc
	promNames map[string]string
}

// NewCollector creates a collector over reg. namespace prefixes only the
// collector's self-metrics; registry counters are exported under their
// own (sanitized) names, matching what their writers chose.
func NewCollector(reg *registry.Registry, namespace string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		reg:    reg,
		logger: logger.With("component", "exporter"),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "registry", "entries"),
			"Number of live entries in the shared counter registry.",
			nil, nil,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "registry", "capacity"),
			"Admission limit of the shared counter registry.",
			nil, nil,
		),
		descs:     make(map[string]*prometheus.Desc),
		promNames: make(map[string]string),
	}
}

// Describe sends nothing, making this an unchecked collector: the metric
// set is dynamic, known only at scrape time.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {}

// Collect takes one registry snapshot and emits it.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	samples := c.reg.Snapshot()

	for _, s := range samples {
		desc, ok := c.descFor(s.Name, s.Type)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(s.Value))
	}

	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(len(samples)))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.reg.MaxEntries()))
}

// descFor returns the cached Desc for a raw registry name, creating it
// on first sight. ok is false when the sanitized name is already claimed
// by a different raw name.
func (c *Collector) descFor(rawName string, typ registry.MetricType) (*prometheus.Desc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if desc, ok := c.descs[rawName]; ok {
		return desc, true
	}

	promName := SanitizeName(rawName)
	if claimed, ok := c.promNames[promName]; ok && claimed != rawName {
		c.logger.Warn("dropping counter from exposition: sanitized name collision",
			"name", promName,
			"claimed_by", claimed,
		)
		return nil, false
	}

	help := rawName
	if !utf8.ValidString(help) {
		help = promName
	}
	desc := prometheus.NewDesc(promName, help+" "+strings.ToLower(typ.String()), nil, nil)
	c.descs[rawName] = desc
	c.promNames[promName] = rawName
	return desc, true
}

// SanitizeName maps a raw registry name onto the Prometheus metric name
// alphabet [a-zA-Z_:][a-zA-Z0-9_:]*. Invalid bytes become underscores; a
// leading digit gets an underscore prefix.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_', ch == ':':
			b.WriteByte(ch)
		case ch >= '0' && ch <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteByte(ch)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
