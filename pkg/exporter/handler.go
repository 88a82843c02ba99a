package exporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler serving the Prometheus exposition for
// the given collector on a dedicated pedantic registry.
func Handler(c *Collector) (http.Handler, error) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			// Serve whatever could be collected if a metric misbehaves.
			ErrorHandling: promhttp.ContinueOnError,
		},
	), nil
}
