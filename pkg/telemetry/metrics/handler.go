package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler exposing the provider's registry in the
// Prometheus exposition format. Mount it at MetricsConfig.Path.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", provider.Handler())
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(
		p.registry,
		promhttp.HandlerOpts{
			// Enable OpenMetrics encoding (preferred over Prometheus text format)
			EnableOpenMetrics: true,

			// A failing collector must not hide the others
			ErrorHandling: promhttp.ContinueOnError,
		},
	)
}

// HandlerWithOptions returns an HTTP handler with custom options.
func (p *PrometheusProvider) HandlerWithOptions(opts promhttp.HandlerOpts) http.Handler {
	return promhttp.HandlerFor(p.registry, opts)
}
