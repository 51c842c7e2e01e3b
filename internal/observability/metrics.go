package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMetricsPath is the path the metrics handler is mounted on.
const DefaultMetricsPath = "/metrics"

const readHeaderTimeout = 5 * time.Second

// NewRegistry creates a Prometheus registry pre-populated with Go runtime
// and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsHandler returns an HTTP handler exposing the registry.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}

// NewMetricsServer builds an HTTP server exposing the registry at path.
func NewMetricsServer(addr, path string, reg *prometheus.Registry) *http.Server {
	if path == "" {
		path = DefaultMetricsPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, MetricsHandler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
