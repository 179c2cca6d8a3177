package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
)

// newPrometheusReader creates an OTel metric reader that exposes instruments
// through its own Prometheus registry.
func newPrometheusReader() (*promexporter.Exporter, *prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, registry, nil
}

// newPusher pushes registry to the configured Pushgateway. A batch run has
// no scrape window, so metrics are pushed once when the run ends.
func newPusher(cfg Config, registry prometheus.Gatherer) *push.Pusher {
	job := cfg.JobName
	if job == "" {
		job = defaultJobName
	}

	pusher := push.New(cfg.PushgatewayURL, job).Gatherer(registry)

	if cfg.Mode != "" {
		pusher = pusher.Grouping("mode", string(cfg.Mode))
	}

	if cfg.Repository != "" {
		pusher = pusher.Grouping("repository", cfg.Repository)
	}

	return pusher
}
