package countermetrics

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ObserveOTel registers an observable gauge on meter that reports src.Count()
// on every collection. The instrument name is the configured namespace,
// subsystem and name joined with dots; constant labels become attributes.
func ObserveOTel(meter metric.Meter, src Source, opts ...Option) (metric.Int64ObservableGauge, error) {
	cfg := newConfig(opts)

	attrs := make([]attribute.KeyValue, 0, len(cfg.ConstLabels))
	for k, v := range cfg.ConstLabels {
		attrs = append(attrs, attribute.String(k, v))
	}
	set := attribute.NewSet(attrs...)

	return meter.Int64ObservableGauge(
		otelName(cfg),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(src.Count(), metric.WithAttributeSet(set))
			return nil
		}),
		metric.WithDescription(cfg.Help),
		metric.WithUnit("1"),
	)
}

func otelName(cfg Config) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{cfg.Namespace, cfg.Subsystem, cfg.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}
