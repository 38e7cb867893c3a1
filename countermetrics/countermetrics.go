// Package countermetrics exports the value of a count as a gauge, for
// Prometheus and for OpenTelemetry.
//
// The gauges read the count when they are collected; nothing is recorded on the
// mutation path, so exporting a count does not slow down Counters.
//
//	weak := counter.NewWeak()
//	_, err := countermetrics.Prometheus(weak,
//	    countermetrics.WithName("open_sessions"),
//	    countermetrics.WithHelp("Number of open sessions"),
//	)
package countermetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Source is anything with a count: counter.Counter, counter.WeakCounter,
// counter.NotifyHandle and inflight.Group.
type Source interface {
	Count() int64
}

// Config configures an exported gauge.
type Config struct {
	// Namespace is the metrics namespace (default: "livecount").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// Name is the metric name (default: "count").
	Name string

	// Help describes the metric (default: "Current value of a live-instance count").
	Help string

	// ConstLabels are constant labels added to the metric.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures an exported gauge.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithName sets the metric name.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithHelp sets the metric description.
func WithHelp(help string) Option {
	return func(c *Config) {
		c.Help = help
	}
}

// WithConstLabels sets constant labels for the metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry. OpenTelemetry gauges ignore it.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "livecount",
		Name:      "count",
		Help:      "Current value of a live-instance count",
		Registry:  prometheus.DefaultRegisterer,
	}
}

func newConfig(opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Prometheus registers a gauge that reports src.Count() on every scrape and
// returns it.
func Prometheus(src Source, opts ...Option) (prometheus.GaugeFunc, error) {
	cfg := newConfig(opts)
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        cfg.Name,
		Help:        cfg.Help,
		ConstLabels: cfg.ConstLabels,
	}, func() float64 {
		return float64(src.Count())
	})
	if err := cfg.Registry.Register(gauge); err != nil {
		return nil, err
	}
	return gauge, nil
}
