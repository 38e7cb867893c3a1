package countermetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/notorious-go/livecount/counter"
	"github.com/notorious-go/livecount/countermetrics"
	"github.com/notorious-go/livecount/inflight"
)

func TestPrometheusGaugeFollowsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	weak := counter.NewWeak()
	defer weak.Release()

	gauge, err := countermetrics.Prometheus(weak,
		countermetrics.WithRegistry(reg),
		countermetrics.WithSubsystem("sessions"),
		countermetrics.WithName("open"),
		countermetrics.WithConstLabels(prometheus.Labels{"pool": "primary"}),
	)
	require.NoError(t, err)
	require.InDelta(t, 0, testutil.ToFloat64(gauge), 0)

	c := weak.SpawnUpgradeWithSize(4)
	require.InDelta(t, 4, testutil.ToFloat64(gauge), 0)
	c.Release()
	require.InDelta(t, 0, testutil.ToFloat64(gauge), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "livecount_sessions_open", families[0].GetName())
	require.Equal(t, "pool", families[0].GetMetric()[0].GetLabel()[0].GetName())
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := inflight.New()

	_, err := countermetrics.Prometheus(g, countermetrics.WithRegistry(reg))
	require.NoError(t, err)
	_, err = countermetrics.Prometheus(g, countermetrics.WithRegistry(reg))
	require.Error(t, err)
}

func TestObserveOTel(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { require.NoError(t, provider.Shutdown(t.Context())) }()

	c := counter.NewWithSize(3)
	defer c.Release()

	_, err := countermetrics.ObserveOTel(provider.Meter("countermetrics_test"), c,
		countermetrics.WithName("leases"),
		countermetrics.WithHelp("Active leases"),
	)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	require.Equal(t, "livecount.leases", m.Name)
	require.Equal(t, "Active leases", m.Description)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "unexpected data type %T", m.Data)
	require.Len(t, gauge.DataPoints, 1)
	require.EqualValues(t, 3, gauge.DataPoints[0].Value)
}
