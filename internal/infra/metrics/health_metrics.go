package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wedlockhq/wedlock/pkg/common"
)

var _ common.HealthMetrics = (*healthMetrics)(nil)

type healthMetrics struct {
	probes metric.Int64Counter
}

func newHealthMetrics(mp metric.MeterProvider) (*healthMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(healthMetrics)
	var err error

	if m.probes, err = meter.Int64Counter(
		"health_probe_total",
		metric.WithDescription("Total number of health and readiness probes"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *healthMetrics) IncProbe(ctx context.Context, probe string, ok bool) {
	m.probes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("probe", probe),
		attribute.Bool("ok", ok),
	))
}
