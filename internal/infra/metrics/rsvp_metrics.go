package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wedlockhq/wedlock/internal/application/rsvp"
)

var _ rsvp.Metrics = (*rsvpMetrics)(nil)

type rsvpMetrics struct {
	submissionSuccess  metric.Int64Counter
	submissionFailure  metric.Int64Counter
	submissionDuration metric.Float64Histogram
}

func newRSVPMetrics(mp metric.MeterProvider) (*rsvpMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(rsvpMetrics)
	var err error

	if m.submissionSuccess, err = meter.Int64Counter(
		"rsvp_submission_success_total",
		metric.WithDescription("Total number of successful RSVP submissions"),
	); err != nil {
		return nil, err
	}

	if m.submissionFailure, err = meter.Int64Counter(
		"rsvp_submission_failure_total",
		metric.WithDescription("Total number of failed RSVP submissions"),
	); err != nil {
		return nil, err
	}

	if m.submissionDuration, err = meter.Float64Histogram(
		"rsvp_submission_duration_seconds",
		metric.WithDescription("Duration of RSVP submissions in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *rsvpMetrics) IncSubmissionSuccess(ctx context.Context, status string) {
	m.submissionSuccess.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *rsvpMetrics) IncSubmissionFailure(ctx context.Context, reason string) {
	m.submissionFailure.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (m *rsvpMetrics) ObserveSubmissionDuration(ctx context.Context, status string, duration time.Duration) {
	m.submissionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
}
