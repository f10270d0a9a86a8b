package metrics

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/wedlockhq/wedlock/internal/application/rsvp"
	httpapi "github.com/wedlockhq/wedlock/internal/infra/adapters/http"
	"github.com/wedlockhq/wedlock/pkg/common"
)

const namespace = "wedlock"

// Registry provides access to all metric implementations.
// It centralizes the creation and management of metrics instances.
type Registry struct {
	API    httpapi.APIMetrics
	RSVP   rsvp.Metrics
	Health common.HealthMetrics
}

// NewRegistry creates and initializes all metrics implementations.
// It uses a single meter provider to ensure consistent configuration.
func NewRegistry(mp metric.MeterProvider) (*Registry, error) {
	apiMetrics, err := newAPIMetrics(mp)
	if err != nil {
		return nil, err
	}

	rsvpMetrics, err := newRSVPMetrics(mp)
	if err != nil {
		return nil, err
	}

	healthMetrics, err := newHealthMetrics(mp)
	if err != nil {
		return nil, err
	}

	return &Registry{
		API:    apiMetrics,
		RSVP:   rsvpMetrics,
		Health: healthMetrics,
	}, nil
}
