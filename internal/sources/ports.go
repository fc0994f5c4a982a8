package sources

import (
	"context"

	"regdash/internal/core"
)

// Ports for outbound adapters.
type (
	// ObservationReader loads the full registrations table from a backing store.
	ObservationReader interface {
		ReadObservations(ctx context.Context) ([]core.Observation, error)
	}

	// ObservationWriter replaces the registrations table held by a backing store.
	ObservationWriter interface {
		WriteObservations(ctx context.Context, obs []core.Observation) error
	}
)
