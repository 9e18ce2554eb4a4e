package interfaces

import (
	"context"

	"mtf-simulator/internal/types"
)

// Simulator evaluates one trade scenario under both financing modes.
type Simulator interface {
	Simulate(ctx context.Context, params types.TradeParameters) (*types.SimulationResult, error)
}
