package simulator

import (
	"mtf-simulator/internal/interfaces"
	"mtf-simulator/internal/store"
)

// New returns a Simulator. Every call is an independent recomputation, so
// the returned value may be shared between goroutines.
func New(opts Options) interfaces.Simulator {
	return newSimulator(opts)
}

// FromConfig builds a Simulator with the sweep range and ROI factor of cfg.
func FromConfig(cfg *store.Config) interfaces.Simulator {
	return newSimulator(Options{
		Sweep:             cfg.Sweep,
		LeverageROIFactor: cfg.Recommendation.LeverageROIFactor,
	})
}
