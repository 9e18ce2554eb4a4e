package simulator

import (
	"context"
	"time"

	"mtf-simulator/internal/interfaces"
	"mtf-simulator/internal/logger"
	"mtf-simulator/internal/mtf"
	"mtf-simulator/internal/types"
)

// Options fixes the parts of a simulation that do not come from the operator.
type Options struct {
	Sweep             mtf.SweepRange
	LeverageROIFactor float64
}

// DefaultOptions returns the 80-120% sweep and the 1.5x ROI factor.
func DefaultOptions() Options {
	return Options{
		Sweep:             mtf.DefaultSweepRange(),
		LeverageROIFactor: mtf.DefaultLeverageROIFactor,
	}
}

type simulator struct {
	opts Options
	now  func() time.Time
}

var _ interfaces.Simulator = (*simulator)(nil)

func newSimulator(opts Options) *simulator {
	return &simulator{opts: opts, now: time.Now}
}

// Simulate computes economics, recommendation and chart series for params.
// Parameters are expected to be validated already; the only error is a
// cancelled context.
func (s *simulator) Simulate(ctx context.Context, params types.TradeParameters) (*types.SimulationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	econ := mtf.Compute(params)
	rec := mtf.Recommend(params, econ, s.opts.LeverageROIFactor)
	sweep := mtf.Sweep(params, econ, s.opts.Sweep)

	fields := []any{
		"roi_cnc_pct", econ.RoiCashModePct,
		"roi_mtf_pct", econ.RoiLeveragedModePct,
		"holding_days", params.HoldingDays,
	}
	if econ.BreakevenPriceLeveraged != nil {
		fields = append(fields, "breakeven_mtf", *econ.BreakevenPriceLeveraged)
	}
	if days, ok := econ.IdealHoldingDays(); ok {
		fields = append(fields, "ideal_days", days)
	}
	logger.Recommendation(ctx, params.Symbol, string(rec.Mode), string(rec.Rule), rec.Message, fields...)

	if logger.IsDebugEnabled() && len(sweep) > 0 {
		low, high := sweep[0], sweep[len(sweep)-1]
		logger.Debug(ctx, "Sweep computed",
			"points", len(sweep),
			"low_price", low.Price,
			"high_price", high.Price,
			"pnl_mtf_low", low.PnlLeveraged,
			"pnl_mtf_high", high.PnlLeveraged,
		)
	}

	return &types.SimulationResult{
		Parameters:     params,
		Economics:      econ,
		Recommendation: rec,
		Sweep:          sweep,
		ComputedAt:     s.now().UTC(),
	}, nil
}
