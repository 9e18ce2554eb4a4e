package mtf

import (
	"mtf-simulator/internal/types"
)

// SweepRange describes the chart x axis in whole percent of LTP.
type SweepRange struct {
	LowPct  int `yaml:"low_pct" json:"low_pct"`
	HighPct int `yaml:"high_pct" json:"high_pct"`
	StepPct int `yaml:"step_pct" json:"step_pct"`
}

// DefaultSweepRange covers 80% to 120% of LTP in 1% steps.
func DefaultSweepRange() SweepRange {
	return SweepRange{LowPct: 80, HighPct: 120, StepPct: 1}
}

// Points returns the number of prices the range produces.
func (r SweepRange) Points() int {
	if r.StepPct <= 0 || r.HighPct < r.LowPct {
		return 0
	}
	return (r.HighPct-r.LowPct)/r.StepPct + 1
}

// Sweep evaluates net P&L and ROI for both modes at each price of r.
// Costs and quantity are taken from e, so only the exit price varies.
func Sweep(p types.TradeParameters, e types.TradeEconomics, r SweepRange) []types.SweepPoint {
	n := r.Points()
	if n == 0 {
		return nil
	}

	points := make([]types.SweepPoint, 0, n)
	for k := r.LowPct; k <= r.HighPct; k += r.StepPct {
		price := p.LastTradedPrice * float64(k) / 100
		gross := (price - p.LastTradedPrice) * e.Quantity
		pt := types.SweepPoint{
			Price:        price,
			PnlCash:      gross - e.CostsCashMode,
			PnlLeveraged: gross - e.CostsLeveragedMode,
		}
		pt.RoiCashPct = roiPct(pt.PnlCash, e.TotalPosition)
		pt.RoiLeveragedPct = roiPct(pt.PnlLeveraged, p.Investment)
		points = append(points, pt)
	}
	return points
}
