package mtf

import (
	"mtf-simulator/internal/types"
)

// DefaultLeverageROIFactor is how many times the cash ROI the leveraged ROI
// must exceed before MTF is recommended.
const DefaultLeverageROIFactor = 1.5

// Recommend picks a financing mode for p given its economics e.
// Rules are evaluated in order and the first match wins:
//
//  1. target at or below the MTF breakeven (or no breakeven) -> CNC
//  2. holding longer than the ideal breakeven days (when non-zero) -> CNC
//  3. MTF ROI above factor x CNC ROI -> MTF
//  4. otherwise CNC
//
// A non-positive factor falls back to DefaultLeverageROIFactor.
func Recommend(p types.TradeParameters, e types.TradeEconomics, factor float64) types.Recommendation {
	if factor <= 0 {
		factor = DefaultLeverageROIFactor
	}

	if e.BreakevenPriceLeveraged == nil || p.TargetPrice <= *e.BreakevenPriceLeveraged {
		return types.Recommendation{
			Mode:     types.ModeCash,
			Rule:     types.RuleBelowBreakeven,
			Severity: types.SeverityWarning,
			Message:  "CNC recommended: target is below MTF breakeven, MTF won't cover costs.",
		}
	}

	// Ideal days that are undefined or round to zero never make holding too long.
	if days, ok := e.IdealHoldingDays(); ok && days != 0 && float64(p.HoldingDays) > days {
		return types.Recommendation{
			Mode:     types.ModeCash,
			Rule:     types.RuleHoldingTooLong,
			Severity: types.SeverityInfo,
			Message:  "CNC recommended: holding period too long, interest eats returns.",
		}
	}

	if e.RoiLeveragedModePct > e.RoiCashModePct*factor {
		return types.Recommendation{
			Mode:     types.ModeLeveraged,
			Rule:     types.RuleLeverageRewarded,
			Severity: types.SeveritySuccess,
			Message:  "MTF looks attractive: ROI is much higher after costs.",
		}
	}

	return types.Recommendation{
		Mode:     types.ModeCash,
		Rule:     types.RuleDefaultCash,
		Severity: types.SeverityInfo,
		Message:  "CNC is safer: ROI boost from MTF isn't significant.",
	}
}
