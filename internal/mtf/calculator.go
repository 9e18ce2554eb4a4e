// Package mtf computes the economics of a delivery (CNC) trade against the
// same trade funded through a margin trading facility (MTF).
package mtf

import (
	"mtf-simulator/internal/types"
)

// GSTRate is charged on brokerage and exchange transaction charges.
const GSTRate = 0.18

const daysPerYear = 365.0

// Compute derives every metric for p. It is pure and total: any finite
// input yields a result, and quantities that would require dividing by
// zero are reported as undefined (nil) instead.
//
// Inputs are not validated here; negative rates or holding days are
// computed with as given.
func Compute(p types.TradeParameters) types.TradeEconomics {
	var e types.TradeEconomics

	e.TotalPosition = p.Investment * p.ExposureMultiplier
	if p.LastTradedPrice != 0 {
		e.Quantity = e.TotalPosition / p.LastTradedPrice
	}
	e.BorrowedMargin = e.TotalPosition - p.Investment
	e.Turnover = e.TotalPosition * 2

	e.BrokerageFee = e.Turnover * p.BrokeragePct / 100
	e.TransactionFee = e.Turnover * p.TransactionChargesPct / 100
	e.OtherFee = e.Turnover * p.OtherChargesPct / 100
	e.GST = (e.BrokerageFee + e.TransactionFee) * GSTRate

	// Simple interest, pro-rated linearly over the holding period.
	e.BorrowInterest = e.BorrowedMargin * (p.AnnualInterestRatePct / 100) * (float64(p.HoldingDays) / daysPerYear)

	e.CostsCashMode = e.BrokerageFee + e.TransactionFee + e.OtherFee + e.GST
	e.CostsLeveragedMode = e.CostsCashMode + e.BorrowInterest

	if e.Quantity != 0 {
		be := p.LastTradedPrice + e.CostsLeveragedMode/e.Quantity
		e.BreakevenPriceLeveraged = &be
	}

	gross := (p.TargetPrice - p.LastTradedPrice) * e.Quantity
	e.NetPnlCashMode = gross - e.CostsCashMode
	e.NetPnlLeveragedMode = gross - e.CostsLeveragedMode

	// Cash ROI is measured on the full position, leveraged ROI on own capital.
	e.RoiCashModePct = roiPct(e.NetPnlCashMode, e.TotalPosition)
	e.RoiLeveragedModePct = roiPct(e.NetPnlLeveragedMode, p.Investment)

	e.DailyInterest = e.BorrowedMargin * (p.AnnualInterestRatePct / 100) / daysPerYear
	if e.DailyInterest > 0 {
		days := e.CostsLeveragedMode / e.DailyInterest
		e.IdealBreakevenDays = &days
	}

	return e
}

// roiPct returns pnl as a percentage of base, or 0 for a zero base.
func roiPct(pnl, base float64) float64 {
	if base == 0 {
		return 0
	}
	return pnl / base * 100
}
