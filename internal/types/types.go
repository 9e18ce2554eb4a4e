package types

import (
	"math"
	"time"
)

// Mode is a way of financing the position.
type Mode string

const (
	// ModeCash is delivery (CNC): the full position is paid from own capital.
	ModeCash Mode = "CNC"
	// ModeLeveraged is the margin trading facility (MTF): the broker funds part of the position.
	ModeLeveraged Mode = "MTF"
)

// TradeParameters is the input record for one simulation.
type TradeParameters struct {
	Symbol                string  `json:"symbol" yaml:"symbol"`
	LastTradedPrice       float64 `json:"ltp" yaml:"ltp"`
	Investment            float64 `json:"investment" yaml:"investment"`
	ExposureMultiplier    float64 `json:"exposure" yaml:"exposure"`
	TargetPrice           float64 `json:"target_price" yaml:"target_price"`
	StopPrice             float64 `json:"stop_price" yaml:"stop_price"`
	HoldingDays           int     `json:"holding_days" yaml:"holding_days"`
	AnnualInterestRatePct float64 `json:"interest_rate_pct" yaml:"interest_rate_pct"`
	BrokeragePct          float64 `json:"brokerage_pct" yaml:"brokerage_pct"`
	TransactionChargesPct float64 `json:"txn_charges_pct" yaml:"txn_charges_pct"`
	OtherChargesPct       float64 `json:"other_charges_pct" yaml:"other_charges_pct"`
}

// TradeEconomics holds every metric derived from a TradeParameters record.
// Nil pointers mark values that are undefined for the given inputs.
type TradeEconomics struct {
	TotalPosition  float64 `json:"total_position"`
	Quantity       float64 `json:"quantity"`
	BorrowedMargin float64 `json:"borrowed_margin"`
	Turnover       float64 `json:"turnover"`

	BrokerageFee   float64 `json:"brokerage_fee"`
	TransactionFee float64 `json:"transaction_fee"`
	OtherFee       float64 `json:"other_fee"`
	GST            float64 `json:"gst"`
	BorrowInterest float64 `json:"borrow_interest"`

	CostsCashMode      float64 `json:"costs_cnc"`
	CostsLeveragedMode float64 `json:"costs_mtf"`

	BreakevenPriceLeveraged *float64 `json:"breakeven_price_mtf"`

	NetPnlCashMode      float64 `json:"net_pnl_cnc"`
	NetPnlLeveragedMode float64 `json:"net_pnl_mtf"`
	RoiCashModePct      float64 `json:"roi_cnc_pct"`
	RoiLeveragedModePct float64 `json:"roi_mtf_pct"`

	DailyInterest      float64  `json:"daily_interest"`
	IdealBreakevenDays *float64 `json:"ideal_breakeven_days"`
}

// IdealHoldingDays returns IdealBreakevenDays rounded to whole days
// (half to even), or false when it is undefined. The result stays a
// float64: tiny interest rates push it far beyond the int range.
func (e TradeEconomics) IdealHoldingDays() (float64, bool) {
	if e.IdealBreakevenDays == nil {
		return 0, false
	}
	return math.RoundToEven(*e.IdealBreakevenDays), true
}

// Severity is used by the presentation layer to style a recommendation.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// RecommendationRule identifies which branch of the rule produced the advice.
type RecommendationRule string

const (
	RuleBelowBreakeven   RecommendationRule = "BELOW_MTF_BREAKEVEN"
	RuleHoldingTooLong   RecommendationRule = "HOLDING_TOO_LONG"
	RuleLeverageRewarded RecommendationRule = "MTF_ROI_MUCH_HIGHER"
	RuleDefaultCash      RecommendationRule = "CNC_SAFER"
)

type Recommendation struct {
	Mode     Mode               `json:"mode"`
	Rule     RecommendationRule `json:"rule"`
	Severity Severity           `json:"severity"`
	Message  string             `json:"message"`
}

// SweepPoint is one x position of the P&L and ROI charts.
type SweepPoint struct {
	Price           float64 `json:"price"`
	PnlCash         float64 `json:"pnl_cnc"`
	PnlLeveraged    float64 `json:"pnl_mtf"`
	RoiCashPct      float64 `json:"roi_cnc_pct"`
	RoiLeveragedPct float64 `json:"roi_mtf_pct"`
}

type SimulationResult struct {
	Parameters     TradeParameters `json:"parameters"`
	Economics      TradeEconomics  `json:"economics"`
	Recommendation Recommendation  `json:"recommendation"`
	Sweep          []SweepPoint    `json:"sweep"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// Finite reports whether every number in r is finite. Valid but extreme
// inputs, such as an LTP near zero, overflow to infinities.
func (r *SimulationResult) Finite() bool {
	e := r.Economics
	vals := []float64{
		e.TotalPosition, e.Quantity, e.BorrowedMargin, e.Turnover,
		e.BrokerageFee, e.TransactionFee, e.OtherFee, e.GST, e.BorrowInterest,
		e.CostsCashMode, e.CostsLeveragedMode,
		e.NetPnlCashMode, e.NetPnlLeveragedMode, e.RoiCashModePct, e.RoiLeveragedModePct,
		e.DailyInterest,
	}
	for _, p := range []*float64{e.BreakevenPriceLeveraged, e.IdealBreakevenDays} {
		if p != nil {
			vals = append(vals, *p)
		}
	}
	for _, pt := range r.Sweep {
		vals = append(vals, pt.Price, pt.PnlCash, pt.PnlLeveraged, pt.RoiCashPct, pt.RoiLeveragedPct)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
