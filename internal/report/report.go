// Package report formats simulation results as metric tiles, a summary
// table, plain text and CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"mtf-simulator/internal/types"
)

// Undefined is shown in place of values that cannot be computed.
const Undefined = "undefined"

// Tile is a labeled headline metric.
type Tile struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Row is one key/value line of the summary table.
type Row struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Money rounds v to 2 decimal places, half away from zero.
func Money(v float64) string {
	return fixed(v, 2)
}

// Whole rounds v to an integer amount.
func Whole(v float64) string {
	return fixed(v, 0)
}

// fixed formats v with places decimals. decimal cannot represent NaN or
// infinities, which only arise from overflowing inputs.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func optionalMoney(v *float64) string {
	if v == nil {
		return Undefined
	}
	return Money(*v)
}

// IdealDays renders the ideal holding days caption value.
func IdealDays(e types.TradeEconomics) string {
	days, ok := e.IdealHoldingDays()
	if !ok {
		return Undefined
	}
	return Whole(days)
}

// Tiles returns the six headline metrics in display order.
func Tiles(res *types.SimulationResult) []Tile {
	e := res.Economics
	return []Tile{
		{Label: "Total Position (₹)", Value: Whole(e.TotalPosition)},
		{Label: "Quantity", Value: Money(e.Quantity)},
		{Label: "Broker Funded Margin (₹)", Value: Whole(e.BorrowedMargin)},
		{Label: "Breakeven Price (₹)", Value: optionalMoney(e.BreakevenPriceLeveraged)},
		{Label: "Total Charges CNC (₹)", Value: Money(e.CostsCashMode)},
		{Label: "Total Charges MTF (₹)", Value: Money(e.CostsLeveragedMode)},
	}
}

// Summary returns net P&L and ROI at the target price followed by the
// cost breakdown.
func Summary(res *types.SimulationResult) []Row {
	e := res.Economics
	return []Row{
		{Key: "CNC Net P&L (₹)", Value: Money(e.NetPnlCashMode)},
		{Key: "MTF Net P&L (₹)", Value: Money(e.NetPnlLeveragedMode)},
		{Key: "CNC ROI %", Value: Money(e.RoiCashModePct)},
		{Key: "MTF ROI %", Value: Money(e.RoiLeveragedModePct)},
		{Key: "Turnover (₹)", Value: Money(e.Turnover)},
		{Key: "Brokerage (₹)", Value: Money(e.BrokerageFee)},
		{Key: "Transaction Charges (₹)", Value: Money(e.TransactionFee)},
		{Key: "Other Charges (₹)", Value: Money(e.OtherFee)},
		{Key: "GST (₹)", Value: Money(e.GST)},
		{Key: "MTF Interest (₹)", Value: Money(e.BorrowInterest)},
		{Key: "Ideal Holding Days to Breakeven", Value: IdealDays(e)},
	}
}

// WriteText renders tiles, summary and recommendation for a terminal.
func WriteText(w io.Writer, res *types.SimulationResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	p := res.Parameters
	fmt.Fprintf(tw, "MTF Position Simulator\t%s @ %s\n", p.Symbol, Money(p.LastTradedPrice))
	fmt.Fprintf(tw, "Target / Stoploss\t%s / %s\n", Money(p.TargetPrice), Money(p.StopPrice))
	fmt.Fprintf(tw, "Holding\t%d days at %s%% p.a.\n", p.HoldingDays, Money(p.AnnualInterestRatePct))
	fmt.Fprintln(tw)

	for _, t := range Tiles(res) {
		fmt.Fprintf(tw, "%s\t%s\n", t.Label, t.Value)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Net P&L at Target Price")
	for _, r := range Summary(res) {
		fmt.Fprintf(tw, "%s\t%s\n", r.Key, r.Value)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Recommendation\t[%s] %s\n", res.Recommendation.Mode, res.Recommendation.Message)

	return tw.Flush()
}

// WriteSweepCSV writes the P&L and ROI series, one row per price.
func WriteSweepCSV(w io.Writer, points []types.SweepPoint) error {
	cw := csv.NewWriter(w)
	headers := []string{"price", "pnl_cnc", "pnl_mtf", "roi_cnc_pct", "roi_mtf_pct"}
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, pt := range points {
		rec := []string{
			Money(pt.Price),
			Money(pt.PnlCash),
			Money(pt.PnlLeveraged),
			fixed(pt.RoiCashPct, 4),
			fixed(pt.RoiLeveragedPct, 4),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
