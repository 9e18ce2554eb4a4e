package mtf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mtf-simulator/internal/types"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name     string
		params   func() types.TradeParameters
		wantMode types.Mode
		wantRule types.RecommendationRule
	}{
		{
			name:     "baseline leverage pays off",
			params:   itcScenario,
			wantMode: types.ModeLeveraged,
			wantRule: types.RuleLeverageRewarded,
		},
		{
			name: "target below breakeven",
			params: func() types.TradeParameters {
				p := itcScenario()
				p.TargetPrice = 415
				return p
			},
			wantMode: types.ModeCash,
			wantRule: types.RuleBelowBreakeven,
		},
		{
			name: "target exactly at breakeven",
			params: func() types.TradeParameters {
				p := itcScenario()
				p.TargetPrice = *Compute(p).BreakevenPriceLeveraged
				return p
			},
			wantMode: types.ModeCash,
			wantRule: types.RuleBelowBreakeven,
		},
		{
			name: "undefined breakeven counts as not covered",
			params: func() types.TradeParameters {
				p := itcScenario()
				p.LastTradedPrice = 0
				return p
			},
			wantMode: types.ModeCash,
			wantRule: types.RuleBelowBreakeven,
		},
		{
			// Rebates make trading costs negative, pulling ideal days below the holding period.
			name: "holding beyond ideal days",
			params: func() types.TradeParameters {
				p := itcScenario()
				p.OtherChargesPct = -0.2
				return p
			},
			wantMode: types.ModeCash,
			wantRule: types.RuleHoldingTooLong,
		},
		{
			// Ideal days reach ~8.4e21, far past the int range.
			name: "negligible interest rate never makes holding too long",
			params: func() types.TradeParameters {
				p := itcScenario()
				p.AnnualInterestRatePct = 1e-20
				return p
			},
			wantMode: types.ModeLeveraged,
			wantRule: types.RuleLeverageRewarded,
		},
		{
			name: "no leverage falls through to default",
			params: func() types.TradeParameters {
				return types.TradeParameters{
					LastTradedPrice:       100,
					Investment:            100000,
					ExposureMultiplier:    1,
					TargetPrice:           110,
					HoldingDays:           400,
					AnnualInterestRatePct: 9,
					BrokeragePct:          0.05,
					TransactionChargesPct: 0.02,
					OtherChargesPct:       0.01,
				}
			},
			wantMode: types.ModeCash,
			wantRule: types.RuleDefaultCash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params()
			rec := Recommend(p, Compute(p), DefaultLeverageROIFactor)
			assert.Equal(t, tt.wantMode, rec.Mode)
			assert.Equal(t, tt.wantRule, rec.Rule)
			assert.NotEmpty(t, rec.Message)
			assert.NotEmpty(t, rec.Severity)
		})
	}
}

func TestRecommendFactor(t *testing.T) {
	p := itcScenario()
	e := Compute(p)

	// 96.12% vs 19.81%: leverage wins at 1.5x but not at 5x.
	assert.Equal(t, types.ModeLeveraged, Recommend(p, e, 1.5).Mode)
	assert.Equal(t, types.RuleDefaultCash, Recommend(p, e, 5).Rule)
	assert.Equal(t, Recommend(p, e, DefaultLeverageROIFactor), Recommend(p, e, 0))
}

func TestRecommendIsDeterministic(t *testing.T) {
	p := itcScenario()
	assert.Equal(t, Recommend(p, Compute(p), 1.5), Recommend(p, Compute(p), 1.5))
}

func TestRecommendIdealDaysThreshold(t *testing.T) {
	p := itcScenario()
	days := func(v float64) types.TradeEconomics {
		e := Compute(p)
		e.IdealBreakevenDays = &v
		return e
	}

	tests := []struct {
		name  string
		ideal float64
		want  types.RecommendationRule
	}{
		{"rounds to zero", 0.4, types.RuleLeverageRewarded},
		{"negative zero", -0.3, types.RuleLeverageRewarded},
		{"beyond int64", 1e30, types.RuleLeverageRewarded},
		{"equal to holding days", 30, types.RuleLeverageRewarded},
		{"half rounds up to even", 29.5, types.RuleLeverageRewarded},
		{"half rounds down to even", 28.5, types.RuleHoldingTooLong},
		{"one day short", 29, types.RuleHoldingTooLong},
		{"negative", -5, types.RuleHoldingTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(p, days(tt.ideal), DefaultLeverageROIFactor).Rule)
		})
	}
}
