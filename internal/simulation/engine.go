// Package simulation implements the consortium simulation engine: the
// installment schedule, the post-contemplation recalculation, the capital
// gain and leverage projections, and the summary indicators.
//
// The engine is stateless and synchronous. Every call re-derives its series
// from the inputs it receives and returns freshly allocated slices, so two
// runs never share state. Degenerate inputs produce empty series rather than
// errors or non-finite numbers.
//
// All monetary values use shopspring/decimal.
package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

var (
	// DefaultAnnualIndexRate is applied for an index with no configured rate.
	DefaultAnnualIndexRate = decimal.NewFromFloat(0.06)

	// ShortStayManagementFee is the share of short-stay gross revenue kept
	// by the operator.
	ShortStayManagementFee = decimal.NewFromFloat(0.15)

	// DownPaymentRatio is the fraction of the property value assumed as the
	// investor's own capital when computing ROI.
	DownPaymentRatio = decimal.NewFromFloat(0.2)

	// DaysPerMonth is the month length used for nightly-rate revenue.
	DaysPerMonth = decimal.NewFromInt(30)

	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// IndexRates maps each inflation index to its annual rate as a fraction
// (0.06 for 6%).
type IndexRates map[model.IndexType]decimal.Decimal

// DefaultIndexRates returns the reference rates used when no feed or
// configuration overrides them.
func DefaultIndexRates() IndexRates {
	return IndexRates{
		model.IndexIPCA: DefaultAnnualIndexRate,
		model.IndexINCC: DefaultAnnualIndexRate,
		model.IndexIGPM: DefaultAnnualIndexRate,
	}
}

// Rate returns the annual rate for idx.
func (r IndexRates) Rate(idx model.IndexType) decimal.Decimal {
	if rate, ok := r[idx]; ok {
		return rate
	}
	return DefaultAnnualIndexRate
}

// Engine runs simulations against a fixed set of index rates.
type Engine struct {
	rates IndexRates
}

// NewEngine creates an engine. A nil rates map falls back to
// DefaultIndexRates.
func NewEngine(rates IndexRates) *Engine {
	if rates == nil {
		rates = DefaultIndexRates()
	}
	copied := make(IndexRates, len(rates))
	for k, v := range rates {
		copied[k] = v
	}
	return &Engine{rates: copied}
}

// Rates returns a copy of the engine's index rates.
func (e *Engine) Rates() IndexRates {
	out := make(IndexRates, len(e.rates))
	for k, v := range e.rates {
		out[k] = v
	}
	return out
}

// Run executes the full pipeline for one input tuple.
func (e *Engine) Run(in model.SimulationInput) *model.SimulationResult {
	if in.InstallmentType == "" {
		in.InstallmentType = model.InstallmentFull
	}

	schedule := e.Schedule(in.Administrator, in.Product)
	post := Recalculate(schedule, in.ContemplationMonth, in.InstallmentType)

	purchaseMonth := in.CapitalGainPurchaseMonth
	if purchaseMonth == 0 {
		purchaseMonth = in.ContemplationMonth
	}
	gain := ProjectCapitalGain(schedule, purchaseMonth, in.CapitalGainDiscount)
	leverage := ProjectLeverage(in.Property, in.ContemplationMonth, len(schedule), post)

	return &model.SimulationResult{
		Schedule:          schedule,
		PostContemplation: post,
		CapitalGain:       gain,
		Leverage:          leverage,
		Summary:           Summarize(in, schedule, post, gain, leverage),
	}
}

// percentOf returns base * pct / 100.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}
