package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

// Summarize reduces the series of a run into its headline indicators.
// Indicators backed by an empty series are zero, and every ratio
// short-circuits on a zero denominator.
//
// TotalPaidByConsortium is fed by the post-contemplation series when it
// exists. When contemplation falls outside the term that series is empty
// and the total is the sum of the selected installment over the whole
// schedule instead, and PercentagePaidByConsortium follows it.
func Summarize(
	in model.SimulationInput,
	schedule []model.InstallmentCalculation,
	post []model.PostContemplationCalculation,
	gain []model.CapitalGainCalculation,
	leverage []model.LeverageCalculation,
) model.SummaryIndicators {
	var s model.SummaryIndicators
	if len(schedule) == 0 {
		return zeroSummary()
	}

	installmentType := in.InstallmentType
	if installmentType == "" {
		installmentType = model.InstallmentFull
	}

	// Without a contemplation inside the term the whole schedule is paid
	// with the selected variant.
	if len(post) > 0 {
		s.TotalPaidByConsortium = post[len(post)-1].PaidAmount
	} else {
		total := decimal.Zero
		for _, row := range schedule {
			total = total.Add(row.Installment(installmentType))
		}
		s.TotalPaidByConsortium = total
	}

	s.FinalCreditValue = schedule[len(schedule)-1].CreditValue

	s.TotalCapitalGain = decimal.Zero
	if len(gain) > 0 {
		s.TotalCapitalGain = gain[len(gain)-1].TotalProfit
	}

	s.TotalCashFlow = decimal.Zero
	s.FinalROI = decimal.Zero
	if len(leverage) > 0 {
		last := leverage[len(leverage)-1]
		s.TotalCashFlow = last.CumulativeCashFlow
		s.FinalROI = last.ROI
	}

	s.PercentagePaidByConsortium = decimal.Zero
	if !s.FinalCreditValue.IsZero() {
		s.PercentagePaidByConsortium = s.TotalPaidByConsortium.Div(s.FinalCreditValue).Mul(hundred)
	}

	s.AdvancePayment = schedule[0].Installment(installmentType).
		Mul(decimal.NewFromInt(int64(in.Product.AdvanceInstallments)))

	credit := contemplatedCredit(schedule, in.ContemplationMonth)
	bid, err := EmbeddedBid(credit, in.EmbeddedBidPct, in.Administrator)
	if err != nil {
		bid = decimal.Zero
	}
	s.EmbeddedBid = bid
	s.NetCreditReceived = credit.Sub(bid)

	return s
}

// contemplatedCredit is the credit value in the contemplation month, or the
// final credit value when contemplation falls outside the schedule.
func contemplatedCredit(schedule []model.InstallmentCalculation, contemplationMonth int) decimal.Decimal {
	if contemplationMonth >= 1 && contemplationMonth <= len(schedule) {
		return schedule[contemplationMonth-1].CreditValue
	}
	return schedule[len(schedule)-1].CreditValue
}

func zeroSummary() model.SummaryIndicators {
	return model.SummaryIndicators{
		TotalPaidByConsortium:      decimal.Zero,
		FinalCreditValue:           decimal.Zero,
		TotalCapitalGain:           decimal.Zero,
		TotalCashFlow:              decimal.Zero,
		FinalROI:                   decimal.Zero,
		PercentagePaidByConsortium: decimal.Zero,
		AdvancePayment:             decimal.Zero,
		EmbeddedBid:                decimal.Zero,
		NetCreditReceived:          decimal.Zero,
	}
}
