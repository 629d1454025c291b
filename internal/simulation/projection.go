package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

// ProjectCapitalGain models buying credit rights at discountPct below their
// value in purchaseMonth and holding them to the end of the term.
//
//	purchaseCost     = credit * (1 - discount/100)
//	totalProfit      = credit - purchaseCost
//	monthlyProfit    = totalProfit / (months held)
//	profitPercentage = totalProfit / purchaseCost * 100
//
// Empty when the discount is zero or the purchase month is outside the term.
func ProjectCapitalGain(schedule []model.InstallmentCalculation, purchaseMonth int, discountPct decimal.Decimal) []model.CapitalGainCalculation {
	term := len(schedule)
	if discountPct.IsZero() || purchaseMonth < 1 || purchaseMonth > term {
		return []model.CapitalGainCalculation{}
	}

	kept := one.Sub(discountPct.Div(hundred))
	rows := make([]model.CapitalGainCalculation, 0, term-purchaseMonth+1)

	for m := purchaseMonth; m <= term; m++ {
		credit := schedule[m-1].CreditValue
		cost := credit.Mul(kept)
		profit := credit.Sub(cost)

		pct := decimal.Zero
		if !cost.IsZero() {
			pct = profit.Div(cost).Mul(hundred)
		}

		rows = append(rows, model.CapitalGainCalculation{
			Month:            m,
			PurchaseCost:     cost,
			MonthlyProfit:    profit.Div(decimal.NewFromInt(int64(m - purchaseMonth + 1))),
			ProfitPercentage: pct,
			TotalProfit:      profit,
		})
	}
	return rows
}

// ProjectLeverage compares property income with the post-contemplation
// installment for every month after contemplation. Empty when there is no
// property.
func ProjectLeverage(property *model.Property, contemplationMonth, termMonths int, post []model.PostContemplationCalculation) []model.LeverageCalculation {
	if property == nil || termMonths <= 0 {
		return []model.LeverageCalculation{}
	}
	if contemplationMonth < 0 {
		contemplationMonth = 0
	}
	if contemplationMonth >= termMonths {
		return []model.LeverageCalculation{}
	}

	payments := make(map[int]decimal.Decimal, len(post))
	for _, row := range post {
		payments[row.Month] = row.PostContemplationInstallment
	}

	gross, net := PropertyRevenue(*property)
	investment := property.InitialValue.Mul(DownPaymentRatio)
	appreciation := one.Add(property.AnnualAppreciationPct.Div(hundred))
	value := property.InitialValue
	cumulative := decimal.Zero

	rows := make([]model.LeverageCalculation, 0, termMonths-contemplationMonth)
	for m := contemplationMonth + 1; m <= termMonths; m++ {
		if (m-contemplationMonth)%12 == 0 {
			value = value.Mul(appreciation)
		}

		payment, ok := payments[m]
		if !ok {
			payment = decimal.Zero
		}
		cash := net.Sub(payment)
		cumulative = cumulative.Add(cash)

		roi := decimal.Zero
		if !investment.IsZero() {
			roi = cumulative.Div(investment).Mul(hundred)
		}

		rows = append(rows, model.LeverageCalculation{
			Month:              m,
			GrossRevenue:       gross,
			NetRevenue:         net,
			InstallmentPayment: payment,
			CashFlow:           cash,
			CumulativeCashFlow: cumulative,
			ROI:                roi,
			PropertyValue:      value,
		})
	}
	return rows
}

// PropertyRevenue returns the monthly gross and net revenue of a property.
// Short-stay income is nightly rate times occupancy over a 30-day month,
// less the management fee and fixed costs; other types earn their rent less
// fixed costs.
func PropertyRevenue(p model.Property) (gross, net decimal.Decimal) {
	switch p.Type {
	case model.PropertyShortStay:
		gross = p.DailyRate.Mul(DaysPerMonth).Mul(p.OccupancyRatePct).Div(hundred)
		net = gross.Mul(one.Sub(ShortStayManagementFee)).Sub(p.FixedMonthlyCosts)
	case model.PropertyCommercial, model.PropertyResidential:
		gross = p.MonthlyRent
		net = gross.Sub(p.FixedMonthlyCosts)
	default:
		net = p.FixedMonthlyCosts.Neg()
	}
	return gross, net
}
