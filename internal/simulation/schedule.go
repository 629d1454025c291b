package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

// GenerateSchedule builds the schedule with the default index rates.
func GenerateSchedule(admin model.Administrator, product model.Product) []model.InstallmentCalculation {
	return NewEngine(nil).Schedule(admin, product)
}

// Schedule computes one row per month of the product term.
//
// The credit value is indexed once a year, in the administrator's update
// month, after the grace period. Charges are percentages of the running
// credit value and each installment variant spreads principal plus charges
// over the whole term:
//
//	full    = (credit + taxes) / term
//	half    = (credit/2 + taxes) / term
//	reduced = (credit/(reducedPercentage/100) + taxes) / term
//
// The reduced principal divides by the reduced percentage; it does not
// subtract a discount. A zero reduced percentage yields a zero reduced
// installment.
func (e *Engine) Schedule(admin model.Administrator, product model.Product) []model.InstallmentCalculation {
	if product.TermMonths <= 0 {
		return []model.InstallmentCalculation{}
	}

	factor := one.Add(e.rates.Rate(admin.UpdateIndex))
	term := decimal.NewFromInt(int64(product.TermMonths))
	two := decimal.NewFromInt(2)

	var reducedRatio decimal.Decimal
	if !product.ReducedPercentage.IsZero() {
		reducedRatio = product.ReducedPercentage.Div(hundred)
	}

	credit := product.NominalCreditValue
	schedule := make([]model.InstallmentCalculation, 0, product.TermMonths)

	for m := 1; m <= product.TermMonths; m++ {
		indexed := isUpdateMonth(m, admin)
		if indexed {
			credit = credit.Mul(factor)
		}

		adminTax := percentOf(credit, product.AdminTaxPct)
		reserve := percentOf(credit, product.ReserveFundPct)
		insurance := percentOf(credit, product.InsurancePct)
		taxes := adminTax.Add(reserve).Add(insurance)

		reduced := decimal.Zero
		if !reducedRatio.IsZero() {
			reduced = credit.Div(reducedRatio).Add(taxes).Div(term)
		}

		schedule = append(schedule, model.InstallmentCalculation{
			Month:              m,
			CreditValue:        credit,
			AdminTax:           adminTax,
			ReserveFund:        reserve,
			Insurance:          insurance,
			TotalTaxes:         taxes,
			FullInstallment:    credit.Add(taxes).Div(term),
			HalfInstallment:    credit.Div(two).Add(taxes).Div(term),
			ReducedInstallment: reduced,
			Indexed:            indexed,
		})
	}
	return schedule
}

// isUpdateMonth reports whether month m (1-based from adhesion) triggers the
// annual credit update. The match is on month-of-year, (m-1)%12+1, rather
// than m%12: the two agree for update months 1 to 11, but m%12 never equals
// 12, so a December update month would otherwise never fire. Here it fires on
// months 12, 24, ...
func isUpdateMonth(m int, admin model.Administrator) bool {
	if m <= admin.UpdateGracePeriod {
		return false
	}
	return (m-1)%12+1 == admin.UpdateMonth
}
