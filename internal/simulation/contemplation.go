package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

// Recalculate derives the installments due after contemplation.
//
// Up to the contemplation month the participant pays the selected variant.
// The rest of the credit is then split evenly over the remaining months. The
// installment stays fixed until the next indexation month, where the balance
// is recomputed against the indexed credit (credit - paid so far) and split
// again over the months left, the current one included.
//
// Every row satisfies PaidAmount + RemainingBalance == CreditValue for that
// month. The series is empty when the contemplation month is outside
// [1, term).
func Recalculate(schedule []model.InstallmentCalculation, contemplationMonth int, installmentType model.InstallmentType) []model.PostContemplationCalculation {
	term := len(schedule)
	if term == 0 || contemplationMonth < 1 || contemplationMonth >= term {
		return []model.PostContemplationCalculation{}
	}

	paid := decimal.Zero
	for _, row := range schedule[:contemplationMonth] {
		paid = paid.Add(row.Installment(installmentType))
	}

	remainingMonths := term - contemplationMonth
	balance := schedule[contemplationMonth-1].CreditValue.Sub(paid)
	installment := balance.Div(decimal.NewFromInt(int64(remainingMonths)))

	rows := make([]model.PostContemplationCalculation, 0, remainingMonths)
	for m := contemplationMonth + 1; m <= term; m++ {
		row := schedule[m-1]
		if row.Indexed {
			balance = row.CreditValue.Sub(paid)
			installment = balance.Div(decimal.NewFromInt(int64(term - m + 1)))
		}

		paid = paid.Add(installment)
		balance = balance.Sub(installment)

		rows = append(rows, model.PostContemplationCalculation{
			Month:                        m,
			RemainingBalance:             balance,
			PostContemplationInstallment: installment,
			PaidAmount:                   paid,
			RemainingMonths:              term - m,
		})
	}
	return rows
}
