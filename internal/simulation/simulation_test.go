package simulation

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func approx(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(d(0.000001))
}

func referenceAdmin() model.Administrator {
	return model.Administrator{
		UpdateIndex:           model.IndexIPCA,
		UpdateMonth:           8,
		UpdateGracePeriod:     12,
		MaxEmbeddedPercentage: d(30),
		AvailableBidTypes: []model.BidType{
			{Name: "Lance livre", Kind: model.BidFree},
			{Name: "Lance embutido", Kind: model.BidEmbedded, Percentage: d(30)},
		},
	}
}

func referenceProduct() model.Product {
	return model.Product{
		NominalCreditValue:  d(300000),
		TermMonths:          240,
		AdminTaxPct:         d(25),
		ReserveFundPct:      d(3),
		InsurancePct:        d(2),
		ReducedPercentage:   d(50),
		AdvanceInstallments: 2,
	}
}

func shortStay() *model.Property {
	return &model.Property{
		Type:                  model.PropertyShortStay,
		InitialValue:          d(500000),
		DailyRate:             d(150),
		OccupancyRatePct:      d(80),
		FixedMonthlyCosts:     d(800),
		AnnualAppreciationPct: d(5),
	}
}

// --- Schedule generator ---

func TestSchedule_LengthAndOrdering(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	if len(schedule) != 240 {
		t.Fatalf("expected 240 rows, got %d", len(schedule))
	}
	for i, row := range schedule {
		if row.Month != i+1 {
			t.Fatalf("row %d has month %d", i, row.Month)
		}
	}
}

func TestSchedule_FirstRow(t *testing.T) {
	row := GenerateSchedule(referenceAdmin(), referenceProduct())[0]

	if !row.CreditValue.Equal(d(300000)) {
		t.Errorf("expected credit 300000, got %s", row.CreditValue)
	}
	if !row.TotalTaxes.Equal(d(90000)) {
		t.Errorf("expected total taxes 90000, got %s", row.TotalTaxes)
	}
	if !row.AdminTax.Equal(d(75000)) || !row.ReserveFund.Equal(d(9000)) || !row.Insurance.Equal(d(6000)) {
		t.Errorf("unexpected charges: admin=%s reserve=%s insurance=%s",
			row.AdminTax, row.ReserveFund, row.Insurance)
	}
	if !row.FullInstallment.Equal(d(1625)) {
		t.Errorf("expected full installment 1625, got %s", row.FullInstallment)
	}
	if !row.HalfInstallment.Equal(d(1000)) {
		t.Errorf("expected half installment 1000, got %s", row.HalfInstallment)
	}
	// (300000 / 0.5 + 90000) / 240
	if !row.ReducedInstallment.Equal(d(2875)) {
		t.Errorf("expected reduced installment 2875, got %s", row.ReducedInstallment)
	}
}

func TestSchedule_FirstIndexationAfterGrace(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())

	// Month 8 is inside the grace period and month 12 is not an update month.
	for _, m := range []int{8, 12, 19} {
		if !schedule[m-1].CreditValue.Equal(d(300000)) {
			t.Errorf("month %d: expected 300000, got %s", m, schedule[m-1].CreditValue)
		}
		if schedule[m-1].Indexed {
			t.Errorf("month %d should not be indexed", m)
		}
	}
	if !schedule[19].Indexed || !schedule[19].CreditValue.Equal(d(318000)) {
		t.Errorf("month 20: expected indexed credit 318000, got %s (indexed=%v)",
			schedule[19].CreditValue, schedule[19].Indexed)
	}
	if !schedule[31].CreditValue.Equal(d(337080)) {
		t.Errorf("month 32: expected 337080, got %s", schedule[31].CreditValue)
	}
}

func TestSchedule_CreditMonotonicity(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	for i := 1; i < len(schedule); i++ {
		prev, cur := schedule[i-1].CreditValue, schedule[i].CreditValue
		if schedule[i].Indexed {
			if !cur.GreaterThan(prev) {
				t.Fatalf("month %d: indexation should increase credit (%s -> %s)", i+1, prev, cur)
			}
		} else if !cur.Equal(prev) {
			t.Fatalf("month %d: credit changed without indexation (%s -> %s)", i+1, prev, cur)
		}
	}
}

func TestSchedule_UpdateMonthTwelve(t *testing.T) {
	admin := referenceAdmin()
	admin.UpdateMonth = 12
	admin.UpdateGracePeriod = 0
	schedule := GenerateSchedule(admin, referenceProduct())

	if !schedule[11].Indexed || schedule[10].Indexed {
		t.Errorf("expected first update on month 12")
	}
	if !schedule[23].Indexed {
		t.Errorf("expected second update on month 24")
	}
}

func TestSchedule_ConfiguredRate(t *testing.T) {
	engine := NewEngine(IndexRates{model.IndexIPCA: d(0.1)})
	schedule := engine.Schedule(referenceAdmin(), referenceProduct())
	if !schedule[19].CreditValue.Equal(d(330000)) {
		t.Errorf("expected 330000 with a 10%% rate, got %s", schedule[19].CreditValue)
	}
}

func TestSchedule_ZeroTerm(t *testing.T) {
	product := referenceProduct()
	product.TermMonths = 0
	schedule := GenerateSchedule(referenceAdmin(), product)
	if schedule == nil || len(schedule) != 0 {
		t.Errorf("expected empty non-nil schedule, got %v", schedule)
	}
}

func TestSchedule_ZeroReducedPercentage(t *testing.T) {
	product := referenceProduct()
	product.ReducedPercentage = decimal.Zero
	row := GenerateSchedule(referenceAdmin(), product)[0]
	if !row.ReducedInstallment.IsZero() {
		t.Errorf("expected zero reduced installment, got %s", row.ReducedInstallment)
	}
}

func TestSchedule_Idempotent(t *testing.T) {
	a, _ := json.Marshal(GenerateSchedule(referenceAdmin(), referenceProduct()))
	b, _ := json.Marshal(GenerateSchedule(referenceAdmin(), referenceProduct()))
	if string(a) != string(b) {
		t.Error("two runs with identical input should produce identical output")
	}
}

// --- Post-contemplation recalculator ---

func TestRecalculate_BalanceConservation(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	post := Recalculate(schedule, 24, model.InstallmentFull)

	if len(post) != 216 {
		t.Fatalf("expected 216 rows, got %d", len(post))
	}

	// Months 1-19 pay 1625, months 20-24 pay (318000+95400)/240 = 1722.5.
	totalPaid := d(1625 * 19).Add(d(1722.5 * 5))
	first := post[0]
	paidAtContemplation := first.PaidAmount.Sub(first.PostContemplationInstallment)
	if !paidAtContemplation.Equal(totalPaid) {
		t.Fatalf("expected %s paid at contemplation, got %s", totalPaid, paidAtContemplation)
	}

	balanceAtContemplation := first.RemainingBalance.Add(first.PostContemplationInstallment)
	if !approx(totalPaid.Add(balanceAtContemplation), schedule[23].CreditValue) {
		t.Errorf("paid + balance should equal credit at contemplation: %s + %s != %s",
			totalPaid, balanceAtContemplation, schedule[23].CreditValue)
	}

	expectedInstallment := d(318000).Sub(totalPaid).Div(d(216))
	if !approx(first.PostContemplationInstallment, expectedInstallment) {
		t.Errorf("expected installment %s, got %s", expectedInstallment, first.PostContemplationInstallment)
	}
	if first.Month != 25 || first.RemainingMonths != 215 {
		t.Errorf("unexpected first row: month=%d remaining=%d", first.Month, first.RemainingMonths)
	}
}

func TestRecalculate_RowInvariant(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	for _, it := range []model.InstallmentType{model.InstallmentFull, model.InstallmentHalf, model.InstallmentReduced} {
		post := Recalculate(schedule, 30, it)
		for _, row := range post {
			credit := schedule[row.Month-1].CreditValue
			if !approx(row.PaidAmount.Add(row.RemainingBalance), credit) {
				t.Fatalf("%s month %d: paid %s + balance %s != credit %s",
					it, row.Month, row.PaidAmount, row.RemainingBalance, credit)
			}
		}
		last := post[len(post)-1]
		if !approx(last.RemainingBalance, decimal.Zero) || last.RemainingMonths != 0 {
			t.Errorf("%s: expected zero final balance, got %s (%d months left)",
				it, last.RemainingBalance, last.RemainingMonths)
		}
	}
}

func TestRecalculate_FixedUntilIndexation(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	post := Recalculate(schedule, 24, model.InstallmentFull)

	// Months 25-31 share one installment; month 32 is re-indexed.
	base := post[0].PostContemplationInstallment
	for _, row := range post[:7] {
		if !row.PostContemplationInstallment.Equal(base) {
			t.Fatalf("month %d installment changed before indexation", row.Month)
		}
	}
	if post[7].Month != 32 || post[7].PostContemplationInstallment.Equal(base) {
		t.Errorf("expected a new installment at month 32, got %s", post[7].PostContemplationInstallment)
	}

	paidBefore := post[6].PaidAmount
	expected := d(337080).Sub(paidBefore).Div(d(209))
	if !approx(post[7].PostContemplationInstallment, expected) {
		t.Errorf("month 32: expected %s, got %s", expected, post[7].PostContemplationInstallment)
	}
}

func TestRecalculate_Boundaries(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	for _, c := range []int{0, -1, 240, 300} {
		if got := Recalculate(schedule, c, model.InstallmentFull); len(got) != 0 {
			t.Errorf("contemplation %d: expected empty, got %d rows", c, len(got))
		}
	}
	if got := Recalculate(nil, 1, model.InstallmentFull); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result for empty schedule")
	}
	if got := Recalculate(schedule, 239, model.InstallmentFull); len(got) != 1 {
		t.Errorf("contemplation 239: expected 1 row, got %d", len(got))
	}
}

// --- Capital gain projector ---

func TestCapitalGain_Formulas(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	gain := ProjectCapitalGain(schedule, 24, d(20))

	if len(gain) != 240-24+1 {
		t.Fatalf("expected %d rows, got %d", 240-24+1, len(gain))
	}

	first := gain[0]
	if !first.PurchaseCost.Equal(d(254400)) {
		t.Errorf("expected purchase cost 254400, got %s", first.PurchaseCost)
	}
	if !first.TotalProfit.Equal(d(63600)) || !first.MonthlyProfit.Equal(d(63600)) {
		t.Errorf("expected profit 63600, got total=%s monthly=%s", first.TotalProfit, first.MonthlyProfit)
	}
	if !first.ProfitPercentage.Equal(d(25)) {
		t.Errorf("expected 25%% profit, got %s", first.ProfitPercentage)
	}
	if !gain[1].MonthlyProfit.Equal(d(31800)) {
		t.Errorf("month 25: expected monthly profit 31800, got %s", gain[1].MonthlyProfit)
	}
}

func TestCapitalGain_Boundaries(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	if got := ProjectCapitalGain(schedule, 24, decimal.Zero); len(got) != 0 {
		t.Errorf("zero discount: expected empty, got %d rows", len(got))
	}
	if got := ProjectCapitalGain(schedule, 0, d(10)); len(got) != 0 {
		t.Errorf("month 0: expected empty, got %d rows", len(got))
	}
	if got := ProjectCapitalGain(schedule, 241, d(10)); len(got) != 0 {
		t.Errorf("month 241: expected empty, got %d rows", len(got))
	}
	full := ProjectCapitalGain(schedule, 1, d(100))
	if !full[0].ProfitPercentage.IsZero() {
		t.Errorf("100%% discount: expected guarded zero percentage, got %s", full[0].ProfitPercentage)
	}
}

// --- Leverage projector ---

func TestPropertyRevenue_ShortStay(t *testing.T) {
	gross, net := PropertyRevenue(*shortStay())
	if !gross.Equal(d(3600)) {
		t.Errorf("expected gross 3600, got %s", gross)
	}
	if !net.Equal(d(2260)) {
		t.Errorf("expected net 2260, got %s", net)
	}
}

func TestPropertyRevenue_Rent(t *testing.T) {
	for _, pt := range []model.PropertyType{model.PropertyCommercial, model.PropertyResidential} {
		gross, net := PropertyRevenue(model.Property{Type: pt, MonthlyRent: d(4000), FixedMonthlyCosts: d(500)})
		if !gross.Equal(d(4000)) || !net.Equal(d(3500)) {
			t.Errorf("%s: expected 4000/3500, got %s/%s", pt, gross, net)
		}
	}
}

func TestLeverage_CashFlow(t *testing.T) {
	schedule := GenerateSchedule(referenceAdmin(), referenceProduct())
	post := Recalculate(schedule, 24, model.InstallmentFull)
	leverage := ProjectLeverage(shortStay(), 24, 240, post)

	if len(leverage) != 216 {
		t.Fatalf("expected 216 rows, got %d", len(leverage))
	}

	running := decimal.Zero
	for i, row := range leverage {
		if !row.InstallmentPayment.Equal(post[i].PostContemplationInstallment) {
			t.Fatalf("month %d: payment %s does not match schedule %s",
				row.Month, row.InstallmentPayment, post[i].PostContemplationInstallment)
		}
		if !row.CashFlow.Equal(d(2260).Sub(row.InstallmentPayment)) {
			t.Fatalf("month %d: unexpected cash flow %s", row.Month, row.CashFlow)
		}
		running = running.Add(row.CashFlow)
		if !row.CumulativeCashFlow.Equal(running) {
			t.Fatalf("month %d: cumulative %s != running %s", row.Month, row.CumulativeCashFlow, running)
		}
	}

	first := leverage[0]
	expectedROI := first.CumulativeCashFlow.Div(d(100000)).Mul(d(100))
	if !first.ROI.Equal(expectedROI) {
		t.Errorf("expected ROI %s, got %s", expectedROI, first.ROI)
	}
}

func TestLeverage_Appreciation(t *testing.T) {
	leverage := ProjectLeverage(shortStay(), 24, 240, nil)
	if !leverage[10].PropertyValue.Equal(d(500000)) {
		t.Errorf("month 35: expected 500000, got %s", leverage[10].PropertyValue)
	}
	if !leverage[11].PropertyValue.Equal(d(525000)) {
		t.Errorf("month 36: expected 525000 after one year, got %s", leverage[11].PropertyValue)
	}
	if !leverage[0].InstallmentPayment.IsZero() {
		t.Errorf("missing schedule rows should pay 0, got %s", leverage[0].InstallmentPayment)
	}
}

func TestLeverage_NoProperty(t *testing.T) {
	if got := ProjectLeverage(nil, 24, 240, nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil series without property")
	}
}

func TestLeverage_ZeroInitialValue(t *testing.T) {
	p := shortStay()
	p.InitialValue = decimal.Zero
	leverage := ProjectLeverage(p, 24, 240, nil)
	if !leverage[0].ROI.IsZero() {
		t.Errorf("expected guarded zero ROI, got %s", leverage[0].ROI)
	}
}

// --- Embedded bid ---

func TestEmbeddedBid(t *testing.T) {
	admin := referenceAdmin()

	amount, err := EmbeddedBid(d(300000), d(25), admin)
	if err != nil || !amount.Equal(d(75000)) {
		t.Errorf("expected 75000, got %s (%v)", amount, err)
	}
	if _, err := EmbeddedBid(d(300000), d(31), admin); err != ErrEmbeddedBidExceeded {
		t.Errorf("expected ErrEmbeddedBidExceeded, got %v", err)
	}
	if _, err := EmbeddedBid(d(300000), d(-1), admin); err != ErrNegativeBid {
		t.Errorf("expected ErrNegativeBid, got %v", err)
	}

	admin.AvailableBidTypes = []model.BidType{{Name: "Lance livre", Kind: model.BidFree}}
	if _, err := EmbeddedBid(d(300000), d(10), admin); err != ErrEmbeddedBidUnavailable {
		t.Errorf("expected ErrEmbeddedBidUnavailable, got %v", err)
	}
	if amount, err := EmbeddedBid(d(300000), decimal.Zero, admin); err != nil || !amount.IsZero() {
		t.Errorf("zero bid should always pass, got %s (%v)", amount, err)
	}
}

// --- Pipeline and summary ---

func referenceInput() model.SimulationInput {
	return model.SimulationInput{
		Administrator:       referenceAdmin(),
		Product:             referenceProduct(),
		Property:            shortStay(),
		ContemplationMonth:  24,
		InstallmentType:     model.InstallmentFull,
		CapitalGainDiscount: d(20),
		EmbeddedBidPct:      d(10),
	}
}

func TestRun_Summary(t *testing.T) {
	result := NewEngine(nil).Run(referenceInput())
	s := result.Summary

	lastPost := result.PostContemplation[len(result.PostContemplation)-1]
	if !s.TotalPaidByConsortium.Equal(lastPost.PaidAmount) {
		t.Errorf("total paid %s != last paid amount %s", s.TotalPaidByConsortium, lastPost.PaidAmount)
	}
	if !s.FinalCreditValue.Equal(result.Schedule[239].CreditValue) {
		t.Errorf("final credit %s != last schedule credit", s.FinalCreditValue)
	}
	if !s.TotalCapitalGain.Equal(result.CapitalGain[len(result.CapitalGain)-1].TotalProfit) {
		t.Errorf("unexpected total capital gain %s", s.TotalCapitalGain)
	}
	lastLev := result.Leverage[len(result.Leverage)-1]
	if !s.TotalCashFlow.Equal(lastLev.CumulativeCashFlow) || !s.FinalROI.Equal(lastLev.ROI) {
		t.Errorf("cash flow/ROI do not match the last leverage row")
	}
	expectedPct := s.TotalPaidByConsortium.Div(s.FinalCreditValue).Mul(d(100))
	if !s.PercentagePaidByConsortium.Equal(expectedPct) {
		t.Errorf("expected percentage %s, got %s", expectedPct, s.PercentagePaidByConsortium)
	}
	if !s.AdvancePayment.Equal(d(3250)) {
		t.Errorf("expected advance payment 3250, got %s", s.AdvancePayment)
	}
	if !s.EmbeddedBid.Equal(d(31800)) {
		t.Errorf("expected embedded bid 31800, got %s", s.EmbeddedBid)
	}
	if !s.NetCreditReceived.Equal(d(318000 - 31800)) {
		t.Errorf("expected net credit 286200, got %s", s.NetCreditReceived)
	}
}

func TestRun_NoProperty(t *testing.T) {
	in := referenceInput()
	in.Property = nil
	result := NewEngine(nil).Run(in)
	if len(result.Leverage) != 0 {
		t.Errorf("expected no leverage rows, got %d", len(result.Leverage))
	}
	if !result.Summary.FinalROI.IsZero() || !result.Summary.TotalCashFlow.IsZero() {
		t.Errorf("expected zero ROI and cash flow, got %s / %s",
			result.Summary.FinalROI, result.Summary.TotalCashFlow)
	}
}

func TestRun_ContemplationAtEndOfTerm(t *testing.T) {
	in := referenceInput()
	in.ContemplationMonth = 240
	result := NewEngine(nil).Run(in)

	if len(result.PostContemplation) != 0 || len(result.Leverage) != 0 {
		t.Fatalf("expected empty post-contemplation and leverage series")
	}
	total := decimal.Zero
	for _, row := range result.Schedule {
		total = total.Add(row.FullInstallment)
	}
	if !result.Summary.TotalPaidByConsortium.Equal(total) {
		t.Errorf("expected whole schedule paid (%s), got %s", total, result.Summary.TotalPaidByConsortium)
	}
}

func TestRun_DegenerateTerm(t *testing.T) {
	in := referenceInput()
	in.Product.TermMonths = 0
	result := NewEngine(nil).Run(in)

	if len(result.Schedule) != 0 || len(result.CapitalGain) != 0 {
		t.Fatalf("expected empty series for zero term")
	}
	if !result.Summary.FinalCreditValue.IsZero() || !result.Summary.PercentagePaidByConsortium.IsZero() {
		t.Errorf("expected zero summary, got %+v", result.Summary)
	}
}

func TestRun_DefaultsPurchaseMonthToContemplation(t *testing.T) {
	result := NewEngine(nil).Run(referenceInput())
	if result.CapitalGain[0].Month != 24 {
		t.Errorf("expected capital gain to start at month 24, got %d", result.CapitalGain[0].Month)
	}

	in := referenceInput()
	in.CapitalGainPurchaseMonth = 60
	result = NewEngine(nil).Run(in)
	if result.CapitalGain[0].Month != 60 {
		t.Errorf("expected capital gain to start at month 60, got %d", result.CapitalGain[0].Month)
	}
}

func TestRun_EmptyInstallmentTypeMeansFull(t *testing.T) {
	in := referenceInput()
	in.InstallmentType = ""
	a, _ := json.Marshal(NewEngine(nil).Run(in))
	b, _ := json.Marshal(NewEngine(nil).Run(referenceInput()))
	if string(a) != string(b) {
		t.Error("empty installment type should behave as full")
	}
}
