// Package export renders saved proposals as spreadsheet and PDF documents.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/crmsim/consortium-engine/internal/model"
)

// BuildProposalXLSX renders a proposal as a workbook with one sheet for the
// summary and one per monthly series.
func BuildProposalXLSX(p *model.Proposal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	f.SetSheetName("Sheet1", summarySheet)

	in := p.Input
	s := p.Result.Summary
	rows := [][2]any{
		{"Proposal", p.ID},
		{"Lead", p.LeadName},
		{"Created", p.CreatedAt.Format(time.RFC3339)},
		{"Administrator", in.Administrator.Name},
		{"Product", in.Product.Name},
		{"Credit", money(in.Product.NominalCreditValue)},
		{"Term (months)", in.Product.TermMonths},
		{"Installment type", string(in.InstallmentType)},
		{"Contemplation month", in.ContemplationMonth},
		{"Total paid", money(s.TotalPaidByConsortium)},
		{"Final credit", money(s.FinalCreditValue)},
		{"Paid (% of credit)", money(s.PercentagePaidByConsortium)},
		{"Advance payment", money(s.AdvancePayment)},
		{"Embedded bid", money(s.EmbeddedBid)},
		{"Net credit received", money(s.NetCreditReceived)},
		{"Capital gain", money(s.TotalCapitalGain)},
		{"Total cash flow", money(s.TotalCashFlow)},
		{"Final ROI (%)", money(s.FinalROI)},
	}
	_ = f.SetCellValue(summarySheet, "A1", "Consortium Proposal")
	for i, row := range rows {
		r := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), row[1])
	}

	schedule := make([][]any, 0, len(p.Result.Schedule))
	for _, c := range p.Result.Schedule {
		schedule = append(schedule, []any{c.Month, money(c.CreditValue), money(c.TotalTaxes),
			money(c.FullInstallment), money(c.HalfInstallment), money(c.ReducedInstallment), c.Indexed})
	}
	if err := writeTable(f, "schedule",
		[]string{"Month", "Credit", "Taxes", "Full", "Half", "Reduced", "Indexed"}, schedule); err != nil {
		return nil, err
	}

	post := make([][]any, 0, len(p.Result.PostContemplation))
	for _, c := range p.Result.PostContemplation {
		post = append(post, []any{c.Month, money(c.RemainingBalance), money(c.PostContemplationInstallment),
			money(c.PaidAmount), c.RemainingMonths})
	}
	if err := writeTable(f, "post_contemplation",
		[]string{"Month", "Remaining balance", "Installment", "Paid", "Remaining months"}, post); err != nil {
		return nil, err
	}

	gain := make([][]any, 0, len(p.Result.CapitalGain))
	for _, c := range p.Result.CapitalGain {
		gain = append(gain, []any{c.Month, money(c.PurchaseCost), money(c.MonthlyProfit),
			money(c.ProfitPercentage), money(c.TotalProfit)})
	}
	if err := writeTable(f, "capital_gain",
		[]string{"Month", "Purchase cost", "Profit", "Profit (%)", "Total profit"}, gain); err != nil {
		return nil, err
	}

	leverage := make([][]any, 0, len(p.Result.Leverage))
	for _, c := range p.Result.Leverage {
		leverage = append(leverage, []any{c.Month, money(c.GrossRevenue), money(c.NetRevenue),
			money(c.InstallmentPayment), money(c.CashFlow), money(c.CumulativeCashFlow),
			money(c.ROI), money(c.PropertyValue)})
	}
	if err := writeTable(f, "leverage",
		[]string{"Month", "Gross revenue", "Net revenue", "Installment", "Cash flow", "Cumulative", "ROI (%)", "Property value"},
		leverage); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// BuildProposalPDF renders a one-page proposal with the summary and the
// first year of installments.
func BuildProposalPDF(p *model.Proposal) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()
	// Core fonts are cp1252; names are UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	in := p.Input
	s := p.Result.Summary

	pdf.Cell(0, 8, "Consortium Proposal")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	lines := []string{
		fmt.Sprintf("Lead: %s", tr(p.LeadName)),
		fmt.Sprintf("Administrator: %s", tr(in.Administrator.Name)),
		fmt.Sprintf("Product: %s", tr(in.Product.Name)),
		fmt.Sprintf("Credit: %s over %d months", in.Product.NominalCreditValue.StringFixed(2), in.Product.TermMonths),
		fmt.Sprintf("Installment type: %s", in.InstallmentType),
		fmt.Sprintf("Contemplation month: %d", in.ContemplationMonth),
		fmt.Sprintf("Generated: %s", p.CreatedAt.Format(time.RFC3339)),
	}
	for _, line := range lines {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Summary")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	summary := [][2]string{
		{"Total paid", s.TotalPaidByConsortium.StringFixed(2)},
		{"Final credit", s.FinalCreditValue.StringFixed(2)},
		{"Paid (% of credit)", s.PercentagePaidByConsortium.StringFixed(2)},
		{"Advance payment", s.AdvancePayment.StringFixed(2)},
		{"Embedded bid", s.EmbeddedBid.StringFixed(2)},
		{"Net credit received", s.NetCreditReceived.StringFixed(2)},
		{"Capital gain", s.TotalCapitalGain.StringFixed(2)},
		{"Total cash flow", s.TotalCashFlow.StringFixed(2)},
		{"Final ROI (%)", s.FinalROI.StringFixed(2)},
	}
	for _, row := range summary {
		pdf.CellFormat(70, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, row[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Credit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Installment", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Indexed", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, c := range p.Result.Schedule {
		if i == 12 {
			break
		}
		indexed := ""
		if c.Indexed {
			indexed = "yes"
		}
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", c.Month), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, c.CreditValue.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, c.Installment(in.InstallmentType).StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, indexed, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// money rounds to cents for presentation.
func money(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}
