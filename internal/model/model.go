// Package model defines the domain types shared across the consortium engine.
// All monetary values and percentages use shopspring/decimal, never float64.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndexType is the inflation index an administrator uses for the annual
// credit update.
type IndexType string

const (
	IndexIPCA IndexType = "IPCA"
	IndexINCC IndexType = "INCC"
	IndexIGPM IndexType = "IGPM"
)

// InstallmentType selects which installment variant the participant pays
// until contemplation.
type InstallmentType string

const (
	InstallmentFull    InstallmentType = "full"
	InstallmentHalf    InstallmentType = "half"
	InstallmentReduced InstallmentType = "reduced"
)

// PropertyType drives how property income is modelled.
type PropertyType string

const (
	PropertyShortStay   PropertyType = "short-stay"
	PropertyCommercial  PropertyType = "commercial"
	PropertyResidential PropertyType = "residential"
)

// Valid reports whether i is a known index.
func (i IndexType) Valid() bool {
	switch i {
	case IndexIPCA, IndexINCC, IndexIGPM:
		return true
	}
	return false
}

// Valid reports whether t is a known installment variant.
func (t InstallmentType) Valid() bool {
	switch t {
	case InstallmentFull, InstallmentHalf, InstallmentReduced:
		return true
	}
	return false
}

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyShortStay, PropertyCommercial, PropertyResidential:
		return true
	}
	return false
}

// BidKind classifies the bid types an administrator accepts.
type BidKind string

const (
	BidFree     BidKind = "free"
	BidEmbedded BidKind = "embedded"
	BidFixed    BidKind = "fixed"
)

// Valid reports whether k is a known bid kind.
func (k BidKind) Valid() bool {
	switch k {
	case BidFree, BidEmbedded, BidFixed:
		return true
	}
	return false
}

// BidType describes one bid modality offered by an administrator.
type BidType struct {
	Name       string          `json:"name"`
	Kind       BidKind         `json:"kind"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Administrator is the consortium administrator configuration.
type Administrator struct {
	ID                    string          `json:"id" db:"id"`
	CompanyID             string          `json:"company_id" db:"company_id"`
	Name                  string          `json:"name" db:"name"`
	UpdateIndex           IndexType       `json:"update_index" db:"update_index"`
	UpdateMonth           int             `json:"update_month" db:"update_month"` // 1-12
	UpdateGracePeriod     int             `json:"update_grace_period" db:"update_grace_period"`
	MaxEmbeddedPercentage decimal.Decimal `json:"max_embedded_percentage" db:"max_embedded_percentage"`
	AvailableBidTypes     []BidType       `json:"available_bid_types" db:"available_bid_types"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
}

// Product is a consortium plan sold by an administrator.
type Product struct {
	ID                  string          `json:"id" db:"id"`
	CompanyID           string          `json:"company_id" db:"company_id"`
	AdministratorID     string          `json:"administrator_id" db:"administrator_id"`
	Name                string          `json:"name" db:"name"`
	NominalCreditValue  decimal.Decimal `json:"nominal_credit_value" db:"nominal_credit_value"`
	TermMonths          int             `json:"term_months" db:"term_months"`
	AdminTaxPct         decimal.Decimal `json:"admin_tax_pct" db:"admin_tax_pct"`
	ReserveFundPct      decimal.Decimal `json:"reserve_fund_pct" db:"reserve_fund_pct"`
	InsurancePct        decimal.Decimal `json:"insurance_pct" db:"insurance_pct"`
	ReducedPercentage   decimal.Decimal `json:"reduced_percentage" db:"reduced_percentage"`
	AdvanceInstallments int             `json:"advance_installments" db:"advance_installments"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
}

// Property is an income-producing asset acquired with the contemplated credit.
// Short-stay properties use DailyRate and OccupancyRatePct; the other types
// use MonthlyRent.
type Property struct {
	ID                    string          `json:"id" db:"id"`
	CompanyID             string          `json:"company_id" db:"company_id"`
	Name                  string          `json:"name" db:"name"`
	Type                  PropertyType    `json:"type" db:"type"`
	InitialValue          decimal.Decimal `json:"initial_value" db:"initial_value"`
	DailyRate             decimal.Decimal `json:"daily_rate" db:"daily_rate"`
	OccupancyRatePct      decimal.Decimal `json:"occupancy_rate_pct" db:"occupancy_rate_pct"`
	MonthlyRent           decimal.Decimal `json:"monthly_rent" db:"monthly_rent"`
	FixedMonthlyCosts     decimal.Decimal `json:"fixed_monthly_costs" db:"fixed_monthly_costs"`
	AnnualAppreciationPct decimal.Decimal `json:"annual_appreciation_pct" db:"annual_appreciation_pct"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
}

// InstallmentCalculation is one month of the amortization schedule.
type InstallmentCalculation struct {
	Month              int             `json:"month"`
	CreditValue        decimal.Decimal `json:"credit_value"`
	AdminTax           decimal.Decimal `json:"admin_tax"`
	ReserveFund        decimal.Decimal `json:"reserve_fund"`
	Insurance          decimal.Decimal `json:"insurance"`
	TotalTaxes         decimal.Decimal `json:"total_taxes"`
	FullInstallment    decimal.Decimal `json:"full_installment"`
	HalfInstallment    decimal.Decimal `json:"half_installment"`
	ReducedInstallment decimal.Decimal `json:"reduced_installment"`
	Indexed            bool            `json:"indexed"` // credit was updated this month
}

// Installment returns the installment variant selected by t.
func (c InstallmentCalculation) Installment(t InstallmentType) decimal.Decimal {
	switch t {
	case InstallmentHalf:
		return c.HalfInstallment
	case InstallmentReduced:
		return c.ReducedInstallment
	case InstallmentFull:
		return c.FullInstallment
	}
	return decimal.Zero
}

// PostContemplationCalculation is one month after contemplation.
type PostContemplationCalculation struct {
	Month                        int             `json:"month"`
	RemainingBalance             decimal.Decimal `json:"remaining_balance"`
	PostContemplationInstallment decimal.Decimal `json:"post_contemplation_installment"`
	PaidAmount                   decimal.Decimal `json:"paid_amount"`
	RemainingMonths              int             `json:"remaining_months"`
}

// CapitalGainCalculation models the profit of buying credit rights at a
// discount, month by month from the purchase month.
type CapitalGainCalculation struct {
	Month            int             `json:"month"`
	PurchaseCost     decimal.Decimal `json:"purchase_cost"`
	MonthlyProfit    decimal.Decimal `json:"monthly_profit"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
}

// LeverageCalculation is one month of property income against the
// post-contemplation installment.
type LeverageCalculation struct {
	Month              int             `json:"month"`
	GrossRevenue       decimal.Decimal `json:"gross_revenue"`
	NetRevenue         decimal.Decimal `json:"net_revenue"`
	InstallmentPayment decimal.Decimal `json:"installment_payment"`
	CashFlow           decimal.Decimal `json:"cash_flow"`
	CumulativeCashFlow decimal.Decimal `json:"cumulative_cash_flow"`
	ROI                decimal.Decimal `json:"roi"`
	PropertyValue      decimal.Decimal `json:"property_value"`
}

// SummaryIndicators are the headline numbers of a simulation.
type SummaryIndicators struct {
	TotalPaidByConsortium      decimal.Decimal `json:"total_paid_by_consortium"`
	FinalCreditValue           decimal.Decimal `json:"final_credit_value"`
	TotalCapitalGain           decimal.Decimal `json:"total_capital_gain"`
	TotalCashFlow              decimal.Decimal `json:"total_cash_flow"`
	FinalROI                   decimal.Decimal `json:"final_roi"`
	PercentagePaidByConsortium decimal.Decimal `json:"percentage_paid_by_consortium"`
	AdvancePayment             decimal.Decimal `json:"advance_payment"`
	EmbeddedBid                decimal.Decimal `json:"embedded_bid"`
	NetCreditReceived          decimal.Decimal `json:"net_credit_received"`
}

// SimulationInput is the full input tuple of one simulation run.
type SimulationInput struct {
	Administrator            Administrator   `json:"administrator"`
	Product                  Product         `json:"product"`
	Property                 *Property       `json:"property,omitempty"`
	ContemplationMonth       int             `json:"contemplation_month"`
	InstallmentType          InstallmentType `json:"installment_type"`
	CapitalGainDiscount      decimal.Decimal `json:"capital_gain_discount"`
	CapitalGainPurchaseMonth int             `json:"capital_gain_purchase_month,omitempty"` // 0 → contemplation month
	EmbeddedBidPct           decimal.Decimal `json:"embedded_bid_pct"`
}

// SimulationResult holds every series the engine produces plus the summary.
type SimulationResult struct {
	Schedule          []InstallmentCalculation       `json:"schedule"`
	PostContemplation []PostContemplationCalculation `json:"post_contemplation"`
	CapitalGain       []CapitalGainCalculation       `json:"capital_gain"`
	Leverage          []LeverageCalculation          `json:"leverage"`
	Summary           SummaryIndicators              `json:"summary"`
}

// Proposal is a saved simulation for a lead, scoped to a company.
type Proposal struct {
	ID        string           `json:"id" db:"id"`
	CompanyID string           `json:"company_id" db:"company_id"`
	LeadName  string           `json:"lead_name" db:"lead_name"`
	Input     SimulationInput  `json:"input" db:"input"`
	Result    SimulationResult `json:"result" db:"result"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
