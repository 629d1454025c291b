// Package validation sanitises catalog records and simulation inputs at the
// service edge. The simulation engine does not validate its inputs; callers
// run these checks first and reject bad requests with a 400.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
	"github.com/crmsim/consortium-engine/internal/simulation"
)

// MaxTermMonths bounds a product's term. Runs allocate one row per month.
const MaxTermMonths = 600

var (
	ErrInvalidIndex           = errors.New("validation: unsupported update index")
	ErrInvalidUpdateMonth     = errors.New("validation: update month must be between 1 and 12")
	ErrNegativeGracePeriod    = errors.New("validation: grace period must not be negative")
	ErrInvalidBidType         = errors.New("validation: unsupported bid type")
	ErrNonPositiveCredit      = errors.New("validation: nominal credit value must be positive")
	ErrNonPositiveTerm        = errors.New("validation: term must be positive")
	ErrTermTooLong            = fmt.Errorf("validation: term must not exceed %d months", MaxTermMonths)
	ErrNegativePercentage     = errors.New("validation: percentages must not be negative")
	ErrInvalidInstallmentType = errors.New("validation: installment type must be full, half or reduced")
	ErrInvalidPropertyType    = errors.New("validation: property type must be short-stay, commercial or residential")
	ErrInvalidContemplation   = errors.New("validation: contemplation month must be at least 1")
	ErrInvalidPurchaseMonth   = errors.New("validation: capital gain purchase month outside the term")
	ErrMissingName            = errors.New("validation: name is required")
)

var rejections = []error{
	ErrInvalidIndex, ErrInvalidUpdateMonth, ErrNegativeGracePeriod, ErrInvalidBidType,
	ErrNonPositiveCredit, ErrNonPositiveTerm, ErrTermTooLong, ErrNegativePercentage, ErrInvalidInstallmentType,
	ErrInvalidPropertyType, ErrInvalidContemplation, ErrInvalidPurchaseMonth, ErrMissingName,
	simulation.ErrEmbeddedBidUnavailable, simulation.ErrEmbeddedBidExceeded, simulation.ErrNegativeBid,
}

// IsRejection reports whether err came from one of the checks in this
// package, meaning the request itself is bad.
func IsRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseInstallmentType normalises a request value. Empty means full.
func ParseInstallmentType(s string) (model.InstallmentType, error) {
	t := model.InstallmentType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return model.InstallmentFull, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInstallmentType, s)
	}
	return t, nil
}

// ParseIndex normalises an update index value.
func ParseIndex(s string) (model.IndexType, error) {
	idx := model.IndexType(strings.ToUpper(strings.TrimSpace(s)))
	if !idx.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidIndex, s)
	}
	return idx, nil
}

// Administrator checks an administrator record.
func Administrator(a model.Administrator) error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrMissingName
	}
	if !a.UpdateIndex.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidIndex, a.UpdateIndex)
	}
	if a.UpdateMonth < 1 || a.UpdateMonth > 12 {
		return fmt.Errorf("%w: got %d", ErrInvalidUpdateMonth, a.UpdateMonth)
	}
	if a.UpdateGracePeriod < 0 {
		return ErrNegativeGracePeriod
	}
	if a.MaxEmbeddedPercentage.IsNegative() {
		return fmt.Errorf("%w: max embedded percentage", ErrNegativePercentage)
	}
	for _, bt := range a.AvailableBidTypes {
		if !bt.Kind.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidBidType, bt.Kind)
		}
		if bt.Percentage.IsNegative() {
			return fmt.Errorf("%w: bid type %s", ErrNegativePercentage, bt.Name)
		}
	}
	return nil
}

// Product checks a product record.
func Product(p model.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if !p.NominalCreditValue.IsPositive() {
		return ErrNonPositiveCredit
	}
	if p.TermMonths <= 0 {
		return ErrNonPositiveTerm
	}
	if p.TermMonths > MaxTermMonths {
		return fmt.Errorf("%w: got %d", ErrTermTooLong, p.TermMonths)
	}
	if p.AdvanceInstallments < 0 {
		return fmt.Errorf("%w: advance installments", ErrNegativePercentage)
	}
	return nonNegative(map[string]decimal.Decimal{
		"admin tax":          p.AdminTaxPct,
		"reserve fund":       p.ReserveFundPct,
		"insurance":          p.InsurancePct,
		"reduced percentage": p.ReducedPercentage,
	})
}

// Property checks a property record.
func Property(p model.Property) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPropertyType, p.Type)
	}
	return nonNegative(map[string]decimal.Decimal{
		"initial value":       p.InitialValue,
		"daily rate":          p.DailyRate,
		"occupancy rate":      p.OccupancyRatePct,
		"monthly rent":        p.MonthlyRent,
		"fixed monthly costs": p.FixedMonthlyCosts,
	})
}

// Input checks a full simulation input. Names are not required here since
// inline configurations may be anonymous.
func Input(in model.SimulationInput) error {
	admin := in.Administrator
	if admin.Name == "" {
		admin.Name = "-"
	}
	if err := Administrator(admin); err != nil {
		return err
	}

	product := in.Product
	if product.Name == "" {
		product.Name = "-"
	}
	if err := Product(product); err != nil {
		return err
	}

	if in.Property != nil {
		property := *in.Property
		if property.Name == "" {
			property.Name = "-"
		}
		if err := Property(property); err != nil {
			return err
		}
	}

	if in.InstallmentType != "" && !in.InstallmentType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidInstallmentType, in.InstallmentType)
	}
	if in.ContemplationMonth < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidContemplation, in.ContemplationMonth)
	}
	if in.CapitalGainDiscount.IsNegative() {
		return fmt.Errorf("%w: capital gain discount", ErrNegativePercentage)
	}
	if in.CapitalGainPurchaseMonth < 0 || in.CapitalGainPurchaseMonth > in.Product.TermMonths {
		return fmt.Errorf("%w: got %d", ErrInvalidPurchaseMonth, in.CapitalGainPurchaseMonth)
	}

	if _, err := simulation.EmbeddedBid(in.Product.NominalCreditValue, in.EmbeddedBidPct, in.Administrator); err != nil {
		return err
	}
	return nil
}

func nonNegative(fields map[string]decimal.Decimal) error {
	for name, v := range fields {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativePercentage, name)
		}
	}
	return nil
}
