package simulation

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
)

var (
	// ErrEmbeddedBidUnavailable is returned when the administrator offers no
	// embedded bid modality.
	ErrEmbeddedBidUnavailable = errors.New("simulation: administrator does not accept embedded bids")

	// ErrEmbeddedBidExceeded is returned when the bid is above the
	// administrator's maximum embedded percentage.
	ErrEmbeddedBidExceeded = errors.New("simulation: embedded bid exceeds administrator maximum")

	// ErrNegativeBid is returned for a bid percentage below zero.
	ErrNegativeBid = errors.New("simulation: bid percentage must not be negative")
)

// EmbeddedBid returns the part of the credit used to fund an embedded bid of
// bidPct percent. A zero bid costs nothing and is always allowed.
func EmbeddedBid(creditValue, bidPct decimal.Decimal, admin model.Administrator) (decimal.Decimal, error) {
	if bidPct.IsZero() {
		return decimal.Zero, nil
	}
	if bidPct.IsNegative() {
		return decimal.Zero, ErrNegativeBid
	}
	if !AcceptsEmbeddedBid(admin) {
		return decimal.Zero, ErrEmbeddedBidUnavailable
	}
	if bidPct.GreaterThan(admin.MaxEmbeddedPercentage) {
		return decimal.Zero, ErrEmbeddedBidExceeded
	}
	return percentOf(creditValue, bidPct), nil
}

// AcceptsEmbeddedBid reports whether admin lists an embedded bid type.
func AcceptsEmbeddedBid(admin model.Administrator) bool {
	for _, bt := range admin.AvailableBidTypes {
		if bt.Kind == model.BidEmbedded {
			return true
		}
	}
	return false
}
