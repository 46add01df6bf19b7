package pricing

import (
	"fmt"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"

	"github.com/shopspring/decimal"
)

// BreakdownInput is the quote request for a booking's pricing. The applied
// loyalty credit is bounded to real availability by the caller; this builder
// does not read the ledger.
type BreakdownInput struct {
	ServicePrice      int64 // minor units
	AdvancePercent    int64 // 1-100
	RetentionAmount   int64
	DistanceKM        float64
	RatePerKM         *int64 // minor units per km, nil = no travel fee
	AppliedCredits    int64
	PlatformFeePercent int64 // 0 means use the default
}

// BreakdownBuilder computes the full price breakdown from a service's base
// price and a devotee's applied credits. Computed once at confirmation and
// frozen; the settlement split is derived later from the frozen result so
// pricing policy and payout policy can evolve independently.
type BreakdownBuilder struct {
	minServicePrice    int64
	platformFeePercent int64
}

func NewBreakdownBuilder(minServicePrice, platformFeePercent int64) *BreakdownBuilder {
	if platformFeePercent <= 0 {
		platformFeePercent = DefaultPlatformFeePercent
	}
	return &BreakdownBuilder{
		minServicePrice:    minServicePrice,
		platformFeePercent: platformFeePercent,
	}
}

// Build computes the breakdown. Credits can never drive the price negative:
// the discount is capped at the subtotal.
func (b *BreakdownBuilder) Build(in BreakdownInput) (*domain.PricingBreakdown, error) {
	if err := b.validate(in); err != nil {
		return nil, err
	}

	travelFee := int64(0)
	if in.RatePerKM != nil && in.DistanceKM > 0 {
		// Fee = distance × rate rounded to the nearest minor unit. Decimal
		// math keeps fractional distances away from float drift.
		travelFee = decimal.NewFromFloat(in.DistanceKM).
			Mul(decimal.NewFromInt(*in.RatePerKM)).
			Round(0).
			IntPart()
	}

	subtotal := in.ServicePrice + travelFee

	discount := in.AppliedCredits
	if discount > subtotal {
		discount = subtotal
	}

	finalPrice := subtotal - discount

	// Retention is withheld from the settled amount, so it must fit inside
	// the price that remains after the credit cap or the frozen breakdown
	// could never settle.
	if in.RetentionAmount > finalPrice {
		return nil, fmt.Errorf("%w: retention amount %d exceeds final price %d after discount", xerrors.ErrInvalidPricingInput, in.RetentionAmount, finalPrice)
	}

	advance := roundPercent(finalPrice, in.AdvancePercent)
	remaining := finalPrice - advance

	platformPct := in.PlatformFeePercent
	if platformPct == 0 {
		platformPct = b.platformFeePercent
	}

	return &domain.PricingBreakdown{
		ServicePrice:      in.ServicePrice,
		TravelFee:         travelFee,
		DiscountApplied:   discount,
		LoyaltyCreditUsed: discount,
		Subtotal:          subtotal,
		PlatformFee:       roundPercent(finalPrice-in.RetentionAmount, platformPct),
		FinalPrice:        finalPrice,
		AdvanceAmount:     advance,
		RemainingAmount:   remaining,
		RetentionAmount:   in.RetentionAmount,
	}, nil
}

func (b *BreakdownBuilder) validate(in BreakdownInput) error {
	if in.AdvancePercent < 1 || in.AdvancePercent > 100 {
		return fmt.Errorf("%w: advance percentage out of range (1-100): %d", xerrors.ErrInvalidPricingInput, in.AdvancePercent)
	}
	if in.ServicePrice < b.minServicePrice {
		return fmt.Errorf("%w: service price %d below minimum %d", xerrors.ErrInvalidPricingInput, in.ServicePrice, b.minServicePrice)
	}
	if in.AppliedCredits < 0 {
		return fmt.Errorf("%w: applied credits must not be negative", xerrors.ErrInvalidPricingInput)
	}
	if in.RetentionAmount < 0 {
		return fmt.Errorf("%w: retention amount must not be negative", xerrors.ErrInvalidPricingInput)
	}
	if in.DistanceKM < 0 {
		return fmt.Errorf("%w: distance must not be negative", xerrors.ErrInvalidPricingInput)
	}
	return nil
}
